package emotion

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Lexicon classifies text by keyword hits. The label with the most hits
// wins; ties go to the label listed first in Labels.
type Lexicon struct {
	words map[string][]string // word -> labels
}

// NewLexicon builds a classifier from label -> keywords
func NewLexicon(entries map[string][]string) (*Lexicon, error) {
	l := &Lexicon{words: make(map[string][]string)}
	for label, keywords := range entries {
		if !IsLabel(label) {
			return nil, fmt.Errorf("unknown emotion label %q", label)
		}
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			l.words[kw] = append(l.words[kw], label)
		}
	}
	return l, nil
}

// DefaultLexicon returns the built-in keyword classifier
func DefaultLexicon() *Lexicon {
	l, err := NewLexicon(defaultKeywords)
	if err != nil {
		panic(err)
	}
	return l
}

// LoadLexicon reads a YAML mapping of label to keyword list
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}

	var entries map[string][]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}

	return NewLexicon(entries)
}

// Classify returns the best matching label or Neutral
func (l *Lexicon) Classify(text string) string {
	hits := make(map[string]int)
	for _, tok := range tokenize(text) {
		for _, label := range l.words[tok] {
			hits[label]++
		}
	}

	best, bestHits := Neutral, 0
	for _, label := range Labels {
		if hits[label] > bestHits {
			best, bestHits = label, hits[label]
		}
	}
	return best
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

var defaultKeywords = map[string][]string{
	"admiration":     {"amazing", "incredible", "impressive", "brilliant", "legend", "respect"},
	"amusement":      {"lol", "funny", "hilarious", "haha", "lmao", "joke"},
	"anger":          {"angry", "furious", "hate", "rage", "mad", "livid"},
	"annoyance":      {"annoying", "ugh", "irritating", "seriously", "whatever"},
	"approval":       {"agree", "yes", "exactly", "approve", "correct"},
	"caring":         {"care", "careful", "hope", "safe", "support"},
	"confusion":      {"confused", "huh", "what", "why", "confusing", "understand"},
	"curiosity":      {"wonder", "curious", "how", "interesting", "secret"},
	"desire":         {"want", "wish", "need", "crave", "dream"},
	"disappointment": {"disappointed", "disappointing", "letdown", "unfortunately"},
	"disapproval":    {"wrong", "bad", "disagree", "never", "shouldn't"},
	"disgust":        {"gross", "disgusting", "nasty", "eww", "sick"},
	"embarrassment":  {"embarrassing", "awkward", "cringe", "ashamed"},
	"excitement":     {"excited", "wow", "insane", "hyped", "finally", "crazy"},
	"fear":           {"scared", "afraid", "terrifying", "scary", "horror", "panic"},
	"gratitude":      {"thanks", "thank", "grateful", "appreciate"},
	"grief":          {"died", "death", "mourn", "funeral", "lost"},
	"joy":            {"happy", "joy", "glad", "delighted", "smile", "fun"},
	"love":           {"love", "adore", "sweet", "beautiful", "heart"},
	"nervousness":    {"nervous", "anxious", "worried", "stress"},
	"optimism":       {"hopefully", "optimistic", "better", "soon", "believe"},
	"pride":          {"proud", "achievement", "accomplished", "earned"},
	"realization":    {"realized", "realize", "noticed", "turns", "suddenly"},
	"relief":         {"relieved", "phew", "relief", "finally"},
	"remorse":        {"sorry", "regret", "apologize", "mistake"},
	"sadness":        {"sad", "cry", "crying", "tears", "depressed", "alone"},
	"surprise":       {"surprised", "shocked", "unexpected", "omg", "whoa"},
}
