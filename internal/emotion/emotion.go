// Package emotion maps caption text to an emotion label.
package emotion

// Neutral is the label that never triggers an overlay
const Neutral = "neutral"

// Labels is the label set, in tie-break order
var Labels = []string{
	"admiration", "amusement", "anger", "annoyance", "approval",
	"caring", "confusion", "curiosity", "desire", "disappointment",
	"disapproval", "disgust", "embarrassment", "excitement",
	"fear", "gratitude", "grief", "joy", "love",
	"nervousness", "optimism", "pride", "realization",
	"relief", "remorse", "sadness", "surprise", Neutral,
}

// Classifier labels a piece of text. Implementations return Neutral when
// unsure and must be safe for concurrent use.
type Classifier interface {
	Classify(text string) string
}

// NeutralClassifier labels everything neutral
type NeutralClassifier struct{}

// Classify always returns Neutral
func (NeutralClassifier) Classify(string) string {
	return Neutral
}

// IsLabel reports whether label belongs to the label set
func IsLabel(label string) bool {
	for _, l := range Labels {
		if l == label {
			return true
		}
	}
	return false
}
