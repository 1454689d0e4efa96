// Package subtitles reads caption files into timed text spans.
package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/keagan/reelforge/pkg/util"
)

// Span is one caption entry. Times are in seconds.
type Span struct {
	Start float64
	End   float64
	Text  string
}

// Duration returns End - Start
func (s Span) Duration() float64 {
	return s.End - s.Start
}

// WordCount returns the number of whitespace separated words in the text
func (s Span) WordCount() int {
	return len(strings.Fields(s.Text))
}

// Load parses the SRT file at path
func Load(path string) ([]Span, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitles: %w", err)
	}
	defer f.Close()

	spans, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return spans, nil
}

// Parse reads SRT entries: an index line, a "start --> end" line and one or
// more text lines, separated by blank lines. Text lines are joined with a
// space and entries without text are dropped.
func Parse(r io.Reader) ([]Span, error) {
	var spans []Span
	var cur *Span
	var text []string

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(text, " ")
			if cur.Text != "" {
				spans = append(spans, *cur)
			}
		}
		cur = nil
		text = text[:0]
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))

		switch {
		case line == "":
			flush()
		case cur == nil && strings.Contains(line, "-->"):
			start, end, err := parseTiming(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			cur = &Span{Start: start, End: end}
		case cur == nil:
			// index line
			if _, err := strconv.Atoi(line); err != nil {
				return nil, fmt.Errorf("line %d: expected entry index, got %q", lineNo, line)
			}
		default:
			text = append(text, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return spans, nil
}

func parseTiming(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)

	start, err := util.ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// position hints may follow the end time
	endField := strings.Fields(parts[1])
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("missing end time in %q", line)
	}
	end, err := util.ParseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("end before start in %q", line)
	}

	return start.Seconds(), end.Seconds(), nil
}
