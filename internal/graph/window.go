package graph

import (
	"math"
	"strconv"
)

// Window is a half-open time range [Start, End) in seconds
type Window struct {
	Start float64
	End   float64
}

// Duration returns End - Start
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Contains reports whether t lies in [Start, End)
func (w Window) Contains(t float64) bool {
	return t >= w.Start && t < w.End
}

// Enable renders the window as an enable expression over t
func (w Window) Enable() string {
	return "gte(t," + num(w.Start) + ")*lt(t," + num(w.End) + ")"
}

// num formats seconds with microsecond resolution
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*1e6)/1e6, 'f', -1, 64)
}
