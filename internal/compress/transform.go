// Package compress implements the prompt compression pipeline: a registry of
// named text transforms, a composer that chains them with per-stage error
// isolation, and a facade that resolves configured compression levels.
package compress

import (
	"strings"
	"unicode"
)

// Reversibility classifies how faithfully a transform's Decompress recovers
// the text its Compress produced.
type Reversibility string

const (
	// ReversibilityExact means Decompress(Compress(x)) == x byte for byte.
	ReversibilityExact Reversibility = "exact"
	// ReversibilityLossy means Decompress is a best-effort expansion; word
	// choice or spacing may differ from the original.
	ReversibilityLossy Reversibility = "lossy"
	// ReversibilityNone means Decompress returns its input unchanged.
	ReversibilityNone Reversibility = "none"
)

// Result is the outcome of a single transform operation. When Success is
// false, Text carries the stage input unchanged so the stage is safe to skip.
type Result struct {
	Success bool
	Text    string
	Metrics map[string]float64
	Err     string
}

// Transform is a single named bidirectional text operation. Implementations
// must be pure functions of their input: no I/O, no mutation of shared state,
// and no panics escaping either method.
type Transform interface {
	Name() string
	Reversibility() Reversibility
	Compress(text string) Result
	Decompress(text string) Result
}

// Canonical transform names.
const (
	NameBasic        = "basic"
	NameAbbreviation = "abbreviation"
	NameVowel        = "vowel"
	NameSymbol       = "symbol"
	NameGzip         = "gzip"
	NameLogarithmic  = "logarithmic"
)

func okResult(original, transformed string) Result {
	return Result{Success: true, Text: transformed, Metrics: ratioMetrics(original, transformed)}
}

func emptyResult() Result {
	return Result{Success: true, Text: "", Metrics: map[string]float64{}}
}

func failResult(input string, msg string) Result {
	return Result{Success: false, Text: input, Metrics: map[string]float64{}, Err: msg}
}

// ratioMetrics builds the measurements every stage reports.
func ratioMetrics(original, transformed string) map[string]float64 {
	m := map[string]float64{
		"original_length": float64(len(original)),
		"output_length":   float64(len(transformed)),
	}
	if len(original) > 0 {
		m["ratio"] = float64(len(transformed)) / float64(len(original))
	}
	return m
}

// matchCase applies the capitalization of the original word to a replacement.
func matchCase(original, replacement string) string {
	if original == "" || replacement == "" {
		return replacement
	}
	first := []rune(original)[0]
	if unicode.IsUpper(first) {
		r := []rune(replacement)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}
	return replacement
}

func pipelineContains(pipeline []string, name string) bool {
	for _, n := range pipeline {
		if n == name {
			return true
		}
	}
	return false
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiouAEIOU", r)
}
