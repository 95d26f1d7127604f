package compress

import (
	"regexp"
	"strings"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// basicTransform collapses runs of whitespace to single spaces and trims the
// ends. Whitespace structure is discarded, so decompression returns its input
// unchanged.
type basicTransform struct{}

// NewBasic creates the whitespace normalization transform.
func NewBasic() Transform { return basicTransform{} }

func (basicTransform) Name() string                 { return NameBasic }
func (basicTransform) Reversibility() Reversibility { return ReversibilityNone }

func (basicTransform) Compress(text string) Result {
	if text == "" {
		return emptyResult()
	}
	out := strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
	return okResult(text, out)
}

func (basicTransform) Decompress(text string) Result {
	if text == "" {
		return emptyResult()
	}
	return Result{Success: true, Text: text, Metrics: map[string]float64{}}
}
