package compress

import "strings"

// vowelStoplist holds common words that stay readable only with their vowels.
var vowelStoplist = map[string]bool{
	"the": true, "that": true, "this": true, "with": true, "from": true,
	"have": true, "been": true, "will": true, "your": true, "they": true,
	"them": true, "then": true, "than": true, "what": true, "when": true,
	"where": true, "which": true, "would": true, "could": true, "should": true,
	"about": true, "into": true, "only": true, "over": true, "also": true,
}

const defaultVowelMinLength = 4

// vowelTransform strips vowels from words at or above a minimum length,
// keeping the first character even when it is a vowel. Words in the stoplist
// and words that would lose more than half their length are left alone.
// Discarded vowels cannot be recovered, so decompression is a no-op.
type vowelTransform struct {
	minLength int
}

// NewVowel creates the vowel removal transform.
func NewVowel() Transform {
	return &vowelTransform{minLength: defaultVowelMinLength}
}

func (*vowelTransform) Name() string                 { return NameVowel }
func (*vowelTransform) Reversibility() Reversibility { return ReversibilityNone }

func (t *vowelTransform) Compress(text string) Result {
	if text == "" {
		return emptyResult()
	}
	count := 0
	out := wordRE.ReplaceAllStringFunc(text, func(w string) string {
		stripped, ok := t.stripWord(w)
		if !ok {
			return w
		}
		count++
		return stripped
	})
	res := okResult(text, out)
	res.Metrics["words_stripped"] = float64(count)
	return res
}

func (t *vowelTransform) Decompress(text string) Result {
	if text == "" {
		return emptyResult()
	}
	return Result{Success: true, Text: text, Metrics: map[string]float64{}}
}

// stripWord removes interior vowels from a word, reporting whether the word
// qualified for stripping.
func (t *vowelTransform) stripWord(w string) (string, bool) {
	runes := []rune(w)
	if len(runes) < t.minLength || vowelStoplist[strings.ToLower(w)] {
		return w, false
	}

	var b strings.Builder
	b.WriteRune(runes[0])
	for _, r := range runes[1:] {
		if !isVowel(r) {
			b.WriteRune(r)
		}
	}
	stripped := b.String()
	if len([]rune(stripped))*2 < len(runes) {
		return w, false
	}
	if stripped == w {
		return w, false
	}
	return stripped, true
}
