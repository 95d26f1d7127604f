package compress

import (
	"regexp"
	"strings"
)

// abbreviationPairs is the fixed dictionary of whole-word abbreviations,
// ordered so the inverse map picks a deterministic canonical expansion when
// several words share a short form.
var abbreviationPairs = []struct {
	word, abbr string
}{
	{"the", "t"},
	{"information", "info"},
	{"function", "fn"},
	{"implementation", "impl"},
	{"value", "val"},
	{"application", "app"},
	{"configuration", "config"},
	{"development", "dev"},
	{"environment", "env"},
	{"database", "db"},
	{"document", "doc"},
	{"message", "msg"},
	{"request", "req"},
	{"response", "resp"},
	{"parameter", "param"},
	{"argument", "arg"},
	{"variable", "var"},
	{"number", "num"},
	{"string", "str"},
	{"object", "obj"},
	{"reference", "ref"},
	{"definition", "def"},
	{"directory", "dir"},
	{"repository", "repo"},
	{"library", "lib"},
	{"package", "pkg"},
	{"command", "cmd"},
	{"source", "src"},
	{"destination", "dst"},
	{"temporary", "tmp"},
	{"maximum", "max"},
	{"minimum", "min"},
	{"average", "avg"},
	{"calculate", "calc"},
	{"initialize", "init"},
	{"execute", "exec"},
	{"generate", "gen"},
	{"previous", "prev"},
	{"language", "lang"},
	{"specification", "spec"},
}

var wordRE = regexp.MustCompile(`[A-Za-z]+`)

// abbreviationTransform replaces a fixed dictionary of common whole words
// with shorter tokens. There is an explicit reverse mapping, but short forms
// are ambiguous ("t" has many plausible sources), so the transform is
// classified lossy.
type abbreviationTransform struct {
	forward map[string]string
	inverse map[string]string
}

// NewAbbreviation creates the dictionary abbreviation transform.
func NewAbbreviation() Transform {
	t := &abbreviationTransform{
		forward: make(map[string]string, len(abbreviationPairs)),
		inverse: make(map[string]string, len(abbreviationPairs)),
	}
	for _, p := range abbreviationPairs {
		t.forward[p.word] = p.abbr
		if _, seen := t.inverse[p.abbr]; !seen {
			t.inverse[p.abbr] = p.word
		}
	}
	return t
}

func (*abbreviationTransform) Name() string                 { return NameAbbreviation }
func (*abbreviationTransform) Reversibility() Reversibility { return ReversibilityLossy }

func (t *abbreviationTransform) Compress(text string) Result {
	if text == "" {
		return emptyResult()
	}
	out, count := replaceWords(text, t.forward)
	res := okResult(text, out)
	res.Metrics["substitutions"] = float64(count)
	return res
}

func (t *abbreviationTransform) Decompress(text string) Result {
	if text == "" {
		return emptyResult()
	}
	out, count := replaceWords(text, t.inverse)
	res := okResult(text, out)
	res.Metrics["substitutions"] = float64(count)
	return res
}

// replaceWords substitutes whole words case-insensitively, preserving an
// initial capital, and returns the substitution count.
func replaceWords(text string, table map[string]string) (string, int) {
	count := 0
	out := wordRE.ReplaceAllStringFunc(text, func(w string) string {
		repl, ok := table[strings.ToLower(w)]
		if !ok {
			return w
		}
		count++
		return matchCase(w, repl)
	})
	return out, count
}
