package compress

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// logarithmicPairs is the phrase table for the advanced symbolic transform.
// Phrases are replaced longest-first so "greater than or equal to" wins over
// "greater than".
var logarithmicPairs = []struct {
	phrase, symbol string
}{
	{"greater than or equal to", "≥"},
	{"less than or equal to", "≤"},
	{"is not equal to", "≠"},
	{"is equal to", "="},
	{"greater than", ">"},
	{"less than", "<"},
	{"for example", "e.g."},
	{"that is", "i.e."},
	{"in order to", "to"},
	{"as well as", "&"},
	{"with respect to", "w.r.t."},
	{"there exists", "∃"},
	{"for all", "∀"},
	{"element of", "∈"},
	{"subset of", "⊂"},
	{"sum of", "Σ"},
	{"change in", "Δ"},
	{"leads to", "→"},
	{"approximately", "≈"},
	{"therefore", "∴"},
	{"because", "∵"},
	{"infinity", "∞"},
	{"increases", "↑"},
	{"decreases", "↓"},
	{"number", "#"},
}

const defaultLineWidth = 80

// logarithmicTransform segments text into sentence-sized chunks, applies the
// phrase table, and reflows the output into fixed-width lines. It reports a
// logarithmic_factor metric shaped so the factor approaches 1 as the
// compression ratio approaches 0 and is 0 when the ratio is 1 or worse.
// Expansion shares the symbol transform's word-choice ambiguity.
type logarithmicTransform struct {
	patterns  []*regexp.Regexp
	symbols   []string
	inverse   [][2]string // symbol -> canonical phrase, longest symbols first
	lineWidth int
}

// NewLogarithmic creates the phrase-table symbolic transform.
func NewLogarithmic() Transform {
	pairs := make([]struct{ phrase, symbol string }, len(logarithmicPairs))
	copy(pairs, logarithmicPairs)
	sort.SliceStable(pairs, func(i, j int) bool {
		return len(pairs[i].phrase) > len(pairs[j].phrase)
	})

	t := &logarithmicTransform{lineWidth: defaultLineWidth}
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		t.patterns = append(t.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(p.phrase)+`\b`))
		t.symbols = append(t.symbols, p.symbol)
		// Bare ASCII words and single ASCII characters ("to", "&", "#")
		// occur naturally in prose; expanding them would corrupt text that
		// was never compressed, so they stay as written.
		if !seen[p.symbol] && !ambiguousSymbol(p.symbol) {
			seen[p.symbol] = true
			t.inverse = append(t.inverse, [2]string{p.symbol, p.phrase})
		}
	}
	sort.SliceStable(t.inverse, func(i, j int) bool {
		return len(t.inverse[i][0]) > len(t.inverse[j][0])
	})
	return t
}

func (*logarithmicTransform) Name() string                 { return NameLogarithmic }
func (*logarithmicTransform) Reversibility() Reversibility { return ReversibilityLossy }

func (t *logarithmicTransform) Compress(text string) Result {
	if text == "" {
		return emptyResult()
	}

	count := 0
	chunks := splitSentences(text)
	for i, chunk := range chunks {
		for j, re := range t.patterns {
			chunk = re.ReplaceAllStringFunc(chunk, func(string) string {
				count++
				return t.symbols[j]
			})
		}
		chunks[i] = chunk
	}

	out := reflow(strings.Join(chunks, " "), t.lineWidth)
	res := okResult(text, out)
	res.Metrics["substitutions"] = float64(count)
	res.Metrics["logarithmic_factor"] = logarithmicFactor(res.Metrics["ratio"])
	return res
}

func (t *logarithmicTransform) Decompress(text string) Result {
	if text == "" {
		return emptyResult()
	}

	out := strings.Join(strings.Fields(text), " ")
	count := 0
	for _, pair := range t.inverse {
		if n := strings.Count(out, pair[0]); n > 0 {
			count += n
			out = strings.ReplaceAll(out, pair[0], pair[1])
		}
	}
	res := okResult(text, out)
	res.Metrics["substitutions"] = float64(count)
	return res
}

// ambiguousSymbol reports whether a symbol is indistinguishable from
// ordinary prose: a single ASCII character or a bare ASCII word.
func ambiguousSymbol(sym string) bool {
	for _, r := range sym {
		if r > 127 {
			return false
		}
	}
	if len(sym) == 1 {
		return true
	}
	for _, r := range sym {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

// logarithmicFactor maps a compression ratio to [0,1]: 0 at ratio >= 1,
// rising on a log curve toward 1 as the ratio approaches 0.
func logarithmicFactor(ratio float64) float64 {
	if ratio >= 1 || ratio < 0 {
		return 0
	}
	return math.Log1p((1 - ratio) * (math.E - 1))
}

// splitSentences breaks text into sentence/paragraph-sized chunks, keeping
// terminal punctuation attached.
func splitSentences(text string) []string {
	var chunks []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if chunk := strings.TrimSpace(b.String()); chunk != "" {
				chunks = append(chunks, chunk)
			}
			b.Reset()
		}
	}
	if chunk := strings.TrimSpace(b.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// reflow wraps words into lines no wider than width bytes. A single word
// longer than the width gets its own line.
func reflow(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
