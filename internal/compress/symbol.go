package compress

import "strings"

// symbolPairs maps input/process/output domain keywords to single-rune
// symbols. Several words share a symbol, so expansion picks the first word
// listed for that symbol.
var symbolPairs = []struct {
	word   string
	symbol rune
}{
	{"input", '⊢'},
	{"output", '⊣'},
	{"process", 'Δ'},
	{"transform", 'λ'},
	{"convert", 'λ'},
	{"and", '&'},
	{"plus", '&'},
	{"to", '→'},
	{"into", '→'},
	{"result", '∎'},
	{"data", 'δ'},
	{"return", '↩'},
	{"therefore", '∴'},
	{"because", '∵'},
	{"every", '∀'},
	{"all", '∀'},
}

// symbolRunes is the set of runes the auto-detection heuristic sniffs for.
var symbolRunes = func() map[rune]bool {
	set := make(map[rune]bool, len(symbolPairs))
	for _, p := range symbolPairs {
		set[p.symbol] = true
	}
	return set
}()

func containsSymbolRune(text string) bool {
	for _, r := range text {
		if symbolRunes[r] {
			return true
		}
	}
	return false
}

// symbolTransform substitutes domain keywords with symbolic markers. The
// substitution is structurally reversible through the same table, but word
// choice is not: "into" and "to" both expand back to "to".
type symbolTransform struct {
	forward map[string]rune
	inverse map[rune]string
}

// NewSymbol creates the symbolic keyword transform.
func NewSymbol() Transform {
	t := &symbolTransform{
		forward: make(map[string]rune, len(symbolPairs)),
		inverse: make(map[rune]string, len(symbolPairs)),
	}
	for _, p := range symbolPairs {
		t.forward[p.word] = p.symbol
		if _, seen := t.inverse[p.symbol]; !seen {
			t.inverse[p.symbol] = p.word
		}
	}
	return t
}

func (*symbolTransform) Name() string                 { return NameSymbol }
func (*symbolTransform) Reversibility() Reversibility { return ReversibilityLossy }

func (t *symbolTransform) Compress(text string) Result {
	if text == "" {
		return emptyResult()
	}
	count := 0
	out := wordRE.ReplaceAllStringFunc(text, func(w string) string {
		sym, ok := t.forward[strings.ToLower(w)]
		if !ok {
			return w
		}
		count++
		return string(sym)
	})
	res := okResult(text, out)
	res.Metrics["substitutions"] = float64(count)
	return res
}

func (t *symbolTransform) Decompress(text string) Result {
	if text == "" {
		return emptyResult()
	}
	count := 0
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if word, ok := t.inverse[r]; ok {
			b.WriteString(word)
			count++
			continue
		}
		b.WriteRune(r)
	}
	res := okResult(text, b.String())
	res.Metrics["substitutions"] = float64(count)
	return res
}
