package compress

import (
	"regexp"
	"strings"
	"testing"
)

func TestBasicIdempotent(t *testing.T) {
	basic := NewBasic()
	inputs := []string{
		"hello   world",
		"  leading and trailing  ",
		"tabs\tand\nnewlines\r\nmixed",
		"already normal",
		"émoji 🎉   everywhere 🎉",
		"",
	}
	for _, in := range inputs {
		once := basic.Compress(in)
		twice := basic.Compress(once.Text)
		if once.Text != twice.Text {
			t.Errorf("Compress not idempotent for %q: first %q, second %q", in, once.Text, twice.Text)
		}
	}
}

func TestBasicCollapsesWhitespace(t *testing.T) {
	basic := NewBasic()
	res := basic.Compress("  hello \t\n  world  ")
	if !res.Success {
		t.Fatalf("Expected success, got error: %s", res.Err)
	}
	if res.Text != "hello world" {
		t.Errorf("Expected %q, got %q", "hello world", res.Text)
	}
}

func TestGzipExactRoundTrip(t *testing.T) {
	gz := NewGzip()
	inputs := []string{
		"short",
		strings.Repeat("a", 500),
		"unicode: ünïcödé 🎉 日本語",
		"control\x00chars\x1b[0m\x7f",
		"multi\nline\ntext with   spaces",
	}
	for _, in := range inputs {
		c := gz.Compress(in)
		if !c.Success {
			t.Fatalf("Compress failed for %q: %s", in, c.Err)
		}
		if !strings.HasPrefix(c.Text, GzipMarker) {
			t.Errorf("Compressed text missing %q prefix: %q", GzipMarker, c.Text)
		}
		d := gz.Decompress(c.Text)
		if !d.Success {
			t.Fatalf("Decompress failed: %s", d.Err)
		}
		if d.Text != in {
			t.Errorf("Round trip mismatch: got %q, want %q", d.Text, in)
		}
	}
}

func TestGzipCompressesRepetitiveInput(t *testing.T) {
	gz := NewGzip()
	in := strings.Repeat("x", 500)
	res := gz.Compress(in)
	if !res.Success {
		t.Fatalf("Compress failed: %s", res.Err)
	}
	if len(res.Text) >= len(in) {
		t.Errorf("Expected compressed length < %d, got %d", len(in), len(res.Text))
	}
}

func TestGzipMalformedPayload(t *testing.T) {
	gz := NewGzip()
	tests := []struct {
		name  string
		input string
	}{
		{"no marker", "plain text"},
		{"bad base64", "gz:!!!!not-base64!!!!"},
		{"valid base64 not gzip", "gz:aGVsbG8gd29ybGQ="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := gz.Decompress(tt.input)
			if res.Success {
				t.Errorf("Expected failure for %q", tt.input)
			}
			if res.Text != tt.input {
				t.Errorf("Failed decompress must return input unchanged: got %q, want %q", res.Text, tt.input)
			}
		})
	}
}

func TestEmptyInputSafety(t *testing.T) {
	reg := NewDefaultRegistry()
	for _, name := range reg.List() {
		t.Run(name, func(t *testing.T) {
			tr := reg.Get(name)
			for _, res := range []Result{tr.Compress(""), tr.Decompress("")} {
				if !res.Success {
					t.Errorf("Expected success on empty input, got error: %s", res.Err)
				}
				if res.Text != "" {
					t.Errorf("Expected empty text, got %q", res.Text)
				}
			}
		})
	}
}

func TestArbitraryInputNeverFailsToReturn(t *testing.T) {
	reg := NewDefaultRegistry()
	inputs := []string{
		"plain english text",
		"🎉🎊🎈 only emoji 🎈🎊🎉",
		"日本語のテキストです。中文文本。",
		"\x00\x01\x02\x03 control \x7f\x1b[31m chars",
		strings.Repeat("цщшч ", 200),
		"mixed → ∀ λ symbols & more",
	}
	for _, name := range reg.List() {
		tr := reg.Get(name)
		for _, in := range inputs {
			c := tr.Compress(in)
			if c.Text == "" && in != "" && !c.Success {
				t.Errorf("%s.Compress(%q) returned failure with empty text", name, in)
			}
			// Decompress must also accept arbitrary input, including text
			// that was never compressed.
			d := tr.Decompress(in)
			if d.Metrics == nil {
				t.Errorf("%s.Decompress(%q) returned nil metrics", name, in)
			}
		}
	}
}

func TestAbbreviationScenario(t *testing.T) {
	abbr := NewAbbreviation()
	in := "The function implementation returns the value"

	c := abbr.Compress(in)
	if !c.Success {
		t.Fatalf("Compress failed: %s", c.Err)
	}
	for _, want := range []string{"fn", "impl", "val"} {
		if !regexp.MustCompile(`\b` + want + `\b`).MatchString(strings.ToLower(c.Text)) {
			t.Errorf("Compressed text %q missing %q", c.Text, want)
		}
	}
	if regexp.MustCompile(`(?i)\bthe\b`).MatchString(c.Text) {
		t.Errorf("Compressed text %q still contains the word %q", c.Text, "the")
	}
	if c.Metrics["substitutions"] < 4 {
		t.Errorf("Expected at least 4 substitutions, got %v", c.Metrics["substitutions"])
	}

	d := abbr.Decompress(c.Text)
	if !d.Success {
		t.Fatalf("Decompress failed: %s", d.Err)
	}
	for _, want := range []string{"function", "implementation", "value"} {
		if !strings.Contains(strings.ToLower(d.Text), want) {
			t.Errorf("Decompressed text %q missing %q", d.Text, want)
		}
	}
}

func TestVowelRemoval(t *testing.T) {
	vowel := NewVowel()
	tests := []struct {
		input string
		want  string
	}{
		// Long words lose interior vowels.
		{"information", "infrmtn"},
		{"compression", "cmprssn"},
		// First character survives even when it is a vowel.
		{"elephant", "elphnt"},
		// Short words are untouched.
		{"the", "the"},
		{"cat", "cat"},
		// Stoplist words are untouched regardless of length.
		{"that", "that"},
		{"should", "should"},
		// Words that would shrink below half length are untouched.
		{"aeiou", "aeiou"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := vowel.Compress(tt.input)
			if !res.Success {
				t.Fatalf("Compress failed: %s", res.Err)
			}
			if res.Text != tt.want {
				t.Errorf("Compress(%q) = %q, want %q", tt.input, res.Text, tt.want)
			}
		})
	}

	// Decompress cannot restore vowels and must not try.
	if res := vowel.Decompress("infrmtn"); res.Text != "infrmtn" {
		t.Errorf("Decompress must be a no-op, got %q", res.Text)
	}
}

func TestSymbolRoundTrip(t *testing.T) {
	sym := NewSymbol()
	in := "transform the input and process the data to output"

	c := sym.Compress(in)
	if !c.Success {
		t.Fatalf("Compress failed: %s", c.Err)
	}
	if !containsSymbolRune(c.Text) {
		t.Errorf("Compressed text %q contains no symbol runes", c.Text)
	}
	if len(c.Text) >= len(in) {
		t.Errorf("Expected compressed length < %d, got %d", len(in), len(c.Text))
	}

	d := sym.Decompress(c.Text)
	if !d.Success {
		t.Fatalf("Decompress failed: %s", d.Err)
	}
	for _, want := range []string{"input", "process", "data", "output"} {
		if !strings.Contains(d.Text, want) {
			t.Errorf("Decompressed text %q missing %q", d.Text, want)
		}
	}
	if containsSymbolRune(d.Text) {
		t.Errorf("Decompressed text %q still contains symbol runes", d.Text)
	}
}

func TestSymbolAmbiguousExpansion(t *testing.T) {
	sym := NewSymbol()
	// "into" and "to" share a symbol; expansion picks the canonical word.
	c := sym.Compress("convert into gold")
	d := sym.Decompress(c.Text)
	if !strings.Contains(d.Text, "to") {
		t.Errorf("Expected canonical expansion containing %q, got %q", "to", d.Text)
	}
}

func TestLogarithmicFactor(t *testing.T) {
	tests := []struct {
		ratio float64
		min   float64
		max   float64
	}{
		{1.0, 0, 0},
		{1.5, 0, 0},
		{0.0, 1, 1},
		{0.5, 0.3, 0.9},
		{0.1, 0.8, 1},
	}
	for _, tt := range tests {
		got := logarithmicFactor(tt.ratio)
		if got < tt.min || got > tt.max {
			t.Errorf("logarithmicFactor(%v) = %v, want in [%v, %v]", tt.ratio, got, tt.min, tt.max)
		}
	}
	// Monotonic: smaller ratio, larger factor.
	if logarithmicFactor(0.2) <= logarithmicFactor(0.8) {
		t.Error("Expected factor to grow as ratio shrinks")
	}
}

func TestLogarithmicTransform(t *testing.T) {
	lg := NewLogarithmic()
	in := "The result is greater than or equal to the previous value. " +
		"For example, the sum of all inputs leads to the output."

	c := lg.Compress(in)
	if !c.Success {
		t.Fatalf("Compress failed: %s", c.Err)
	}
	if c.Metrics["substitutions"] == 0 {
		t.Error("Expected phrase substitutions")
	}
	if _, ok := c.Metrics["logarithmic_factor"]; !ok {
		t.Error("Expected logarithmic_factor metric")
	}
	for _, line := range strings.Split(c.Text, "\n") {
		if len(line) > defaultLineWidth {
			t.Errorf("Line exceeds width %d: %q", defaultLineWidth, line)
		}
	}

	d := lg.Decompress(c.Text)
	if !d.Success {
		t.Fatalf("Decompress failed: %s", d.Err)
	}
	if !strings.Contains(d.Text, "greater than or equal to") {
		t.Errorf("Decompressed text %q missing expanded phrase", d.Text)
	}
}

func TestRegistryOperations(t *testing.T) {
	reg := NewRegistry()
	if got := reg.Get("basic"); got != nil {
		t.Errorf("Expected nil for unregistered name, got %v", got)
	}

	reg.Register(NewBasic())
	reg.Register(NewGzip())
	if reg.Get("basic") == nil {
		t.Error("Expected basic to be registered")
	}

	names := reg.List()
	if len(names) != 2 || names[0] != "basic" || names[1] != "gzip" {
		t.Errorf("Expected sorted [basic gzip], got %v", names)
	}

	// Re-registering overwrites silently.
	reg.Register(NewBasic())
	if len(reg.List()) != 2 {
		t.Errorf("Re-register must overwrite, got %v", reg.List())
	}

	reg.Unregister("basic")
	if reg.Get("basic") != nil {
		t.Error("Expected basic to be unregistered")
	}
}
