package compress

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"promptgate/internal/telemetry"
)

// panicTransform blows up on every call, for stage isolation tests.
type panicTransform struct{}

func (panicTransform) Name() string                 { return "panic" }
func (panicTransform) Reversibility() Reversibility { return ReversibilityNone }
func (panicTransform) Compress(string) Result       { panic("compress exploded") }
func (panicTransform) Decompress(string) Result     { panic("decompress exploded") }

func TestUnknownStageSkipped(t *testing.T) {
	c := NewComposer(NewDefaultRegistry(), nil)
	in := "some   text to   compress"

	withUnknown, metrics := c.ApplyCompress(in, []string{"basic", "nonexistent", "gzip"})
	without, _ := c.ApplyCompress(in, []string{"basic", "gzip"})

	if withUnknown != without {
		t.Errorf("Unknown stage must be a no-op: got %q, want %q", withUnknown, without)
	}
	if _, ok := metrics["nonexistent"]; ok {
		t.Error("Skipped stage must not report metrics")
	}
	if len(metrics) != 2 {
		t.Errorf("Expected 2 stage results, got %d", len(metrics))
	}
}

func TestStageFailureContained(t *testing.T) {
	reg := NewDefaultRegistry()
	reg.Register(panicTransform{})
	c := NewComposer(reg, nil)

	in := "text that   survives"
	out, metrics := c.ApplyCompress(in, []string{"basic", "panic"})

	want, _ := c.ApplyCompress(in, []string{"basic"})
	if out != want {
		t.Errorf("Failed stage must pass input through: got %q, want %q", out, want)
	}
	res, ok := metrics["panic"]
	if !ok {
		t.Fatal("Expected a result for the failed stage")
	}
	if res.Success {
		t.Error("Expected failure result for panicking stage")
	}
	if res.Err == "" {
		t.Error("Expected error message for panicking stage")
	}
}

func TestStageFailuresCounted(t *testing.T) {
	reg := NewDefaultRegistry()
	reg.Register(panicTransform{})

	metrics := telemetry.NewMetrics()
	c := NewComposer(reg, nil)
	c.SetMetrics(metrics)

	c.ApplyCompress("some text", []string{"basic", "panic", "nonexistent"})

	if got := testutil.ToFloat64(metrics.CompressionStageFailures.WithLabelValues("panic", "compress")); got != 1 {
		t.Errorf("panic stage failure count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CompressionStageFailures.WithLabelValues("nonexistent", "compress")); got != 1 {
		t.Errorf("unknown stage failure count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CompressionStageFailures.WithLabelValues("basic", "compress")); got != 0 {
		t.Errorf("successful stage must not count failures, got %v", got)
	}

	c.ApplyDecompress("some text", []string{"panic"})
	if got := testutil.ToFloat64(metrics.CompressionStageFailures.WithLabelValues("panic", "decompress")); got != 1 {
		t.Errorf("decompress failure count = %v, want 1", got)
	}
}

func TestPipelineChainsStages(t *testing.T) {
	c := NewComposer(NewDefaultRegistry(), nil)
	in := "  The   function implementation  "

	out, metrics := c.ApplyCompress(in, []string{"basic", "abbreviation"})
	if out != "T fn impl" {
		t.Errorf("Expected %q, got %q", "T fn impl", out)
	}
	// Abbreviation must have seen basic's output, not the raw input.
	if got := metrics["abbreviation"].Metrics["original_length"]; got != float64(len("The function implementation")) {
		t.Errorf("Stage input not chained: abbreviation saw length %v", got)
	}
}

func TestDetectPipeline(t *testing.T) {
	c := NewComposer(NewDefaultRegistry(), nil)
	tests := []struct {
		name    string
		input   string
		want    []string
		exclude []string
	}{
		{
			name:  "plain text",
			input: "ordinary prose with vowels intact",
			want:  []string{NameBasic, NameAbbreviation},
		},
		{
			name:  "consonant clusters suggest vowel removal",
			input: "ths txt hs n vwls cmprssn",
			want:  []string{NameVowel},
		},
		{
			name:  "symbol runes suggest symbol stage",
			input: "λ the δ → ⊣",
			want:  []string{NameSymbol},
		},
		{
			name:    "no false symbol detection",
			input:   "nothing symbolic here at all, no sir",
			exclude: []string{NameSymbol},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.DetectPipeline(tt.input)
			for _, want := range tt.want {
				if !pipelineContains(got, want) {
					t.Errorf("DetectPipeline(%q) = %v, missing %q", tt.input, got, want)
				}
			}
			for _, ex := range tt.exclude {
				if pipelineContains(got, ex) {
					t.Errorf("DetectPipeline(%q) = %v, must not contain %q", tt.input, got, ex)
				}
			}
		})
	}
}

func TestDetectPipelineGzipRecursion(t *testing.T) {
	reg := NewDefaultRegistry()
	c := NewComposer(reg, nil)

	compressed, _ := c.ApplyCompress("the input λeads nowhere", []string{NameBasic, NameSymbol, NameGzip})
	if !strings.HasPrefix(compressed, GzipMarker) {
		t.Fatalf("Expected gzip marker, got %q", compressed)
	}

	detected := c.DetectPipeline(compressed)
	if detected[len(detected)-1] != NameGzip {
		t.Errorf("Expected gzip last in compress-time order, got %v", detected)
	}
	if !pipelineContains(detected, NameSymbol) {
		t.Errorf("Expected symbol detected inside gzip payload, got %v", detected)
	}
}

func TestDetectPipelineMalformedGzip(t *testing.T) {
	c := NewComposer(NewDefaultRegistry(), nil)
	in := GzipMarker + "!!!not base64!!!"

	// An undecodable payload detects as gzip alone; no text stages run on
	// the raw payload bytes.
	got := c.DetectPipeline(in)
	if len(got) != 1 || got[0] != NameGzip {
		t.Errorf("DetectPipeline(%q) = %v, want [%s]", in, got, NameGzip)
	}

	out, _ := c.ApplyDecompress(in, nil)
	if out != in {
		t.Errorf("undecodable payload must come back unchanged, got %q", out)
	}
}

func TestAutoDetectedDecompress(t *testing.T) {
	c := NewComposer(NewDefaultRegistry(), nil)

	in := "The  function implementation returns   the value"
	compressed, _ := c.ApplyCompress(in, []string{NameBasic, NameAbbreviation, NameGzip})

	out, _ := c.ApplyDecompress(compressed, nil)
	for _, want := range []string{"function", "implementation", "value"} {
		if !strings.Contains(strings.ToLower(out), want) {
			t.Errorf("Auto-decompressed text %q missing %q", out, want)
		}
	}
	if strings.HasPrefix(out, GzipMarker) {
		t.Errorf("Gzip layer not removed: %q", out)
	}
}
