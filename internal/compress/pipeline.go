package compress

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"promptgate/internal/telemetry"
)

// consonantClusterRE matches words with three or more consecutive consonants,
// the heuristic signal that vowel removal was applied.
var consonantClusterRE = regexp.MustCompile(`(?i)[a-z]*[bcdfghjklmnpqrstvwxz]{3,}[a-z]*`)

// Composer applies an ordered pipeline of transforms, isolating each stage:
// an unknown name or a failed stage is skipped and its input passes through
// unchanged.
type Composer struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// NewComposer creates a composer over the given registry.
func NewComposer(registry *Registry, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{registry: registry, logger: logger}
}

// SetMetrics attaches stage-failure counters. Skipped unknown stages and
// failed stages increment them; a nil receiver disables emission.
func (c *Composer) SetMetrics(m *telemetry.Metrics) {
	c.metrics = m
}

// ApplyCompress runs each named transform's compress operation in order,
// feeding each stage's output into the next. It returns the final text and
// the per-stage results keyed by transform name.
func (c *Composer) ApplyCompress(text string, pipeline []string) (string, map[string]Result) {
	return c.apply(text, pipeline, false)
}

// ApplyDecompress mirrors ApplyCompress with each transform's decompress
// operation. A nil pipeline triggers heuristic auto-detection, applied
// most-recently-compressed first.
func (c *Composer) ApplyDecompress(text string, pipeline []string) (string, map[string]Result) {
	if pipeline == nil {
		detected := c.DetectPipeline(text)
		pipeline = make([]string, 0, len(detected))
		for i := len(detected) - 1; i >= 0; i-- {
			pipeline = append(pipeline, detected[i])
		}
	}
	return c.apply(text, pipeline, true)
}

func (c *Composer) apply(text string, pipeline []string, decompress bool) (string, map[string]Result) {
	op := "compress"
	if decompress {
		op = "decompress"
	}

	results := make(map[string]Result, len(pipeline))
	for _, name := range pipeline {
		t := c.registry.Get(name)
		if t == nil {
			c.logger.Warn("unknown transform in pipeline", "transform", name, "op", op)
			c.countStageFailure(name, op)
			continue
		}

		res := runStage(t, text, decompress)
		results[name] = res
		if !res.Success {
			c.logger.Warn("transform stage failed, passing input through",
				"transform", name, "op", op, "error", res.Err)
			c.countStageFailure(name, op)
			continue
		}
		text = res.Text
	}
	return text, results
}

func (c *Composer) countStageFailure(name, op string) {
	if c.metrics != nil {
		c.metrics.CompressionStageFailures.WithLabelValues(name, op).Inc()
	}
}

// runStage invokes one transform operation, converting a panic into a failed
// result carrying the unchanged input.
func runStage(t Transform, text string, decompress bool) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = failResult(text, fmt.Sprintf("transform panicked: %v", p))
		}
	}()
	if decompress {
		return t.Decompress(text)
	}
	return t.Compress(text)
}

// DetectPipeline guesses which transforms produced text, returned in
// estimated compress-time order. The guess is best effort: symbol runes and
// consonant clusters occur naturally in some inputs, and no stronger
// guarantee than "never crashes" is made.
func (c *Composer) DetectPipeline(text string) []string {
	if strings.HasPrefix(text, GzipMarker) {
		inner := text
		if t := c.registry.Get(NameGzip); t != nil {
			if res := t.Decompress(text); res.Success {
				inner = res.Text
			}
		}
		if inner == text {
			return []string{NameGzip}
		}
		return append(c.DetectPipeline(inner), NameGzip)
	}

	names := []string{NameBasic, NameAbbreviation}
	if consonantClusterRE.MatchString(text) {
		names = append(names, NameVowel)
	}
	if containsSymbolRune(text) {
		names = append(names, NameSymbol)
	}
	return names
}
