package compress

import (
	"log/slog"
	"strings"

	"promptgate/internal/telemetry"
)

// Named compression levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// PipelineForLevel returns the fixed pipeline for a named level. Unknown
// levels resolve to medium.
func PipelineForLevel(level string) []string {
	switch strings.ToLower(level) {
	case LevelLow:
		return []string{NameBasic}
	case LevelHigh:
		return []string{NameBasic, NameAbbreviation, NameVowel, NameSymbol}
	default:
		return []string{NameBasic, NameAbbreviation}
	}
}

// Config selects the default pipeline for the facade.
type Config struct {
	Enabled  bool
	Level    string   // low, medium, high
	Pipeline []string // explicit override; takes precedence over Level
}

// Compressor is the public entry point for prompt compression. Its methods
// are total: any failure is logged and the best available text is returned.
type Compressor struct {
	registry *Registry
	composer *Composer
	cfg      Config
	logger   *slog.Logger
}

// NewCompressor creates the compression facade.
func NewCompressor(registry *Registry, cfg Config, logger *slog.Logger) *Compressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compressor{
		registry: registry,
		composer: NewComposer(registry, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// SetMetrics attaches stage-failure counters to the underlying composer.
func (c *Compressor) SetMetrics(m *telemetry.Metrics) {
	c.composer.SetMetrics(m)
}

// CompressPrompt compresses text through the resolved pipeline. A nil
// pipeline falls back to the configured override or level. When useGzip is
// set, gzip is appended unless already present. Never panics; on any failure
// the original text comes back.
func (c *Compressor) CompressPrompt(text string, useGzip bool, pipeline []string) (out string) {
	out = text
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("compress panicked, returning original text", "panic", p)
			out = text
		}
	}()

	if !c.cfg.Enabled || text == "" {
		return text
	}

	resolved := c.resolvePipeline(pipeline)
	if useGzip && !pipelineContains(resolved, NameGzip) {
		resolved = append(resolved, NameGzip)
	}

	out, _ = c.composer.ApplyCompress(text, resolved)
	return out
}

// DecompressPrompt reverses compression. Text carrying the gzip marker is
// gzip-decompressed first when gzip is not in the supplied pipeline; the
// remaining pipeline (explicit, or auto-detected when nil) then runs on the
// result. Never panics.
func (c *Compressor) DecompressPrompt(text string, pipeline []string) (out string) {
	out = text
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("decompress panicked, returning original text", "panic", p)
			out = text
		}
	}()

	if !c.cfg.Enabled || text == "" {
		return text
	}

	if strings.HasPrefix(text, GzipMarker) && !pipelineContains(pipeline, NameGzip) {
		if t := c.registry.Get(NameGzip); t != nil {
			if res := runStage(t, text, true); res.Success {
				text = res.Text
			} else {
				c.logger.Warn("gzip payload could not be decoded", "error", res.Err)
			}
		}
	}

	out, _ = c.composer.ApplyDecompress(text, pipeline)
	return out
}

// resolvePipeline picks the explicit argument, then the configured override,
// then the configured level. The result is a copy safe to append to.
func (c *Compressor) resolvePipeline(pipeline []string) []string {
	src := pipeline
	if src == nil {
		src = c.cfg.Pipeline
	}
	if src == nil {
		src = PipelineForLevel(c.cfg.Level)
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
