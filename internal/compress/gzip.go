package compress

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// GzipMarker prefixes gzip-compressed payloads on the wire so decompression
// can detect them before any other stage runs. Earlier-stage transforms never
// emit this prefix.
const GzipMarker = "gz:"

// gzipTransform compresses the UTF-8 bytes of the text and base64-encodes the
// result. The round trip is byte-exact. Its output is not natural language,
// so it belongs at the end of a pipeline.
type gzipTransform struct{}

// NewGzip creates the gzip transform.
func NewGzip() Transform { return gzipTransform{} }

func (gzipTransform) Name() string                 { return NameGzip }
func (gzipTransform) Reversibility() Reversibility { return ReversibilityExact }

func (gzipTransform) Compress(text string) Result {
	if text == "" {
		return emptyResult()
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(text)); err != nil {
		return failResult(text, fmt.Sprintf("gzip write: %v", err))
	}
	if err := w.Close(); err != nil {
		return failResult(text, fmt.Sprintf("gzip close: %v", err))
	}

	out := GzipMarker + base64.StdEncoding.EncodeToString(buf.Bytes())
	return okResult(text, out)
}

func (gzipTransform) Decompress(text string) Result {
	if text == "" {
		return emptyResult()
	}
	if !strings.HasPrefix(text, GzipMarker) {
		return failResult(text, "missing gzip marker")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(text, GzipMarker))
	if err != nil {
		return failResult(text, fmt.Sprintf("base64 decode: %v", err))
	}
	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return failResult(text, fmt.Sprintf("gzip reader: %v", err))
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return failResult(text, fmt.Sprintf("gzip read: %v", err))
	}
	return okResult(text, string(out))
}
