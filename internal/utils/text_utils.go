package utils

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

const defaultFallbackCharset = "windows-1252"

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger   *zap.Logger
	detector *chardet.Detector

	fallbackName string
	fallback     encoding.Encoding
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger:       logger,
		detector:     chardet.NewTextDetector(),
		fallbackName: defaultFallbackCharset,
		fallback:     charmap.Windows1252,
	}
}

// WithFallbackCharset sets the charset used when detection fails. The name is
// any WHATWG encoding label, such as "iso-8859-15" or "shift_jis".
func (tp *TextProcessor) WithFallbackCharset(name string) (*TextProcessor, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return tp, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown fallback charset %q: %w", name, err)
	}
	tp.fallbackName = name
	tp.fallback = enc
	return tp, nil
}

// DecodeCSV converts raw file content to UTF-8 text and reports the source
// charset. UTF-8 and UTF-16 with a BOM are decoded directly; anything else is
// detected and falls back to the configured charset (Windows-1252 by default).
func (tp *TextProcessor) DecodeCSV(data []byte) (string, string, error) {
	if utf8.Valid(data) || bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", "", fmt.Errorf("failed to decode UTF text: %w", err)
		}
		return string(out), "UTF-8", nil
	}

	charset, enc := tp.detect(data)
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		tp.logger.Warn("Decoding with detected charset failed, falling back",
			zap.String("charset", charset), zap.String("fallback", tp.fallbackName), zap.Error(err))
		charset = tp.fallbackName
		if out, err = tp.fallback.NewDecoder().Bytes(data); err != nil {
			return "", "", fmt.Errorf("failed to decode text: %w", err)
		}
	}

	tp.logger.Debug("Decoded non UTF-8 text",
		zap.String("charset", charset),
		zap.Int("original_size", len(data)),
		zap.Int("decoded_size", len(out)))

	return string(out), charset, nil
}

func (tp *TextProcessor) detect(data []byte) (string, encoding.Encoding) {
	result, err := tp.detector.DetectBest(data)
	if err == nil && result != nil {
		if enc, err := htmlindex.Get(result.Charset); err == nil && enc != nil {
			return strings.ToLower(result.Charset), enc
		}
	}
	return tp.fallbackName, tp.fallback
}

// TruncateText safely truncates text to the specified number of characters,
// marking the cut with "..."
func (tp *TextProcessor) TruncateText(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars]) + "..."
}
