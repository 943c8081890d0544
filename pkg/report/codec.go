package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	yamlExtension = ".yaml"
	ymlExtension  = ".yml"
	lz4Extension  = ".lz4"
)

// Format names accepted by CodecFor.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for a format name or extension without a codec.
var ErrUnknownFormat = errors.New("unknown report format")

// Codec defines how a report is serialized and deserialized.
type Codec interface {
	// Encode writes the value to the writer.
	Encode(w io.Writer, v any) error
	// Decode reads the value from the reader.
	Decode(r io.Reader, v any) error
	// Extension returns the file extension for this codec (e.g., ".json", ".json.lz4").
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with the given indentation.
func NewJSONCodec(indent string) *JSONCodec {
	return &JSONCodec{Indent: indent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)

	err := decoder.Decode(v)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// YAMLCodec implements Codec using YAML encoding.
type YAMLCodec struct{}

// NewYAMLCodec creates a YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Encode implements Codec.Encode using YAML encoding.
func (c *YAMLCodec) Encode(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	closeErr := encoder.Close()
	if closeErr != nil {
		return fmt.Errorf("yaml encode: %w", closeErr)
	}

	return nil
}

// Decode implements Codec.Decode using YAML decoding.
func (c *YAMLCodec) Decode(r io.Reader, v any) error {
	decoder := yaml.NewDecoder(r)

	err := decoder.Decode(v)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for YAML files.
func (c *YAMLCodec) Extension() string {
	return yamlExtension
}

// LZ4Codec wraps another codec with LZ4 frame compression.
type LZ4Codec struct {
	Inner Codec
}

// NewLZ4Codec creates a codec compressing the output of inner.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{Inner: inner}
}

// Encode implements Codec.Encode by compressing the inner encoding.
func (c *LZ4Codec) Encode(w io.Writer, v any) error {
	zw := lz4.NewWriter(w)

	err := c.Inner.Encode(zw, v)
	if err != nil {
		return errors.Join(err, zw.Close())
	}

	closeErr := zw.Close()
	if closeErr != nil {
		return fmt.Errorf("lz4 compress: %w", closeErr)
	}

	return nil
}

// Decode implements Codec.Decode by decompressing before the inner decoding.
func (c *LZ4Codec) Decode(r io.Reader, v any) error {
	return c.Inner.Decode(lz4.NewReader(r), v)
}

// Extension implements Codec.Extension, appending ".lz4" to the inner extension.
func (c *LZ4Codec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}

// CodecFor picks the codec for path. An explicit format name wins over the
// file extension; a ".lz4" suffix adds compression in both cases. Paths
// without a known extension, including "-", default to JSON.
func CodecFor(path, format, indent string) (Codec, error) {
	compressed := strings.HasSuffix(path, lz4Extension)
	base := strings.TrimSuffix(path, lz4Extension)

	if format == "" {
		switch strings.ToLower(filepath.Ext(base)) {
		case yamlExtension, ymlExtension:
			format = FormatYAML
		default:
			format = FormatJSON
		}
	}

	var codec Codec

	switch strings.ToLower(format) {
	case FormatJSON:
		codec = NewJSONCodec(indent)
	case FormatYAML:
		codec = NewYAMLCodec()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if compressed {
		codec = NewLZ4Codec(codec)
	}

	return codec, nil
}
