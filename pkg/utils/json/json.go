// Package json wraps the JSON codec used by unirag.
// sonic is used on amd64/arm64, encoding/json everywhere else.
package json

import (
	"bytes"
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

// RawMessage is a raw encoded JSON value.
type RawMessage = stdjson.RawMessage

// Encoder is a JSON encoder interface.
type Encoder interface {
	Encode(v interface{}) error
}

// Decoder is a JSON decoder interface.
type Decoder interface {
	Decode(v interface{}) error
}

var (
	// Marshal encodes v into JSON bytes.
	Marshal func(v interface{}) ([]byte, error)

	// MarshalIndent encodes v with indentation, used for CLI output.
	MarshalIndent func(v interface{}, prefix, indent string) ([]byte, error)

	// Unmarshal decodes JSON bytes into v.
	Unmarshal func(data []byte, v interface{}) error

	// NewEncoder creates a new JSON encoder for the writer.
	NewEncoder func(w io.Writer) Encoder

	// NewDecoder creates a new JSON decoder for the reader.
	NewDecoder func(r io.Reader) Decoder

	// UnmarshalStrict decodes JSON bytes into v and fails on unknown object keys.
	UnmarshalStrict func(data []byte, v interface{}) error

	usingSonic bool

	strictAPI = sonic.Config{DisallowUnknownFields: true, ValidateString: true}.Froze()
)

func init() {
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		useSonic(sonic.ConfigDefault)
		return
	}

	Marshal = stdjson.Marshal
	MarshalIndent = stdjson.MarshalIndent
	Unmarshal = stdjson.Unmarshal
	NewEncoder = func(w io.Writer) Encoder { return stdjson.NewEncoder(w) }
	NewDecoder = func(r io.Reader) Decoder { return stdjson.NewDecoder(r) }
	UnmarshalStrict = func(data []byte, v interface{}) error {
		dec := stdjson.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	}
}

func useSonic(api sonic.API) {
	Marshal = api.Marshal
	MarshalIndent = api.MarshalIndent
	Unmarshal = api.Unmarshal
	NewEncoder = func(w io.Writer) Encoder { return api.NewEncoder(w) }
	NewDecoder = func(r io.Reader) Decoder { return api.NewDecoder(r) }
	UnmarshalStrict = strictAPI.Unmarshal
	usingSonic = true
}

// ConfigStdMode switches sonic to its encoding/json compatible mode
// (sorted map keys, HTML escaping). No-op without sonic.
func ConfigStdMode() {
	if usingSonic {
		useSonic(sonic.ConfigStd)
	}
}

// IsUsingSonic returns true if sonic is being used for JSON operations.
func IsUsingSonic() bool {
	return usingSonic
}
