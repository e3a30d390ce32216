// Package jsonx provides a configurable JSON encoding/decoding layer so the
// concrete codec backing the dataset loaders and report writers can be
// swapped without touching call sites. Defaults to github.com/bytedance/sonic.
// The engine HTTP client calls sonic directly and does not go through jsonx.
//
// To fall back to encoding/json:
//
//	jsonx.SetConfig(jsonx.StdConfig())
package jsonx

import (
	"io"

	stdjson "encoding/json"

	"github.com/bytedance/sonic"
)

// Encoder is the interface for streaming JSON encoding.
type Encoder interface {
	Encode(v any) error
}

// Decoder is the interface for streaming JSON decoding.
type Decoder interface {
	Decode(v any) error
}

// Config holds the JSON encoding/decoding functions.
type Config struct {
	Marshal         func(v any) ([]byte, error)
	MarshalIndent   func(v any, prefix, indent string) ([]byte, error)
	MarshalString   func(v any) (string, error)
	Unmarshal       func(data []byte, v any) error
	UnmarshalString func(s string, v any) error
	NewEncoder      func(w io.Writer) Encoder
	NewDecoder      func(r io.Reader) Decoder
}

// DefaultConfig returns the default configuration, backed by sonic.
func DefaultConfig() Config {
	return Config{
		Marshal:       sonic.Marshal,
		MarshalIndent: sonic.MarshalIndent,
		MarshalString: sonic.MarshalString,
		Unmarshal:     sonic.Unmarshal,
		UnmarshalString: func(s string, v any) error {
			return sonic.UnmarshalString(s, v)
		},
		NewEncoder: func(w io.Writer) Encoder {
			return sonic.ConfigDefault.NewEncoder(w)
		},
		NewDecoder: func(r io.Reader) Decoder {
			return sonic.ConfigDefault.NewDecoder(r)
		},
	}
}

// StdConfig returns a configuration backed by encoding/json, useful when
// sonic's assembly backend is unavailable (e.g. non-amd64/arm64 targets).
func StdConfig() Config {
	return Config{
		Marshal:       stdjson.Marshal,
		MarshalIndent: stdjson.MarshalIndent,
		MarshalString: func(v any) (string, error) {
			data, err := stdjson.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
		Unmarshal: stdjson.Unmarshal,
		UnmarshalString: func(s string, v any) error {
			return stdjson.Unmarshal([]byte(s), v)
		},
		NewEncoder: func(w io.Writer) Encoder {
			return stdjson.NewEncoder(w)
		},
		NewDecoder: func(r io.Reader) Decoder {
			return stdjson.NewDecoder(r)
		},
	}
}

var config = DefaultConfig()

// SetConfig sets the global JSON configuration.
func SetConfig(c Config) { config = c }

// GetConfig returns the current JSON configuration.
func GetConfig() Config { return config }

func Marshal(v any) ([]byte, error) { return config.Marshal(v) }

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return config.MarshalIndent(v, prefix, indent)
}

func MarshalString(v any) (string, error) { return config.MarshalString(v) }

func Unmarshal(data []byte, v any) error { return config.Unmarshal(data, v) }

func UnmarshalString(s string, v any) error { return config.UnmarshalString(s, v) }

func NewEncoder(w io.Writer) Encoder { return config.NewEncoder(w) }

func NewDecoder(r io.Reader) Decoder { return config.NewDecoder(r) }

// RawMessage is a raw encoded JSON value.
type RawMessage = stdjson.RawMessage
