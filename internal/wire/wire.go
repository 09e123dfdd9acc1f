// Package wire is the JSON layer shared by the engine client and the CLI.
// It is backed by goccy/go-json.
package wire

import (
	"bytes"
	"io"

	j "github.com/goccy/go-json"
)

// Marshal encodes v as compact JSON.
func Marshal(v any) ([]byte, error) { return j.Marshal(v) }

// MarshalIndent encodes v with two-space indentation.
func MarshalIndent(v any) ([]byte, error) { return j.MarshalIndent(v, "", "  ") }

// Unmarshal decodes data into v. Numbers destined for interface values are
// kept as json.Number so that epoch milliseconds survive untouched.
func Unmarshal(data []byte, v any) error {
	return Decode(bytes.NewReader(data), v)
}

// Decode reads one JSON value from r into v.
func Decode(r io.Reader, v any) error {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}

// Encode writes v to w followed by a newline.
func Encode(w io.Writer, v any) error {
	return j.NewEncoder(w).Encode(v)
}

// Number is the decoded form of JSON numbers held in interface values.
type Number = j.Number
