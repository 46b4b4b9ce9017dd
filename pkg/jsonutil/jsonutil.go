// Package jsonutil wraps github.com/go-json-experiment/json for the whole
// codebase.
//
// Encoding is deterministic (map keys sorted) so the same report always
// serializes to the same bytes, and nil slices and maps encode as [] and {}
// rather than null.
//
// Usage:
//
//	import "github.com/siteintel/siteintel/pkg/jsonutil"
//
//	err := jsonutil.Unmarshal(data, &v)
//	data, err := jsonutil.Marshal(report)
//	ok := jsonutil.FirstRecord(stdout, &record)
package jsonutil

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Unmarshal parses the JSON-encoded data and stores the result in v.
// Unknown object members are ignored.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Marshal returns the deterministic JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true))
}

// MarshalIndent returns the indented, deterministic JSON encoding of v.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	// go-json-experiment uses jsontext options for indentation
	return json.Marshal(v, json.Deterministic(true), jsontext.WithIndentPrefix(prefix), jsontext.WithIndent(indent))
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}

// FirstRecord decodes the first line of text that holds a well-formed JSON
// object into v. Lines that are blank, not objects, or malformed are
// skipped; records after the first good one are ignored. It reports whether
// a record was decoded.
func FirstRecord(text string, v any) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") || !Valid([]byte(line)) {
			continue
		}
		if err := Unmarshal([]byte(line), v); err == nil {
			return true
		}
	}
	return false
}

// RawValue is an undecoded JSON value.
type RawValue = jsontext.Value

// Member is one name/value pair of a JSON object.
type Member struct {
	Name  string
	Value RawValue
}

// ErrNotObject is returned by Members for input that is not a JSON object.
var ErrNotObject = errors.New("jsonutil: not a JSON object")

// Members returns the members of a JSON object in document order. Decoding
// into a Go map loses that order.
func Members(data []byte) ([]Member, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	if tok.Kind() != '{' {
		return nil, ErrNotObject
	}

	var out []Member
	for dec.PeekKind() != '}' {
		name, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		// The token is voided by the next decoder call.
		key := name.String()
		val, err := dec.ReadValue()
		if err != nil {
			return nil, err
		}
		out = append(out, Member{Name: key, Value: val.Clone()})
	}
	return out, nil
}

// Encoder provides a streaming JSON encoder compatible with encoding/json.Encoder.
type Encoder struct {
	w      io.Writer
	indent string
}

// NewStreamEncoder creates an encoder that writes to w.
func NewStreamEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the JSON encoding of v to the stream, followed by a newline.
func (e *Encoder) Encode(v any) error {
	opts := []json.Options{json.Deterministic(true)}
	if e.indent != "" {
		opts = append(opts, jsontext.WithIndent(e.indent))
	}
	if err := json.MarshalWrite(e.w, v, opts...); err != nil {
		return err
	}
	// Add trailing newline to match encoding/json behavior
	_, err := e.w.Write([]byte{'\n'})
	return err
}

// SetIndent instructs the encoder to format each subsequent encoded value
// with the given indentation.
func (e *Encoder) SetIndent(prefix, indent string) {
	e.indent = indent
}
