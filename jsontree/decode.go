// Package jsontree decodes JSON documents into the value tree the mapper
// consumes. Objects keep their key order.
package jsontree

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a decoded JSON object.
type Object = orderedmap.OrderedMap[string, any]

var ErrTrailingData = stderrors.New("trailing data after JSON value")

// Decode parses one JSON value. Objects become *Object, arrays []any,
// integer literals int64 and other numbers float64.
func Decode(data []byte) (any, error) {
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader is Decode for a stream holding exactly one JSON value.
func DecodeReader(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("jsontree: %w", err)
	}
	v, err := value(dec, tok)
	if err != nil {
		return nil, fmt.Errorf("jsontree: %w", err)
	}
	if _, err := dec.Token(); !stderrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("jsontree: %w", ErrTrailingData)
	}
	return v, nil
}

func value(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return object(dec)
		case '[':
			return array(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}

func object(dec *json.Decoder) (*Object, error) {
	out := orderedmap.New[string, any]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		if tok, err = dec.Token(); err != nil {
			return nil, err
		}
		v, err := value(dec, tok)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func array(dec *json.Decoder) ([]any, error) {
	out := []any{}
	for i := 0; dec.More(); i++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		v, err := value(dec, tok)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// Plain converts ordered objects back to map[string]any, recursively.
func Plain(v any) any {
	switch x := v.(type) {
	case *Object:
		out := make(map[string]any, x.Len())
		for p := x.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = Plain(p.Value)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	default:
		return v
	}
}
