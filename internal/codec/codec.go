// Package codec implements tinychain's canonical serialization format: a
// tag-dispatched, JSON-like textual encoding where every entity carries a
// "_type" field naming its Go type, object keys are emitted in lexicographic
// order (guaranteed by encoding/json's sorted-map-key marshaling), and the
// NONE value is represented as JSON null.
//
// Determinism here is load-bearing, not cosmetic: transaction ids, block
// ids, and the spend-signing message are all computed over these bytes.
package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

func hexDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("codec: invalid hex: %w", err)
	}
	return b, nil
}

// HexEncode renders bytes as the lowercase hex string used for byte-string
// fields in the canonical tree.
func HexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

// TypeField is the reserved key naming an entity's canonical type tag.
const TypeField = "_type"

// Canonical is implemented by every entity the codec can serialize.
// CanonicalFields returns the entity's fields as a map whose values are
// plain JSON-marshalable values (strings, numbers, bools, nil, maps,
// []interface{}) or nested Canonical values, which are expanded
// recursively before marshaling.
type Canonical interface {
	TypeTag() string
	CanonicalFields() map[string]interface{}
}

// Decoder reconstructs a typed entity from its decoded canonical map.
type Decoder func(fields map[string]interface{}) (interface{}, error)

var registry = make(map[string]Decoder)

// Register associates a "_type" tag with the decoder that reconstructs it.
// Called from each entity package's init().
func Register(typeTag string, dec Decoder) {
	if _, exists := registry[typeTag]; exists {
		panic(fmt.Sprintf("codec: duplicate registration for %q", typeTag))
	}
	registry[typeTag] = dec
}

// Serialize renders an entity to its canonical byte representation.
func Serialize(entity Canonical) ([]byte, error) {
	tree, err := expand(entity)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}
	// json.Encoder.Encode appends a trailing newline; the wire/disk format
	// does not include one.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// expand walks a value, turning every nested Canonical into its tagged map
// so the whole tree marshals through encoding/json's deterministic,
// key-sorted map encoding in one pass.
func expand(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case Canonical:
		fields := x.CanonicalFields()
		out := make(map[string]interface{}, len(fields)+1)
		out[TypeField] = x.TypeTag()
		for k, fv := range fields {
			ev, err := expand(fv)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			ev, err := expand(item)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return v, nil
	}
}

// Deserialize parses canonical bytes and reconstructs the typed entity
// named by its "_type" tag. Numbers are preserved as json.Number so callers
// can recover full 64-bit precision.
func Deserialize(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("codec: unmarshal: %w", err)
	}
	return decodeValue(raw)
}

// DecodeValue reconstructs a typed entity from an already-unmarshaled
// canonical value (e.g. one element of a list field). Use this when
// decoding nested entities inside a list, where Object's map-field lookup
// doesn't apply.
func DecodeValue(raw interface{}) (interface{}, error) {
	return decodeValue(raw)
}

func decodeValue(raw interface{}) (interface{}, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return raw, nil
	}
	tag, ok := m[TypeField].(string)
	if !ok {
		return nil, fmt.Errorf("codec: object missing %q tag", TypeField)
	}
	dec, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("codec: unknown type tag %q", tag)
	}
	return dec(m)
}

// Field helpers used by entity Decoder implementations. They
// assume the caller already knows the expected shape (the codec trusts its
// own registered decoders, not arbitrary JSON).

// String extracts a required string field.
func String(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("codec: missing field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("codec: field %q is not a string", key)
	}
	return s, nil
}

// OptionalString extracts a string field that may be JSON null (NONE).
func OptionalString(m map[string]interface{}, key string) (string, bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("codec: field %q is not a string", key)
	}
	return s, true, nil
}

// Number extracts a required numeric field as json.Number.
func Number(m map[string]interface{}, key string) (json.Number, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", fmt.Errorf("codec: missing field %q", key)
	}
	n, ok := v.(json.Number)
	if !ok {
		return "", fmt.Errorf("codec: field %q is not a number", key)
	}
	return n, nil
}

// Bytes extracts a required byte-string field, stored as a hex string.
func Bytes(m map[string]interface{}, key string) ([]byte, error) {
	s, err := String(m, key)
	if err != nil {
		return nil, err
	}
	return hexDecode(s)
}

// OptionalBytes extracts a byte-string field that may be JSON null (NONE).
func OptionalBytes(m map[string]interface{}, key string) ([]byte, bool, error) {
	s, ok, err := OptionalString(m, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	b, err := hexDecode(s)
	return b, true, err
}

// List extracts a required array field.
func List(m map[string]interface{}, key string) ([]interface{}, error) {
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("codec: missing field %q", key)
	}
	l, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("codec: field %q is not an array", key)
	}
	return l, nil
}

// Object extracts a required nested object field, decoding it through the
// type registry.
func Object(m map[string]interface{}, key string) (interface{}, error) {
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("codec: missing field %q", key)
	}
	return decodeValue(v)
}
