// Package props implements the domain core of the property store: value
// kinds and their codec, path key normalization, the request-scoped
// lookup cache, the ignore/re-inclusion policy for requested names, and
// the owner-bound session that ties them to a storage backend.
package props

import (
	"fmt"
	"strconv"
)

// Kind discriminates how a property value is encoded at rest.
//
// The numeric values are part of the storage format and must not change.
type Kind uint32

const (
	// KindString is a plain string payload, stored as raw bytes.
	KindString Kind = 1

	// KindXMLFragment is a well-formed XML fragment, stored as its
	// serialized text.
	KindXMLFragment Kind = 2

	// KindObject is an arbitrary structured value, stored as
	// deterministic CBOR.
	KindObject Kind = 3
)

// Valid reports whether k is one of the storable kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindXMLFragment, KindObject:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindXMLFragment:
		return "xml-fragment"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// XMLFragment marks a string as a serialized XML fragment so ValueOf
// stores it under KindXMLFragment instead of KindString.
type XMLFragment string

// Value is a decoded property value. Exactly one representation is
// populated, selected by Kind; the codec matches on it exhaustively.
type Value struct {
	kind Kind
	text string // KindString and KindXMLFragment payloads
	obj  any    // KindObject payload
}

// StringValue wraps a plain string.
func StringValue(s string) Value {
	return Value{kind: KindString, text: s}
}

// XMLValue wraps a serialized XML fragment. Well-formedness is checked
// when the value is encoded, not here.
func XMLValue(fragment string) Value {
	return Value{kind: KindXMLFragment, text: fragment}
}

// ObjectValue wraps an arbitrary structured value.
func ObjectValue(v any) Value {
	return Value{kind: KindObject, obj: v}
}

// ValueOf maps a Go value to a property Value by inspecting its type:
// strings and scalars become KindString (scalars in their canonical
// string form), XMLFragment becomes KindXMLFragment, and everything else
// becomes KindObject. A Value passes through unchanged.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return StringValue(t)
	case XMLFragment:
		return XMLValue(string(t))
	case bool:
		return StringValue(strconv.FormatBool(t))
	case int:
		return StringValue(strconv.FormatInt(int64(t), 10))
	case int8:
		return StringValue(strconv.FormatInt(int64(t), 10))
	case int16:
		return StringValue(strconv.FormatInt(int64(t), 10))
	case int32:
		return StringValue(strconv.FormatInt(int64(t), 10))
	case int64:
		return StringValue(strconv.FormatInt(t, 10))
	case uint:
		return StringValue(strconv.FormatUint(uint64(t), 10))
	case uint8:
		return StringValue(strconv.FormatUint(uint64(t), 10))
	case uint16:
		return StringValue(strconv.FormatUint(uint64(t), 10))
	case uint32:
		return StringValue(strconv.FormatUint(uint64(t), 10))
	case uint64:
		return StringValue(strconv.FormatUint(t, 10))
	case float32:
		return StringValue(strconv.FormatFloat(float64(t), 'g', -1, 32))
	case float64:
		return StringValue(strconv.FormatFloat(t, 'g', -1, 64))
	default:
		return ObjectValue(v)
	}
}

// Kind returns the value's kind. The zero Value reports Kind 0, which is
// not a storable kind.
func (v Value) Kind() Kind {
	return v.kind
}

// Text returns the payload of a KindString or KindXMLFragment value, and
// "" for anything else.
func (v Value) Text() string {
	return v.text
}

// Object returns the payload of a KindObject value, and nil for anything
// else.
func (v Value) Object() any {
	return v.obj
}

// IsZero reports whether v is the zero Value (no kind, no payload).
func (v Value) IsZero() bool {
	return v.kind == 0 && v.text == "" && v.obj == nil
}

// String renders the value for logs and CLI output.
func (v Value) String() string {
	switch v.kind {
	case KindString, KindXMLFragment:
		return v.text
	case KindObject:
		return fmt.Sprintf("%v", v.obj)
	default:
		return ""
	}
}

// Property is one named value attached to a resource path.
//
// Names are namespaced in "{namespace}localname" form, e.g.
// "{DAV:}displayname".
type Property struct {
	Name  string
	Value Value
}
