package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_String(t *testing.T) {
	for _, text := range []string{"", "Home calendar", "naïve résumé ☕"} {
		kind, data, err := Encode(StringValue(text))
		require.NoError(t, err)
		assert.Equal(t, uint32(KindString), kind)

		decoded, err := Decode(kind, data)
		require.NoError(t, err)
		assert.Equal(t, StringValue(text), decoded)
	}
}

func TestEncodeDecode_XMLFragment(t *testing.T) {
	fragments := []string{
		`<x:tz xmlns:x="urn:ietf:params:xml:ns:caldav">BEGIN:VTIMEZONE</x:tz>`,
		`<a/><b/>trailing text`,
		`plain text with no elements`,
	}

	for _, fragment := range fragments {
		kind, data, err := Encode(XMLValue(fragment))
		require.NoError(t, err, "Fragment should encode: %s", fragment)
		assert.Equal(t, uint32(KindXMLFragment), kind)

		decoded, err := Decode(kind, data)
		require.NoError(t, err)
		assert.Equal(t, XMLValue(fragment), decoded)
	}
}

func TestEncode_MalformedXMLRejected(t *testing.T) {
	_, _, err := Encode(XMLValue(`<open>never closed`))

	require.Error(t, err)
	assert.True(t, IsCode(err, ErrInvalidArgument), "Malformed fragments fail encoding, got %v", err)
}

func TestEncodeDecode_Object(t *testing.T) {
	obj := map[string]any{
		"description": "shared",
		"tags":        []any{"work", "urgent"},
		"nested":      map[string]any{"color": "#FF0000"},
	}

	kind, data, err := Encode(ObjectValue(obj))
	require.NoError(t, err)
	assert.Equal(t, uint32(KindObject), kind)

	decoded, err := Decode(kind, data)
	require.NoError(t, err)
	assert.Equal(t, obj, decoded.Object())
}

func TestEncode_ObjectDeterministic(t *testing.T) {
	obj := map[string]any{"zz": "last", "aa": "first", "mm": "middle"}

	_, first, err := Encode(ObjectValue(obj))
	require.NoError(t, err)
	_, second, err := Encode(ObjectValue(obj))
	require.NoError(t, err)

	assert.Equal(t, first, second, "The same object should always encode to identical bytes")
}

func TestEncode_UnserializableObject(t *testing.T) {
	_, _, err := Encode(ObjectValue(make(chan int)))

	require.Error(t, err)
	assert.True(t, IsCode(err, ErrInvalidArgument))
}

func TestEncode_ZeroValue(t *testing.T) {
	_, _, err := Encode(Value{})

	require.Error(t, err)
	assert.True(t, IsCode(err, ErrInvalidArgument))
}

func TestDecode_StringNeverFails(t *testing.T) {
	// Arbitrary bytes, including invalid UTF-8.
	decoded, err := Decode(uint32(KindString), []byte{0xff, 0xfe, 0x00, 0x41})

	require.NoError(t, err)
	assert.Equal(t, KindString, decoded.Kind())
}

func TestDecode_MalformedXML(t *testing.T) {
	_, err := Decode(uint32(KindXMLFragment), []byte(`<broken`))

	require.Error(t, err)
	assert.True(t, IsCode(err, ErrDecode), "Stored malformed XML should surface ErrDecode, got %v", err)
}

func TestDecode_MalformedObject(t *testing.T) {
	// 0x1b announces an 8-byte integer that never follows.
	_, err := Decode(uint32(KindObject), []byte{0x1b})

	require.Error(t, err)
	assert.True(t, IsCode(err, ErrDecode))
}

func TestDecode_UnknownKind(t *testing.T) {
	for _, kind := range []uint32{0, 4, 99} {
		_, err := Decode(kind, []byte("payload"))

		require.Error(t, err, "Kind %d should not decode", kind)
		assert.True(t, IsCode(err, ErrDecode))
	}
}

func TestValueOf_Conversions(t *testing.T) {
	assert.Equal(t, StringValue("hello"), ValueOf("hello"))
	assert.Equal(t, StringValue("true"), ValueOf(true))
	assert.Equal(t, StringValue("42"), ValueOf(42))
	assert.Equal(t, StringValue("-7"), ValueOf(int64(-7)))
	assert.Equal(t, StringValue("3.5"), ValueOf(3.5))
	assert.Equal(t, XMLValue("<a/>"), ValueOf(XMLFragment("<a/>")))

	passthrough := ObjectValue(map[string]any{"k": "v"})
	assert.Equal(t, passthrough, ValueOf(passthrough), "A Value should pass through unchanged")

	converted := ValueOf(map[string]any{"k": "v"})
	assert.Equal(t, KindObject, converted.Kind(), "Maps should become objects")
}
