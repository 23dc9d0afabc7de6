package props

import (
	"encoding/xml"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// objectEncMode is the CBOR encoder for KindObject payloads, configured
// with Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
// smallest integer encoding, no indefinite-length items. The same
// logical value always produces identical bytes.
var objectEncMode cbor.EncMode

// objectDecMode is the matching decoder. Any-typed targets decode maps
// as map[string]any so decoded objects compare and print like ordinary
// Go data.
var objectDecMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	objectEncMode, err = encOptions.EncMode()
	if err != nil {
		panic("props: CBOR encoder initialization failed: " + err.Error())
	}

	objectDecMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("props: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode turns a Value into its storage form: the kind discriminator and
// the encoded payload.
//
// Returns ErrInvalidArgument when the value cannot be encoded: a zero or
// unknown kind, an XML fragment that is not well-formed, or an object
// CBOR cannot marshal.
func Encode(v Value) (uint32, []byte, error) {
	switch v.kind {
	case KindString:
		return uint32(KindString), []byte(v.text), nil

	case KindXMLFragment:
		if err := checkFragment(v.text); err != nil {
			return 0, nil, &StoreError{
				Code:    ErrInvalidArgument,
				Message: fmt.Sprintf("malformed XML fragment: %v", err),
			}
		}
		return uint32(KindXMLFragment), []byte(v.text), nil

	case KindObject:
		data, err := objectEncMode.Marshal(v.obj)
		if err != nil {
			return 0, nil, &StoreError{
				Code:    ErrInvalidArgument,
				Message: fmt.Sprintf("object not serializable: %v", err),
			}
		}
		return uint32(KindObject), data, nil

	default:
		return 0, nil, &StoreError{
			Code:    ErrInvalidArgument,
			Message: fmt.Sprintf("cannot encode value of %s", v.kind),
		}
	}
}

// Decode turns stored bytes back into a Value according to the kind
// discriminator.
//
// KindString never fails. KindXMLFragment and KindObject return
// ErrDecode when the stored bytes are not well-formed for the kind, as
// does an unknown kind. Callers doing batch lookups skip such records
// instead of failing the batch.
func Decode(kind uint32, data []byte) (Value, error) {
	switch Kind(kind) {
	case KindString:
		return StringValue(string(data)), nil

	case KindXMLFragment:
		fragment := string(data)
		if err := checkFragment(fragment); err != nil {
			return Value{}, &StoreError{
				Code:    ErrDecode,
				Message: fmt.Sprintf("malformed XML fragment: %v", err),
			}
		}
		return XMLValue(fragment), nil

	case KindObject:
		var obj any
		if err := objectDecMode.Unmarshal(data, &obj); err != nil {
			return Value{}, &StoreError{
				Code:    ErrDecode,
				Message: fmt.Sprintf("malformed object payload: %v", err),
			}
		}
		return ObjectValue(obj), nil

	default:
		return Value{}, &StoreError{
			Code:    ErrDecode,
			Message: fmt.Sprintf("unknown value kind %d", kind),
		}
	}
}

// checkFragment parses the fragment inside a synthetic root element so
// that text-only fragments and fragments with several top-level elements
// all count as well-formed.
func checkFragment(fragment string) error {
	decoder := xml.NewDecoder(strings.NewReader("<fragment>" + fragment + "</fragment>"))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
