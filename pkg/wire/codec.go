package wire

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for push-channel messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for push-channel messages.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical, // Deterministic key ordering
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient decoding for forward compatibility
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet, // Ignore duplicate keys (last wins)
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// Codec converts push-channel messages to and from bytes.
type Codec interface {
	// Name identifies the codec ("json" or "cbor").
	Name() string

	// Binary reports whether encoded messages are binary frames.
	Binary() bool

	EncodeCommands(w CommandWrapper) ([]byte, error)
	DecodeCommands(data []byte) (CommandWrapper, error)
	EncodeUpdate(u Update) ([]byte, error)
	DecodeUpdate(data []byte) (Update, error)
}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "cbor":
		return CBORCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}

// JSONCodec is the text codec.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }
func (JSONCodec) Binary() bool { return false }

// EncodeCommands encodes a command envelope.
func (JSONCodec) EncodeCommands(w CommandWrapper) ([]byte, error) {
	return json.Marshal(w)
}

// DecodeCommands decodes a command envelope.
func (JSONCodec) DecodeCommands(data []byte) (CommandWrapper, error) {
	var w CommandWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		return CommandWrapper{}, fmt.Errorf("failed to decode commands: %w", err)
	}
	return w, nil
}

// EncodeUpdate encodes a server update.
func (JSONCodec) EncodeUpdate(u Update) ([]byte, error) {
	return json.Marshal(u)
}

// DecodeUpdate decodes a server update.
func (JSONCodec) DecodeUpdate(data []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("failed to decode update: %w", err)
	}
	return u, nil
}

// CBORCodec is the binary codec.
type CBORCodec struct{}

func (CBORCodec) Name() string { return "cbor" }
func (CBORCodec) Binary() bool { return true }

// EncodeCommands encodes a command envelope.
func (CBORCodec) EncodeCommands(w CommandWrapper) ([]byte, error) {
	return Marshal(w)
}

// DecodeCommands decodes a command envelope.
func (CBORCodec) DecodeCommands(data []byte) (CommandWrapper, error) {
	var w CommandWrapper
	if err := Unmarshal(data, &w); err != nil {
		return CommandWrapper{}, fmt.Errorf("failed to decode commands: %w", err)
	}
	return w, nil
}

// EncodeUpdate encodes a server update.
func (CBORCodec) EncodeUpdate(u Update) ([]byte, error) {
	return Marshal(u)
}

// DecodeUpdate decodes a server update.
func (CBORCodec) DecodeUpdate(data []byte) (Update, error) {
	var u Update
	if err := Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("failed to decode update: %w", err)
	}
	return u, nil
}

// Compile-time interface satisfaction checks.
var (
	_ Codec = JSONCodec{}
	_ Codec = CBORCodec{}
)
