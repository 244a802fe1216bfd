// Package api holds the wire types, procedure names, handler table and clients
// for the splitledger Connect services.
//
// Messages are plain Go structs encoded as JSON, so every handler and client is
// built with WithCodec(Codec{}).
package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// CodecName is registered under the same name as Connect's built-in JSON codec,
// so requests sent with Content-Type application/json land here.
const CodecName = "json"

// Codec marshals request and response structs with encoding/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal rejects unknown fields. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("failed to decode %T: %w", msg, err)
	}
	return nil
}

// WithCodec is the option every handler and client in this package needs.
func WithCodec() connect.Option {
	return connect.WithCodec(Codec{})
}
