// Package api defines the debtwise.v1 RPC messages.
//
// Messages are plain Go structs carried over Connect with a JSON codec, so
// any Connect or plain HTTP client can call the services with
// Content-Type: application/json. Field names on the wire are lowerCamelCase.
package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// CodecName is the Connect codec name, which maps to application/json.
const CodecName = "json"

type jsonCodec struct{}

// Codec returns the JSON codec used by debtwise handlers and clients.
func Codec() connect.Codec {
	return jsonCodec{}
}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	// Connect sends an empty body for messages with no set fields.
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	return nil
}
