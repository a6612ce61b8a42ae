package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode marshals any outbound message as a single JSON object.
func Encode(payload any) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("trying to encode nil payload")
	}
	return json.Marshal(payload)
}

// DecodeCommand parses an inbound viewer message. It only validates
// the outer shape; dispatch decides whether the type is known.
func DecodeCommand(b []byte) (Command, error) {
	if len(b) == 0 {
		return Command{}, fmt.Errorf("empty message")
	}
	var cmd Command
	if err := json.Unmarshal(b, &cmd); err != nil {
		return Command{}, err
	}
	if cmd.Type == "" {
		return Command{}, fmt.Errorf("message has no type")
	}
	return cmd, nil
}
