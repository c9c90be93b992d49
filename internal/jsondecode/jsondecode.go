package jsondecode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// UnmarshalSafe decodes exactly one JSON document from data into v.
// Trailing documents make the whole input invalid.
func UnmarshalSafe(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	err := dec.Decode(v)
	if err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}

	var noMore json.RawMessage
	noMoreErr := dec.Decode(&noMore)
	if noMoreErr != nil {
		if noMoreErr != io.EOF {
			return fmt.Errorf("invalid json: %w", noMoreErr)
		}
	} else {
		return fmt.Errorf("invalid json: multiple json object found")
	}
	return nil
}

// UnmarshalSafeAny decodes one JSON document into a generic value,
// numbers are kept as json.Number
func UnmarshalSafeAny(data []byte) (interface{}, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid json: multiple json object found")
	}
	return v, nil
}
