package token

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// segmentParser restores stripped '=' padding before decoding.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// EncodeSegment serializes v as JSON and encodes it as unpadded base64url.
func EncodeSegment(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode segment: %w", err)
	}
	return encodeRaw(raw), nil
}

// DecodeSegment reverses EncodeSegment into v.
func DecodeSegment(segment string, v interface{}) error {
	raw, err := decodeRaw(segment)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode segment: %w", err)
	}
	return nil
}

func encodeRaw(raw []byte) string {
	return new(jwt.Token).EncodeSegment(raw)
}

func decodeRaw(segment string) ([]byte, error) {
	if segment == "" {
		return nil, fmt.Errorf("empty segment")
	}
	raw, err := segmentParser.DecodeSegment(segment)
	if err != nil {
		return nil, fmt.Errorf("malformed segment: %w", err)
	}
	return raw, nil
}
