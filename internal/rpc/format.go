// Package rpc (format.go) holds the hex helpers shared by the wire decoder
// and the row projector.
package rpc

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// DecodeHex decodes a hex string with or without a "0x" prefix.
//
// Examples:
//   - "abcd"   -> []byte{0xab, 0xcd}
//   - "0xABCD" -> []byte{0xab, 0xcd}
//   - ""       -> []byte{} (present but empty, not nil)
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "invalid hex %q: %v", s, err)
	}
	return b, nil
}

// EncodeHex renders b as lowercase hex without a prefix.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}
