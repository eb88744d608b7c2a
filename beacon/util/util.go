package util

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func HexStringToByteArray(hexString string) ([]byte, error) {
	bytes, err := hex.DecodeString(strings.TrimPrefix(hexString, "0x"))
	if err != nil {
		return []byte{}, err
	}

	return bytes, nil
}

func BytesToHexString(bytes []byte) string {
	return "0x" + hex.EncodeToString(bytes)
}

// hexStringToFixed decodes hexString into out, which it must fill exactly.
func hexStringToFixed(hexString string, out []byte) error {
	b, err := HexStringToByteArray(hexString)
	if err != nil {
		return err
	}
	if len(b) != len(out) {
		return fmt.Errorf("hex string %q has %d bytes, want %d", hexString, len(b), len(out))
	}
	copy(out, b)
	return nil
}

func HexStringToPublicKey(hexString string) ([48]byte, error) {
	var out [48]byte
	err := hexStringToFixed(hexString, out[:])
	return out, err
}

func HexStringTo32Bytes(hexString string) ([32]byte, error) {
	var out [32]byte
	err := hexStringToFixed(hexString, out[:])
	return out, err
}

func HexStringTo96Bytes(hexString string) ([96]byte, error) {
	var out [96]byte
	err := hexStringToFixed(hexString, out[:])
	return out, err
}

func HexBranchTo32Bytes(branch []string) ([][32]byte, error) {
	out := make([][32]byte, len(branch))
	for i, node := range branch {
		var err error
		if out[i], err = HexStringTo32Bytes(node); err != nil {
			return nil, fmt.Errorf("branch node %d: %w", i, err)
		}
	}
	return out, nil
}

func BranchToHexStrings(branch [][32]byte) []string {
	out := make([]string, len(branch))
	for i := range branch {
		out[i] = BytesToHexString(branch[i][:])
	}
	return out
}
