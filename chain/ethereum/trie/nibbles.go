package trie

import "errors"

var errInvalidCompactPath = errors.New("invalid hex-prefix path")

const (
	flagOdd  = 0x10
	flagLeaf = 0x20
)

// toNibbles expands a key into one nibble per byte, high nibble first.
func toNibbles(key []byte) []byte {
	nibbles := make([]byte, len(key)*2)
	for i, b := range key {
		nibbles[i*2] = b >> 4
		nibbles[i*2+1] = b & 0x0f
	}
	return nibbles
}

// compactPath hex-prefix encodes a nibble path. The first byte carries the
// leaf flag, the odd length flag and, for odd paths, the first nibble.
func compactPath(nibbles []byte, leaf bool) []byte {
	buf := make([]byte, len(nibbles)/2+1)
	if leaf {
		buf[0] = flagLeaf
	}
	if len(nibbles)%2 == 1 {
		buf[0] |= flagOdd | nibbles[0]
		nibbles = nibbles[1:]
	}
	for i := 0; i < len(nibbles); i += 2 {
		buf[i/2+1] = nibbles[i]<<4 | nibbles[i+1]
	}
	return buf
}

// expandPath reverses compactPath.
func expandPath(compact []byte) ([]byte, bool, error) {
	if len(compact) == 0 {
		return nil, false, errInvalidCompactPath
	}
	flags := compact[0] & 0xf0
	if flags&^(flagOdd|flagLeaf) != 0 {
		return nil, false, errInvalidCompactPath
	}
	leaf := flags&flagLeaf != 0
	nibbles := toNibbles(compact[1:])
	if flags&flagOdd != 0 {
		return append([]byte{compact[0] & 0x0f}, nibbles...), leaf, nil
	}
	if compact[0]&0x0f != 0 {
		return nil, false, errInvalidCompactPath
	}
	return nibbles, leaf, nil
}
