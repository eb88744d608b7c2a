// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import "math/big"

// Encoded sizes of canonical RLP values. These mirror what rlp.EncoderBuffer
// writes, so containers can size themselves without encoding their children.

func headerLength(contentLength int) int {
	if contentLength < 56 {
		return 1
	}
	return 1 + byteCount(uint64(contentLength))
}

func listLength(contentLength int) int {
	return headerLength(contentLength) + contentLength
}

func bytesLength(b []byte) int {
	if len(b) == 1 && b[0] < 0x80 {
		return 1
	}
	return headerLength(len(b)) + len(b)
}

func uint64Length(x uint64) int {
	if x < 0x80 {
		return 1
	}
	return 1 + byteCount(x)
}

func bigLength(x *big.Int) int {
	if x == nil || x.Sign() == 0 {
		return 1
	}
	return bytesLength(x.Bytes())
}

func byteCount(x uint64) int {
	n := 0
	for ; x > 0; x >>= 8 {
		n++
	}
	return n
}
