// Package merkle checks SSZ Merkle branches identified by generalized index.
package merkle

import (
	"fmt"
	"math/bits"

	"github.com/minio/sha256-simd"
)

// GeneralizedIndex returns the generalized index of the leaf at index in a
// subtree of the given depth.
func GeneralizedIndex(depth, index uint64) uint64 {
	return 1<<depth + index
}

// Concat returns the generalized index of inner taken relative to the node
// at outer.
func Concat(outer, inner uint64) uint64 {
	depth := Depth(inner)
	return outer<<depth | (inner ^ 1<<depth)
}

// Depth returns the length of the branch proving gindex.
func Depth(gindex uint64) uint64 {
	if gindex == 0 {
		return 0
	}
	return uint64(bits.Len64(gindex) - 1)
}

// VerifyBranch reports whether branch proves leaf at gindex under root.
// Branches of the wrong length are invalid.
func VerifyBranch(root, leaf [32]byte, branch [][32]byte, gindex uint64) bool {
	if gindex < 2 {
		return false
	}
	computed, err := ComputeRoot(leaf, branch, gindex)
	return err == nil && computed == root
}

// ComputeRoot folds branch over leaf along the path of gindex.
func ComputeRoot(leaf [32]byte, branch [][32]byte, gindex uint64) ([32]byte, error) {
	if uint64(len(branch)) != Depth(gindex) {
		return [32]byte{}, fmt.Errorf("branch of length %d cannot prove generalized index %d", len(branch), gindex)
	}
	node := leaf
	buf := make([]byte, 64)
	for i, sibling := range branch {
		if gindex>>uint(i)&1 == 1 {
			copy(buf[:32], sibling[:])
			copy(buf[32:], node[:])
		} else {
			copy(buf[:32], node[:])
			copy(buf[32:], sibling[:])
		}
		node = sha256.Sum256(buf)
	}
	return node, nil
}
