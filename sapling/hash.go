package sapling

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/adityapk00/zecwallet-lite/types"
)

// Domain tags for the BLAKE2b hashes used throughout the shielded pool. Every
// hash is domain-separated by a distinct prefix so values from one context can
// never be replayed in another.
var (
	tagMerkle  = []byte("ZcashSaplingMT__")
	tagExpand  = []byte("Zcash_ExpandSeed")
	tagMaster  = []byte("ZcashIP32Sapling")
	tagIvk     = []byte("Zcashivk________")
	tagNf      = []byte("Zcash_nf________")
	tagNoteCM  = []byte("Zcash_NoteCM____")
	tagGd      = []byte("Zcash_gd________")
	tagKDF     = []byte("Zcash_SaplingKDF")
	tagOCK     = []byte("Zcash_Derive_ock")
	tagCV      = []byte("Zcash_cv________")
	tagRK      = []byte("Zcash_rk________")
	tagSigHash = []byte("ZcashSigHash____")
	tagProof   = []byte("ZcashGrothProof_")
	tagBinding = []byte("ZcashBindingSig_")
	tagFVKTag  = []byte("ZcashSaplingFVFP")
)

// hash256 computes a 32-byte domain-separated BLAKE2b digest.
func hash256(tag []byte, data ...[]byte) types.Hash {
	h, _ := blake2b.New256(nil)
	h.Write(tag)
	for _, d := range data {
		h.Write(d)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// hash512 computes a 64-byte domain-separated BLAKE2b digest.
func hash512(tag []byte, data ...[]byte) [64]byte {
	h, _ := blake2b.New512(nil)
	h.Write(tag)
	for _, d := range data {
		h.Write(d)
	}
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out
}

// prfExpand is the ZIP-32 expansion PRF: a 64-byte digest of sk with a
// one-byte domain t and optional extra data.
func prfExpand(sk []byte, t byte, data ...[]byte) [64]byte {
	all := make([][]byte, 0, len(data)+2)
	all = append(all, sk, []byte{t})
	all = append(all, data...)
	return hash512(tagExpand, all...)
}

// merkleCombine hashes two sibling nodes at the given altitude into their
// parent node.
func merkleCombine(altitude int, l, r types.Hash) types.Hash {
	var depth [1]byte
	depth[0] = byte(altitude)
	return hash256(tagMerkle, depth[:], l[:], r[:])
}

func le32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func le64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}
