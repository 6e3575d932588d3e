package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// HashSize is the byte length of block hashes, txids and nullifiers.
const HashSize = 32

type (
	// Hash is a raw 32-byte chain hash (block hash, commitment, nullifier).
	Hash [HashSize]byte

	// TxID is the double-SHA256 identifier of a transaction. Like all chain
	// hashes it is displayed reversed.
	TxID [HashSize]byte
)

// ErrHashWrongLen is returned when decoding a hash of the wrong length.
var ErrHashWrongLen = errors.New("encoded hash has wrong length")

// NewTxID computes the txid of a serialized transaction.
func NewTxID(raw []byte) TxID {
	first := sha256.Sum256(raw)
	return TxID(sha256.Sum256(first[:]))
}

// HashFromSlice copies a 32-byte slice into a Hash.
func HashFromSlice(b []byte) (h Hash, err error) {
	if len(b) != HashSize {
		return Hash{}, ErrHashWrongLen
	}
	copy(h[:], b)
	return h, nil
}

// String returns the hash in the conventional reversed hex display order.
func (h Hash) String() string {
	return reversedHex(h[:])
}

// IsZero reports whether the hash is all zeroes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the txid in the conventional reversed hex display order.
func (id TxID) String() string {
	return reversedHex(id[:])
}

// TxIDFromString parses a reversed-hex txid.
func TxIDFromString(s string) (TxID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return TxID{}, err
	}
	if len(b) != HashSize {
		return TxID{}, ErrHashWrongLen
	}
	var id TxID
	for i, c := range b {
		id[HashSize-1-i] = c
	}
	return id, nil
}

func reversedHex(b []byte) string {
	r := make([]byte, len(b))
	for i, c := range b {
		r[len(b)-1-i] = c
	}
	return hex.EncodeToString(r)
}

// Equal compares two hashes in constant structure (plain byte compare).
func (h Hash) Equal(other Hash) bool {
	return bytes.Equal(h[:], other[:])
}
