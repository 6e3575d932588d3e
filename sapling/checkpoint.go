package sapling

import (
	"bytes"
	"errors"

	"github.com/adityapk00/zecwallet-lite/types"
)

// TreeFromCheckpoint parses a commitment tree in the chain's checkpoint
// serialization: an optional left leaf, an optional right leaf and a
// compact-size-prefixed vector of optional parents, all byte-for-byte as the
// consensus nodes export them.
func TreeFromCheckpoint(raw []byte) (*CommitmentTree, error) {
	d := types.NewReader(bytes.NewReader(raw))
	t := NewCommitmentTree()
	t.left = readCheckpointOptional(d)
	t.right = readCheckpointOptional(d)
	n := d.ReadCompactSize()
	if d.Err() != nil {
		return nil, d.Err()
	}
	if n > TreeDepth {
		return nil, errors.New("checkpoint tree has too many parents")
	}
	t.parents = make([]*types.Hash, n)
	for i := range t.parents {
		t.parents[i] = readCheckpointOptional(d)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func readCheckpointOptional(d *types.Reader) *types.Hash {
	if d.ReadUint8() != 1 {
		return nil
	}
	var h types.Hash
	d.Read(h[:])
	return &h
}
