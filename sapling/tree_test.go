package sapling

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityapk00/zecwallet-lite/types"
)

func testNode(i byte) types.Hash {
	var h types.Hash
	h[0] = i
	h[31] = i ^ 0xff
	return h
}

func TestTreeSizeAndRoot(t *testing.T) {
	tree := NewCommitmentTree()
	require.Equal(t, 0, tree.Size())

	roots := make(map[types.Hash]bool)
	for i := 0; i < 20; i++ {
		require.NoError(t, tree.Append(testNode(byte(i))))
		require.Equal(t, i+1, tree.Size())
		root := tree.Root()
		require.False(t, roots[root], "root repeated after append %d", i)
		roots[root] = true
	}
}

func TestWitnessTracksRoot(t *testing.T) {
	tree := NewCommitmentTree()
	for i := 0; i < 7; i++ {
		require.NoError(t, tree.Append(testNode(byte(i))))
	}

	// Witness the 8th commitment, then keep appending to both.
	leaf := testNode(7)
	require.NoError(t, tree.Append(leaf))
	w := WitnessFromTree(tree)
	require.Equal(t, uint64(7), w.Position())

	for i := 8; i < 40; i++ {
		node := testNode(byte(i))
		require.NoError(t, tree.Append(node))
		require.NoError(t, w.Append(node))

		require.Equal(t, tree.Root(), w.Root(), "witness root diverged at append %d", i)

		path := w.Path()
		require.NotNil(t, path)
		require.Equal(t, w.Root(), path.Root(leaf), "auth path does not authenticate the leaf at append %d", i)
		require.Equal(t, uint64(7), path.Position)
	}
}

func TestWitnessSerializationRoundTrip(t *testing.T) {
	tree := NewCommitmentTree()
	for i := 0; i < 5; i++ {
		require.NoError(t, tree.Append(testNode(byte(i))))
	}
	w := WitnessFromTree(tree)
	for i := 5; i < 17; i++ {
		node := testNode(byte(i))
		require.NoError(t, tree.Append(node))
		require.NoError(t, w.Append(node))
	}

	var buf bytes.Buffer
	e := types.NewWriter(&buf)
	w.WriteTo(e)
	require.NoError(t, e.Err())

	w2 := &IncrementalWitness{}
	d := types.NewReader(bytes.NewReader(buf.Bytes()))
	w2.ReadFrom(d)
	require.NoError(t, d.Err())

	require.Equal(t, w.Position(), w2.Position())
	require.Equal(t, w.Root(), w2.Root())
	require.Equal(t, w.Path().Root(testNode(4)), w2.Path().Root(testNode(4)))

	// And the restored witness keeps advancing correctly.
	next := testNode(42)
	require.NoError(t, tree.Append(next))
	require.NoError(t, w.Append(next))
	require.NoError(t, w2.Append(next))
	require.Equal(t, w.Root(), w2.Root())
}

func TestTreeSerializationRoundTrip(t *testing.T) {
	tree := NewCommitmentTree()
	for i := 0; i < 11; i++ {
		require.NoError(t, tree.Append(testNode(byte(i))))
	}

	var buf bytes.Buffer
	e := types.NewWriter(&buf)
	tree.WriteTo(e)
	require.NoError(t, e.Err())

	tree2 := NewCommitmentTree()
	d := types.NewReader(bytes.NewReader(buf.Bytes()))
	tree2.ReadFrom(d)
	require.NoError(t, d.Err())

	require.Equal(t, tree.Size(), tree2.Size())
	require.Equal(t, tree.Root(), tree2.Root())
}

func TestCloneIsIndependent(t *testing.T) {
	tree := NewCommitmentTree()
	require.NoError(t, tree.Append(testNode(1)))
	require.NoError(t, tree.Append(testNode(2)))

	clone := tree.Clone()
	require.NoError(t, clone.Append(testNode(3)))
	require.Equal(t, 2, tree.Size())
	require.Equal(t, 3, clone.Size())
	require.NotEqual(t, tree.Root(), clone.Root())
}
