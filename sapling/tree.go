package sapling

import (
	"errors"

	"github.com/adityapk00/zecwallet-lite/types"
)

// TreeDepth is the depth of the note commitment tree.
const TreeDepth = 32

var (
	// ErrTreeFull is returned when appending to a commitment tree that
	// already holds 2^TreeDepth commitments.
	ErrTreeFull = errors.New("note commitment tree is full")

	// emptyRoots[d] is the root of a depth-d subtree containing no
	// commitments.
	emptyRoots [TreeDepth + 1]types.Hash
)

func init() {
	for d := 1; d <= TreeDepth; d++ {
		emptyRoots[d] = merkleCombine(d-1, emptyRoots[d-1], emptyRoots[d-1])
	}
}

// CommitmentTree is an incremental merkle tree over note commitments. Only
// the rightmost frontier is kept: the two lowest leaves plus one filled
// sibling per level, which is all that is needed to append and to compute the
// current root.
type CommitmentTree struct {
	left    *types.Hash
	right   *types.Hash
	parents []*types.Hash
}

// NewCommitmentTree returns an empty commitment tree.
func NewCommitmentTree() *CommitmentTree {
	return &CommitmentTree{}
}

// Clone returns a deep copy of the tree.
func (t *CommitmentTree) Clone() *CommitmentTree {
	c := &CommitmentTree{
		left:  copyNode(t.left),
		right: copyNode(t.right),
	}
	c.parents = make([]*types.Hash, len(t.parents))
	for i, p := range t.parents {
		c.parents[i] = copyNode(p)
	}
	return c
}

func copyNode(n *types.Hash) *types.Hash {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

// Size returns the number of commitments appended so far.
func (t *CommitmentTree) Size() int {
	size := 0
	if t.left != nil {
		size++
	}
	if t.right != nil {
		size++
	}
	for i, p := range t.parents {
		if p != nil {
			size += 1 << uint(i+1)
		}
	}
	return size
}

// Append adds a commitment to the frontier.
func (t *CommitmentTree) Append(node types.Hash) error {
	if t.isComplete(TreeDepth) {
		return ErrTreeFull
	}
	switch {
	case t.left == nil:
		t.left = &node
	case t.right == nil:
		t.right = &node
	default:
		combined := merkleCombine(0, *t.left, *t.right)
		t.left = &node
		t.right = nil
		for i := 0; ; i++ {
			if i >= len(t.parents) {
				c := combined
				t.parents = append(t.parents, &c)
				break
			}
			if t.parents[i] == nil {
				c := combined
				t.parents[i] = &c
				break
			}
			combined = merkleCombine(i+1, *t.parents[i], combined)
			t.parents[i] = nil
		}
	}
	return nil
}

// isComplete reports whether a subtree of the given depth is entirely full.
func (t *CommitmentTree) isComplete(depth int) bool {
	if t.left == nil || t.right == nil {
		return false
	}
	if len(t.parents) != depth-1 {
		return false
	}
	for _, p := range t.parents {
		if p == nil {
			return false
		}
	}
	return true
}

// Root computes the current root of the full-depth tree, padding empty
// positions with the well-known empty subtree roots.
func (t *CommitmentTree) Root() types.Hash {
	return t.rootAt(TreeDepth, pathFiller{})
}

func (t *CommitmentTree) rootAt(depth int, filler pathFiller) types.Hash {
	l, r := emptyRoots[0], emptyRoots[0]
	if t.left != nil {
		l = *t.left
	} else {
		l = filler.next(0)
	}
	if t.right != nil {
		r = *t.right
	} else {
		r = filler.next(0)
	}
	root := merkleCombine(0, l, r)
	for i := 0; i < depth-1; i++ {
		if i < len(t.parents) && t.parents[i] != nil {
			root = merkleCombine(i+1, *t.parents[i], root)
		} else {
			root = merkleCombine(i+1, root, filler.next(i+1))
		}
	}
	return root
}

// WriteTo serializes the tree frontier.
func (t *CommitmentTree) WriteTo(e *types.Writer) {
	writeOptionalNode(e, t.left)
	writeOptionalNode(e, t.right)
	e.WriteUint64(uint64(len(t.parents)))
	for _, p := range t.parents {
		writeOptionalNode(e, p)
	}
}

// ReadFrom deserializes a tree frontier.
func (t *CommitmentTree) ReadFrom(d *types.Reader) {
	t.left = readOptionalNode(d)
	t.right = readOptionalNode(d)
	n := d.ReadUint64()
	if d.Err() != nil {
		return
	}
	if n > TreeDepth {
		d.Fail(errors.New("commitment tree has more parents than the tree depth allows"))
		return
	}
	t.parents = make([]*types.Hash, n)
	for i := range t.parents {
		t.parents[i] = readOptionalNode(d)
	}
}

func writeOptionalNode(e *types.Writer, n *types.Hash) {
	if n == nil {
		e.WriteBool(false)
		return
	}
	e.WriteBool(true)
	e.Write(n[:])
}

func readOptionalNode(d *types.Reader) *types.Hash {
	if !d.ReadBool() {
		return nil
	}
	var h types.Hash
	d.Read(h[:])
	return &h
}

// pathFiller supplies sibling hashes for positions to the right of the
// frontier: queued known nodes first, then empty roots.
type pathFiller struct {
	queue []types.Hash
}

func (f *pathFiller) next(depth int) types.Hash {
	if len(f.queue) > 0 {
		n := f.queue[0]
		f.queue = f.queue[1:]
		return n
	}
	return emptyRoots[depth]
}

// MerklePath is the authentication path of one commitment: a sibling per
// level and the leaf position.
type MerklePath struct {
	AuthPath [TreeDepth]types.Hash
	Position uint64
}

// Root folds the path over the leaf, yielding the anchor it authenticates
// against.
func (p *MerklePath) Root(leaf types.Hash) types.Hash {
	cur := leaf
	for i := 0; i < TreeDepth; i++ {
		if (p.Position>>uint(i))&1 == 1 {
			cur = merkleCombine(i, p.AuthPath[i], cur)
		} else {
			cur = merkleCombine(i, cur, p.AuthPath[i])
		}
	}
	return cur
}

// IncrementalWitness tracks the merkle path of a single commitment as the
// tree grows. It freezes a copy of the tree as of the witnessed append and
// incrementally accumulates the filled right-hand siblings.
type IncrementalWitness struct {
	tree        *CommitmentTree
	filled      []types.Hash
	cursorDepth int
	cursor      *CommitmentTree
}

// WitnessFromTree starts witnessing the most recently appended commitment of
// the given tree.
func WitnessFromTree(t *CommitmentTree) *IncrementalWitness {
	return &IncrementalWitness{tree: t.Clone()}
}

// Clone returns a deep copy of the witness.
func (w *IncrementalWitness) Clone() *IncrementalWitness {
	c := &IncrementalWitness{
		tree:        w.tree.Clone(),
		cursorDepth: w.cursorDepth,
	}
	c.filled = append(c.filled, w.filled...)
	if w.cursor != nil {
		c.cursor = w.cursor.Clone()
	}
	return c
}

// Position returns the leaf position of the witnessed commitment.
func (w *IncrementalWitness) Position() uint64 {
	return uint64(w.tree.Size() - 1)
}

func (w *IncrementalWitness) filler() pathFiller {
	queue := append([]types.Hash(nil), w.filled...)
	if w.cursor != nil {
		queue = append(queue, w.cursor.rootAt(w.cursorDepth, pathFiller{}))
	}
	return pathFiller{queue: queue}
}

// Root computes the root of the tree as witnessed, i.e. including every
// commitment appended after the witnessed one.
func (w *IncrementalWitness) Root() types.Hash {
	return w.tree.rootAt(TreeDepth, w.filler())
}

// nextDepth computes the depth of the next empty sibling subtree the witness
// needs to fill.
func (w *IncrementalWitness) nextDepth() int {
	skip := len(w.filled)
	if w.tree.left == nil {
		if skip > 0 {
			skip--
		} else {
			return 0
		}
	}
	if w.tree.right == nil {
		if skip > 0 {
			skip--
		} else {
			return 0
		}
	}
	d := 1
	for _, p := range w.tree.parents {
		if p == nil {
			if skip > 0 {
				skip--
			} else {
				return d
			}
		}
		d++
	}
	return d + skip
}

// Append advances the witness with a commitment appended to the tree after
// the witnessed one.
func (w *IncrementalWitness) Append(node types.Hash) error {
	if w.cursor != nil {
		if err := w.cursor.Append(node); err != nil {
			return err
		}
		if w.cursor.isComplete(w.cursorDepth) {
			w.filled = append(w.filled, w.cursor.rootAt(w.cursorDepth, pathFiller{}))
			w.cursor = nil
		}
		return nil
	}

	w.cursorDepth = w.nextDepth()
	if w.cursorDepth >= TreeDepth {
		return ErrTreeFull
	}
	if w.cursorDepth == 0 {
		w.filled = append(w.filled, node)
		return nil
	}
	w.cursor = NewCommitmentTree()
	return w.cursor.Append(node)
}

// Path assembles the authentication path of the witnessed commitment under
// the current (witnessed) root.
func (w *IncrementalWitness) Path() *MerklePath {
	filler := w.filler()
	var path MerklePath

	// Lowest level: the witnessed commitment is tree.left or tree.right. A
	// witness is only ever created from a tree that has at least one leaf.
	if w.tree.left == nil {
		return nil
	}
	if w.tree.right != nil {
		// Witnessed commitment is the right child; sibling is the left.
		path.AuthPath[0] = *w.tree.left
		path.Position |= 1
	} else {
		path.AuthPath[0] = filler.next(0)
	}

	for i := 0; i < TreeDepth-1; i++ {
		if i < len(w.tree.parents) && w.tree.parents[i] != nil {
			path.AuthPath[i+1] = *w.tree.parents[i]
			path.Position |= 1 << uint(i+1)
		} else {
			path.AuthPath[i+1] = filler.next(i + 1)
		}
	}
	return &path
}

// WriteTo serializes the witness.
func (w *IncrementalWitness) WriteTo(e *types.Writer) {
	w.tree.WriteTo(e)
	e.WriteUint64(uint64(len(w.filled)))
	for _, f := range w.filled {
		e.Write(f[:])
	}
	if w.cursor != nil {
		e.WriteBool(true)
		w.cursor.WriteTo(e)
	} else {
		e.WriteBool(false)
	}
	e.WriteUint8(uint8(w.cursorDepth))
}

// ReadFrom deserializes a witness.
func (w *IncrementalWitness) ReadFrom(d *types.Reader) {
	w.tree = NewCommitmentTree()
	w.tree.ReadFrom(d)
	n := d.ReadUint64()
	if d.Err() != nil {
		return
	}
	if n > TreeDepth {
		d.Fail(errors.New("witness has more filled nodes than the tree depth allows"))
		return
	}
	w.filled = make([]types.Hash, n)
	for i := range w.filled {
		d.Read(w.filled[i][:])
	}
	if d.ReadBool() {
		w.cursor = NewCommitmentTree()
		w.cursor.ReadFrom(d)
	}
	w.cursorDepth = int(d.ReadUint8())
}
