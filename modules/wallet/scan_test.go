package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityapk00/zecwallet-lite/types"
)

// Receiving notes across two blocks shows up in the balance.
func TestScanBlockReceive(t *testing.T) {
	w := testWallet(t, 0)
	addr := firstAddr(w)
	encoded := addr.Encode(w.Params())

	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, addr, 5)
	txids := scanOK(t, w, fb)
	require.Len(t, txids, 1, "block with a new note returns all its txids")

	require.Equal(t, 1, w.BlockCount())
	require.Equal(t, types.Amount(5), w.ZBalance(""))
	require.Equal(t, types.Amount(5), w.ZBalance(encoded))

	fb2 := newFakeBlock(1, fb.hash())
	fb2.addShieldedOutput(t, addr, 10)
	scanOK(t, w, fb2)

	require.Equal(t, 2, w.BlockCount())
	require.Equal(t, types.Amount(15), w.ZBalance(""))

	w.mu.RLock()
	require.Len(t, w.txs, 2)
	w.mu.RUnlock()
}

// A block with no wallet-relevant outputs returns no txids.
func TestScanBlockNoDecoysWithoutNotes(t *testing.T) {
	w := testWallet(t, 0)
	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, externalAddr(t), 5)
	txids := scanOK(t, w, fb)
	require.Empty(t, txids)
}

// Spending a note marks it spent and detects the change note.
func TestScanBlockSpendAndChange(t *testing.T) {
	w := testWallet(t, 0)
	addr := firstAddr(w)

	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, addr, 5)
	scanOK(t, w, fb)

	nd, _ := firstNote(t, w)
	nf := nd.Nullifier

	fb2 := newFakeBlock(1, fb.hash())
	spendTxID := fb2.addSpendingTx(t, nf, addr, 3, externalAddr(t), 2)
	scanOK(t, w, fb2)

	// Original note is now spent by the new tx.
	require.NotNil(t, nd.SpentTxID)
	require.Equal(t, spendTxID, *nd.SpentTxID)
	require.Nil(t, nd.UnconfirmedSpent)

	w.mu.RLock()
	spendTx := w.txs[spendTxID]
	require.NotNil(t, spendTx)
	require.Equal(t, types.Amount(5), spendTx.TotalShieldedValueSpent)
	require.Len(t, spendTx.Notes, 1)
	change := spendTx.Notes[0]
	w.mu.RUnlock()

	require.Equal(t, types.Amount(3), change.Note.Value)
	require.True(t, change.IsChange)

	require.Equal(t, types.Amount(3), w.ZBalance(""))
}

// A rescan of the tip with the same hash is a no-op; with a different hash
// the scanner reports the tip height for invalidation.
func TestScanBlockTipMismatch(t *testing.T) {
	w := testWallet(t, 0)
	fb := newFakeBlock(0, types.Hash{})
	scanOK(t, w, fb)
	fb2 := newFakeBlock(1, fb.hash())
	scanOK(t, w, fb2)

	// Same tip again: accepted silently.
	txids, err := w.ScanBlock(fb2.cb.Marshal())
	require.NoError(t, err)
	require.Empty(t, txids)

	// Same height, different hash.
	other := newFakeBlock(1, fb.hash())
	_, err = w.ScanBlock(other.cb.Marshal())
	var mismatch *BlockMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, int32(1), mismatch.Height)

	// Right height, wrong prev hash.
	wrongPrev := newFakeBlock(2, testHash())
	_, err = w.ScanBlock(wrongPrev.cb.Marshal())
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, int32(1), mismatch.Height)

	// Garbage bytes are fatal.
	_, err = w.ScanBlock([]byte{0xff, 0x01, 0x02})
	var decodeErr *BlockDecodeError
	require.ErrorAs(t, err, &decodeErr)
}

// Witness history is capped and keeps matching the committed trees.
func TestScanBlockWitnessMaintenance(t *testing.T) {
	w := testWallet(t, 0)
	addr := firstAddr(w)

	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, addr, 5)
	scanOK(t, w, fb)

	addEmptyBlocks(t, w, 7)

	nd, _ := firstNote(t, w)
	require.Len(t, nd.Witnesses, 8)

	// The newest witness must be rooted at the newest block's tree.
	w.mu.RLock()
	tipTree := w.blocks[len(w.blocks)-1].Tree
	w.mu.RUnlock()
	require.Equal(t, tipTree.Root(), nd.Witnesses[len(nd.Witnesses)-1].Root())
}

// Scenario 6: invalidation removes blocks, shortens witnesses and clears
// spends referencing removed transactions.
func TestInvalidateBlocks(t *testing.T) {
	w := testWallet(t, 0)
	addr := firstAddr(w)

	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, addr, 5)
	scanOK(t, w, fb)
	addEmptyBlocks(t, w, 4)

	nd, _ := firstNote(t, w)
	require.Len(t, nd.Witnesses, 5)

	removed := w.InvalidateBlock(3)
	require.Equal(t, 2, removed)
	require.Equal(t, 3, w.BlockCount())
	require.Len(t, nd.Witnesses, 3)
}

// Law L4: scanning a block and invalidating it restores the pre-scan state.
func TestScanThenInvalidateRestoresState(t *testing.T) {
	w := testWallet(t, 0)
	addr := firstAddr(w)

	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, addr, 5)
	scanOK(t, w, fb)
	addEmptyBlocks(t, w, 2)

	nd, _ := firstNote(t, w)
	w.mu.RLock()
	preBlocks := len(w.blocks)
	preTxs := len(w.txs)
	preWitnesses := len(nd.Witnesses)
	preRoot := w.blocks[len(w.blocks)-1].Tree.Root()
	preWitnessRoot := nd.Witnesses[len(nd.Witnesses)-1].Root()
	tipHeight := w.blocks[len(w.blocks)-1].Height
	tipHash := w.blocks[len(w.blocks)-1].Hash
	w.mu.RUnlock()

	// A block that spends our note and pays someone else.
	fb2 := newFakeBlock(tipHeight+1, tipHash)
	fb2.addSpendingTx(t, nd.Nullifier, addr, 1, externalAddr(t), 3)
	scanOK(t, w, fb2)
	require.NotNil(t, nd.SpentTxID)

	require.Equal(t, 1, w.InvalidateBlock(tipHeight+1))

	w.mu.RLock()
	defer w.mu.RUnlock()
	require.Len(t, w.blocks, preBlocks)
	require.Len(t, w.txs, preTxs)
	require.Len(t, nd.Witnesses, preWitnesses)
	require.Equal(t, preRoot, w.blocks[len(w.blocks)-1].Tree.Root())
	require.Equal(t, preWitnessRoot, nd.Witnesses[len(nd.Witnesses)-1].Root())
	require.Nil(t, nd.SpentTxID)
}

// Invalidating a block and scanning it again yields its note once; the
// balance is not double-counted.
func TestScanBlockRescanAfterInvalidateCountsOnce(t *testing.T) {
	w := testWallet(t, 0)
	addr := firstAddr(w)

	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, addr, 5)
	scanOK(t, w, fb)

	before := w.ZBalance("")

	// Invalidate and rescan the identical block; the note reappears once.
	w.InvalidateBlock(0)
	scanOK(t, w, fb)
	require.Equal(t, before, w.ZBalance(""))
}

// The gap rule keeps unused shielded addresses beyond the last used one.
func TestGapRuleExtendsAddresses(t *testing.T) {
	w := testWallet(t, 0)
	require.Len(t, w.ZAddresses(), 1)

	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, firstAddr(w), 5)
	scanOK(t, w, fb)

	// Address 0 was used and was the last one; five fresh addresses follow.
	require.Len(t, w.ZAddresses(), 6)

	// A receive on an old address far from the end is a no-op.
	fb2 := newFakeBlock(1, fb.hash())
	fb2.addShieldedOutput(t, firstAddr(w), 2)
	scanOK(t, w, fb2)
	require.Len(t, w.ZAddresses(), 6)
}
