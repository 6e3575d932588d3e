package wallet

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

// testParams is a regtest-like parameter set whose sapling activation sits
// at zero so test chains can start at height 0.
func testParams(anchorOffset uint32) *types.ChainParams {
	p := types.RegtestParams
	p.SaplingActivationHeight = 0
	p.AnchorOffset = anchorOffset
	return &p
}

func testWallet(t *testing.T, anchorOffset uint32) *Wallet {
	t.Helper()
	var seed [32]byte
	for i := range seed {
		seed[i] = byte(i * 3)
	}
	w, err := NewFromSeed(testParams(anchorOffset), seed, 0)
	require.NoError(t, err)
	return w
}

var testCounter uint32

// testHash produces distinct deterministic hashes for fake blocks and txids.
func testHash() types.Hash {
	testCounter++
	var h types.Hash
	binary.LittleEndian.PutUint32(h[:], testCounter)
	h[31] = 0x77
	return h
}

// fakeBlock builds compact blocks the scanner accepts.
type fakeBlock struct {
	cb *types.CompactBlock
}

func newFakeBlock(height int32, prevHash types.Hash) *fakeBlock {
	hash := testHash()
	return &fakeBlock{cb: &types.CompactBlock{
		ProtoVersion: 1,
		Height:       uint64(height),
		Hash:         hash[:],
		PrevHash:     prevHash[:],
		Time:         1_600_000_000 + uint32(height),
	}}
}

func (fb *fakeBlock) hash() types.Hash {
	return fb.cb.BlockHash()
}

// addShieldedOutput appends a transaction with one shielded output paying
// value to addr, returning its txid.
func (fb *fakeBlock) addShieldedOutput(t *testing.T, addr sapling.PaymentAddress, value types.Amount) types.TxID {
	t.Helper()
	txid := testHash()
	tx := &types.CompactTx{Index: uint64(len(fb.cb.Vtx)), Hash: txid[:]}
	fb.appendOutput(t, tx, addr, value)
	fb.cb.Vtx = append(fb.cb.Vtx, tx)
	return types.TxID(txid)
}

// addSpendingTx appends a transaction revealing nf and paying value back to
// addr (the change) plus extValue to extAddr.
func (fb *fakeBlock) addSpendingTx(t *testing.T, nf types.Hash, addr sapling.PaymentAddress, value types.Amount,
	extAddr sapling.PaymentAddress, extValue types.Amount) types.TxID {
	t.Helper()
	txid := testHash()
	tx := &types.CompactTx{Index: uint64(len(fb.cb.Vtx)), Hash: txid[:]}
	tx.Spends = append(tx.Spends, &types.CompactSpend{Nf: append([]byte(nil), nf[:]...)})
	if extValue > 0 {
		fb.appendOutput(t, tx, extAddr, extValue)
	}
	if value > 0 {
		fb.appendOutput(t, tx, addr, value)
	}
	fb.cb.Vtx = append(fb.cb.Vtx, tx)
	return types.TxID(txid)
}

func (fb *fakeBlock) appendOutput(t *testing.T, tx *types.CompactTx, addr sapling.PaymentAddress, value types.Amount) {
	t.Helper()
	r, err := sapling.RandomNoteR()
	require.NoError(t, err)
	note := &sapling.Note{Value: value, R: r}
	var ovk [32]byte
	epk, enc, _, err := sapling.EncryptNote(ovk, addr, note, sapling.EncodeMemo(""))
	require.NoError(t, err)
	cmu := note.Commitment(addr.Diversifier, addr.Pkd)
	tx.Outputs = append(tx.Outputs, &types.CompactOutput{
		Cmu:        cmu[:],
		Epk:        append([]byte(nil), epk[:]...),
		Ciphertext: append([]byte(nil), enc[:types.CompactCiphertextLen]...),
	})
}

// scanOK scans the block and requires success.
func scanOK(t *testing.T, w *Wallet, fb *fakeBlock) []types.TxID {
	t.Helper()
	txids, err := w.ScanBlock(fb.cb.Marshal())
	require.NoError(t, err)
	return txids
}

// addEmptyBlocks extends the chain with n empty blocks from the current
// tip and returns the last one.
func addEmptyBlocks(t *testing.T, w *Wallet, n int) *fakeBlock {
	t.Helper()
	w.mu.RLock()
	require.NotEmpty(t, w.blocks)
	tip := w.blocks[len(w.blocks)-1]
	w.mu.RUnlock()

	var last *fakeBlock
	height, hash := tip.Height, tip.Hash
	for i := 0; i < n; i++ {
		last = newFakeBlock(height+1, hash)
		scanOK(t, w, last)
		height, hash = height+1, last.hash()
	}
	return last
}

// firstAddr is the wallet's first shielded payment address.
func firstAddr(w *Wallet) sapling.PaymentAddress {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.zaddrs[0]
}

// firstNote digs out the first note the wallet holds.
func firstNote(t *testing.T, w *Wallet) (*SaplingNoteData, types.TxID) {
	t.Helper()
	w.mu.RLock()
	defer w.mu.RUnlock()
	for txid, wtx := range w.txs {
		for _, nd := range wtx.Notes {
			return nd, txid
		}
	}
	t.Fatal("wallet has no notes")
	return nil, types.TxID{}
}

// externalAddr derives a payment address that does not belong to the
// wallet.
func externalAddr(t *testing.T) sapling.PaymentAddress {
	t.Helper()
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = 0xEE
	}
	addr, err := sapling.MasterKey(seed).DerivePath(1, 0).DefaultAddress()
	require.NoError(t, err)
	return addr
}
