package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityapk00/zecwallet-lite/types"
)

var testProverParams = []byte("test-params")

func fundWallet(t *testing.T, w *Wallet, value types.Amount, confirmations int) {
	t.Helper()
	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, firstAddr(w), value)
	scanOK(t, w, fb)
	if confirmations > 1 {
		addEmptyBlocks(t, w, confirmations-1)
	}
}

func testBranchID(w *Wallet) uint32 {
	return w.Params().ConsensusBranchID
}

// Scenario 4: failure modes leave the wallet untouched.
func TestSendFailsCleanly(t *testing.T) {
	w := testWallet(t, 0)
	fundWallet(t, w, 50_000, 1)
	ext := externalAddr(t).Encode(w.Params())

	// Overspend.
	_, _, err := w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: ext, Amount: 50_010}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Insufficient verified funds")

	// Bad address.
	_, _, err = w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: "badaddress", Amount: 10}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid recipient")

	// Duplicate recipients.
	_, _, err = w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: ext, Amount: 10}, {Address: ext, Amount: 20}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicated")

	// Empty recipient list.
	_, _, err = w.SendToAddress(testBranchID(w), testProverParams, testProverParams, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one")

	// Nothing changed: balance intact, no pending spends, empty mempool.
	require.Equal(t, types.Amount(50_000), w.ZBalance(""))
	nd, _ := firstNote(t, w)
	require.Nil(t, nd.UnconfirmedSpent)
	require.Empty(t, w.MempoolTxs())
}

// A send with no synced blocks fails with the scanning message.
func TestSendRequiresBlocks(t *testing.T) {
	w := testWallet(t, 0)
	ext := externalAddr(t).Encode(w.Params())
	_, _, err := w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: ext, Amount: 10}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "before scanning any blocks")
}

// B4/B2: a note needs anchorOffset+1 witnesses before it can be selected.
func TestSendRespectsAnchorOffset(t *testing.T) {
	w := testWallet(t, 4)
	fundWallet(t, w, 100_000, 1)
	ext := externalAddr(t).Encode(w.Params())

	_, _, err := w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: ext, Amount: 10}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Insufficient verified funds")
	require.Contains(t, err.Error(), "5 confirmations")

	addEmptyBlocks(t, w, 4)
	raw, _, err := w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: ext, Amount: 10}})
	require.NoError(t, err)
	require.NotEmpty(t, raw)
}

// A successful send produces a parseable transaction and the bookkeeping:
// pending spends, a mempool entry, and (B3) no memo on transparent
// recipients.
func TestSendBookkeeping(t *testing.T) {
	w := testWallet(t, 0)
	fundWallet(t, w, 100_000, 1)
	extZ := externalAddr(t).Encode(w.Params())

	// A transparent recipient: one of our own taddr encodings re-decoded is
	// still a valid transparent destination for the classifier.
	extT := w.TAddresses()[0]

	raw, txid, err := w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{
			{Address: extZ, Amount: 20_000, Memo: "hello there"},
			{Address: extT, Amount: 5_000, Memo: "dropped"},
		})
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	require.Equal(t, txid, types.NewTxID(raw))

	// One shielded spend, recipient output plus change output, one
	// transparent output.
	require.Len(t, tx.ShieldedSpends, 1)
	require.Len(t, tx.ShieldedOutputs, 2)
	require.Len(t, tx.TxOut, 1)
	require.Equal(t, types.Amount(5_000), tx.TxOut[0].Value)

	// The spent note is pending.
	nd, _ := firstNote(t, w)
	require.NotNil(t, nd.UnconfirmedSpent)
	require.Equal(t, txid, *nd.UnconfirmedSpent)

	// Mempool entry at target height with stripped transparent memo.
	entries := w.MempoolTxs()
	require.Len(t, entries, 1)
	entry := entries[0]
	require.Equal(t, w.LastScannedHeight()+1, entry.Block)
	require.Len(t, entry.OutgoingMetadata, 2)
	for _, om := range entry.OutgoingMetadata {
		if om.Address == extT {
			require.Equal(t, byte(0xf6), om.Memo[0], "transparent recipient kept its memo")
		}
	}

	// Verified balance excludes the pending note.
	require.Equal(t, types.Amount(0), w.VerifiedZBalance(""))
	// But the full balance still counts it until the spend is mined.
	require.Equal(t, types.Amount(100_000), w.ZBalance(""))
}

// A locked wallet refuses to build transactions.
func TestSendLockedWallet(t *testing.T) {
	w := testWallet(t, 0)
	fundWallet(t, w, 100_000, 1)
	require.NoError(t, w.Encrypt("passphrase"))
	require.NoError(t, w.Lock())

	ext := externalAddr(t).Encode(w.Params())
	_, _, err := w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: ext, Amount: 10}})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unlocked"))
}

// Scenario 5: an unmined send expires out of the mempool and releases its
// pending spends.
func TestMempoolExpiry(t *testing.T) {
	w := testWallet(t, 0)
	fundWallet(t, w, 50_000, 1)
	ext := externalAddr(t).Encode(w.Params())

	_, txid, err := w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: ext, Amount: 20}})
	require.NoError(t, err)

	entries := w.MempoolTxs()
	require.Len(t, entries, 1)
	require.Equal(t, w.LastScannedHeight()+1, entries[0].Block)

	nd, _ := firstNote(t, w)
	require.NotNil(t, nd.UnconfirmedSpent)
	require.Equal(t, txid, *nd.UnconfirmedSpent)

	addEmptyBlocks(t, w, 21)

	require.Empty(t, w.MempoolTxs())
	require.Nil(t, nd.UnconfirmedSpent, "expiry releases the pending spend")
	require.Equal(t, types.Amount(50_000), w.ZBalance(""))
}

// Mempool listing carries the negative outgoing amount.
func TestListIncludesMempool(t *testing.T) {
	w := testWallet(t, 0)
	fundWallet(t, w, 50_000, 1)
	ext := externalAddr(t).Encode(w.Params())

	_, _, err := w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: ext, Amount: 20}})
	require.NoError(t, err)

	list := w.ListTxs()
	require.Len(t, list, 2)
	last := list[len(list)-1]
	require.True(t, last.Unconfirmed)
	require.InDelta(t, types.Amount(-(20 + types.DefaultFee)).ToZEC(), last.Amount, 1e-12)
}
