package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityapk00/zecwallet-lite/types"
)

// p2pkhTx builds a full transaction with one transparent output paying addr.
func p2pkhTx(t *testing.T, w *Wallet, addr string, value types.Amount) *types.Transaction {
	t.Helper()
	script, err := scriptForTAddress(w.Params(), addr)
	require.NoError(t, err)
	tx := types.NewTransaction(0)
	tx.TxOut = append(tx.TxOut, types.TxOut{Value: value, ScriptPubKey: script})
	return tx
}

// Scenario 3: a transparent receive followed by its spend.
func TestFullTxTransparentReceiveAndSpend(t *testing.T) {
	w := testWallet(t, 0)
	taddr := w.TAddresses()[0]

	recv := p2pkhTx(t, w, taddr, 20)
	w.ScanFullTx(recv, 100, 1234)

	require.Equal(t, types.Amount(20), w.TBalance(""))
	require.Equal(t, types.Amount(20), w.TBalance(taddr))

	w.mu.RLock()
	wtx := w.txs[recv.TxID()]
	require.NotNil(t, wtx)
	require.Len(t, wtx.Utxos, 1)
	utxo := wtx.Utxos[0]
	w.mu.RUnlock()
	require.Nil(t, utxo.SpentTxID)
	require.Equal(t, int32(100), utxo.Height)
	require.True(t, wtx.FullTxScanned)

	// The spend references the utxo as an input.
	spend := types.NewTransaction(0)
	spend.TxIn = append(spend.TxIn, types.TxIn{
		PrevOut: types.OutPoint{TxID: recv.TxID(), Index: 0},
	})
	w.ScanFullTx(spend, 101, 1235)

	require.NotNil(t, utxo.SpentTxID)
	require.Equal(t, spend.TxID(), *utxo.SpentTxID)
	require.Equal(t, types.Amount(0), w.TBalance(""))

	w.mu.RLock()
	spendWtx := w.txs[spend.TxID()]
	w.mu.RUnlock()
	require.NotNil(t, spendWtx)
	require.Equal(t, types.Amount(20), spendWtx.TotalTransparentValueSpent)
}

// Re-scanning the same full tx does not duplicate the utxo.
func TestFullTxUtxoDedup(t *testing.T) {
	w := testWallet(t, 0)
	taddr := w.TAddresses()[0]

	recv := p2pkhTx(t, w, taddr, 7)
	w.ScanFullTx(recv, 10, 0)
	w.ScanFullTx(recv, 10, 0)

	require.Equal(t, types.Amount(7), w.TBalance(""))
	w.mu.RLock()
	require.Len(t, w.txs[recv.TxID()].Utxos, 1)
	w.mu.RUnlock()
}

// A transparent receive triggers the taddr gap rule.
func TestFullTxGapRule(t *testing.T) {
	w := testWallet(t, 0)
	require.Len(t, w.TAddresses(), 1)

	recv := p2pkhTx(t, w, w.TAddresses()[0], 3)
	w.ScanFullTx(recv, 10, 0)

	require.Len(t, w.TAddresses(), 6)
}

// Outputs to unrelated addresses are ignored for a tx that spent nothing of
// ours.
func TestFullTxIgnoresUnrelated(t *testing.T) {
	w := testWallet(t, 0)
	var seed [32]byte
	seed[5] = 9
	other, err := NewFromSeed(w.Params(), seed, 0)
	require.NoError(t, err)

	tx := p2pkhTx(t, w, other.TAddresses()[0], 11)
	w.ScanFullTx(tx, 10, 0)

	require.Equal(t, types.Amount(0), w.TBalance(""))
	w.mu.RLock()
	_, exists := w.txs[tx.TxID()]
	w.mu.RUnlock()
	require.False(t, exists, "unrelated tx must not create a wallet record")
}

// Outgoing transparent metadata appears when our funds were spent to an
// outside address.
func TestFullTxOutgoingMetadata(t *testing.T) {
	w := testWallet(t, 0)
	taddr := w.TAddresses()[0]

	recv := p2pkhTx(t, w, taddr, 50)
	w.ScanFullTx(recv, 10, 0)

	var seed [32]byte
	seed[6] = 7
	other, err := NewFromSeed(w.Params(), seed, 0)
	require.NoError(t, err)
	outsider := other.TAddresses()[0]

	spend := p2pkhTx(t, w, outsider, 30)
	spend.TxIn = append(spend.TxIn, types.TxIn{
		PrevOut: types.OutPoint{TxID: recv.TxID(), Index: 0},
	})
	w.ScanFullTx(spend, 11, 0)

	w.mu.RLock()
	wtx := w.txs[spend.TxID()]
	w.mu.RUnlock()
	require.NotNil(t, wtx)
	require.Len(t, wtx.OutgoingMetadata, 1)
	require.Equal(t, outsider, wtx.OutgoingMetadata[0].Address)
	require.Equal(t, types.Amount(30), wtx.OutgoingMetadata[0].Value)
}
