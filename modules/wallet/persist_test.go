package wallet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityapk00/zecwallet-lite/types"
)

// Law L1: write-then-read is the identity on persisted fields, and a second
// write is byte-identical.
func TestWalletSerializationRoundTrip(t *testing.T) {
	w := testWallet(t, 0)
	addr := firstAddr(w)

	fb := newFakeBlock(0, types.Hash{})
	fb.addShieldedOutput(t, addr, 5)
	scanOK(t, w, fb)
	addEmptyBlocks(t, w, 4)

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf))

	w2, err := ReadWallet(bytes.NewReader(buf.Bytes()), w.Params())
	require.NoError(t, err)

	require.Equal(t, w.ZBalance(""), w2.ZBalance(""))
	require.Equal(t, w.BlockCount(), w2.BlockCount())
	require.Equal(t, w.LastScannedHeight(), w2.LastScannedHeight())
	require.Equal(t, w.ZAddresses(), w2.ZAddresses())
	require.Equal(t, w.TAddresses(), w2.TAddresses())

	// Witness state survives byte-exactly.
	nd1, _ := firstNote(t, w)
	nd2, _ := firstNote(t, w2)
	require.Equal(t, len(nd1.Witnesses), len(nd2.Witnesses))
	require.Equal(t, nd1.Witnesses[len(nd1.Witnesses)-1].Root(), nd2.Witnesses[len(nd2.Witnesses)-1].Root())
	require.Equal(t, nd1.Nullifier, nd2.Nullifier)

	var buf2 bytes.Buffer
	require.NoError(t, w2.WriteTo(&buf2))
	require.Equal(t, buf.Bytes(), buf2.Bytes())
}

// Pending spends and mempool entries are runtime state: they do not survive
// a save/load cycle.
func TestSerializationDropsEphemeralState(t *testing.T) {
	w := testWallet(t, 0)
	fundWallet(t, w, 50_000, 1)
	ext := externalAddr(t).Encode(w.Params())

	_, _, err := w.SendToAddress(testBranchID(w), testProverParams, testProverParams,
		[]Recipient{{Address: ext, Amount: 20}})
	require.NoError(t, err)
	require.NotEmpty(t, w.MempoolTxs())

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf))
	w2, err := ReadWallet(bytes.NewReader(buf.Bytes()), w.Params())
	require.NoError(t, err)

	require.Empty(t, w2.MempoolTxs())
	nd, _ := firstNote(t, w2)
	require.Nil(t, nd.UnconfirmedSpent)
}

// An encrypted wallet loads locked and unlocks with its passphrase.
func TestEncryptedWalletRoundTrip(t *testing.T) {
	w := testWallet(t, 0)
	fundWallet(t, w, 5_000, 1)

	require.NoError(t, w.Encrypt("hunter2"))
	require.NoError(t, w.Lock())

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf))
	w2, err := ReadWallet(bytes.NewReader(buf.Bytes()), w.Params())
	require.NoError(t, err)

	require.True(t, w2.Encrypted())
	require.True(t, w2.Locked())
	require.Equal(t, types.Amount(5_000), w2.ZBalance(""), "viewing keys keep working while locked")

	require.Error(t, w2.Unlock("wrong"))
	require.NoError(t, w2.Unlock("hunter2"))
	require.False(t, w2.Locked())

	require.NoError(t, w.Unlock("hunter2"))
	phrase1, err := w.SeedPhrase()
	require.NoError(t, err)
	phrase2, err := w2.SeedPhrase()
	require.NoError(t, err)
	require.Equal(t, phrase1, phrase2)
}

// A wallet saved for one chain refuses to load under another.
func TestSerializationChainMismatch(t *testing.T) {
	w := testWallet(t, 0)
	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf))

	_, err := ReadWallet(bytes.NewReader(buf.Bytes()), &types.MainNetParams)
	require.Error(t, err)
}

// SaveToHex produces the hex form ReadWalletHex restores.
func TestSaveToHexRoundTrip(t *testing.T) {
	w := testWallet(t, 0)
	fundWallet(t, w, 123, 1)

	hexStr, err := w.SaveToHex()
	require.NoError(t, err)
	w2, err := ReadWalletHex(hexStr, w.Params())
	require.NoError(t, err)
	require.Equal(t, types.Amount(123), w2.ZBalance(""))
}
