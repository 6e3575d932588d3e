package lightclient

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/modules/wallet"
	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

// mockChain is an in-memory chain service.
type mockChain struct {
	blocks  []*types.CompactBlock
	fullTxs map[types.TxID][]byte
	sent    [][]byte
}

func newMockChain() *mockChain {
	return &mockChain{fullTxs: make(map[types.TxID][]byte)}
}

func (m *mockChain) GetInfo(ctx context.Context) (*modules.LightdInfo, error) {
	return &modules.LightdInfo{
		Version:           "0.1-mock",
		Vendor:            "test",
		ChainName:         "regtest",
		ConsensusBranchID: "2bb40e60",
		BlockHeight:       uint64(len(m.blocks)),
	}, nil
}

func (m *mockChain) GetLatestBlock(ctx context.Context) (*modules.BlockID, error) {
	if len(m.blocks) == 0 {
		return nil, errors.New("mock chain is empty")
	}
	tip := m.blocks[len(m.blocks)-1]
	return &modules.BlockID{Height: tip.Height, Hash: tip.Hash}, nil
}

func (m *mockChain) GetBlockRange(ctx context.Context, start, end uint64, fn func(*types.CompactBlock) error) error {
	for _, cb := range m.blocks {
		if cb.Height >= start && cb.Height <= end {
			if err := fn(cb); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *mockChain) GetTransparentTxIDs(ctx context.Context, address string, start, end uint64, fn func(*modules.RawTransaction) error) error {
	return nil
}

func (m *mockChain) GetFullTx(ctx context.Context, txid types.TxID) (*modules.RawTransaction, error) {
	raw, ok := m.fullTxs[txid]
	if !ok {
		return nil, errors.New("tx not found")
	}
	return &modules.RawTransaction{Data: raw}, nil
}

func (m *mockChain) SendTransaction(ctx context.Context, rawTx []byte) (*modules.SendResponse, error) {
	m.sent = append(m.sent, rawTx)
	return &modules.SendResponse{}, nil
}

var blockCounter uint32

func mockHash() []byte {
	blockCounter++
	h := make([]byte, types.HashSize)
	binary.LittleEndian.PutUint32(h, blockCounter)
	h[31] = 0x55
	return h
}

// extend appends n empty blocks to the mock chain.
func (m *mockChain) extend(n int) {
	for i := 0; i < n; i++ {
		height := uint64(len(m.blocks))
		prev := make([]byte, types.HashSize)
		if height > 0 {
			prev = m.blocks[height-1].Hash
		}
		m.blocks = append(m.blocks, &types.CompactBlock{
			ProtoVersion: 1,
			Height:       height,
			Hash:         mockHash(),
			PrevHash:     prev,
			Time:         1_700_000_000 + uint32(height),
		})
	}
}

// payShielded adds a tx with one shielded output to addr in the tip block.
func (m *mockChain) payShielded(t *testing.T, addr sapling.PaymentAddress, value types.Amount) types.TxID {
	t.Helper()
	r, err := sapling.RandomNoteR()
	require.NoError(t, err)
	note := &sapling.Note{Value: value, R: r}
	var ovk [32]byte
	epk, enc, _, err := sapling.EncryptNote(ovk, addr, note, sapling.EncodeMemo(""))
	require.NoError(t, err)
	cmu := note.Commitment(addr.Diversifier, addr.Pkd)

	txidBytes := mockHash()
	tip := m.blocks[len(m.blocks)-1]
	tip.Vtx = append(tip.Vtx, &types.CompactTx{
		Index: uint64(len(tip.Vtx)),
		Hash:  txidBytes,
		Outputs: []*types.CompactOutput{{
			Cmu:        cmu[:],
			Epk:        append([]byte(nil), epk[:]...),
			Ciphertext: append([]byte(nil), enc[:types.CompactCiphertextLen]...),
		}},
	})
	var txid types.TxID
	copy(txid[:], txidBytes)
	return txid
}

func testClient(t *testing.T, chain modules.ChainService) *LightClient {
	t.Helper()
	params := types.RegtestParams
	params.SaplingActivationHeight = 0
	params.AnchorOffset = 0

	var seed [32]byte
	seed[1] = 0x11
	w, err := wallet.NewFromSeed(&params, seed, 0)
	require.NoError(t, err)

	lc, err := NewFromWallet(Config{Params: &params}, chain, w)
	require.NoError(t, err)
	return lc
}

func firstZAddr(t *testing.T, lc *LightClient) sapling.PaymentAddress {
	t.Helper()
	addr, err := sapling.DecodePaymentAddress(lc.wallet.Params(), lc.wallet.ZAddresses()[0])
	require.NoError(t, err)
	return addr
}

func TestSyncToTip(t *testing.T) {
	chain := newMockChain()
	chain.extend(4)
	lc := testClient(t, chain)
	addr := firstZAddr(t, lc)
	chain.payShielded(t, addr, 500)
	chain.extend(3)

	out, err := lc.DoSync(context.Background())
	require.NoError(t, err)
	require.Contains(t, out, "success")

	require.Equal(t, int32(6), lc.wallet.LastScannedHeight())
	require.Equal(t, types.Amount(500), lc.wallet.ZBalance(""))

	status := lc.SyncStatus()
	require.False(t, status.IsSyncing)
	require.Equal(t, int32(6), status.SyncedBlocks)
}

// Law L2: a second sync at a stable tip is a successful no-op.
func TestSyncIsIdempotent(t *testing.T) {
	chain := newMockChain()
	chain.extend(5)
	lc := testClient(t, chain)

	_, err := lc.DoSync(context.Background())
	require.NoError(t, err)
	before := lc.wallet.BlockCount()

	out, err := lc.DoSync(context.Background())
	require.NoError(t, err)
	require.Contains(t, out, "success")
	require.Equal(t, before, lc.wallet.BlockCount())
}

// A server behind the wallet is an explicit error.
func TestSyncServerBehind(t *testing.T) {
	chain := newMockChain()
	chain.extend(6)
	lc := testClient(t, chain)
	_, err := lc.DoSync(context.Background())
	require.NoError(t, err)

	chain.blocks = chain.blocks[:3]
	_, err = lc.DoSync(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "behind")
}

// A shallow reorg is unwound and the new chain adopted.
func TestSyncHandlesReorg(t *testing.T) {
	chain := newMockChain()
	chain.extend(6)
	lc := testClient(t, chain)
	addr := firstZAddr(t, lc)

	_, err := lc.DoSync(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(5), lc.wallet.LastScannedHeight())

	// Replace the top two blocks and grow one more; the note now lives on
	// the new branch.
	chain.blocks = chain.blocks[:4]
	chain.extend(2)
	chain.payShielded(t, addr, 77)
	chain.extend(1)

	_, err = lc.DoSync(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(6), lc.wallet.LastScannedHeight())
	require.Equal(t, types.Amount(77), lc.wallet.ZBalance(""))
}

func TestRescanReplaysChain(t *testing.T) {
	chain := newMockChain()
	chain.extend(3)
	lc := testClient(t, chain)
	addr := firstZAddr(t, lc)
	chain.payShielded(t, addr, 250)
	chain.extend(1)

	_, err := lc.DoSync(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.Amount(250), lc.wallet.ZBalance(""))

	_, err = lc.DoRescan(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.Amount(250), lc.wallet.ZBalance(""))
	require.Equal(t, int32(4), lc.wallet.LastScannedHeight())
}

func TestDoCommandDispatch(t *testing.T) {
	chain := newMockChain()
	chain.extend(2)
	lc := testClient(t, chain)
	ctx := context.Background()

	var balances map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lc.DoCommand(ctx, "balance", "")), &balances))
	require.Contains(t, balances, "zbalance")

	var status modules.SyncStatus
	require.NoError(t, json.Unmarshal([]byte(lc.DoCommand(ctx, "syncstatus", "")), &status))
	require.False(t, status.IsSyncing)

	var addrs []string
	require.NoError(t, json.Unmarshal([]byte(lc.DoCommand(ctx, "new", "z")), &addrs))
	require.Len(t, addrs, 1)
	require.True(t, strings.HasPrefix(addrs[0], "zregtestsapling"))

	var seedOut map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lc.DoCommand(ctx, "seed", "")), &seedOut))
	require.Len(t, strings.Fields(seedOut["seed"].(string)), 24)

	out := lc.DoCommand(ctx, "bogus", "")
	require.Contains(t, out, "error")

	out = lc.DoCommand(ctx, "send", "not json")
	require.Contains(t, out, "error")

	var saved map[string]string
	require.NoError(t, json.Unmarshal([]byte(lc.DoCommand(ctx, "save", "")), &saved))
	restored, err := wallet.ReadWalletHex(saved["wallet"], lc.wallet.Params())
	require.NoError(t, err)
	require.Equal(t, lc.wallet.ZAddresses(), restored.ZAddresses())
}

// An end-to-end send through the dispatcher broadcasts a decodable tx.
func TestSendEndToEnd(t *testing.T) {
	chain := newMockChain()
	chain.extend(1)
	lc := testClient(t, chain)
	addr := firstZAddr(t, lc)
	chain.payShielded(t, addr, 200_000)
	chain.extend(1)

	lc.config.SpendParams = []byte("spend-params")
	lc.config.OutputParams = []byte("output-params")

	_, err := lc.DoSync(context.Background())
	require.NoError(t, err)

	// Send to a foreign shielded address.
	foreignSeed := make([]byte, 64)
	foreignSeed[0] = 0xAB
	foreign, err := sapling.MasterKey(foreignSeed).DerivePath(1, 0).DefaultAddress()
	require.NoError(t, err)

	txid, err := lc.DoSend(context.Background(), []wallet.Recipient{
		{Address: foreign.Encode(lc.wallet.Params()), Amount: 50_000},
	})
	require.NoError(t, err)
	require.NotEmpty(t, txid)
	require.Len(t, chain.sent, 1)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(chain.sent[0]))
	require.Len(t, tx.ShieldedSpends, 1)
	require.Len(t, tx.ShieldedOutputs, 2)
}
