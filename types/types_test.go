package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactBlockRoundTrip(t *testing.T) {
	cb := &CompactBlock{
		ProtoVersion: 1,
		Height:       419201,
		Hash:         make([]byte, HashSize),
		PrevHash:     make([]byte, HashSize),
		Time:         1571256350,
		Vtx: []*CompactTx{
			{
				Index: 0,
				Hash:  make([]byte, HashSize),
				Spends: []*CompactSpend{
					{Nf: make([]byte, HashSize)},
				},
				Outputs: []*CompactOutput{
					{
						Cmu:        make([]byte, HashSize),
						Epk:        make([]byte, EpkLen),
						Ciphertext: make([]byte, CompactCiphertextLen),
					},
				},
			},
		},
	}
	cb.Hash[0] = 0xaa
	cb.PrevHash[0] = 0xbb
	cb.Vtx[0].Hash[0] = 0xcc
	cb.Vtx[0].Spends[0].Nf[0] = 0xdd
	cb.Vtx[0].Outputs[0].Cmu[0] = 0xee

	decoded := new(CompactBlock)
	require.NoError(t, decoded.Unmarshal(cb.Marshal()))
	require.Equal(t, cb, decoded)
}

func TestCompactBlockRejectsGarbage(t *testing.T) {
	cb := new(CompactBlock)
	require.Error(t, cb.Unmarshal([]byte{0xff, 0xff, 0xff}))
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := NewTransaction(1000)
	tx.TxIn = append(tx.TxIn, TxIn{
		PrevOut:   OutPoint{Index: 3},
		ScriptSig: []byte{0x01, 0x02},
		Sequence:  0xffffffff,
	})
	tx.TxIn[0].PrevOut.TxID[0] = 0x11
	tx.TxOut = append(tx.TxOut, TxOut{Value: 12345, ScriptPubKey: []byte{0x76, 0xa9}})
	tx.ValueBalance = -777

	var spend SpendDescription
	spend.Nullifier[4] = 9
	tx.ShieldedSpends = append(tx.ShieldedSpends, spend)
	var output OutputDescription
	output.Cmu[7] = 3
	tx.ShieldedOutputs = append(tx.ShieldedOutputs, output)
	tx.BindingSig[0] = 0x42

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	var decoded Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	require.Equal(t, *tx, decoded)
	require.Equal(t, tx.TxID(), decoded.TxID())

	// Trailing bytes are rejected.
	require.Error(t, decoded.UnmarshalBinary(append(raw, 0x00)))
}

func TestTransactionRejectsWrongVersion(t *testing.T) {
	var tx Transaction
	require.Error(t, tx.UnmarshalBinary([]byte{0x01, 0x00, 0x00, 0x00}))
}

func TestTxIDDisplayOrder(t *testing.T) {
	var id TxID
	id[0] = 0x01
	id[31] = 0xff
	s := id.String()
	require.Len(t, s, 64)
	require.Equal(t, "ff", s[:2])

	parsed, err := TxIDFromString(s)
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestAmount(t *testing.T) {
	require.True(t, Amount(0).Valid())
	require.True(t, DefaultFee.Valid())
	require.False(t, Amount(-1).Valid())
	require.False(t, (MaxMoney + 1).Valid())
	require.Equal(t, "0.00010000", DefaultFee.String())
}
