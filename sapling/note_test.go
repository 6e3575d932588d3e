package sapling

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityapk00/zecwallet-lite/types"
)

func testKeys(t *testing.T, account uint32) (*ExtendedSpendingKey, *ExtendedFullViewingKey, PaymentAddress) {
	t.Helper()
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i)
	}
	extsk := MasterKey(seed).DerivePath(1, account)
	fvk := extsk.FVK()
	addr, err := fvk.DefaultAddress()
	require.NoError(t, err)
	return extsk, fvk, addr
}

func TestEncryptTrialDecrypt(t *testing.T) {
	_, fvk, addr := testKeys(t, 0)

	note := &Note{Value: 500000}
	var err error
	note.R, err = RandomNoteR()
	require.NoError(t, err)

	memo := EncodeMemo("the quick brown fox")
	var ovk [32]byte
	copy(ovk[:], fvk.Ovk[:])

	epk, enc, out, err := EncryptNote(ovk, addr, note, memo)
	require.NoError(t, err)

	cmu := note.Commitment(addr.Diversifier, addr.Pkd)

	// Full decryption with the ivk.
	np, to, err := TrialDecrypt(fvk.IVK(), cmu, epk[:], enc[:])
	require.NoError(t, err)
	require.Equal(t, addr, to)
	require.True(t, note.Equal(np.Note()))
	require.Equal(t, "the quick brown fox", DecodeMemo(np.Memo[:]))

	// Compact decryption sees only the leading ciphertext bytes.
	npc, toc, err := TrialDecryptCompact(fvk.IVK(), cmu, epk[:], enc[:types.CompactCiphertextLen])
	require.NoError(t, err)
	require.Equal(t, addr, toc)
	require.True(t, note.Equal(npc.Note()))

	// Outgoing recovery with the ovk.
	npo, too, err := RecoverOutput(ovk, cmu, epk[:], enc[:], out[:])
	require.NoError(t, err)
	require.Equal(t, addr, too)
	require.Equal(t, "the quick brown fox", DecodeMemo(npo.Memo[:]))

	// A different viewing key must not decrypt.
	_, otherFvk, _ := testKeys(t, 1)
	_, _, err = TrialDecrypt(otherFvk.IVK(), cmu, epk[:], enc[:])
	require.Error(t, err)
	_, _, err = TrialDecryptCompact(otherFvk.IVK(), cmu, epk[:], enc[:types.CompactCiphertextLen])
	require.Error(t, err)
}

func TestNullifierIsDeterministic(t *testing.T) {
	_, fvk, _ := testKeys(t, 0)
	var r [32]byte
	r[0] = 9

	nf1 := Nullifier(fvk.Nk, 17, r)
	nf2 := Nullifier(fvk.Nk, 17, r)
	require.Equal(t, nf1, nf2)

	require.NotEqual(t, nf1, Nullifier(fvk.Nk, 18, r))
	var r2 [32]byte
	r2[0] = 10
	require.NotEqual(t, nf1, Nullifier(fvk.Nk, 17, r2))
}

func TestPaymentAddressRoundTrip(t *testing.T) {
	_, _, addr := testKeys(t, 0)
	params := &types.MainNetParams

	encoded := addr.Encode(params)
	require.NotEmpty(t, encoded)

	decoded, err := DecodePaymentAddress(params, encoded)
	require.NoError(t, err)
	require.Equal(t, addr, decoded)

	// Wrong chain prefix is rejected.
	_, err = DecodePaymentAddress(&types.TestNetParams, encoded)
	require.Error(t, err)
}

func TestSpendingKeyRoundTrip(t *testing.T) {
	extsk, _, _ := testKeys(t, 3)
	params := &types.MainNetParams

	encoded := EncodeSpendingKey(params, extsk)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeSpendingKey(params, encoded)
	require.NoError(t, err)
	require.Equal(t, extsk, decoded)
}

func TestChildDerivationIsStable(t *testing.T) {
	seed := make([]byte, 64)
	a := MasterKey(seed).DerivePath(133, 0)
	b := MasterKey(seed).DerivePath(133, 0)
	require.Equal(t, a, b)

	c := MasterKey(seed).DerivePath(133, 1)
	require.NotEqual(t, a.Ask, c.Ask)
}

func TestMemoEncoding(t *testing.T) {
	require.Equal(t, "", DecodeMemo(nil))

	empty := EncodeMemo("")
	require.Equal(t, byte(0xf6), empty[0])
	require.Equal(t, "", DecodeMemo(empty[:]))

	m := EncodeMemo("hello")
	require.Equal(t, "hello", DecodeMemo(m[:]))
}
