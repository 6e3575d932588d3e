package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adityapk00/zecwallet-lite/types"
)

// Law L3: entropy -> phrase -> entropy is bit-exact, so a restored wallet
// derives the same keys.
func TestSeedPhraseRoundTrip(t *testing.T) {
	w := testWallet(t, 0)
	phrase, err := w.SeedPhrase()
	require.NoError(t, err)
	require.Len(t, strings.Fields(phrase), 24)

	restored, err := NewFromPhrase(w.Params(), phrase, 0)
	require.NoError(t, err)

	require.Equal(t, w.ZAddresses(), restored.ZAddresses())
	require.Equal(t, w.TAddresses(), restored.TAddresses())

	phrase2, err := restored.SeedPhrase()
	require.NoError(t, err)
	require.Equal(t, phrase, phrase2)
}

// New addresses keep deriving deterministically.
func TestNewAddresses(t *testing.T) {
	w := testWallet(t, 0)

	z1, err := w.NewZAddress()
	require.NoError(t, err)
	t1, err := w.NewTAddress()
	require.NoError(t, err)

	require.Len(t, w.ZAddresses(), 2)
	require.Len(t, w.TAddresses(), 2)
	require.Equal(t, z1, w.ZAddresses()[1])
	require.Equal(t, t1, w.TAddresses()[1])

	// The same entropy yields the same second address.
	phrase, err := w.SeedPhrase()
	require.NoError(t, err)
	restored, err := NewFromPhrase(w.Params(), phrase, 0)
	require.NoError(t, err)
	z1again, err := restored.NewZAddress()
	require.NoError(t, err)
	require.Equal(t, z1, z1again)
}

// Address classification distinguishes the three kinds.
func TestClassifyAddress(t *testing.T) {
	w := testWallet(t, 0)

	require.Equal(t, RecipientShielded, w.ClassifyAddress(w.ZAddresses()[0]))
	require.Equal(t, RecipientTransparent, w.ClassifyAddress(w.TAddresses()[0]))
	require.Equal(t, RecipientInvalid, w.ClassifyAddress("badaddress"))
	require.Equal(t, RecipientInvalid, w.ClassifyAddress(""))

	// A mainnet address is invalid on the test chain.
	var seed [32]byte
	seed[0] = 0x42
	mainW, err := NewFromSeed(&types.MainNetParams, seed, 0)
	require.NoError(t, err)
	require.Equal(t, RecipientInvalid, w.ClassifyAddress(mainW.ZAddresses()[0]))
}

// Exported keys cover every address, and a single-address export filters.
func TestExportKeys(t *testing.T) {
	w := testWallet(t, 0)
	keys, err := w.ExportKeys("")
	require.NoError(t, err)
	require.Len(t, keys, 2) // one z, one t

	single, err := w.ExportKeys(w.ZAddresses()[0])
	require.NoError(t, err)
	require.Len(t, single, 1)
	require.Equal(t, w.ZAddresses()[0], single[0].Address)

	_, err = w.ExportKeys("nosuchaddress")
	require.Error(t, err)
}

// A locked wallet refuses seed and key material.
func TestLockedKeyAccess(t *testing.T) {
	w := testWallet(t, 0)
	require.NoError(t, w.Encrypt("pw"))
	require.NoError(t, w.Lock())

	_, err := w.SeedPhrase()
	require.Error(t, err)
	_, err = w.ExportKeys("")
	require.Error(t, err)
	_, err = w.NewZAddress()
	require.Error(t, err)
}
