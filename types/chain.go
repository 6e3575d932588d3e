package types

import "fmt"

// Default values for tunable chain behaviour.
const (
	// DefaultAnchorOffset is the number of confirmations a note needs before
	// it may be selected for spending.
	DefaultAnchorOffset = 4
)

// ChainParams bundles every network-specific constant the wallet needs:
// address encodings, the sapling activation height and the consensus branch
// used for signature hashing.
type ChainParams struct {
	// Name is the chain name as reported by the server ("main", "test",
	// "regtest").
	Name string

	// SaplingActivationHeight is the first block height at which sapling
	// outputs can occur. Wallet birthdays are clamped to it.
	SaplingActivationHeight int32

	// ConsensusBranchID selects the signature-hashing branch.
	ConsensusBranchID uint32

	// AnchorOffset is the number of confirmations required before a note is
	// spendable. The witness selected for a spend sits AnchorOffset entries
	// back from the most recent one.
	AnchorOffset uint32

	// Bech32 human-readable prefixes.
	SaplingHRP     string // payment addresses
	SaplingExtSKRP string // extended spending keys
	SaplingExtFVKP string // extended full viewing keys

	// Base58check prefixes for the transparent pool.
	PubKeyAddrPrefix [2]byte
	ScriptAddrPrefix [2]byte
	SecretKeyPrefix  byte

	// CoinType is the BIP-44/ZIP-32 coin type used in derivation paths.
	CoinType uint32
}

// MainNetParams are the parameters for the production network.
var MainNetParams = ChainParams{
	Name:                    "main",
	SaplingActivationHeight: 419200,
	ConsensusBranchID:       0x2bb40e60,
	AnchorOffset:            DefaultAnchorOffset,
	SaplingHRP:              "zs",
	SaplingExtSKRP:          "secret-extended-key-main",
	SaplingExtFVKP:          "zxviews",
	PubKeyAddrPrefix:        [2]byte{0x1c, 0xb8},
	ScriptAddrPrefix:        [2]byte{0x1c, 0xbd},
	SecretKeyPrefix:         0x80,
	CoinType:                133,
}

// TestNetParams are the parameters for the public test network.
var TestNetParams = ChainParams{
	Name:                    "test",
	SaplingActivationHeight: 280000,
	ConsensusBranchID:       0x2bb40e60,
	AnchorOffset:            DefaultAnchorOffset,
	SaplingHRP:              "ztestsapling",
	SaplingExtSKRP:          "secret-extended-key-test",
	SaplingExtFVKP:          "zxviewtestsapling",
	PubKeyAddrPrefix:        [2]byte{0x1d, 0x25},
	ScriptAddrPrefix:        [2]byte{0x1c, 0xba},
	SecretKeyPrefix:         0xef,
	CoinType:                1,
}

// RegtestParams are the parameters for local regression-test networks.
var RegtestParams = ChainParams{
	Name:                    "regtest",
	SaplingActivationHeight: 1,
	ConsensusBranchID:       0x2bb40e60,
	AnchorOffset:            DefaultAnchorOffset,
	SaplingHRP:              "zregtestsapling",
	SaplingExtSKRP:          "secret-extended-key-regtest",
	SaplingExtFVKP:          "zxviewregtestsapling",
	PubKeyAddrPrefix:        [2]byte{0x1d, 0x25},
	ScriptAddrPrefix:        [2]byte{0x1c, 0xba},
	SecretKeyPrefix:         0xef,
	CoinType:                1,
}

// ParamsForChain returns the parameter set for the given chain name.
func ParamsForChain(name string) (*ChainParams, error) {
	switch name {
	case "main":
		p := MainNetParams
		return &p, nil
	case "test":
		p := TestNetParams
		return &p, nil
	case "regtest":
		p := RegtestParams
		return &p, nil
	}
	return nil, fmt.Errorf("unknown chain name %q", name)
}
