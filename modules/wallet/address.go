package wallet

import (
	"crypto/sha256"
	"errors"

	"github.com/decred/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/ripemd160"

	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

// RecipientKind classifies a recipient address string.
type RecipientKind int

// Address kinds returned by ClassifyAddress.
const (
	// RecipientInvalid is an address under neither encoding.
	RecipientInvalid RecipientKind = iota
	// RecipientShielded is a bech32 sapling payment address.
	RecipientShielded
	// RecipientTransparent is a base58check pubkey-hash or script-hash
	// address.
	RecipientTransparent
)

var errNotTransparent = errors.New("not a transparent address for this chain")

// hash160 is RIPEMD160(SHA256(b)), the transparent address digest.
func hash160(b []byte) []byte {
	s := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(s[:])
	return r.Sum(nil)
}

// encodeTAddress renders the p2pkh address of a public key.
func encodeTAddress(params *types.ChainParams, pub *secp256k1.PublicKey) string {
	return base58.CheckEncode(hash160(pub.SerializeCompressed()), params.PubKeyAddrPrefix)
}

// encodeTAddressForHash renders the p2pkh address of a pubkey hash.
func encodeTAddressForHash(params *types.ChainParams, pkh []byte) string {
	return base58.CheckEncode(pkh, params.PubKeyAddrPrefix)
}

// encodeTSecretKey renders a transparent secret key in the chain's WIF-style
// base58check encoding.
func encodeTSecretKey(params *types.ChainParams, key *secp256k1.PrivateKey) string {
	payload := append(key.Serialize(), 0x01)
	return base58.CheckEncode(payload, [2]byte{0x00, params.SecretKeyPrefix})
}

// decodeTAddress parses a base58check transparent address, accepting both
// the pubkey and the script prefix of the chain.
func decodeTAddress(params *types.ChainParams, addr string) (hash []byte, isScript bool, err error) {
	decoded, version, err := base58.CheckDecode(addr)
	if err != nil {
		return nil, false, err
	}
	switch version {
	case params.PubKeyAddrPrefix:
		return decoded, false, nil
	case params.ScriptAddrPrefix:
		return decoded, true, nil
	}
	return nil, false, errNotTransparent
}

// ClassifyAddress decides whether a recipient string is shielded,
// transparent or invalid for the wallet's chain.
func (w *Wallet) ClassifyAddress(addr string) RecipientKind {
	if _, err := sapling.DecodePaymentAddress(w.params, addr); err == nil {
		return RecipientShielded
	}
	if _, _, err := decodeTAddress(w.params, addr); err == nil {
		return RecipientTransparent
	}
	return RecipientInvalid
}

// scriptForTAddress builds the output script paying an encoded transparent
// address.
func scriptForTAddress(params *types.ChainParams, addr string) ([]byte, error) {
	hash, isScript, err := decodeTAddress(params, addr)
	if err != nil {
		return nil, err
	}
	if len(hash) != ripemd160.Size {
		return nil, errNotTransparent
	}
	if isScript {
		// OP_HASH160 <hash> OP_EQUAL
		script := make([]byte, 0, 23)
		script = append(script, 0xa9, 0x14)
		script = append(script, hash...)
		script = append(script, 0x87)
		return script, nil
	}
	// OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY OP_CHECKSIG
	script := make([]byte, 0, 25)
	script = append(script, 0x76, 0xa9, 0x14)
	script = append(script, hash...)
	script = append(script, 0x88, 0xac)
	return script, nil
}

// taddressFromScript recovers the encoded address from a standard p2pkh
// output script, or "" when the script is not p2pkh.
func taddressFromScript(params *types.ChainParams, script []byte) string {
	if len(script) == 25 && script[0] == 0x76 && script[1] == 0xa9 && script[2] == 0x14 &&
		script[23] == 0x88 && script[24] == 0xac {
		return encodeTAddressForHash(params, script[3:23])
	}
	return ""
}
