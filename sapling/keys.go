package sapling

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/decred/dcrd/bech32"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/adityapk00/zecwallet-lite/types"
)

// DiversifierLen is the byte length of an address diversifier.
const DiversifierLen = 11

// PkdLen is the byte length of a serialized diversified transmission key.
const PkdLen = 33

// hardenedKeyStart marks the first hardened child index.
const hardenedKeyStart = 0x80000000

var (
	// ErrNoValidDiversifier is returned when no diversifier index below the
	// search bound maps onto the curve.
	ErrNoValidDiversifier = errors.New("no valid diversifier found")

	errBadKeyEncoding = errors.New("malformed extended key encoding")
)

type (
	// Diversifier selects one of the many payment addresses of a single
	// viewing key.
	Diversifier [DiversifierLen]byte

	// ExtendedSpendingKey is a hierarchical sapling spending key. Ask
	// authorizes spends, Nsk derives nullifiers, Ovk recovers outgoing
	// notes and Dk generates diversified addresses.
	ExtendedSpendingKey struct {
		Depth        uint8
		ParentFVKTag uint32
		ChildIndex   uint32
		ChainCode    [32]byte
		Ask          [32]byte
		Nsk          [32]byte
		Ovk          [32]byte
		Dk           [32]byte
	}

	// ExtendedFullViewingKey is the viewing half of an extended spending
	// key: it can detect incoming notes, derive nullifiers and recover
	// outgoing notes, but cannot authorize spends.
	ExtendedFullViewingKey struct {
		Depth        uint8
		ParentFVKTag uint32
		ChildIndex   uint32
		ChainCode    [32]byte
		Ak           [PkdLen]byte
		Nk           [32]byte
		Ovk          [32]byte
		Dk           [32]byte
	}

	// IncomingViewingKey trial-decrypts note ciphertexts.
	IncomingViewingKey struct {
		scalar secp256k1.ModNScalar
	}

	// PaymentAddress is a diversified shielded address.
	PaymentAddress struct {
		Diversifier Diversifier
		Pkd         [PkdLen]byte
	}
)

// MasterKey derives the sapling master key from a BIP-39 seed.
func MasterKey(seed []byte) *ExtendedSpendingKey {
	i := hash512(tagMaster, seed)
	sk := &ExtendedSpendingKey{}
	copy(sk.ChainCode[:], i[32:])
	fillKeyMaterial(sk, i[:32])
	return sk
}

func fillKeyMaterial(sk *ExtendedSpendingKey, material []byte) {
	ask := prfExpand(material, 0x00)
	nsk := prfExpand(material, 0x01)
	ovk := prfExpand(material, 0x02)
	dk := prfExpand(material, 0x10)
	copy(sk.Ask[:], reduceToScalar(ask[:]))
	copy(sk.Nsk[:], nsk[:32])
	copy(sk.Ovk[:], ovk[:32])
	copy(sk.Dk[:], dk[:32])
}

// reduceToScalar maps 64 uniform bytes onto a canonical scalar encoding.
func reduceToScalar(b []byte) []byte {
	var s secp256k1.ModNScalar
	s.SetByteSlice(b[:32])
	// Fold in the second half so the full 512 bits contribute.
	var t secp256k1.ModNScalar
	t.SetByteSlice(b[32:])
	s.Add(&t)
	out := s.Bytes()
	return out[:]
}

// Child derives the hardened child key at the given index.
func (sk *ExtendedSpendingKey) Child(index uint32) *ExtendedSpendingKey {
	hardened := index | hardenedKeyStart
	i := hash512(tagExpand, sk.ChainCode[:], []byte{0x11},
		sk.Ask[:], sk.Nsk[:], sk.Ovk[:], sk.Dk[:], le32(hardened))

	child := &ExtendedSpendingKey{
		Depth:        sk.Depth + 1,
		ParentFVKTag: sk.FVK().Tag(),
		ChildIndex:   hardened,
	}
	copy(child.ChainCode[:], i[32:])
	fillKeyMaterial(child, i[:32])
	return child
}

// DerivePath derives the ZIP-32 path m/32'/coin'/account' from the master
// key.
func (sk *ExtendedSpendingKey) DerivePath(coinType, account uint32) *ExtendedSpendingKey {
	return sk.Child(32).Child(coinType).Child(account)
}

// FVK returns the extended full viewing key matching this spending key.
func (sk *ExtendedSpendingKey) FVK() *ExtendedFullViewingKey {
	fvk := &ExtendedFullViewingKey{
		Depth:        sk.Depth,
		ParentFVKTag: sk.ParentFVKTag,
		ChildIndex:   sk.ChildIndex,
		ChainCode:    sk.ChainCode,
		Ovk:          sk.Ovk,
		Dk:           sk.Dk,
	}
	var ask secp256k1.ModNScalar
	ask.SetBytes(&sk.Ask)
	var ak secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&ask, &ak)
	ak.ToAffine()
	copy(fvk.Ak[:], secp256k1.NewPublicKey(&ak.X, &ak.Y).SerializeCompressed())
	nk := hash256(tagExpand, sk.Nsk[:], []byte{0x12})
	fvk.Nk = nk
	return fvk
}

// Tag returns the 4-byte fingerprint of the viewing key used to link child
// keys to their parent.
func (fvk *ExtendedFullViewingKey) Tag() uint32 {
	h := hash256(tagFVKTag, fvk.Ak[:], fvk.Nk[:])
	return uint32(h[0]) | uint32(h[1])<<8 | uint32(h[2])<<16 | uint32(h[3])<<24
}

// IVK derives the incoming viewing key.
func (fvk *ExtendedFullViewingKey) IVK() *IncomingViewingKey {
	h := hash256(tagIvk, fvk.Ak[:], fvk.Nk[:])
	ivk := &IncomingViewingKey{}
	ivk.scalar.SetByteSlice(h[:])
	return ivk
}

// Bytes returns the canonical scalar encoding of the ivk.
func (ivk *IncomingViewingKey) Bytes() [32]byte {
	return ivk.scalar.Bytes()
}

// diversifyHash maps a diversifier onto a curve point, the diversified base
// g_d. Not every diversifier maps to a valid point; those are skipped by the
// address search.
func diversifyHash(d Diversifier) (*secp256k1.JacobianPoint, bool) {
	seed := hash256(tagGd, d[:])
	for attempt := 0; attempt < 64; attempt++ {
		var x secp256k1.FieldVal
		if !x.SetByteSlice(seed[:]) {
			if y, valid := secp256k1.DecompressY(&x, false); valid {
				var p secp256k1.JacobianPoint
				p.X.Set(&x)
				p.Y.Set(y.Normalize())
				p.Z.SetInt(1)
				return &p, true
			}
		}
		seed = hash256(tagGd, seed[:])
	}
	return nil, false
}

// DiversifiedAddress computes the payment address for a specific diversifier,
// or false if the diversifier is invalid.
func (fvk *ExtendedFullViewingKey) DiversifiedAddress(d Diversifier) (PaymentAddress, bool) {
	gd, ok := diversifyHash(d)
	if !ok {
		return PaymentAddress{}, false
	}
	ivk := fvk.IVK()
	var pkd secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&ivk.scalar, gd, &pkd)
	pkd.ToAffine()
	addr := PaymentAddress{Diversifier: d}
	copy(addr.Pkd[:], secp256k1.NewPublicKey(&pkd.X, &pkd.Y).SerializeCompressed())
	return addr, true
}

// DefaultAddress returns the first valid diversified address of the key.
func (fvk *ExtendedFullViewingKey) DefaultAddress() (PaymentAddress, error) {
	for j := uint32(0); j < 1000; j++ {
		var d Diversifier
		h := hash256(tagExpand, fvk.Dk[:], []byte{0x03}, le32(j))
		copy(d[:], h[:DiversifierLen])
		if addr, ok := fvk.DiversifiedAddress(d); ok {
			return addr, nil
		}
	}
	return PaymentAddress{}, ErrNoValidDiversifier
}

// DefaultAddress returns the default address of the spending key.
func (sk *ExtendedSpendingKey) DefaultAddress() (PaymentAddress, error) {
	return sk.FVK().DefaultAddress()
}

// AddressForIVK reconstructs the payment address a decrypted note was sent
// to, from its diversifier.
func AddressForIVK(ivk *IncomingViewingKey, d Diversifier) (PaymentAddress, bool) {
	gd, ok := diversifyHash(d)
	if !ok {
		return PaymentAddress{}, false
	}
	var pkd secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&ivk.scalar, gd, &pkd)
	pkd.ToAffine()
	addr := PaymentAddress{Diversifier: d}
	copy(addr.Pkd[:], secp256k1.NewPublicKey(&pkd.X, &pkd.Y).SerializeCompressed())
	return addr, true
}

// Encode renders the address in bech32 with the chain's HRP.
func (a PaymentAddress) Encode(params *types.ChainParams) string {
	payload := make([]byte, 0, DiversifierLen+PkdLen)
	payload = append(payload, a.Diversifier[:]...)
	payload = append(payload, a.Pkd[:]...)
	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return ""
	}
	s, err := bech32.Encode(params.SaplingHRP, converted)
	if err != nil {
		return ""
	}
	return s
}

// DecodePaymentAddress parses a bech32 shielded address under the chain's
// HRP.
func DecodePaymentAddress(params *types.ChainParams, addr string) (PaymentAddress, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return PaymentAddress{}, err
	}
	if hrp != params.SaplingHRP {
		return PaymentAddress{}, fmt.Errorf("address prefix %q is not the expected %q", hrp, params.SaplingHRP)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return PaymentAddress{}, err
	}
	if len(payload) != DiversifierLen+PkdLen {
		return PaymentAddress{}, errBadKeyEncoding
	}
	var a PaymentAddress
	copy(a.Diversifier[:], payload[:DiversifierLen])
	copy(a.Pkd[:], payload[DiversifierLen:])
	return a, nil
}

// WriteTo flattens the spending key for encoding and persistence.
func (sk *ExtendedSpendingKey) WriteTo(e *types.Writer) {
	e.WriteUint8(sk.Depth)
	e.WriteUint32(sk.ParentFVKTag)
	e.WriteUint32(sk.ChildIndex)
	e.Write(sk.ChainCode[:])
	e.Write(sk.Ask[:])
	e.Write(sk.Nsk[:])
	e.Write(sk.Ovk[:])
	e.Write(sk.Dk[:])
}

// ReadFrom decodes a spending key.
func (sk *ExtendedSpendingKey) ReadFrom(d *types.Reader) {
	sk.Depth = d.ReadUint8()
	sk.ParentFVKTag = d.ReadUint32()
	sk.ChildIndex = d.ReadUint32()
	d.Read(sk.ChainCode[:])
	d.Read(sk.Ask[:])
	d.Read(sk.Nsk[:])
	d.Read(sk.Ovk[:])
	d.Read(sk.Dk[:])
}

// WriteTo flattens the viewing key for encoding and persistence.
func (fvk *ExtendedFullViewingKey) WriteTo(e *types.Writer) {
	e.WriteUint8(fvk.Depth)
	e.WriteUint32(fvk.ParentFVKTag)
	e.WriteUint32(fvk.ChildIndex)
	e.Write(fvk.ChainCode[:])
	e.Write(fvk.Ak[:])
	e.Write(fvk.Nk[:])
	e.Write(fvk.Ovk[:])
	e.Write(fvk.Dk[:])
}

// ReadFrom decodes a viewing key.
func (fvk *ExtendedFullViewingKey) ReadFrom(d *types.Reader) {
	fvk.Depth = d.ReadUint8()
	fvk.ParentFVKTag = d.ReadUint32()
	fvk.ChildIndex = d.ReadUint32()
	d.Read(fvk.ChainCode[:])
	d.Read(fvk.Ak[:])
	d.Read(fvk.Nk[:])
	d.Read(fvk.Ovk[:])
	d.Read(fvk.Dk[:])
}

// Equal reports whether two viewing keys are identical.
func (fvk *ExtendedFullViewingKey) Equal(other *ExtendedFullViewingKey) bool {
	if other == nil {
		return false
	}
	return fvk.Depth == other.Depth &&
		fvk.ParentFVKTag == other.ParentFVKTag &&
		fvk.ChildIndex == other.ChildIndex &&
		fvk.ChainCode == other.ChainCode &&
		fvk.Ak == other.Ak &&
		fvk.Nk == other.Nk &&
		fvk.Ovk == other.Ovk &&
		fvk.Dk == other.Dk
}

// EncodeSpendingKey renders the spending key in bech32 under the chain's
// extended-spending-key HRP.
func EncodeSpendingKey(params *types.ChainParams, sk *ExtendedSpendingKey) string {
	var buf bytes.Buffer
	e := types.NewWriter(&buf)
	sk.WriteTo(e)
	if e.Err() != nil {
		return ""
	}
	converted, err := bech32.ConvertBits(buf.Bytes(), 8, 5, true)
	if err != nil {
		return ""
	}
	s, err := bech32.Encode(params.SaplingExtSKRP, converted)
	if err != nil {
		return ""
	}
	return s
}

// DecodeSpendingKey parses a bech32 extended spending key. Extended keys are
// longer than the 90-character bech32 checksum guarantee, which is the
// convention for sapling key material.
func DecodeSpendingKey(params *types.ChainParams, s string) (*ExtendedSpendingKey, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, err
	}
	if hrp != params.SaplingExtSKRP {
		return nil, fmt.Errorf("spending key prefix %q is not the expected %q", hrp, params.SaplingExtSKRP)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, err
	}
	sk := &ExtendedSpendingKey{}
	d := types.NewReader(bytes.NewReader(payload))
	sk.ReadFrom(d)
	if d.Err() != nil {
		return nil, errBadKeyEncoding
	}
	return sk, nil
}

// EncodeViewingKey renders the viewing key in bech32 under the chain's
// extended-viewing-key HRP.
func EncodeViewingKey(params *types.ChainParams, fvk *ExtendedFullViewingKey) string {
	var buf bytes.Buffer
	e := types.NewWriter(&buf)
	fvk.WriteTo(e)
	if e.Err() != nil {
		return ""
	}
	converted, err := bech32.ConvertBits(buf.Bytes(), 8, 5, true)
	if err != nil {
		return ""
	}
	s, err := bech32.Encode(params.SaplingExtFVKP, converted)
	if err != nil {
		return ""
	}
	return s
}
