package sapling

import (
	"bytes"
	"crypto/rand"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/adityapk00/zecwallet-lite/types"
)

// notePlaintextLen is lead byte + diversifier + value + rcm + memo.
const notePlaintextLen = 1 + DiversifierLen + 8 + 32 + types.MemoLen

// outPlaintextLen is pk_d + esk.
const outPlaintextLen = PkdLen + 32

// noteLeadByte marks the plaintext version.
const noteLeadByte = 0x01

var (
	// ErrDecryptFailed is returned when a ciphertext does not open under
	// the given key. Trial decryption treats it as "not ours".
	ErrDecryptFailed = errors.New("note ciphertext did not decrypt")

	errBadPlaintext = errors.New("note plaintext is malformed")
)

// Note is the spendable payload of a shielded output: a value and the
// commitment randomness binding it.
type Note struct {
	Value types.Amount
	R     [32]byte
}

// Equal reports whether two notes are identical.
func (n *Note) Equal(other *Note) bool {
	return other != nil && n.Value == other.Value && n.R == other.R
}

// Commitment computes the note commitment for a note addressed to (d, pkd).
func (n *Note) Commitment(d Diversifier, pkd [PkdLen]byte) types.Hash {
	return hash256(tagNoteCM, d[:], pkd[:], le64(uint64(n.Value)), n.R[:])
}

// Nullifier derives the unique spend tag of the note at the given tree
// position. It depends only on the viewing key's nullifier component, the
// position and the note randomness, so the owner can compute it without the
// spending key.
func Nullifier(nk types.Hash, position uint64, r [32]byte) types.Hash {
	return hash256(tagNf, nk[:], le64(position), r[:])
}

// RandomNoteR draws fresh commitment randomness.
func RandomNoteR() (r [32]byte, err error) {
	_, err = rand.Read(r[:])
	return r, err
}

// NotePlaintext is the decrypted content of an output ciphertext.
type NotePlaintext struct {
	Diversifier Diversifier
	Value       types.Amount
	R           [32]byte
	Memo        [types.MemoLen]byte
}

// Note returns the note carried by the plaintext.
func (np *NotePlaintext) Note() *Note {
	return &Note{Value: np.Value, R: np.R}
}

// EncodeMemo converts a memo string to its 512-byte field encoding. An empty
// memo is the conventional "no memo" marker.
func EncodeMemo(s string) (m [types.MemoLen]byte) {
	if s == "" {
		m[0] = 0xf6
		return m
	}
	copy(m[:], s)
	return m
}

// DecodeMemo renders a memo field as a string, or "" for the no-memo marker.
func DecodeMemo(m []byte) string {
	if len(m) == 0 || m[0] == 0xf6 {
		return ""
	}
	return string(bytes.TrimRight(m, "\x00"))
}

func (np *NotePlaintext) marshal() []byte {
	out := make([]byte, 0, notePlaintextLen)
	out = append(out, noteLeadByte)
	out = append(out, np.Diversifier[:]...)
	out = append(out, le64(uint64(np.Value))...)
	out = append(out, np.R[:]...)
	out = append(out, np.Memo[:]...)
	return out
}

func parseNotePlaintext(b []byte) (*NotePlaintext, error) {
	if len(b) != notePlaintextLen || b[0] != noteLeadByte {
		return nil, errBadPlaintext
	}
	np := &NotePlaintext{}
	copy(np.Diversifier[:], b[1:1+DiversifierLen])
	off := 1 + DiversifierLen
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[off+i]) << uint(8*i)
	}
	np.Value = types.Amount(v)
	off += 8
	copy(np.R[:], b[off:off+32])
	off += 32
	copy(np.Memo[:], b[off:])
	return np, nil
}

// kdf derives the symmetric note key from the agreed secret and the
// ephemeral key.
func kdf(shared []byte, epk []byte) []byte {
	h := hash256(tagKDF, shared, epk)
	return h[:]
}

// ock derives the outgoing cipher key, which lets the sender recover its own
// outputs later.
func ock(ovk [32]byte, cmu types.Hash, epk []byte) []byte {
	h := hash256(tagOCK, ovk[:], cmu[:], epk)
	return h[:]
}

func sealNote(key, plaintext []byte) []byte {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		panic(err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	return aead.Seal(nil, nonce, plaintext, nil)
}

func openNote(key, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		panic(err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	pt, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return pt, nil
}

// EncryptNote encrypts a note to a payment address. It returns the ephemeral
// key, the full note ciphertext and the outgoing ciphertext that lets the
// holder of ovk recover the output.
func EncryptNote(ovk [32]byte, to PaymentAddress, note *Note, memo [types.MemoLen]byte) (
	epk [types.EpkLen]byte, enc [types.EncCiphertextLen]byte, out [types.OutCiphertextLen]byte, err error) {

	gd, ok := diversifyHash(to.Diversifier)
	if !ok {
		err = ErrNoValidDiversifier
		return
	}

	var eskBytes [32]byte
	if _, err = rand.Read(eskBytes[:]); err != nil {
		return
	}
	var esk secp256k1.ModNScalar
	esk.SetBytes(&eskBytes)
	if esk.IsZero() {
		esk.SetInt(1)
	}
	eskBytes = esk.Bytes()

	// epk = esk·g_d, shared = esk·pk_d.
	var epkPoint secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&esk, gd, &epkPoint)
	epkPoint.ToAffine()
	copy(epk[:], secp256k1.NewPublicKey(&epkPoint.X, &epkPoint.Y).SerializeCompressed())

	pkdPub, err := secp256k1.ParsePubKey(to.Pkd[:])
	if err != nil {
		return
	}
	var pkdPoint, sharedPoint secp256k1.JacobianPoint
	pkdPub.AsJacobian(&pkdPoint)
	secp256k1.ScalarMultNonConst(&esk, &pkdPoint, &sharedPoint)
	sharedPoint.ToAffine()
	shared := secp256k1.NewPublicKey(&sharedPoint.X, &sharedPoint.Y).SerializeCompressed()

	np := &NotePlaintext{
		Diversifier: to.Diversifier,
		Value:       note.Value,
		R:           note.R,
		Memo:        memo,
	}
	key := kdf(shared, epk[:])
	copy(enc[:], sealNote(key, np.marshal()))

	cmu := note.Commitment(to.Diversifier, to.Pkd)
	outPlain := make([]byte, 0, outPlaintextLen)
	outPlain = append(outPlain, to.Pkd[:]...)
	outPlain = append(outPlain, eskBytes[:]...)
	copy(out[:], sealNote(ock(ovk, cmu, epk[:]), outPlain))
	return epk, enc, out, nil
}

// TrialDecrypt attempts to open a full note ciphertext with an incoming
// viewing key. The recovered address is reconstructed from the diversifier
// and checked against the commitment.
func TrialDecrypt(ivk *IncomingViewingKey, cmu types.Hash, epk, enc []byte) (*NotePlaintext, PaymentAddress, error) {
	shared, err := agree(ivk, epk)
	if err != nil {
		return nil, PaymentAddress{}, err
	}
	pt, err := openNote(kdf(shared, epk), enc)
	if err != nil {
		return nil, PaymentAddress{}, err
	}
	np, err := parseNotePlaintext(pt)
	if err != nil {
		return nil, PaymentAddress{}, err
	}
	addr, ok := AddressForIVK(ivk, np.Diversifier)
	if !ok {
		return nil, PaymentAddress{}, ErrDecryptFailed
	}
	if np.Note().Commitment(addr.Diversifier, addr.Pkd) != cmu {
		return nil, PaymentAddress{}, ErrDecryptFailed
	}
	return np, addr, nil
}

// TrialDecryptCompact attempts to recover a note from the truncated compact
// ciphertext. Authentication is replaced by recomputing the note commitment
// and comparing it against cmu.
func TrialDecryptCompact(ivk *IncomingViewingKey, cmu types.Hash, epk, compact []byte) (*NotePlaintext, PaymentAddress, error) {
	if len(compact) < types.CompactCiphertextLen {
		return nil, PaymentAddress{}, ErrDecryptFailed
	}
	shared, err := agree(ivk, epk)
	if err != nil {
		return nil, PaymentAddress{}, err
	}

	// The compact ciphertext is the leading slice of the AEAD stream;
	// replay the cipher at the same counter offset the AEAD uses.
	key := kdf(shared, epk)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		panic(err)
	}
	c.SetCounter(1)
	pt := make([]byte, types.CompactCiphertextLen)
	c.XORKeyStream(pt, compact[:types.CompactCiphertextLen])

	if pt[0] != noteLeadByte {
		return nil, PaymentAddress{}, ErrDecryptFailed
	}
	full := make([]byte, notePlaintextLen)
	copy(full, pt)
	np, err := parseNotePlaintext(full)
	if err != nil {
		return nil, PaymentAddress{}, err
	}
	addr, ok := AddressForIVK(ivk, np.Diversifier)
	if !ok {
		return nil, PaymentAddress{}, ErrDecryptFailed
	}
	if np.Note().Commitment(addr.Diversifier, addr.Pkd) != cmu {
		return nil, PaymentAddress{}, ErrDecryptFailed
	}
	return np, addr, nil
}

// RecoverOutput opens an output with the outgoing viewing key: the out
// ciphertext yields (pk_d, esk), which unlocks the note ciphertext.
func RecoverOutput(ovk [32]byte, cmu types.Hash, epk, enc, out []byte) (*NotePlaintext, PaymentAddress, error) {
	outPlain, err := openNote(ock(ovk, cmu, epk), out)
	if err != nil {
		return nil, PaymentAddress{}, err
	}
	if len(outPlain) != outPlaintextLen {
		return nil, PaymentAddress{}, errBadPlaintext
	}
	var pkd [PkdLen]byte
	copy(pkd[:], outPlain[:PkdLen])
	var eskBytes [32]byte
	copy(eskBytes[:], outPlain[PkdLen:])

	pkdPub, err := secp256k1.ParsePubKey(pkd[:])
	if err != nil {
		return nil, PaymentAddress{}, ErrDecryptFailed
	}
	var esk secp256k1.ModNScalar
	esk.SetBytes(&eskBytes)
	var pkdPoint, sharedPoint secp256k1.JacobianPoint
	pkdPub.AsJacobian(&pkdPoint)
	secp256k1.ScalarMultNonConst(&esk, &pkdPoint, &sharedPoint)
	sharedPoint.ToAffine()
	shared := secp256k1.NewPublicKey(&sharedPoint.X, &sharedPoint.Y).SerializeCompressed()

	pt, err := openNote(kdf(shared, epk), enc)
	if err != nil {
		return nil, PaymentAddress{}, err
	}
	np, err := parseNotePlaintext(pt)
	if err != nil {
		return nil, PaymentAddress{}, err
	}
	addr := PaymentAddress{Diversifier: np.Diversifier, Pkd: pkd}
	if np.Note().Commitment(addr.Diversifier, addr.Pkd) != cmu {
		return nil, PaymentAddress{}, ErrDecryptFailed
	}
	return np, addr, nil
}

// agree computes the shared secret ivk·epk.
func agree(ivk *IncomingViewingKey, epk []byte) ([]byte, error) {
	epkPub, err := secp256k1.ParsePubKey(epk)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	var epkPoint, sharedPoint secp256k1.JacobianPoint
	epkPub.AsJacobian(&epkPoint)
	secp256k1.ScalarMultNonConst(&ivk.scalar, &epkPoint, &sharedPoint)
	sharedPoint.ToAffine()
	return secp256k1.NewPublicKey(&sharedPoint.X, &sharedPoint.Y).SerializeCompressed(), nil
}
