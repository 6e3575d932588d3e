package types

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Transaction wire constants for the sapling (v4) format.
const (
	// SaplingTxVersion is the transaction version used for shielded spends.
	SaplingTxVersion = 4

	// SaplingVersionGroupID identifies the sapling transaction format.
	SaplingVersionGroupID = 0x892f2085

	// overwinteredFlag is set on the version field of post-overwinter
	// transactions.
	overwinteredFlag = 0x80000000

	// ProofLen is the byte length of a serialized zero-knowledge proof.
	ProofLen = 192

	// SigLen is the byte length of spend-authorization and binding
	// signatures.
	SigLen = 64

	// EpkLen is the byte length of a serialized ephemeral key.
	EpkLen = 33

	// EncCiphertextLen is the byte length of a full note ciphertext.
	EncCiphertextLen = 580

	// OutCiphertextLen is the byte length of the outgoing ciphertext, which
	// lets the sender recover its own outputs with the ovk.
	OutCiphertextLen = 81

	// MemoLen is the byte length of an encoded memo field.
	MemoLen = 512
)

// Errors surfaced while decoding raw transactions.
var (
	ErrTxUnsupportedVersion = errors.New("transaction version is not the sapling v4 format")
	ErrTxTrailingBytes      = errors.New("transaction has trailing bytes")
)

type (
	// OutPoint references an output of a previous transaction.
	OutPoint struct {
		TxID  TxID
		Index uint32
	}

	// TxIn is a transparent input.
	TxIn struct {
		PrevOut   OutPoint
		ScriptSig []byte
		Sequence  uint32
	}

	// TxOut is a transparent output.
	TxOut struct {
		Value        Amount
		ScriptPubKey []byte
	}

	// SpendDescription reveals a nullifier and proves spend authority over a
	// note committed under Anchor.
	SpendDescription struct {
		CV           Hash
		Anchor       Hash
		Nullifier    Hash
		RK           Hash
		Proof        [ProofLen]byte
		SpendAuthSig [SigLen]byte
	}

	// OutputDescription carries a new note commitment with its ciphertexts.
	OutputDescription struct {
		CV            Hash
		Cmu           Hash
		EphemeralKey  [EpkLen]byte
		EncCiphertext [EncCiphertextLen]byte
		OutCiphertext [OutCiphertextLen]byte
	}

	// Transaction is a sapling-format transaction: transparent inputs and
	// outputs plus shielded spend and output descriptions.
	Transaction struct {
		Version         uint32
		VersionGroupID  uint32
		TxIn            []TxIn
		TxOut           []TxOut
		LockTime        uint32
		ExpiryHeight    uint32
		ValueBalance    Amount
		ShieldedSpends  []SpendDescription
		ShieldedOutputs []OutputDescription
		BindingSig      [SigLen]byte
	}
)

// NewTransaction returns an empty sapling-format transaction expiring at the
// given height.
func NewTransaction(expiryHeight uint32) *Transaction {
	return &Transaction{
		Version:        SaplingTxVersion,
		VersionGroupID: SaplingVersionGroupID,
		ExpiryHeight:   expiryHeight,
	}
}

// TxID computes the transaction identifier over the serialized form.
func (tx *Transaction) TxID() TxID {
	raw, err := tx.MarshalBinary()
	if err != nil {
		// Serialization of an in-memory transaction cannot fail short of an
		// impossible length overflow.
		panic(err)
	}
	return NewTxID(raw)
}

// MarshalBinary serializes the transaction in wire format.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	e := NewWriter(&buf)
	tx.writeTo(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (tx *Transaction) writeTo(e *Writer) {
	e.WriteUint32(tx.Version | overwinteredFlag)
	e.WriteUint32(tx.VersionGroupID)
	e.WriteCompactSize(uint64(len(tx.TxIn)))
	for i := range tx.TxIn {
		in := &tx.TxIn[i]
		e.Write(in.PrevOut.TxID[:])
		e.WriteUint32(in.PrevOut.Index)
		e.WriteCompactSize(uint64(len(in.ScriptSig)))
		e.Write(in.ScriptSig)
		e.WriteUint32(in.Sequence)
	}
	e.WriteCompactSize(uint64(len(tx.TxOut)))
	for i := range tx.TxOut {
		out := &tx.TxOut[i]
		e.WriteInt64(int64(out.Value))
		e.WriteCompactSize(uint64(len(out.ScriptPubKey)))
		e.Write(out.ScriptPubKey)
	}
	e.WriteUint32(tx.LockTime)
	e.WriteUint32(tx.ExpiryHeight)
	e.WriteInt64(int64(tx.ValueBalance))
	e.WriteCompactSize(uint64(len(tx.ShieldedSpends)))
	for i := range tx.ShieldedSpends {
		s := &tx.ShieldedSpends[i]
		e.Write(s.CV[:])
		e.Write(s.Anchor[:])
		e.Write(s.Nullifier[:])
		e.Write(s.RK[:])
		e.Write(s.Proof[:])
		e.Write(s.SpendAuthSig[:])
	}
	e.WriteCompactSize(uint64(len(tx.ShieldedOutputs)))
	for i := range tx.ShieldedOutputs {
		o := &tx.ShieldedOutputs[i]
		e.Write(o.CV[:])
		e.Write(o.Cmu[:])
		e.Write(o.EphemeralKey[:])
		e.Write(o.EncCiphertext[:])
		e.Write(o.OutCiphertext[:])
	}
	// No joinsplits in the sapling-only wallet.
	e.WriteCompactSize(0)
	if len(tx.ShieldedSpends)+len(tx.ShieldedOutputs) > 0 {
		e.Write(tx.BindingSig[:])
	}
}

// UnmarshalBinary decodes a wire-format transaction, rejecting trailing
// bytes.
func (tx *Transaction) UnmarshalBinary(raw []byte) error {
	r := bytes.NewReader(raw)
	if err := tx.ReadFrom(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return ErrTxTrailingBytes
	}
	return nil
}

// ReadFrom decodes a wire-format transaction from r.
func (tx *Transaction) ReadFrom(r io.Reader) error {
	d := NewReader(r)
	header := d.ReadUint32()
	if d.Err() != nil {
		return d.Err()
	}
	if header&overwinteredFlag == 0 || header&^uint32(overwinteredFlag) != SaplingTxVersion {
		return fmt.Errorf("%w: header %#x", ErrTxUnsupportedVersion, header)
	}
	tx.Version = header &^ uint32(overwinteredFlag)
	tx.VersionGroupID = d.ReadUint32()
	if tx.VersionGroupID != SaplingVersionGroupID && d.Err() == nil {
		return fmt.Errorf("%w: version group %#x", ErrTxUnsupportedVersion, tx.VersionGroupID)
	}

	nIn := d.ReadCompactSize()
	if d.Err() != nil {
		return d.Err()
	}
	if nIn > maxSliceLen {
		return ErrSliceTooLarge
	}
	tx.TxIn = make([]TxIn, 0, nIn)
	for i := uint64(0); i < nIn; i++ {
		var in TxIn
		d.Read(in.PrevOut.TxID[:])
		in.PrevOut.Index = d.ReadUint32()
		in.ScriptSig = readCompactBytes(d)
		in.Sequence = d.ReadUint32()
		tx.TxIn = append(tx.TxIn, in)
	}

	nOut := d.ReadCompactSize()
	if d.Err() != nil {
		return d.Err()
	}
	if nOut > maxSliceLen {
		return ErrSliceTooLarge
	}
	tx.TxOut = make([]TxOut, 0, nOut)
	for i := uint64(0); i < nOut; i++ {
		var out TxOut
		out.Value = Amount(d.ReadInt64())
		out.ScriptPubKey = readCompactBytes(d)
		tx.TxOut = append(tx.TxOut, out)
	}

	tx.LockTime = d.ReadUint32()
	tx.ExpiryHeight = d.ReadUint32()
	tx.ValueBalance = Amount(d.ReadInt64())

	nSpends := d.ReadCompactSize()
	if d.Err() != nil {
		return d.Err()
	}
	if nSpends > maxSliceLen {
		return ErrSliceTooLarge
	}
	tx.ShieldedSpends = make([]SpendDescription, 0, nSpends)
	for i := uint64(0); i < nSpends; i++ {
		var s SpendDescription
		d.Read(s.CV[:])
		d.Read(s.Anchor[:])
		d.Read(s.Nullifier[:])
		d.Read(s.RK[:])
		d.Read(s.Proof[:])
		d.Read(s.SpendAuthSig[:])
		tx.ShieldedSpends = append(tx.ShieldedSpends, s)
	}

	nOutputs := d.ReadCompactSize()
	if d.Err() != nil {
		return d.Err()
	}
	if nOutputs > maxSliceLen {
		return ErrSliceTooLarge
	}
	tx.ShieldedOutputs = make([]OutputDescription, 0, nOutputs)
	for i := uint64(0); i < nOutputs; i++ {
		var o OutputDescription
		d.Read(o.CV[:])
		d.Read(o.Cmu[:])
		d.Read(o.EphemeralKey[:])
		d.Read(o.EncCiphertext[:])
		d.Read(o.OutCiphertext[:])
		tx.ShieldedOutputs = append(tx.ShieldedOutputs, o)
	}

	nJoinSplit := d.ReadCompactSize()
	if d.Err() == nil && nJoinSplit != 0 {
		return errors.New("joinsplit transactions are not supported")
	}

	if nSpends+nOutputs > 0 {
		d.Read(tx.BindingSig[:])
	}
	return d.Err()
}

func readCompactBytes(d *Reader) []byte {
	n := d.ReadCompactSize()
	if d.Err() != nil || n == 0 {
		return nil
	}
	if n > maxSliceLen {
		return nil
	}
	p := make([]byte, n)
	d.Read(p)
	return p
}
