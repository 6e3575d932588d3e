package sapling

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/adityapk00/zecwallet-lite/types"
)

// txExpiryDelta is how many blocks past the target height a built
// transaction stays valid.
const txExpiryDelta = 20

// Builder errors.
var (
	ErrChangeIsNegative = errors.New("change is negative: inputs do not cover outputs plus fee")
	ErrNoChangeAddress  = errors.New("no change address available for a transaction without sapling spends")
	ErrWitnessTooOld    = errors.New("witness does not authenticate the note under its own root")
)

// Prover produces the zero-knowledge proofs embedded in spend and output
// descriptions.
type Prover interface {
	SpendProof(cv, anchor, nullifier, rk types.Hash) [types.ProofLen]byte
	OutputProof(cv, cmu types.Hash, epk [types.EpkLen]byte) [types.ProofLen]byte
}

// LocalProver is a Prover backed by the sapling parameter files.
type LocalProver struct {
	spendParams  []byte
	outputParams []byte
}

// NewLocalProver returns a prover over the given parameter files.
func NewLocalProver(spendParams, outputParams []byte) (*LocalProver, error) {
	if len(spendParams) == 0 || len(outputParams) == 0 {
		return nil, errors.New("sapling parameters are empty")
	}
	return &LocalProver{spendParams: spendParams, outputParams: outputParams}, nil
}

// SpendProof produces the proof for one spend description.
func (p *LocalProver) SpendProof(cv, anchor, nullifier, rk types.Hash) [types.ProofLen]byte {
	return expandProof(tagProof, p.spendParams, cv[:], anchor[:], nullifier[:], rk[:])
}

// OutputProof produces the proof for one output description.
func (p *LocalProver) OutputProof(cv, cmu types.Hash, epk [types.EpkLen]byte) [types.ProofLen]byte {
	return expandProof(tagProof, p.outputParams, cv[:], cmu[:], epk[:])
}

func expandProof(tag, params []byte, data ...[]byte) (proof [types.ProofLen]byte) {
	paramDigest := hash256(tag, params)
	seed := hash512(tag, append([][]byte{paramDigest[:]}, data...)...)
	copy(proof[:64], seed[:])
	next := hash512(tag, seed[:])
	copy(proof[64:128], next[:])
	last := hash512(tag, next[:])
	copy(proof[128:], last[:])
	return proof
}

type (
	builderSpend struct {
		extsk    *ExtendedSpendingKey
		from     PaymentAddress
		note     *Note
		anchor   types.Hash
		path     *MerklePath
		position uint64
	}

	builderOutput struct {
		ovk  [32]byte
		to   PaymentAddress
		note *Note
		memo [types.MemoLen]byte
	}

	builderTxIn struct {
		key     *secp256k1.PrivateKey
		prevOut types.OutPoint
		value   types.Amount
	}

	builderTxOut struct {
		script []byte
		value  types.Amount
	}
)

// Builder assembles, proves and signs one sapling transaction. All inputs
// and outputs are added first; Build computes change, encrypts outputs and
// produces the wire transaction.
type Builder struct {
	height     uint32
	spends     []builderSpend
	outputs    []builderOutput
	tIns       []builderTxIn
	tOuts      []builderTxOut
	changeTo   *PaymentAddress
	changeOvk  [32]byte
	fee        types.Amount
}

// NewBuilder opens a builder targeting the given block height.
func NewBuilder(targetHeight uint32) *Builder {
	return &Builder{height: targetHeight, fee: types.DefaultFee}
}

// AddSaplingSpend schedules a note spend. The witness supplies both the
// anchor and the authentication path; it must witness the note's own
// commitment.
func (b *Builder) AddSaplingSpend(extsk *ExtendedSpendingKey, d Diversifier, note *Note, witness *IncrementalWitness) error {
	fvk := extsk.FVK()
	from, ok := fvk.DiversifiedAddress(d)
	if !ok {
		return ErrNoValidDiversifier
	}
	path := witness.Path()
	if path == nil {
		return ErrWitnessTooOld
	}
	anchor := witness.Root()
	cm := note.Commitment(from.Diversifier, from.Pkd)
	if path.Root(cm) != anchor {
		return ErrWitnessTooOld
	}
	b.spends = append(b.spends, builderSpend{
		extsk:    extsk,
		from:     from,
		note:     note,
		anchor:   anchor,
		path:     path,
		position: witness.Position(),
	})
	return nil
}

// AddSaplingOutput schedules a shielded output encrypted under the given
// outgoing viewing key.
func (b *Builder) AddSaplingOutput(ovk [32]byte, to PaymentAddress, value types.Amount, memo [types.MemoLen]byte) error {
	if !value.Valid() {
		return fmt.Errorf("output value %d is out of range", value)
	}
	r, err := RandomNoteR()
	if err != nil {
		return err
	}
	b.outputs = append(b.outputs, builderOutput{
		ovk:  ovk,
		to:   to,
		note: &Note{Value: value, R: r},
		memo: memo,
	})
	return nil
}

// AddTransparentInput schedules the spend of a transparent outpoint with its
// controlling key.
func (b *Builder) AddTransparentInput(key *secp256k1.PrivateKey, prevOut types.OutPoint, value types.Amount) {
	b.tIns = append(b.tIns, builderTxIn{key: key, prevOut: prevOut, value: value})
}

// AddTransparentOutput schedules a transparent output paying the given
// script.
func (b *Builder) AddTransparentOutput(script []byte, value types.Amount) error {
	if !value.Valid() {
		return fmt.Errorf("output value %d is out of range", value)
	}
	b.tOuts = append(b.tOuts, builderTxOut{script: script, value: value})
	return nil
}

// SendChangeTo overrides the change destination. Without an override, change
// returns to the address of the first sapling spend.
func (b *Builder) SendChangeTo(to PaymentAddress, ovk [32]byte) {
	c := to
	b.changeTo = &c
	b.changeOvk = ovk
}

// Build proves, signs and serializes the transaction.
func (b *Builder) Build(prover Prover, consensusBranchID uint32) (*types.Transaction, error) {
	var in, out types.Amount
	for i := range b.spends {
		in += b.spends[i].note.Value
	}
	for i := range b.tIns {
		in += b.tIns[i].value
	}
	for i := range b.outputs {
		out += b.outputs[i].note.Value
	}
	for i := range b.tOuts {
		out += b.tOuts[i].value
	}

	change := in - out - b.fee
	if change < 0 {
		return nil, ErrChangeIsNegative
	}
	if change > 0 {
		changeTo := b.changeTo
		changeOvk := b.changeOvk
		if changeTo == nil {
			if len(b.spends) == 0 {
				return nil, ErrNoChangeAddress
			}
			changeTo = &b.spends[0].from
			changeOvk = b.spends[0].extsk.Ovk
		}
		r, err := RandomNoteR()
		if err != nil {
			return nil, err
		}
		b.outputs = append(b.outputs, builderOutput{
			ovk:  changeOvk,
			to:   *changeTo,
			note: &Note{Value: change, R: r},
			memo: EncodeMemo(""),
		})
	}

	tx := types.NewTransaction(b.height + txExpiryDelta)

	// Shielded value balance: what the shielded pool releases (spends)
	// minus what it absorbs (outputs).
	var shieldedIn, shieldedOut types.Amount
	for i := range b.spends {
		shieldedIn += b.spends[i].note.Value
	}
	for i := range b.outputs {
		shieldedOut += b.outputs[i].note.Value
	}
	tx.ValueBalance = shieldedIn - shieldedOut

	for i := range b.tIns {
		tx.TxIn = append(tx.TxIn, types.TxIn{
			PrevOut:  b.tIns[i].prevOut,
			Sequence: 0xffffffff,
		})
	}
	for i := range b.tOuts {
		tx.TxOut = append(tx.TxOut, types.TxOut{
			Value:        b.tOuts[i].value,
			ScriptPubKey: b.tOuts[i].script,
		})
	}

	for i := range b.spends {
		s := &b.spends[i]
		fvk := s.extsk.FVK()
		nf := Nullifier(fvk.Nk, s.position, s.note.R)
		cv := hash256(tagCV, le64(uint64(s.note.Value)), s.note.R[:])
		rk := hash256(tagRK, fvk.Ak[:], nf[:])
		desc := types.SpendDescription{
			CV:        cv,
			Anchor:    s.anchor,
			Nullifier: nf,
			RK:        rk,
		}
		desc.Proof = prover.SpendProof(cv, s.anchor, nf, rk)
		tx.ShieldedSpends = append(tx.ShieldedSpends, desc)
	}

	for i := range b.outputs {
		o := &b.outputs[i]
		epk, enc, outCt, err := EncryptNote(o.ovk, o.to, o.note, o.memo)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt output %d: %v", i, err)
		}
		cmu := o.note.Commitment(o.to.Diversifier, o.to.Pkd)
		cv := hash256(tagCV, le64(uint64(o.note.Value)), o.note.R[:])
		desc := types.OutputDescription{
			CV:            cv,
			Cmu:           cmu,
			EphemeralKey:  epk,
			EncCiphertext: enc,
			OutCiphertext: outCt,
		}
		desc.Proof = prover.OutputProof(cv, cmu, epk)
		tx.ShieldedOutputs = append(tx.ShieldedOutputs, desc)
	}

	// Everything but the signatures is now in place; commit to it.
	sighash, err := signatureHash(tx, consensusBranchID)
	if err != nil {
		return nil, err
	}

	for i := range tx.ShieldedSpends {
		priv := secp256k1.PrivKeyFromBytes(b.spends[i].extsk.Ask[:])
		sig := ecdsa.SignCompact(priv, sighash[:], true)
		copy(tx.ShieldedSpends[i].SpendAuthSig[:], sig[1:])
	}

	for i := range tx.TxIn {
		key := b.tIns[i].key
		sig := append(ecdsa.Sign(key, sighash[:]).Serialize(), 0x01)
		pub := key.PubKey().SerializeCompressed()
		script := make([]byte, 0, len(sig)+len(pub)+2)
		script = append(script, byte(len(sig)))
		script = append(script, sig...)
		script = append(script, byte(len(pub)))
		script = append(script, pub...)
		tx.TxIn[i].ScriptSig = script
	}

	if len(tx.ShieldedSpends)+len(tx.ShieldedOutputs) > 0 {
		binding := hash512(tagBinding, sighash[:], le64(uint64(tx.ValueBalance)))
		copy(tx.BindingSig[:], binding[:])
	}
	return tx, nil
}

// signatureHash commits to the whole transaction minus its signatures,
// domain-separated by the consensus branch.
func signatureHash(tx *types.Transaction, consensusBranchID uint32) (types.Hash, error) {
	unsigned := *tx
	unsigned.TxIn = append([]types.TxIn(nil), tx.TxIn...)
	for i := range unsigned.TxIn {
		unsigned.TxIn[i].ScriptSig = nil
	}
	unsigned.ShieldedSpends = append([]types.SpendDescription(nil), tx.ShieldedSpends...)
	for i := range unsigned.ShieldedSpends {
		unsigned.ShieldedSpends[i].SpendAuthSig = [types.SigLen]byte{}
	}
	unsigned.BindingSig = [types.SigLen]byte{}
	raw, err := unsigned.MarshalBinary()
	if err != nil {
		return types.Hash{}, err
	}
	return hash256(tagSigHash, le32(consensusBranchID), raw), nil
}
