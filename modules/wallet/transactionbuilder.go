package wallet

import (
	"errors"
	"fmt"

	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

// Recipient is one destination of a send: an address, an amount and an
// optional memo (only meaningful for shielded destinations).
type Recipient struct {
	Address string
	Amount  types.Amount
	Memo    string
}

// SendToAddress selects notes and utxos, builds, proves and signs a
// transaction paying the recipients, and returns its raw bytes and txid.
// Broadcast is the caller's responsibility.
//
// Selected notes and utxos are marked pending-spent and a mempool entry is
// recorded, but only after the builder succeeded; a failed build leaves the
// wallet untouched.
func (w *Wallet) SendToAddress(consensusBranchID uint32, spendParams, outputParams []byte,
	recipients []Recipient) ([]byte, types.TxID, error) {

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.unlocked {
		return nil, types.TxID{}, modules.ErrLockedWallet
	}
	if len(recipients) == 0 {
		return nil, types.TxID{}, errors.New("Need at least one destination address")
	}
	for i := 0; i < len(recipients); i++ {
		for j := i + 1; j < len(recipients); j++ {
			if recipients[i].Address == recipients[j].Address {
				return nil, types.TxID{}, fmt.Errorf("To address %s is duplicated", recipients[i].Address)
			}
		}
	}

	var totalOut types.Amount
	kinds := make([]RecipientKind, len(recipients))
	for i, r := range recipients {
		kind := w.ClassifyAddress(r.Address)
		if kind == RecipientInvalid {
			return nil, types.TxID{}, fmt.Errorf("Invalid recipient address: '%s'", r.Address)
		}
		kinds[i] = kind
		totalOut += r.Amount
	}

	target, anchor, ok := w.targetAndAnchorHeight()
	if !ok {
		return nil, types.TxID{}, modules.ErrNoBlocks
	}

	// Running-prefix selection over the spendable notes, then a lazy sweep
	// of every transparent output.
	targetValue := totalOut + types.DefaultFee
	var selectedNotes []*SpendableNote
	var selectedValue types.Amount
	for _, sn := range w.spendableNotes(anchor) {
		selectedNotes = append(selectedNotes, sn)
		selectedValue += sn.Note.Value
		if selectedValue >= targetValue {
			break
		}
	}
	utxos := w.unspentUtxos()
	for _, u := range utxos {
		selectedValue += u.Value
	}
	if selectedValue < targetValue {
		return nil, types.TxID{}, fmt.Errorf(
			"Insufficient verified funds (have %d, need %d). NOTE: funds need %d confirmations before they can be spent.",
			selectedValue, targetValue, w.params.AnchorOffset+1)
	}

	log.Infof("Sending to %d recipients, spending %d notes and %d utxos",
		len(recipients), len(selectedNotes), len(utxos))

	builder := sapling.NewBuilder(uint32(target))

	for _, u := range utxos {
		key, err := w.tKeyForAddress(u.Address)
		if err != nil {
			return nil, types.TxID{}, fmt.Errorf("no key for transparent input %s: %v", u.Address, err)
		}
		builder.AddTransparentInput(key, types.OutPoint{TxID: u.TxID, Index: uint32(u.OutputIndex)}, u.Value)
	}

	for _, sn := range selectedNotes {
		if err := builder.AddSaplingSpend(sn.ExtSK, sn.Diversifier, sn.Note, sn.Witness); err != nil {
			return nil, types.TxID{}, fmt.Errorf("failed to add sapling spend: %v", err)
		}
	}

	// All outputs are encrypted under the first account's ovk so the wallet
	// can recover them later.
	ovk := w.extfvks[0].Ovk
	for i, r := range recipients {
		switch kinds[i] {
		case RecipientShielded:
			to, err := sapling.DecodePaymentAddress(w.params, r.Address)
			if err != nil {
				return nil, types.TxID{}, fmt.Errorf("Invalid recipient address: '%s'", r.Address)
			}
			if err := builder.AddSaplingOutput(ovk, to, r.Amount, sapling.EncodeMemo(r.Memo)); err != nil {
				return nil, types.TxID{}, fmt.Errorf("failed to add output: %v", err)
			}
		case RecipientTransparent:
			// Memos cannot ride on transparent outputs; drop silently.
			script, err := scriptForTAddress(w.params, r.Address)
			if err != nil {
				return nil, types.TxID{}, fmt.Errorf("Invalid recipient address: '%s'", r.Address)
			}
			if err := builder.AddTransparentOutput(script, r.Amount); err != nil {
				return nil, types.TxID{}, fmt.Errorf("failed to add output: %v", err)
			}
		}
	}

	// A pure-transparent sweep has no sapling spend to inherit a change
	// address from; route change to our first shielded address.
	if len(selectedNotes) == 0 {
		builder.SendChangeTo(w.zaddrs[0], ovk)
	}

	prover, err := sapling.NewLocalProver(spendParams, outputParams)
	if err != nil {
		return nil, types.TxID{}, fmt.Errorf("failed to initialize prover: %v", err)
	}

	tx, err := builder.Build(prover, consensusBranchID)
	if err != nil {
		return nil, types.TxID{}, fmt.Errorf("failed to build transaction: %v", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, types.TxID{}, fmt.Errorf("failed to serialize transaction: %v", err)
	}
	txid := types.NewTxID(raw)

	// Builder succeeded; now the bookkeeping.
	for _, sn := range selectedNotes {
		if wtx, ok := w.txs[sn.TxID]; ok {
			for _, nd := range wtx.Notes {
				if nd.Nullifier == sn.Nullifier {
					id := txid
					nd.UnconfirmedSpent = &id
				}
			}
		}
	}
	for _, u := range utxos {
		id := txid
		u.UnconfirmedSpent = &id
	}

	entry := &WalletTx{Block: target, Datetime: 0, TxID: txid}
	for i, r := range recipients {
		memo := r.Memo
		if kinds[i] == RecipientTransparent {
			memo = ""
		}
		entry.OutgoingMetadata = append(entry.OutgoingMetadata, OutgoingTxMetadata{
			Address: r.Address,
			Value:   r.Amount,
			Memo:    sapling.EncodeMemo(memo),
		})
	}
	w.insertMempoolTx(entry)

	return raw, txid, nil
}
