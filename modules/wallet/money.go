package wallet

import (
	"bytes"
	"sort"

	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

// sortedTxs returns the wallet transactions ordered by (block, txid), the
// canonical iteration order for listings and coin selection.
func (w *Wallet) sortedTxs() []*WalletTx {
	out := make([]*WalletTx, 0, len(w.txs))
	for _, wtx := range w.txs {
		out = append(out, wtx)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Block != out[j].Block {
			return out[i].Block < out[j].Block
		}
		return bytes.Compare(out[i].TxID[:], out[j].TxID[:]) < 0
	})
	return out
}

// noteAddress renders the shielded address a note was received on.
func (w *Wallet) noteAddress(nd *SaplingNoteData) string {
	addr, ok := sapling.AddressForIVK(nd.ExtFVK.IVK(), nd.Diversifier)
	if !ok {
		return ""
	}
	return addr.Encode(w.params)
}

// ZBalance sums the value of all unspent notes. A non-empty addr restricts
// the sum to notes received on that address. Notes with a pending
// (unconfirmed) spend still count: the spend is not in a block.
func (w *Wallet) ZBalance(addr string) types.Amount {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var total types.Amount
	for _, wtx := range w.txs {
		for _, nd := range wtx.Notes {
			if nd.SpentTxID != nil {
				continue
			}
			if addr != "" && w.noteAddress(nd) != addr {
				continue
			}
			total += nd.Note.Value
		}
	}
	return total
}

// VerifiedZBalance is the shielded balance that is actually spendable right
// now: unspent, no pending spend, and confirmed deeply enough to have an
// anchor at the configured offset.
func (w *Wallet) VerifiedZBalance(addr string) types.Amount {
	w.mu.RLock()
	defer w.mu.RUnlock()

	anchorHeight, ok := w.anchorHeight()
	if !ok {
		return 0
	}

	var total types.Amount
	for _, wtx := range w.txs {
		if wtx.Block > anchorHeight {
			continue
		}
		for _, nd := range wtx.Notes {
			if nd.SpentTxID != nil || nd.UnconfirmedSpent != nil {
				continue
			}
			if addr != "" && w.noteAddress(nd) != addr {
				continue
			}
			total += nd.Note.Value
		}
	}
	return total
}

// TBalance sums the value of all unspent utxos, optionally restricted to one
// address.
func (w *Wallet) TBalance(addr string) types.Amount {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var total types.Amount
	for _, wtx := range w.txs {
		for _, u := range wtx.Utxos {
			if u.SpentTxID != nil {
				continue
			}
			if addr != "" && u.Address != addr {
				continue
			}
			total += u.Value
		}
	}
	return total
}

// targetAndAnchorHeight computes the height the next transaction targets and
// the anchor height notes must be confirmed at or below to be spendable. The
// anchor is target - AnchorOffset - 1, except that target - AnchorOffset is
// first clamped to the oldest stored block, so the anchor is never lower than
// one below that block.
func (w *Wallet) targetAndAnchorHeight() (target, anchor int32, ok bool) {
	first, ok := w.firstBlockHeight()
	if !ok {
		return 0, 0, false
	}
	target = w.lastScannedHeight() + 1
	anchor = target - int32(w.params.AnchorOffset)
	if anchor < first {
		anchor = first
	}
	return target, anchor - 1, true
}

func (w *Wallet) anchorHeight() (int32, bool) {
	_, anchor, ok := w.targetAndAnchorHeight()
	return anchor, ok
}

// spendableNotes builds the SpendableNote views of every note that can be
// spent against the given anchor height, in canonical tx order. Caller holds
// at least the read lock.
func (w *Wallet) spendableNotes(anchorHeight int32) []*SpendableNote {
	var out []*SpendableNote
	offset := int(w.params.AnchorOffset)
	for _, wtx := range w.sortedTxs() {
		if wtx.Block > anchorHeight {
			continue
		}
		for _, nd := range wtx.Notes {
			if !w.unlocked {
				continue
			}
			sn := nd.spendableAt(wtx.TxID, offset, w.extsks[nd.Account])
			if sn != nil {
				out = append(out, sn)
			}
		}
	}
	return out
}

// unspentUtxos returns every utxo that is neither spent nor pending-spent.
// Caller holds at least the read lock.
func (w *Wallet) unspentUtxos() []*Utxo {
	var out []*Utxo
	for _, wtx := range w.sortedTxs() {
		for _, u := range wtx.Utxos {
			if u.SpentTxID == nil && u.UnconfirmedSpent == nil {
				out = append(out, u)
			}
		}
	}
	return out
}
