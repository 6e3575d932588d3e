package wallet

import (
	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

// ScanFullTx digests a full transaction after its block was scanned: it
// settles transparent inputs and outputs, recovers memos for our notes and
// reconstructs outgoing metadata from the ovk. Individual failures are
// logged and skipped; a full-tx scan never corrupts wallet state.
func (w *Wallet) ScanFullTx(tx *types.Transaction, height int32, datetime uint64) {
	txid := tx.TxID()

	w.mu.Lock()
	defer w.mu.Unlock()

	// Transparent inputs spending our utxos.
	var totalTransparentSpent types.Amount
	for _, in := range tx.TxIn {
		for _, wtx := range w.txs {
			for _, u := range wtx.Utxos {
				if u.TxID == in.PrevOut.TxID && u.OutputIndex == uint64(in.PrevOut.Index) && u.SpentTxID == nil {
					id := txid
					u.SpentTxID = &id
					u.UnconfirmedSpent = nil
					totalTransparentSpent += u.Value
				}
			}
		}
	}
	if totalTransparentSpent > 0 {
		wtx := w.ensureWalletTx(txid, height, datetime)
		wtx.TotalTransparentValueSpent += totalTransparentSpent
	}

	// Transparent outputs paying our addresses.
	for n, out := range tx.TxOut {
		addr := taddressFromScript(w.params, out.ScriptPubKey)
		if addr == "" || !w.haveTAddress(addr) {
			continue
		}
		wtx := w.ensureWalletTx(txid, height, datetime)
		duplicate := false
		for _, u := range wtx.Utxos {
			if u.TxID == txid && u.OutputIndex == uint64(n) && u.Value == out.Value {
				duplicate = true
				break
			}
		}
		if !duplicate {
			wtx.Utxos = append(wtx.Utxos, &Utxo{
				Address:     addr,
				TxID:        txid,
				OutputIndex: uint64(n),
				Script:      append([]byte(nil), out.ScriptPubKey...),
				Value:       out.Value,
				Height:      height,
			})
		}
		w.ensureTGapRule(addr)
	}

	// Outgoing transparent metadata: only when this tx spent our funds, and
	// only for addresses outside the wallet.
	if wtx, ok := w.txs[txid]; ok && wtx.TotalValueSpent() > 0 {
		for _, out := range tx.TxOut {
			addr := taddressFromScript(w.params, out.ScriptPubKey)
			if addr == "" || w.haveTAddress(addr) {
				continue
			}
			w.appendOutgoingMetadata(wtx, OutgoingTxMetadata{
				Address: addr,
				Value:   out.Value,
				Memo:    sapling.EncodeMemo(""),
			})
		}
	}

	// Memo recovery for our own notes.
	for _, out := range tx.ShieldedOutputs {
		for _, fvk := range w.extfvks {
			np, _, err := sapling.TrialDecrypt(fvk.IVK(), out.Cmu, out.EphemeralKey[:], out.EncCiphertext[:])
			if err != nil {
				continue
			}
			if wtx, ok := w.txs[txid]; ok {
				note := np.Note()
				for _, nd := range wtx.Notes {
					if nd.Note.Equal(note) {
						memo := make([]byte, types.MemoLen)
						copy(memo, np.Memo[:])
						nd.Memo = memo
					}
				}
			}
			break
		}
	}

	// Outgoing shielded metadata via the ovk.
	for _, out := range tx.ShieldedOutputs {
		for _, fvk := range w.extfvks {
			np, addr, err := sapling.RecoverOutput(fvk.Ovk, out.Cmu, out.EphemeralKey[:], out.EncCiphertext[:], out.OutCiphertext[:])
			if err != nil {
				continue
			}
			if w.haveZAddress(addr) {
				break
			}
			wtx := w.ensureWalletTx(txid, height, datetime)
			w.appendOutgoingMetadata(wtx, OutgoingTxMetadata{
				Address: addr.Encode(w.params),
				Value:   np.Value,
				Memo:    np.Memo,
			})
			break
		}
	}

	// Decoy transactions never got a record; only wallet-relevant ones are
	// marked scanned.
	if wtx, ok := w.txs[txid]; ok {
		wtx.FullTxScanned = true
	}
}

// appendOutgoingMetadata appends deduplicated outgoing metadata.
func (w *Wallet) appendOutgoingMetadata(wtx *WalletTx, om OutgoingTxMetadata) {
	for i := range wtx.OutgoingMetadata {
		existing := &wtx.OutgoingMetadata[i]
		if existing.Address == om.Address && existing.Value == om.Value && existing.Memo == om.Memo {
			return
		}
	}
	wtx.OutgoingMetadata = append(wtx.OutgoingMetadata, om)
}
