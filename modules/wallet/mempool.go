package wallet

import (
	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/types"
)

// insertMempoolTx records an unconfirmed send of ours. On a duplicate txid
// the first entry wins, matching the historical behaviour.
func (w *Wallet) insertMempoolTx(wtx *WalletTx) {
	if _, exists := w.mempool[wtx.TxID]; exists {
		log.Warnf("Tried to insert duplicate mempool tx %s", wtx.TxID)
		return
	}
	w.mempool[wtx.TxID] = wtx
}

// cleanupMempool runs the two mempool rules after a block commit: entries
// past their expiry leave (and release their pending spends), and entries
// that got mined leave because the confirmed record supersedes them.
// Caller holds the write lock.
func (w *Wallet) cleanupMempool(tipHeight int32) {
	for txid, entry := range w.mempool {
		if tipHeight >= entry.Block+modules.DefaultTxExpiryDelta {
			log.Infof("Mempool tx %s expired without being mined", txid)
			delete(w.mempool, txid)
			w.releaseUnconfirmedSpends(txid)
		}
	}
	for txid := range w.mempool {
		if _, mined := w.txs[txid]; mined {
			delete(w.mempool, txid)
		}
	}
}

// releaseUnconfirmedSpends clears the pending-spend marks held by an expired
// transaction, returning the notes and utxos to the spendable set.
func (w *Wallet) releaseUnconfirmedSpends(txid types.TxID) {
	for _, wtx := range w.txs {
		for _, nd := range wtx.Notes {
			if nd.UnconfirmedSpent != nil && *nd.UnconfirmedSpent == txid {
				nd.UnconfirmedSpent = nil
			}
		}
		for _, u := range wtx.Utxos {
			if u.UnconfirmedSpent != nil && *u.UnconfirmedSpent == txid {
				u.UnconfirmedSpent = nil
			}
		}
	}
}

// MempoolTxs returns a snapshot of the unconfirmed send records.
func (w *Wallet) MempoolTxs() []*WalletTx {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*WalletTx, 0, len(w.mempool))
	for _, wtx := range w.mempool {
		out = append(out, wtx)
	}
	return out
}
