package wallet

import "github.com/adityapk00/zecwallet-lite/types"

// InvalidateBlock unwinds every block at or above fromHeight: the blocks are
// dropped, transactions observed there are forgotten, spends referencing the
// removed transactions are cleared, and every surviving note loses as many
// witnesses as blocks were removed. Returns the number of removed blocks.
func (w *Wallet) InvalidateBlock(fromHeight int32) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.invalidateBlock(fromHeight)
}

func (w *Wallet) invalidateBlock(fromHeight int32) int {
	count := 0
	for len(w.blocks) > 0 && w.blocks[len(w.blocks)-1].Height >= fromHeight {
		w.blocks = w.blocks[:len(w.blocks)-1]
		count++
	}
	if count == 0 {
		return 0
	}

	// Forget transactions mined in the removed blocks.
	removed := make(map[types.TxID]bool)
	for txid, wtx := range w.txs {
		if wtx.Block >= fromHeight {
			removed[txid] = true
		}
	}
	for txid := range removed {
		delete(w.txs, txid)
	}

	// Surviving notes and utxos spent by a removed tx become unspent again.
	for _, wtx := range w.txs {
		for _, nd := range wtx.Notes {
			if nd.SpentTxID != nil && removed[*nd.SpentTxID] {
				nd.SpentTxID = nil
			}
			if nd.UnconfirmedSpent != nil && removed[*nd.UnconfirmedSpent] {
				nd.UnconfirmedSpent = nil
			}
			// The witnesses advanced through the removed blocks are stale.
			if len(nd.Witnesses) <= count {
				nd.Witnesses = nil
			} else {
				nd.Witnesses = nd.Witnesses[:len(nd.Witnesses)-count]
			}
		}
		for _, u := range wtx.Utxos {
			if u.SpentTxID != nil && removed[*u.SpentTxID] {
				u.SpentTxID = nil
			}
			if u.UnconfirmedSpent != nil && removed[*u.UnconfirmedSpent] {
				u.UnconfirmedSpent = nil
			}
		}
	}

	log.Infof("Invalidated %d blocks from height %d", count, fromHeight)
	return count
}
