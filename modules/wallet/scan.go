package wallet

import (
	"fmt"

	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

type (
	// BlockDecodeError is a fatal scan failure: the block bytes did not
	// parse. The sync driver must abort rather than retry.
	BlockDecodeError struct {
		Err error
	}

	// BlockMismatchError reports a block that does not connect to the
	// scanned chain. Height is where the caller should invalidate from
	// (inclusive) before retrying.
	BlockMismatchError struct {
		Height int32
	}
)

func (e *BlockDecodeError) Error() string {
	return fmt.Sprintf("could not decode compact block: %v", e.Err)
}

func (e *BlockDecodeError) Unwrap() error { return e.Err }

func (e *BlockMismatchError) Error() string {
	return fmt.Sprintf("block does not extend the scanned chain, invalidate from height %d", e.Height)
}

// ScanBlock ingests one encoded compact block. On success it returns every
// txid in the block when at least one new note was found (so the caller can
// fetch them all and hide which ones are ours), or an empty list otherwise.
//
// A block that does not connect returns a *BlockMismatchError carrying the
// height to invalidate from; undecodable bytes return *BlockDecodeError.
func (w *Wallet) ScanBlock(encoded []byte) ([]types.TxID, error) {
	cb := new(types.CompactBlock)
	if err := cb.Unmarshal(encoded); err != nil {
		return nil, &BlockDecodeError{Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	height := int32(cb.Height)
	if len(w.blocks) > 0 {
		tip := w.blocks[len(w.blocks)-1]
		switch {
		case height == tip.Height:
			// Rescan of the tip: fine if it is the same block, otherwise
			// the tip itself was reorged away.
			if cb.BlockHash() == tip.Hash {
				return nil, nil
			}
			log.Warnf("Likely reorg. Block hash at height %d does not match", height)
			return nil, &BlockMismatchError{Height: height}
		case height != tip.Height+1:
			log.Errorf("Block height %d is not the expected %d", height, tip.Height+1)
			return nil, &BlockMismatchError{Height: tip.Height}
		case cb.PrevBlockHash() != tip.Hash:
			log.Warnf("Likely reorg. Prev block hash at height %d does not match", height)
			return nil, &BlockMismatchError{Height: height - 1}
		}
	}

	// Every unspent note is watched for spends in this block. Notes with a
	// pending (unconfirmed) spend stay on the list: that spend is not in a
	// block yet, and this very block may be it.
	var nullifiers []sapling.NullifierEntry
	for txid, wtx := range w.txs {
		for _, nd := range wtx.Notes {
			if nd.SpentTxID == nil {
				nullifiers = append(nullifiers, sapling.NullifierEntry{
					Nf:      nd.Nullifier,
					Account: nd.Account,
					TxID:    txid,
				})
			}
		}
	}

	// Give every note a fresh working witness for this block, then trim to
	// the reorg window.
	var witnesses []*sapling.IncrementalWitness
	for _, wtx := range w.txs {
		for _, nd := range wtx.Notes {
			if len(nd.Witnesses) > 0 {
				nd.Witnesses = append(nd.Witnesses, nd.Witnesses[len(nd.Witnesses)-1].Clone())
			}
			if len(nd.Witnesses) > modules.MaxReorg {
				nd.Witnesses = nd.Witnesses[len(nd.Witnesses)-modules.MaxReorg:]
			}
			if len(nd.Witnesses) > 0 {
				witnesses = append(witnesses, nd.Witnesses[len(nd.Witnesses)-1])
			}
		}
	}

	tree := sapling.NewCommitmentTree()
	if len(w.blocks) > 0 {
		tree = w.blocks[len(w.blocks)-1].Tree.Clone()
	}

	scanned, err := sapling.ScanBlock(cb, w.extfvks, nullifiers, tree, witnesses)
	if err != nil {
		return nil, &BlockDecodeError{Err: err}
	}

	newNotes := false
	for _, stx := range scanned {
		for _, spend := range stx.Spends {
			w.applyScannedSpend(stx.TxID, height, uint64(cb.Time), spend)
		}
	}
	for _, stx := range scanned {
		for i := range stx.Outputs {
			if w.applyScannedOutput(stx.TxID, height, uint64(cb.Time), &stx.Outputs[i]) {
				newNotes = true
			}
		}
	}

	w.blocks = append(w.blocks, BlockData{
		Height: height,
		Hash:   cb.BlockHash(),
		Tree:   tree,
	})
	if len(w.blocks) > maxBlocksKept {
		w.blocks = w.blocks[len(w.blocks)-maxBlocksKept:]
	}

	w.cleanupMempool(height)

	if !newNotes {
		return nil, nil
	}
	// A note was found: return every txid in the block so the follow-up
	// full-tx fetches do not reveal which transactions are ours.
	txids := make([]types.TxID, 0, len(cb.Vtx))
	for _, ctx := range cb.Vtx {
		txids = append(txids, ctx.TxID())
	}
	return txids, nil
}

// applyScannedSpend marks the source note spent by the spending tx and
// accounts the spent value on the spending tx's record.
func (w *Wallet) applyScannedSpend(spendingTxID types.TxID, height int32, datetime uint64, spend sapling.ScannedSpend) {
	source, ok := w.txs[spend.SourceTxID]
	if !ok {
		log.Errorf("Scanner matched nullifier from unknown tx %s", spend.SourceTxID)
		return
	}
	var spentValue types.Amount
	for _, nd := range source.Notes {
		if nd.Nullifier == spend.Nf {
			id := spendingTxID
			nd.SpentTxID = &id
			nd.UnconfirmedSpent = nil
			spentValue = nd.Note.Value
			break
		}
	}

	wtx := w.ensureWalletTx(spendingTxID, height, datetime)
	wtx.TotalShieldedValueSpent += spentValue
}

// applyScannedOutput records a newly received note. Returns false when the
// note was already known (duplicate nullifier), which is skipped with a
// warning.
func (w *Wallet) applyScannedOutput(txid types.TxID, height int32, datetime uint64, out *sapling.ScannedOutput) bool {
	fvk := w.extfvks[out.Account]
	nf := sapling.Nullifier(fvk.Nk, out.Witness.Position(), out.Note.R)

	for _, wtx := range w.txs {
		for _, nd := range wtx.Notes {
			if nd.Nullifier == nf {
				log.Warnf("Tried to insert duplicate note for tx %s", txid)
				return false
			}
		}
	}

	wtx := w.ensureWalletTx(txid, height, datetime)
	wtx.Notes = append(wtx.Notes, &SaplingNoteData{
		Account:     out.Account,
		ExtFVK:      fvk,
		Diversifier: out.To.Diversifier,
		Note:        out.Note,
		Witnesses:   []*sapling.IncrementalWitness{out.Witness},
		Nullifier:   nf,
		IsChange:    wtx.TotalShieldedValueSpent > 0,
	})

	w.ensureZGapRule(out.To)
	return true
}

// ensureWalletTx finds or creates the wallet record of a transaction seen at
// the given height.
func (w *Wallet) ensureWalletTx(txid types.TxID, height int32, datetime uint64) *WalletTx {
	wtx, ok := w.txs[txid]
	if !ok {
		wtx = &WalletTx{Block: height, Datetime: datetime, TxID: txid}
		w.txs[txid] = wtx
	}
	return wtx
}
