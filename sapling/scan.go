package sapling

import (
	"github.com/adityapk00/zecwallet-lite/types"
)

type (
	// NullifierEntry identifies one unspent note the caller is watching:
	// its nullifier, the owning account and the transaction that created
	// it.
	NullifierEntry struct {
		Nf      types.Hash
		Account int
		TxID    types.TxID
	}

	// ScannedOutput is a shielded output that trial-decrypted under one of
	// the caller's viewing keys. The witness is rooted at the output's own
	// commitment.
	ScannedOutput struct {
		Index   int
		Account int
		To      PaymentAddress
		Note    *Note
		Witness *IncrementalWitness
	}

	// ScannedSpend is a revealed nullifier matching one of the watched
	// notes.
	ScannedSpend struct {
		Nf         types.Hash
		Account    int
		SourceTxID types.TxID
	}

	// ScannedTx collects the wallet-relevant pieces of one transaction.
	ScannedTx struct {
		TxID    types.TxID
		Index   int
		Spends  []ScannedSpend
		Outputs []ScannedOutput
	}
)

// ScanBlock walks a compact block with a set of viewing keys. Every output
// commitment is appended to tree; witnesses (both the caller's existing ones
// and those of outputs found earlier in this block) advance in lockstep.
// Every output is trial-decrypted with every key, and every revealed
// nullifier is matched against the watch list. Transactions with no matches
// are omitted from the result.
func ScanBlock(cb *types.CompactBlock, fvks []*ExtendedFullViewingKey,
	nullifiers []NullifierEntry, tree *CommitmentTree,
	existingWitnesses []*IncrementalWitness) ([]*ScannedTx, error) {

	ivks := make([]*IncomingViewingKey, len(fvks))
	for i, fvk := range fvks {
		ivks[i] = fvk.IVK()
	}

	var found []*ScannedTx
	var newWitnesses []*IncrementalWitness

	for txIndex, ctx := range cb.Vtx {
		stx := &ScannedTx{TxID: ctx.TxID(), Index: txIndex}

		for _, spend := range ctx.Spends {
			nf, err := types.HashFromSlice(spend.Nf)
			if err != nil {
				return nil, err
			}
			for _, entry := range nullifiers {
				if entry.Nf == nf {
					stx.Spends = append(stx.Spends, ScannedSpend{
						Nf:         nf,
						Account:    entry.Account,
						SourceTxID: entry.TxID,
					})
					break
				}
			}
		}

		for outIndex, out := range ctx.Outputs {
			cmu, err := types.HashFromSlice(out.Cmu)
			if err != nil {
				return nil, err
			}

			// Grow the tree first so a witness created for this output
			// starts rooted at its own commitment.
			if err := tree.Append(cmu); err != nil {
				return nil, err
			}
			for _, w := range existingWitnesses {
				if err := w.Append(cmu); err != nil {
					return nil, err
				}
			}
			for _, w := range newWitnesses {
				if err := w.Append(cmu); err != nil {
					return nil, err
				}
			}

			for account, ivk := range ivks {
				np, addr, err := TrialDecryptCompact(ivk, cmu, out.Epk, out.Ciphertext)
				if err != nil {
					continue
				}
				witness := WitnessFromTree(tree)
				newWitnesses = append(newWitnesses, witness)
				stx.Outputs = append(stx.Outputs, ScannedOutput{
					Index:   outIndex,
					Account: account,
					To:      addr,
					Note:    np.Note(),
					Witness: witness,
				})
				break
			}
		}

		if len(stx.Spends) > 0 || len(stx.Outputs) > 0 {
			found = append(found, stx)
		}
	}
	return found, nil
}
