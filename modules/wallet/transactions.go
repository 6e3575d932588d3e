package wallet

import (
	"sort"

	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

type (
	// OutgoingMetadataEntry is the JSON form of one outgoing payment.
	OutgoingMetadataEntry struct {
		Address string  `json:"address"`
		Value   float64 `json:"value"`
		Memo    string  `json:"memo,omitempty"`
	}

	// TxListEntry is one row of the `list` command: a confirmed wallet
	// transaction or an unconfirmed mempool send.
	TxListEntry struct {
		BlockHeight      int32                   `json:"block_height"`
		Datetime         uint64                  `json:"datetime"`
		TxID             string                  `json:"txid"`
		Amount           float64                 `json:"amount"`
		Unconfirmed      bool                    `json:"unconfirmed,omitempty"`
		OutgoingMetadata []OutgoingMetadataEntry `json:"outgoing_metadata,omitempty"`
	}

	// NoteEntry is one shielded note in the `notes` command output.
	NoteEntry struct {
		CreatedInBlock   int32   `json:"created_in_block"`
		CreatedInTxID    string  `json:"created_in_txid"`
		Value            float64 `json:"value"`
		Address          string  `json:"address"`
		IsChange         bool    `json:"is_change"`
		Memo             string  `json:"memo,omitempty"`
		Spent            string  `json:"spent,omitempty"`
		UnconfirmedSpent string  `json:"unconfirmed_spent,omitempty"`
	}

	// UtxoEntry is one transparent output in the `notes` command output.
	UtxoEntry struct {
		CreatedInBlock   int32   `json:"created_in_block"`
		CreatedInTxID    string  `json:"created_in_txid"`
		Value            float64 `json:"value"`
		Address          string  `json:"address"`
		Spent            string  `json:"spent,omitempty"`
		UnconfirmedSpent string  `json:"unconfirmed_spent,omitempty"`
	}

	// NotesDump groups the `notes` command output.
	NotesDump struct {
		UnspentNotes []NoteEntry `json:"unspent_notes"`
		SpentNotes   []NoteEntry `json:"spent_notes,omitempty"`
		Utxos        []UtxoEntry `json:"utxos"`
		SpentUtxos   []UtxoEntry `json:"spent_utxos,omitempty"`
	}

	// BalanceAddress is the per-address slice of the `balance` output.
	BalanceAddress struct {
		Address         string  `json:"address"`
		Balance         float64 `json:"zbalance,omitempty"`
		VerifiedBalance float64 `json:"verified_zbalance,omitempty"`
		TBalance        float64 `json:"balance,omitempty"`
	}

	// Balances is the `balance` command output.
	Balances struct {
		ZBalance         float64          `json:"zbalance"`
		VerifiedZBalance float64          `json:"verified_zbalance"`
		TBalance         float64          `json:"tbalance"`
		ZAddresses       []BalanceAddress `json:"z_addresses"`
		TAddresses       []BalanceAddress `json:"t_addresses"`
	}
)

// ListTxs returns every wallet transaction sorted by (block, txid), with
// mempool sends appended as unconfirmed entries carrying the negative total
// they spend.
func (w *Wallet) ListTxs() []TxListEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []TxListEntry
	for _, wtx := range w.sortedTxs() {
		entry := TxListEntry{
			BlockHeight: wtx.Block,
			Datetime:    wtx.Datetime,
			TxID:        wtx.TxID.String(),
			Amount:      wtx.NetValue().ToZEC(),
		}
		for i := range wtx.OutgoingMetadata {
			om := &wtx.OutgoingMetadata[i]
			entry.OutgoingMetadata = append(entry.OutgoingMetadata, OutgoingMetadataEntry{
				Address: om.Address,
				Value:   om.Value.ToZEC(),
				Memo:    sapling.DecodeMemo(om.Memo[:]),
			})
		}
		out = append(out, entry)
	}

	mempool := make([]*WalletTx, 0, len(w.mempool))
	for _, wtx := range w.mempool {
		mempool = append(mempool, wtx)
	}
	sort.Slice(mempool, func(i, j int) bool {
		return mempool[i].Block < mempool[j].Block
	})
	for _, wtx := range mempool {
		var total types.Amount
		entry := TxListEntry{
			BlockHeight: wtx.Block,
			Datetime:    wtx.Datetime,
			TxID:        wtx.TxID.String(),
			Unconfirmed: true,
		}
		for i := range wtx.OutgoingMetadata {
			om := &wtx.OutgoingMetadata[i]
			total += om.Value
			entry.OutgoingMetadata = append(entry.OutgoingMetadata, OutgoingMetadataEntry{
				Address: om.Address,
				Value:   om.Value.ToZEC(),
				Memo:    sapling.DecodeMemo(om.Memo[:]),
			})
		}
		entry.Amount = (-(total + types.DefaultFee)).ToZEC()
		out = append(out, entry)
	}
	return out
}

// DumpNotes returns the wallet's notes and utxos. Spent records are included
// only when all is set.
func (w *Wallet) DumpNotes(all bool) NotesDump {
	w.mu.RLock()
	defer w.mu.RUnlock()

	dump := NotesDump{}
	for _, wtx := range w.sortedTxs() {
		for _, nd := range wtx.Notes {
			entry := NoteEntry{
				CreatedInBlock: wtx.Block,
				CreatedInTxID:  wtx.TxID.String(),
				Value:          nd.Note.Value.ToZEC(),
				Address:        w.noteAddress(nd),
				IsChange:       nd.IsChange,
				Memo:           sapling.DecodeMemo(nd.Memo),
			}
			if nd.UnconfirmedSpent != nil {
				entry.UnconfirmedSpent = nd.UnconfirmedSpent.String()
			}
			if nd.SpentTxID != nil {
				entry.Spent = nd.SpentTxID.String()
				if all {
					dump.SpentNotes = append(dump.SpentNotes, entry)
				}
			} else {
				dump.UnspentNotes = append(dump.UnspentNotes, entry)
			}
		}
		for _, u := range wtx.Utxos {
			entry := UtxoEntry{
				CreatedInBlock: u.Height,
				CreatedInTxID:  u.TxID.String(),
				Value:          u.Value.ToZEC(),
				Address:        u.Address,
			}
			if u.UnconfirmedSpent != nil {
				entry.UnconfirmedSpent = u.UnconfirmedSpent.String()
			}
			if u.SpentTxID != nil {
				entry.Spent = u.SpentTxID.String()
				if all {
					dump.SpentUtxos = append(dump.SpentUtxos, entry)
				}
			} else {
				dump.Utxos = append(dump.Utxos, entry)
			}
		}
	}
	return dump
}

// GetBalances gathers the total and per-address balances.
func (w *Wallet) GetBalances() Balances {
	b := Balances{
		ZBalance:         w.ZBalance("").ToZEC(),
		VerifiedZBalance: w.VerifiedZBalance("").ToZEC(),
		TBalance:         w.TBalance("").ToZEC(),
	}
	for _, addr := range w.ZAddresses() {
		b.ZAddresses = append(b.ZAddresses, BalanceAddress{
			Address:         addr,
			Balance:         w.ZBalance(addr).ToZEC(),
			VerifiedBalance: w.VerifiedZBalance(addr).ToZEC(),
		})
	}
	for _, addr := range w.TAddresses() {
		b.TAddresses = append(b.TAddresses, BalanceAddress{
			Address:  addr,
			TBalance: w.TBalance(addr).ToZEC(),
		})
	}
	return b
}
