package wallet

import (
	"errors"

	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

// Serialization versions for the individual records inside a wallet file.
const (
	walletTxVersion    = 4
	saplingNoteVersion = 1
	utxoVersion        = 1
	blockDataTag       = 11
)

var errBadWalletData = errors.New("wallet data is corrupted")

type (
	// BlockData is one scanned block: its height, hash and the note
	// commitment tree as of the end of the block.
	BlockData struct {
		Height int32
		Hash   types.Hash
		Tree   *sapling.CommitmentTree
	}

	// SaplingNoteData is a note belonging to the wallet, together with the
	// incremental witnesses tracking its merkle path. The viewing key is
	// copied in rather than referenced so read paths never chase the key
	// tables.
	SaplingNoteData struct {
		Account     int
		ExtFVK      *sapling.ExtendedFullViewingKey
		Diversifier sapling.Diversifier
		Note        *sapling.Note

		// Witnesses holds one witness per scanned block, newest last, and
		// is trimmed to the reorg window.
		Witnesses []*sapling.IncrementalWitness

		Nullifier        types.Hash
		SpentTxID        *types.TxID
		UnconfirmedSpent *types.TxID
		Memo             []byte
		IsChange         bool
	}

	// Utxo is a transparent output held by the wallet.
	Utxo struct {
		Address     string
		TxID        types.TxID
		OutputIndex uint64
		Script      []byte
		Value       types.Amount
		Height      int32

		SpentTxID        *types.TxID
		UnconfirmedSpent *types.TxID
	}

	// OutgoingTxMetadata records funds this wallet sent to an address
	// outside itself.
	OutgoingTxMetadata struct {
		Address string
		Value   types.Amount
		Memo    [types.MemoLen]byte
	}

	// WalletTx is everything the wallet knows about one transaction that
	// touches it.
	WalletTx struct {
		Block    int32
		Datetime uint64
		TxID     types.TxID

		Notes []*SaplingNoteData
		Utxos []*Utxo

		TotalShieldedValueSpent    types.Amount
		TotalTransparentValueSpent types.Amount

		OutgoingMetadata []OutgoingTxMetadata
		FullTxScanned    bool
	}

	// SpendableNote is the view of a note fixed at a chosen anchor: the
	// specific witness the spend will prove against.
	SpendableNote struct {
		TxID        types.TxID
		Nullifier   types.Hash
		Diversifier sapling.Diversifier
		Note        *sapling.Note
		Witness     *sapling.IncrementalWitness
		ExtSK       *sapling.ExtendedSpendingKey
	}
)

// TotalValueSpent is the combined shielded and transparent value this
// transaction spent from the wallet.
func (wtx *WalletTx) TotalValueSpent() types.Amount {
	return wtx.TotalShieldedValueSpent + wtx.TotalTransparentValueSpent
}

// ValueReceived is the value of all notes and utxos this transaction paid to
// the wallet.
func (wtx *WalletTx) ValueReceived() types.Amount {
	var v types.Amount
	for _, nd := range wtx.Notes {
		v += nd.Note.Value
	}
	for _, u := range wtx.Utxos {
		v += u.Value
	}
	return v
}

// NetValue is received minus spent, the signed amount shown in listings.
func (wtx *WalletTx) NetValue() types.Amount {
	return wtx.ValueReceived() - wtx.TotalValueSpent()
}

// spendableAt builds the SpendableNote view of nd at the given anchor
// offset, or nil if the note cannot be spent: already spent, pending spend,
// or not enough confirmations to have a witness at the offset.
func (nd *SaplingNoteData) spendableAt(txid types.TxID, anchorOffset int, extsk *sapling.ExtendedSpendingKey) *SpendableNote {
	if nd.SpentTxID != nil || nd.UnconfirmedSpent != nil {
		return nil
	}
	witnessPos := len(nd.Witnesses) - 1 - anchorOffset
	if witnessPos < 0 {
		return nil
	}
	return &SpendableNote{
		TxID:        txid,
		Nullifier:   nd.Nullifier,
		Diversifier: nd.Diversifier,
		Note:        nd.Note,
		Witness:     nd.Witnesses[witnessPos],
		ExtSK:       extsk,
	}
}

func (bd *BlockData) writeTo(e *types.Writer) {
	e.WriteInt32(bd.Height)
	e.Write(bd.Hash[:])
	bd.Tree.WriteTo(e)
	e.WriteUint64(blockDataTag)
}

func (bd *BlockData) readFrom(d *types.Reader) {
	bd.Height = d.ReadInt32()
	d.Read(bd.Hash[:])
	bd.Tree = sapling.NewCommitmentTree()
	bd.Tree.ReadFrom(d)
	if tag := d.ReadUint64(); d.Err() == nil && tag != blockDataTag {
		d.Fail(errBadWalletData)
	}
}

func writeOptionalTxID(e *types.Writer, id *types.TxID) {
	if id == nil {
		e.WriteBool(false)
		return
	}
	e.WriteBool(true)
	e.Write(id[:])
}

func readOptionalTxID(d *types.Reader) *types.TxID {
	if !d.ReadBool() {
		return nil
	}
	var id types.TxID
	d.Read(id[:])
	return &id
}

func (nd *SaplingNoteData) writeTo(e *types.Writer) {
	e.WriteUint64(saplingNoteVersion)
	e.WriteUint64(uint64(nd.Account))
	nd.ExtFVK.WriteTo(e)
	e.Write(nd.Diversifier[:])
	e.WriteUint64(uint64(nd.Note.Value))
	e.Write(nd.Note.R[:])
	e.WriteUint64(uint64(len(nd.Witnesses)))
	for _, w := range nd.Witnesses {
		w.WriteTo(e)
	}
	e.Write(nd.Nullifier[:])
	writeOptionalTxID(e, nd.SpentTxID)
	// Unconfirmed spends are runtime-only state and are not persisted.
	if nd.Memo != nil {
		e.WriteBool(true)
		var memo [types.MemoLen]byte
		copy(memo[:], nd.Memo)
		e.Write(memo[:])
	} else {
		e.WriteBool(false)
	}
	e.WriteBool(nd.IsChange)
}

func (nd *SaplingNoteData) readFrom(d *types.Reader) {
	if v := d.ReadUint64(); d.Err() == nil && v != saplingNoteVersion {
		d.Fail(errBadWalletData)
		return
	}
	nd.Account = int(d.ReadUint64())
	nd.ExtFVK = &sapling.ExtendedFullViewingKey{}
	nd.ExtFVK.ReadFrom(d)
	d.Read(nd.Diversifier[:])
	value := d.ReadUint64()
	var r [32]byte
	d.Read(r[:])
	nd.Note = &sapling.Note{Value: types.Amount(value), R: r}
	n := d.ReadUint64()
	if d.Err() != nil {
		return
	}
	if n > maxWitnessesPerNote {
		d.Fail(errBadWalletData)
		return
	}
	nd.Witnesses = make([]*sapling.IncrementalWitness, n)
	for i := range nd.Witnesses {
		w := &sapling.IncrementalWitness{}
		w.ReadFrom(d)
		nd.Witnesses[i] = w
	}
	d.Read(nd.Nullifier[:])
	nd.SpentTxID = readOptionalTxID(d)
	if d.ReadBool() {
		memo := make([]byte, types.MemoLen)
		d.Read(memo)
		nd.Memo = memo
	}
	nd.IsChange = d.ReadBool()
}

func (u *Utxo) writeTo(e *types.Writer) {
	e.WriteUint64(utxoVersion)
	e.WriteString(u.Address)
	e.Write(u.TxID[:])
	e.WriteUint64(u.OutputIndex)
	e.WriteBytes(u.Script)
	e.WriteUint64(uint64(u.Value))
	e.WriteInt64(int64(u.Height))
	writeOptionalTxID(e, u.SpentTxID)
}

func (u *Utxo) readFrom(d *types.Reader) {
	if v := d.ReadUint64(); d.Err() == nil && v != utxoVersion {
		d.Fail(errBadWalletData)
		return
	}
	u.Address = d.ReadString()
	d.Read(u.TxID[:])
	u.OutputIndex = d.ReadUint64()
	u.Script = d.ReadBytes()
	u.Value = types.Amount(d.ReadUint64())
	u.Height = int32(d.ReadInt64())
	u.SpentTxID = readOptionalTxID(d)
}

func (om *OutgoingTxMetadata) writeTo(e *types.Writer) {
	e.WriteString(om.Address)
	e.WriteUint64(uint64(om.Value))
	e.Write(om.Memo[:])
}

func (om *OutgoingTxMetadata) readFrom(d *types.Reader) {
	om.Address = d.ReadString()
	om.Value = types.Amount(d.ReadUint64())
	d.Read(om.Memo[:])
}

func (wtx *WalletTx) writeTo(e *types.Writer) {
	e.WriteUint64(walletTxVersion)
	e.WriteInt32(wtx.Block)
	e.WriteUint64(wtx.Datetime)
	e.Write(wtx.TxID[:])
	e.WriteUint64(uint64(len(wtx.Notes)))
	for _, nd := range wtx.Notes {
		nd.writeTo(e)
	}
	e.WriteUint64(uint64(len(wtx.Utxos)))
	for _, u := range wtx.Utxos {
		u.writeTo(e)
	}
	e.WriteUint64(uint64(wtx.TotalShieldedValueSpent))
	e.WriteUint64(uint64(wtx.TotalTransparentValueSpent))
	e.WriteUint64(uint64(len(wtx.OutgoingMetadata)))
	for i := range wtx.OutgoingMetadata {
		wtx.OutgoingMetadata[i].writeTo(e)
	}
	e.WriteBool(wtx.FullTxScanned)
}

func (wtx *WalletTx) readFrom(d *types.Reader) {
	if v := d.ReadUint64(); d.Err() == nil && v != walletTxVersion {
		d.Fail(errBadWalletData)
		return
	}
	wtx.Block = d.ReadInt32()
	wtx.Datetime = d.ReadUint64()
	d.Read(wtx.TxID[:])
	n := d.ReadUint64()
	if d.Err() != nil || n > maxRecordsPerTx {
		d.Fail(errBadWalletData)
		return
	}
	wtx.Notes = make([]*SaplingNoteData, n)
	for i := range wtx.Notes {
		nd := &SaplingNoteData{}
		nd.readFrom(d)
		wtx.Notes[i] = nd
	}
	n = d.ReadUint64()
	if d.Err() != nil || n > maxRecordsPerTx {
		d.Fail(errBadWalletData)
		return
	}
	wtx.Utxos = make([]*Utxo, n)
	for i := range wtx.Utxos {
		u := &Utxo{}
		u.readFrom(d)
		wtx.Utxos[i] = u
	}
	wtx.TotalShieldedValueSpent = types.Amount(d.ReadUint64())
	wtx.TotalTransparentValueSpent = types.Amount(d.ReadUint64())
	n = d.ReadUint64()
	if d.Err() != nil || n > maxRecordsPerTx {
		d.Fail(errBadWalletData)
		return
	}
	wtx.OutgoingMetadata = make([]OutgoingTxMetadata, n)
	for i := range wtx.OutgoingMetadata {
		wtx.OutgoingMetadata[i].readFrom(d)
	}
	wtx.FullTxScanned = d.ReadBool()
}

// Record count bounds used to reject corrupted wallet files before huge
// allocations happen.
const (
	maxBlocksKept       = modules.MaxReorg + 1
	maxWitnessesPerNote = maxBlocksKept
	maxRecordsPerTx     = 1 << 20
)
