package wallet

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

// walletVersion is the current wallet file format version. Version 4 added
// the stored viewing keys and transparent addresses; older files re-derive
// them from the spending keys.
const walletVersion = 4

var errFutureWalletVersion = errors.New("wallet file was written by a newer version")

// WriteTo serializes the wallet. Mempool entries and pending-spend marks are
// runtime state and are never written.
func (w *Wallet) WriteTo(out io.Writer) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	e := types.NewWriter(out)
	e.WriteUint64(walletVersion)
	e.WriteBool(w.encrypted)
	e.Write(w.encSeed[:])
	e.WriteBytes(w.nonce)
	e.Write(w.seed[:])

	e.WriteUint64(uint64(len(w.extsks)))
	for _, sk := range w.extsks {
		sk.WriteTo(e)
	}
	e.WriteUint64(uint64(len(w.extfvks)))
	for _, fvk := range w.extfvks {
		fvk.WriteTo(e)
	}
	e.WriteUint64(uint64(len(w.tkeys)))
	for _, key := range w.tkeys {
		e.Write(key.Serialize())
	}
	e.WriteUint64(uint64(len(w.taddrs)))
	for _, addr := range w.taddrs {
		e.WriteString(addr)
	}

	e.WriteUint64(uint64(len(w.blocks)))
	for i := range w.blocks {
		w.blocks[i].writeTo(e)
	}

	sorted := w.sortedTxs()
	e.WriteUint64(uint64(len(sorted)))
	for _, wtx := range sorted {
		e.Write(wtx.TxID[:])
		wtx.writeTo(e)
	}

	e.WriteString(w.params.Name)
	e.WriteUint64(w.birthday)
	return e.Err()
}

// SaveToHex serializes the wallet as a hex string, the `save` command's
// output format.
func (w *Wallet) SaveToHex() (string, error) {
	var buf bytes.Buffer
	if err := w.WriteTo(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// ReadWallet deserializes a wallet written by WriteTo. The chain parameters
// must match the chain the wallet was saved for.
func ReadWallet(in io.Reader, params *types.ChainParams) (*Wallet, error) {
	d := types.NewReader(in)

	version := d.ReadUint64()
	if d.Err() != nil {
		return nil, d.Err()
	}
	if version > walletVersion {
		return nil, errFutureWalletVersion
	}

	w := &Wallet{
		params:  params,
		txs:     make(map[types.TxID]*WalletTx),
		mempool: make(map[types.TxID]*WalletTx),
	}

	w.encrypted = d.ReadBool()
	d.Read(w.encSeed[:])
	w.nonce = d.ReadBytes()
	d.Read(w.seed[:])
	w.unlocked = !w.encrypted

	n := d.ReadUint64()
	if d.Err() != nil || n > maxRecordsPerTx {
		return nil, firstErr(d.Err())
	}
	for i := uint64(0); i < n; i++ {
		sk := &sapling.ExtendedSpendingKey{}
		sk.ReadFrom(d)
		w.extsks = append(w.extsks, sk)
	}

	if version >= 4 {
		n = d.ReadUint64()
		if d.Err() != nil || n > maxRecordsPerTx {
			return nil, firstErr(d.Err())
		}
		for i := uint64(0); i < n; i++ {
			fvk := &sapling.ExtendedFullViewingKey{}
			fvk.ReadFrom(d)
			w.extfvks = append(w.extfvks, fvk)
		}
	} else {
		for _, sk := range w.extsks {
			w.extfvks = append(w.extfvks, sk.FVK())
		}
	}
	for _, fvk := range w.extfvks {
		addr, err := fvk.DefaultAddress()
		if err != nil {
			return nil, err
		}
		w.zaddrs = append(w.zaddrs, addr)
	}

	n = d.ReadUint64()
	if d.Err() != nil || n > maxRecordsPerTx {
		return nil, firstErr(d.Err())
	}
	for i := uint64(0); i < n; i++ {
		var raw [32]byte
		d.Read(raw[:])
		w.tkeys = append(w.tkeys, secp256k1.PrivKeyFromBytes(raw[:]))
	}

	if version >= 4 {
		n = d.ReadUint64()
		if d.Err() != nil || n > maxRecordsPerTx {
			return nil, firstErr(d.Err())
		}
		for i := uint64(0); i < n; i++ {
			w.taddrs = append(w.taddrs, d.ReadString())
		}
	} else {
		for _, key := range w.tkeys {
			w.taddrs = append(w.taddrs, encodeTAddress(params, key.PubKey()))
		}
	}

	n = d.ReadUint64()
	if d.Err() != nil || n > maxBlocksKept {
		return nil, firstErr(d.Err())
	}
	for i := uint64(0); i < n; i++ {
		var bd BlockData
		bd.readFrom(d)
		w.blocks = append(w.blocks, bd)
	}

	n = d.ReadUint64()
	if d.Err() != nil || n > maxRecordsPerTx {
		return nil, firstErr(d.Err())
	}
	for i := uint64(0); i < n; i++ {
		var txid types.TxID
		d.Read(txid[:])
		wtx := &WalletTx{}
		wtx.readFrom(d)
		if d.Err() != nil {
			break
		}
		w.txs[txid] = wtx
	}

	chainName := d.ReadString()
	w.birthday = d.ReadUint64()
	if err := d.Err(); err != nil {
		return nil, err
	}
	if chainName != params.Name {
		return nil, fmt.Errorf("wallet file is for chain %q, not %q", chainName, params.Name)
	}

	// An encrypted wallet always loads locked; Unlock re-derives the
	// spending keys from the sealed seed.
	if w.encrypted {
		w.unlocked = false
	}
	return w, nil
}

// ReadWalletHex restores a wallet from the hex form produced by SaveToHex.
func ReadWalletHex(s string, params *types.ChainParams) (*Wallet, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return ReadWallet(bytes.NewReader(raw), params)
}

func firstErr(err error) error {
	if err != nil {
		return err
	}
	return errBadWalletData
}
