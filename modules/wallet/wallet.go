package wallet

import (
	"crypto/rand"
	"errors"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip39"

	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

var errUnknownTAddress = errors.New("given transparent address is not known to the wallet")

// Wallet tracks keys, notes, utxos, scanned blocks and transactions for a
// single shielded light wallet. All fields are guarded by mu; the block
// scanner, the full-transaction scanner, reorg invalidation, key addition and
// the transaction builder's bookkeeping are the writers.
type Wallet struct {
	mu sync.RWMutex

	params *types.ChainParams

	// encrypted says the seed is stored under a passphrase; unlocked says
	// spending keys are currently materialized in memory. A plain wallet is
	// always unlocked.
	encrypted bool
	unlocked  bool
	encSeed   [48]byte
	nonce     []byte
	seed      [32]byte

	// Shielded key material. The three slices run in parallel: extsks[i]
	// (nil while locked), extfvks[i] and zaddrs[i] describe account i.
	extsks  []*sapling.ExtendedSpendingKey
	extfvks []*sapling.ExtendedFullViewingKey
	zaddrs  []sapling.PaymentAddress

	// Transparent key material, same parallel layout.
	tkeys  []*secp256k1.PrivateKey
	taddrs []string

	// blocks is the window of scanned blocks, oldest first, capped at the
	// reorg depth plus one.
	blocks []BlockData

	// txs is every transaction that touches the wallet; mempool is the
	// ephemeral view of our own unconfirmed sends, never persisted.
	txs     map[types.TxID]*WalletTx
	mempool map[types.TxID]*WalletTx

	birthday uint64
}

// New creates a wallet with fresh random entropy.
func New(params *types.ChainParams, birthday uint64) (*Wallet, error) {
	var entropy [32]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return nil, err
	}
	return NewFromSeed(params, entropy, birthday)
}

// NewFromPhrase restores a wallet from its 24-word mnemonic.
func NewFromPhrase(params *types.ChainParams, phrase string, birthday uint64) (*Wallet, error) {
	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, err
	}
	if len(entropy) != 32 {
		return nil, errors.New("seed phrase did not decode to 32 bytes of entropy")
	}
	var seed [32]byte
	copy(seed[:], entropy)
	return NewFromSeed(params, seed, birthday)
}

// NewFromSeed creates a wallet over the given 32 bytes of entropy, deriving
// the first shielded and transparent keys.
func NewFromSeed(params *types.ChainParams, seed [32]byte, birthday uint64) (*Wallet, error) {
	w := &Wallet{
		params:   params,
		unlocked: true,
		seed:     seed,
		txs:      make(map[types.TxID]*WalletTx),
		mempool:  make(map[types.TxID]*WalletTx),
		birthday: birthday,
	}
	if err := w.appendZKey(); err != nil {
		return nil, err
	}
	if err := w.appendTKey(); err != nil {
		return nil, err
	}
	return w, nil
}

// Params returns the wallet's chain parameters.
func (w *Wallet) Params() *types.ChainParams {
	return w.params
}

// Birthday is the height the wallet was created at; syncing starts there.
func (w *Wallet) Birthday() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.birthday
}

// Locked reports whether spending keys are currently inaccessible.
func (w *Wallet) Locked() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return !w.unlocked
}

// Encrypted reports whether the wallet seed is passphrase-protected.
func (w *Wallet) Encrypted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.encrypted
}

// LastScannedHeight is the height of the most recently scanned block, or
// birthday-derived start minus one when nothing was scanned yet.
func (w *Wallet) LastScannedHeight() int32 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastScannedHeight()
}

func (w *Wallet) lastScannedHeight() int32 {
	if len(w.blocks) == 0 {
		start := int32(w.birthday)
		if start < w.params.SaplingActivationHeight {
			start = w.params.SaplingActivationHeight
		}
		return start - 1
	}
	return w.blocks[len(w.blocks)-1].Height
}

// BlockCount is the number of blocks currently kept in the scan window.
func (w *Wallet) BlockCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.blocks)
}

// UnscannedTxIDs returns the txids (and heights) of wallet transactions
// whose full-transaction scan has not happened yet.
func (w *Wallet) UnscannedTxIDs() map[types.TxID]int32 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[types.TxID]int32)
	for txid, wtx := range w.txs {
		if !wtx.FullTxScanned {
			out[txid] = wtx.Block
		}
	}
	return out
}

// firstBlockHeight is the height of the oldest block still kept, used for
// anchor clamping.
func (w *Wallet) firstBlockHeight() (int32, bool) {
	if len(w.blocks) == 0 {
		return 0, false
	}
	return w.blocks[0].Height, true
}

// ZAddresses returns the encoded shielded addresses, account order.
func (w *Wallet) ZAddresses() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.zaddrs))
	for i, a := range w.zaddrs {
		out[i] = a.Encode(w.params)
	}
	return out
}

// TAddresses returns the encoded transparent addresses, derivation order.
func (w *Wallet) TAddresses() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.taddrs...)
}

// haveZAddress reports whether the payment address belongs to the wallet.
func (w *Wallet) haveZAddress(addr sapling.PaymentAddress) bool {
	for _, a := range w.zaddrs {
		if a == addr {
			return true
		}
	}
	return false
}

// haveTAddress reports whether the encoded taddr belongs to the wallet.
func (w *Wallet) haveTAddress(addr string) bool {
	for _, a := range w.taddrs {
		if a == addr {
			return true
		}
	}
	return false
}

// tKeyForAddress finds the secret key controlling an encoded taddr.
func (w *Wallet) tKeyForAddress(addr string) (*secp256k1.PrivateKey, error) {
	if !w.unlocked {
		return nil, modules.ErrLockedWallet
	}
	for i, a := range w.taddrs {
		if a == addr {
			return w.tkeys[i], nil
		}
	}
	return nil, errUnknownTAddress
}

// ClearBlocksAndTxs drops all scanned state (blocks, transactions, mempool)
// but keeps keys, so a rescan can rebuild from the birthday.
func (w *Wallet) ClearBlocksAndTxs() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks = nil
	w.txs = make(map[types.TxID]*WalletTx)
	w.mempool = make(map[types.TxID]*WalletTx)
}

// SetInitialBlock seeds the block window from a checkpoint: height, hash and
// serialized commitment tree.
func (w *Wallet) SetInitialBlock(height int32, hash types.Hash, tree *sapling.CommitmentTree) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks = []BlockData{{Height: height, Hash: hash, Tree: tree}}
}
