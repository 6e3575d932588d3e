package modules

import (
	"context"
	"errors"

	"github.com/adityapk00/zecwallet-lite/types"
)

// Chain-wide constants shared by the wallet and the light client.
const (
	// MaxReorg is the deepest reorganization the wallet can unwind. Blocks
	// and witnesses older than this are pruned.
	MaxReorg = 100

	// GapRuleUnusedAddresses is the number of unused addresses kept beyond
	// the last used one, so a restored wallet rediscovers every address it
	// ever handed out.
	GapRuleUnusedAddresses = 5

	// SyncChunk is the number of compact blocks fetched per request.
	SyncChunk = 400

	// DefaultTxExpiryDelta is the number of blocks an unmined transaction
	// stays in the mempool view before it is assumed abandoned.
	DefaultTxExpiryDelta = 20
)

// Errors shared across wallet entry points.
var (
	// ErrLockedWallet is returned when an operation needs spending keys but
	// the wallet is locked.
	ErrLockedWallet = errors.New("wallet must be unlocked before it can be used")

	// ErrBadPassword is returned when an unlock or decrypt passphrase does
	// not open the encrypted seed.
	ErrBadPassword = errors.New("incorrect passphrase")

	// ErrNoBlocks is returned when an operation needs a synced chain but no
	// block has been scanned yet.
	ErrNoBlocks = errors.New("Cannot send funds before scanning any blocks")
)

type (
	// LightdInfo describes the remote chain service.
	LightdInfo struct {
		Version                 string
		Vendor                  string
		TaddrSupport            bool
		ChainName               string
		SaplingActivationHeight uint64
		ConsensusBranchID       string
		BlockHeight             uint64
	}

	// BlockID identifies a block by height and hash.
	BlockID struct {
		Height uint64
		Hash   []byte
	}

	// RawTransaction is a serialized transaction with the height it was
	// mined at (0 for mempool).
	RawTransaction struct {
		Data   []byte
		Height uint64
	}

	// SendResponse is the chain service's verdict on a broadcast.
	SendResponse struct {
		ErrorCode    int32
		ErrorMessage string
	}

	// ChainService is the light wallet's window onto the chain: a thin
	// fetch-and-broadcast interface the sync driver drives. Implementations
	// do not retry; transport errors surface to the caller as-is.
	ChainService interface {
		// GetInfo fetches static server and chain metadata.
		GetInfo(ctx context.Context) (*LightdInfo, error)

		// GetLatestBlock fetches the current chain tip.
		GetLatestBlock(ctx context.Context) (*BlockID, error)

		// GetBlockRange streams compact blocks for heights [start, end],
		// invoking fn for each in ascending order.
		GetBlockRange(ctx context.Context, start, end uint64, fn func(*types.CompactBlock) error) error

		// GetTransparentTxIDs streams the transactions touching a
		// transparent address within [start, end], invoking fn for each.
		GetTransparentTxIDs(ctx context.Context, address string, start, end uint64, fn func(*RawTransaction) error) error

		// GetFullTx fetches one full transaction by txid.
		GetFullTx(ctx context.Context, txid types.TxID) (*RawTransaction, error)

		// SendTransaction broadcasts a raw transaction.
		SendTransaction(ctx context.Context, rawTx []byte) (*SendResponse, error)
	}

	// SyncStatus is a snapshot of sync progress, safe to copy.
	SyncStatus struct {
		IsSyncing    bool  `json:"is_syncing"`
		SyncedBlocks int32 `json:"synced_blocks"`
		TotalBlocks  int32 `json:"total_blocks"`
	}
)
