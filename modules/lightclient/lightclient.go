package lightclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/NebulousLabs/threadgroup"

	"github.com/adityapk00/zecwallet-lite/modules"
	"github.com/adityapk00/zecwallet-lite/modules/wallet"
	"github.com/adityapk00/zecwallet-lite/types"
)

var (
	errNilChainService = errors.New("light client cannot initialize with a nil chain service")
	errSyncInProgress  = errors.New("a sync is already in progress")

	// errChunkAborted is an internal sentinel that stops a block-range
	// stream early when the scanner asks for an invalidation.
	errChunkAborted = errors.New("chunk aborted for reorg handling")
)

// Config carries the runtime knobs of the light client.
type Config struct {
	Server       string
	Params       *types.ChainParams
	Birthday     uint64
	SpendParams  []byte
	OutputParams []byte
}

// LightClient drives a wallet against a chain service: it syncs compact
// blocks into the wallet, cross-indexes transparent activity, fetches full
// transactions for memo recovery, and sends transactions.
type LightClient struct {
	wallet *wallet.Wallet
	chain  modules.ChainService
	config Config

	// syncLock serializes syncs; everything else contends on the wallet's
	// own lock.
	syncLock sync.Mutex

	statusMu sync.RWMutex
	status   modules.SyncStatus

	tg threadgroup.ThreadGroup
}

// New creates a light client around a fresh random wallet, seeded from the
// closest checkpoint below the birthday.
func New(cfg Config, chain modules.ChainService) (*LightClient, error) {
	w, err := wallet.New(cfg.Params, cfg.Birthday)
	if err != nil {
		return nil, err
	}
	return NewFromWallet(cfg, chain, w)
}

// NewFromPhrase creates a light client around a wallet restored from a
// mnemonic.
func NewFromPhrase(cfg Config, chain modules.ChainService, phrase string) (*LightClient, error) {
	w, err := wallet.NewFromPhrase(cfg.Params, phrase, cfg.Birthday)
	if err != nil {
		return nil, err
	}
	return NewFromWallet(cfg, chain, w)
}

// NewFromWallet wraps an existing wallet (for example one read back from its
// serialized form).
func NewFromWallet(cfg Config, chain modules.ChainService, w *wallet.Wallet) (*LightClient, error) {
	if chain == nil {
		return nil, errNilChainService
	}
	lc := &LightClient{
		wallet: w,
		chain:  chain,
		config: cfg,
	}
	lc.seedCheckpoint()
	return lc, nil
}

// seedCheckpoint installs the closest checkpoint below the wallet birthday
// as the initial block, when the wallet has no scanned blocks yet.
func (lc *LightClient) seedCheckpoint() {
	if lc.wallet.BlockCount() > 0 {
		return
	}
	cp := GetClosestCheckpoint(lc.config.Params.Name, int32(lc.wallet.Birthday()))
	if cp == nil {
		return
	}
	hash, tree, err := cp.Materialize()
	if err != nil {
		log.Errorf("Could not decode checkpoint at height %d: %v", cp.Height, err)
		return
	}
	lc.wallet.SetInitialBlock(cp.Height, hash, tree)
}

// Wallet exposes the underlying wallet.
func (lc *LightClient) Wallet() *wallet.Wallet {
	return lc.wallet
}

// Close shuts the light client down, waiting for any running sync.
func (lc *LightClient) Close() error {
	return lc.tg.Stop()
}

// SyncStatus returns a snapshot of the sync progress.
func (lc *LightClient) SyncStatus() modules.SyncStatus {
	lc.statusMu.RLock()
	defer lc.statusMu.RUnlock()
	return lc.status
}

func (lc *LightClient) setStatus(isSyncing bool, synced, total int32) {
	lc.statusMu.Lock()
	lc.status = modules.SyncStatus{IsSyncing: isSyncing, SyncedBlocks: synced, TotalBlocks: total}
	lc.statusMu.Unlock()
}

// DoSync advances the wallet to the server tip: chunked compact-block
// scanning with reorg unwinding, the transparent address cross-index, and
// the full-transaction pass for memos and metadata.
func (lc *LightClient) DoSync(ctx context.Context) (string, error) {
	if err := lc.tg.Add(); err != nil {
		return "", err
	}
	defer lc.tg.Done()

	if !lc.syncLock.TryLock() {
		return "", errSyncInProgress
	}
	defer lc.syncLock.Unlock()

	latest, err := lc.chain.GetLatestBlock(ctx)
	if err != nil {
		return "", err
	}
	tip := int32(latest.Height)
	last := lc.wallet.LastScannedHeight()
	if tip < last {
		return "", fmt.Errorf("Server is behind the wallet: server is at %d, wallet at %d", tip, last)
	}
	if tip == last {
		return syncSummary(tip, 0), nil
	}

	lc.setStatus(true, last, tip)
	defer func() {
		lc.setStatus(false, lc.wallet.LastScannedHeight(), tip)
	}()

	// Block times observed during this sync, for full-tx datetimes.
	blockTimes := make(map[int32]uint64)
	// Every txid returned by the block scanner (real matches plus the rest
	// of their blocks, as decoys), with the block height it came from.
	fetchList := make(map[types.TxID]int32)

	totalReorg := 0
	scannedBlocks := 0
	for last < tip {
		start := last + 1
		end := last + modules.SyncChunk
		if end > tip {
			end = tip
		}

		invalidate := int32(-1)
		err := lc.chain.GetBlockRange(ctx, uint64(start), uint64(end), func(cb *types.CompactBlock) error {
			blockTimes[int32(cb.Height)] = uint64(cb.Time)
			txids, err := lc.wallet.ScanBlock(cb.Marshal())
			if err != nil {
				var mismatch *wallet.BlockMismatchError
				if errors.As(err, &mismatch) {
					invalidate = mismatch.Height
					return errChunkAborted
				}
				return err
			}
			scannedBlocks++
			for _, txid := range txids {
				fetchList[txid] = int32(cb.Height)
			}
			return nil
		})
		if err != nil && !errors.Is(err, errChunkAborted) {
			return "", err
		}

		if invalidate >= 0 {
			removed := lc.wallet.InvalidateBlock(invalidate)
			totalReorg += removed
			if totalReorg >= modules.MaxReorg {
				return "", fmt.Errorf("Reorg has exceeded %d blocks. Aborting.", modules.MaxReorg)
			}
			log.Warnf("Invalidated %d blocks for a reorg at height %d", removed, invalidate)
			last = invalidate - 1
			continue
		}
		totalReorg = 0

		// Cross-index transparent activity for every wallet address over
		// this range. The address list is snapshotted up front; the gap
		// rule may extend it mid-scan.
		for _, taddr := range lc.wallet.TAddresses() {
			err := lc.chain.GetTransparentTxIDs(ctx, taddr, uint64(start), uint64(end), func(rtx *modules.RawTransaction) error {
				tx := new(types.Transaction)
				if err := tx.UnmarshalBinary(rtx.Data); err != nil {
					log.Errorf("Could not decode transparent tx at height %d: %v", rtx.Height, err)
					return nil
				}
				height := int32(rtx.Height)
				lc.wallet.ScanFullTx(tx, height, blockTimes[height])
				return nil
			})
			if err != nil {
				return "", err
			}
		}

		last = end
		lc.setStatus(true, last, tip)
	}

	// The full-tx pass: everything the block scans flagged, plus any wallet
	// tx that never got its full scan (e.g. an interrupted earlier sync).
	for txid, height := range lc.wallet.UnscannedTxIDs() {
		if _, ok := fetchList[txid]; !ok {
			fetchList[txid] = height
		}
	}
	for txid, height := range fetchList {
		rtx, err := lc.chain.GetFullTx(ctx, txid)
		if err != nil {
			log.Errorf("Could not fetch full tx %s: %v", txid, err)
			continue
		}
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(rtx.Data); err != nil {
			log.Errorf("Could not decode full tx %s: %v", txid, err)
			continue
		}
		lc.wallet.ScanFullTx(tx, height, blockTimes[height])
	}

	return syncSummary(tip, scannedBlocks), nil
}

func syncSummary(tip int32, scanned int) string {
	return `{"result": "success", "latest_block": ` + strconv.Itoa(int(tip)) +
		`, "blocks_scanned": ` + strconv.Itoa(scanned) + `}`
}

// DoRescan clears scanned state back to the initial checkpoint and replays
// the chain.
func (lc *LightClient) DoRescan(ctx context.Context) (string, error) {
	lc.wallet.ClearBlocksAndTxs()
	lc.seedCheckpoint()
	return lc.DoSync(ctx)
}

// DoSend builds the transaction against the wallet's current state and
// broadcasts it; it does not sync first (the `send` command does that before
// calling it). Returns the txid of the accepted transaction.
func (lc *LightClient) DoSend(ctx context.Context, recipients []wallet.Recipient) (string, error) {
	if err := lc.tg.Add(); err != nil {
		return "", err
	}
	defer lc.tg.Done()

	info, err := lc.chain.GetInfo(ctx)
	if err != nil {
		return "", err
	}
	branchID := lc.config.Params.ConsensusBranchID
	if parsed, err := strconv.ParseUint(info.ConsensusBranchID, 16, 32); err == nil {
		branchID = uint32(parsed)
	}

	raw, txid, err := lc.wallet.SendToAddress(branchID, lc.config.SpendParams, lc.config.OutputParams, recipients)
	if err != nil {
		return "", err
	}

	resp, err := lc.chain.SendTransaction(ctx, raw)
	if err != nil {
		return "", err
	}
	if resp.ErrorCode != 0 {
		return "", fmt.Errorf("transaction was rejected: (%d) %s", resp.ErrorCode, resp.ErrorMessage)
	}
	return txid.String(), nil
}
