package storage

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/colorfulnotion/polyjuice/common"
	log "github.com/colorfulnotion/polyjuice/log"
	"github.com/colorfulnotion/polyjuice/types"
)

// ChainReader is the node access the indexer needs; the rpc package's
// ChainClient satisfies it.
type ChainReader interface {
	GetTipBlockNumber() (uint64, error)
	GetBlockByNumber(number uint64) (*types.Block, error)
}

// Key layout in the persistence store:
//
//	meta:tip                                  -> next block number (8 LE)
//	cell:<lock_arg 20><tx_hash 32><index 4>   -> capacity (8 LE)
//	contract:<type_arg 20>                    -> <tx_hash 32><index 4><capacity 8><data>
//	out:<tx_hash 32><index 4>                 -> primary key of the record above
var (
	keyTip         = []byte("meta:tip")
	prefixCell     = []byte("cell:")
	prefixContract = []byte("contract:")
	prefixOutPoint = []byte("out:")
)

func cellKey(lockArg []byte, txHash common.Hash, index uint32) []byte {
	key := make([]byte, 0, len(prefixCell)+types.AddressLength+common.HashLength+4)
	key = append(key, prefixCell...)
	key = append(key, lockArg...)
	key = append(key, txHash.Bytes()...)
	return binary.LittleEndian.AppendUint32(key, index)
}

func contractKey(typeArg []byte) []byte {
	key := make([]byte, 0, len(prefixContract)+types.AddressLength)
	key = append(key, prefixContract...)
	return append(key, typeArg...)
}

func outPointKey(txHash common.Hash, index uint32) []byte {
	key := make([]byte, 0, len(prefixOutPoint)+common.HashLength+4)
	key = append(key, prefixOutPoint...)
	key = append(key, txHash.Bytes()...)
	return binary.LittleEndian.AppendUint32(key, index)
}

// Indexer maintains a durable local index of the live cells owned by the
// configured lock and type scripts, by polling the chain node block by block.
// It is an explicitly constructed handle; callers own its lifecycle.
type Indexer struct {
	store    *PersistenceStore
	client   ChainReader
	cfg      *types.RunConfig
	interval time.Duration
}

func NewIndexer(store *PersistenceStore, client ChainReader, cfg *types.RunConfig) *Indexer {
	return &Indexer{
		store:    store,
		client:   client,
		cfg:      cfg,
		interval: 500 * time.Millisecond,
	}
}

// Run polls the node until ctx is cancelled, indexing every new block.
// Blocks already processed are skipped via the persisted tip marker.
func (ix *Indexer) Run(ctx context.Context) error {
	log.Info(log.IndexerMonitoring, "indexer started")
	ticker := time.NewTicker(ix.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info(log.IndexerMonitoring, "indexer stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := ix.CatchUp(); err != nil {
				log.Warn(log.IndexerMonitoring, "index round failed", "err", err)
			}
		}
	}
}

// CatchUp processes every block between the stored tip and the node tip. Run
// calls it on every tick; callers may invoke it directly for a one-shot sync.
func (ix *Indexer) CatchUp() error {
	next, err := ix.nextBlockNumber()
	if err != nil {
		return err
	}
	tip, err := ix.client.GetTipBlockNumber()
	if err != nil {
		return err
	}
	for ; next <= tip; next++ {
		block, err := ix.client.GetBlockByNumber(next)
		if err != nil {
			return err
		}
		if err := ix.indexBlock(block); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) nextBlockNumber() (uint64, error) {
	raw, found, err := ix.store.Get(keyTip)
	if err != nil || !found {
		return 0, err
	}
	return common.BytesToUint64(raw), nil
}

// indexBlock applies one block's cell births and deaths atomically.
func (ix *Indexer) indexBlock(block *types.Block) error {
	var puts [][2][]byte
	var deletes [][]byte

	for ti := range block.Transactions {
		tx := &block.Transactions[ti]
		for i := range tx.Inputs {
			op := &tx.Inputs[i].PreviousOutput
			opKey := outPointKey(op.TxHash, uint32(op.Index))
			primary, found, err := ix.store.Get(opKey)
			if err != nil {
				return err
			}
			if found {
				deletes = append(deletes, primary, opKey)
			}
		}
		for i := range tx.Outputs {
			out := &tx.Outputs[i]
			index := uint32(i)
			var data []byte
			if i < len(tx.OutputsData) {
				data = tx.OutputsData[i]
			}
			if key, value, ok := ix.classifyOutput(out, data, tx.Hash, index); ok {
				puts = append(puts,
					[2][]byte{key, value},
					[2][]byte{outPointKey(tx.Hash, index), key},
				)
			}
		}
	}

	number := uint64(block.Header.Number)
	puts = append(puts, [2][]byte{keyTip, common.Uint64ToBytes(number + 1)})
	if err := ix.store.WriteBatch(puts, deletes); err != nil {
		return err
	}
	log.Debug(log.IndexerMonitoring, "block indexed",
		"number", number, "puts", len(puts), "deletes", len(deletes))
	return nil
}

// classifyOutput maps a cell output to its index record, if the service
// tracks it: balance cells under the configured lock script, contract cells
// under the configured type script.
func (ix *Indexer) classifyOutput(out *types.CellOutput, data []byte, txHash common.Hash, index uint32) (key, value []byte, ok bool) {
	if out.Type != nil && sameScriptCode(out.Type, &ix.cfg.TypeScript) && len(out.Type.Args) == types.AddressLength {
		value = make([]byte, 0, common.HashLength+4+8+len(data))
		value = append(value, txHash.Bytes()...)
		value = binary.LittleEndian.AppendUint32(value, index)
		value = binary.LittleEndian.AppendUint64(value, uint64(out.Capacity))
		value = append(value, data...)
		return contractKey(out.Type.Args), value, true
	}
	if sameScriptCode(&out.Lock, &ix.cfg.LockScript) && len(out.Lock.Args) == types.AddressLength {
		return cellKey(out.Lock.Args, txHash, index), common.Uint64ToBytes(uint64(out.Capacity)), true
	}
	return nil, nil, false
}

// sameScriptCode compares the code identity of two scripts, ignoring args.
func sameScriptCode(a, b *types.Script) bool {
	return a.CodeHash == b.CodeHash && a.HashType == b.HashType
}
