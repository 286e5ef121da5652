package types

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/colorfulnotion/polyjuice/common"
)

// Header is the subset of the node's block header view the indexer needs.
type Header struct {
	Number     hexutil.Uint64 `json:"number"`
	Hash       common.Hash    `json:"hash"`
	ParentHash common.Hash    `json:"parent_hash"`
	Timestamp  hexutil.Uint64 `json:"timestamp"`
}

// TransactionInBlock is a transaction as it appears inside a block response:
// the transaction view plus its hash.
type TransactionInBlock struct {
	Transaction
	Hash common.Hash `json:"hash"`
}

// Block is the node's JSON block view.
type Block struct {
	Header       Header               `json:"header"`
	Transactions []TransactionInBlock `json:"transactions"`
}
