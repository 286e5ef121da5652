package types

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/colorfulnotion/polyjuice/common"
)

// JSON views of the chain transaction format, matching the node RPC encoding
// (hex-encoded quantities and byte strings).

type ScriptHashType string

const (
	HashTypeData ScriptHashType = "data"
	HashTypeType ScriptHashType = "type"
)

type DepType string

const (
	DepTypeCode     DepType = "code"
	DepTypeDepGroup DepType = "dep_group"
)

// Script locks or types a cell: code hash, how that hash is interpreted, and
// the script arguments.
type Script struct {
	CodeHash common.Hash    `json:"code_hash"`
	HashType ScriptHashType `json:"hash_type"`
	Args     hexutil.Bytes  `json:"args"`
}

type OutPoint struct {
	TxHash common.Hash  `json:"tx_hash"`
	Index  hexutil.Uint `json:"index"`
}

type CellDep struct {
	OutPoint OutPoint `json:"out_point"`
	DepType  DepType  `json:"dep_type"`
}

type CellInput struct {
	Since          hexutil.Uint64 `json:"since"`
	PreviousOutput OutPoint       `json:"previous_output"`
}

type CellOutput struct {
	Capacity hexutil.Uint64 `json:"capacity"`
	Lock     Script         `json:"lock"`
	Type     *Script        `json:"type"`
}

// Transaction is the node's JSON transaction view. Witnesses[i] holds the
// raw witness container bytes for input i (extra witnesses may follow).
type Transaction struct {
	Version     hexutil.Uint    `json:"version"`
	CellDeps    []CellDep       `json:"cell_deps"`
	HeaderDeps  []common.Hash   `json:"header_deps"`
	Inputs      []CellInput     `json:"inputs"`
	Outputs     []CellOutput    `json:"outputs"`
	OutputsData []hexutil.Bytes `json:"outputs_data"`
	Witnesses   []hexutil.Bytes `json:"witnesses"`
}

// TransactionReceipt is the not-yet-finalized transaction handed out by the
// call service and consumed (and mutated in place) by the signing protocol.
type TransactionReceipt struct {
	Tx Transaction `json:"tx"`
}
