package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/colorfulnotion/polyjuice/common"
	log "github.com/colorfulnotion/polyjuice/log"
	"github.com/colorfulnotion/polyjuice/molecule"
	"github.com/colorfulnotion/polyjuice/storage"
	"github.com/colorfulnotion/polyjuice/types"
)

const (
	// contractCellCapacity is the capacity reserved for a freshly created
	// contract cell, in shannons.
	contractCellCapacity = 200_0000_0000
	// txFee is the flat fee left to the miners per constructed transaction.
	txFee = 10_0000
)

// CallRequest is the JSON body of the create/call/static_call methods.
type CallRequest struct {
	Sender      string        `json:"sender"`
	Destination string        `json:"destination,omitempty"`
	Code        hexutil.Bytes `json:"code,omitempty"`
	Input       hexutil.Bytes `json:"input,omitempty"`
}

// Handler implements the call service: it turns inbound call/create requests
// into unsigned transaction receipts whose entrance witness carries the
// encoded call frame.
type Handler struct {
	loader *storage.Loader
	cfg    *types.RunConfig
}

func NewHandler(loader *storage.Loader, cfg *types.RunConfig) *Handler {
	return &Handler{loader: loader, cfg: cfg}
}

// Create builds a contract-creation receipt.
//
// Parameters:
// - request (object): {"sender", "code", "input"}
//
// Returns:
// - string: TransactionReceipt JSON
func (h *Handler) Create(req []string, res *string) error {
	return h.buildReceipt(types.Create, 0, req, res)
}

// Call builds a contract-call receipt.
//
// Parameters:
// - request (object): {"sender", "destination", "input"}
//
// Returns:
// - string: TransactionReceipt JSON
func (h *Handler) Call(req []string, res *string) error {
	return h.buildReceipt(types.Call, 0, req, res)
}

// StaticCall builds a contract-call receipt with the static flag set.
func (h *Handler) StaticCall(req []string, res *string) error {
	return h.buildReceipt(types.Call, 1, req, res)
}

// GetCode returns the data blob of a contract cell.
//
// Parameters:
// - address (string): contract address as hex
func (h *Handler) GetCode(req []string, res *string) error {
	if len(req) != 1 {
		return fmt.Errorf("invalid number of arguments: expected 1, got %d", len(req))
	}
	addr, err := types.HexToContractAddress(req[0])
	if err != nil {
		return err
	}
	cell, err := h.loader.LoadContract(addr)
	if err != nil {
		return err
	}
	*res = common.Bytes2Hex(cell.Data)
	return nil
}

// GetBalance returns the total live capacity locked to an EOA address.
//
// Parameters:
// - address (string): EOA address as hex
func (h *Handler) GetBalance(req []string, res *string) error {
	if len(req) != 1 {
		return fmt.Errorf("invalid number of arguments: expected 1, got %d", len(req))
	}
	addr, err := types.HexToEoaAddress(req[0])
	if err != nil {
		return err
	}
	balance, err := h.loader.Balance(addr)
	if err != nil {
		return err
	}
	*res = balance.Hex()
	return nil
}

func (h *Handler) buildReceipt(kind types.CallKind, flags uint32, req []string, res *string) error {
	if len(req) != 1 {
		return fmt.Errorf("invalid number of arguments: expected 1, got %d", len(req))
	}
	var request CallRequest
	if err := json.Unmarshal([]byte(req[0]), &request); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	sender, err := types.HexToEoaAddress(request.Sender)
	if err != nil {
		return fmt.Errorf("sender: %w", err)
	}

	cells, total, err := h.loader.CollectCells(sender, contractCellCapacity+txFee)
	if err != nil {
		return err
	}
	inputs := make([]types.CellInput, len(cells))
	for i, cell := range cells {
		inputs[i] = types.CellInput{PreviousOutput: cell.OutPoint}
	}

	program := types.Program{
		Kind:     kind,
		Flags:    flags,
		Depth:    0,
		TxOrigin: sender, // depth 0: origin and sender coincide
		Sender:   sender,
		Input:    request.Input,
	}
	var contractData []byte
	switch kind {
	case types.Create:
		program.Code = request.Code
		program.Destination = deriveContractAddress(sender, &cells[0].OutPoint)
		contractData = request.Code
	case types.Call:
		destination, err := types.HexToContractAddress(request.Destination)
		if err != nil {
			return fmt.Errorf("destination: %w", err)
		}
		cell, err := h.loader.LoadContract(destination)
		if err != nil {
			return err
		}
		program.Code = cell.Data
		program.Destination = destination
		contractData = cell.Data
	}

	witnessData := types.NewWitnessData(program)
	entrance := molecule.WitnessArgs{}.WithInputType(witnessData.WitnessPayload())

	witnesses := make([]hexutil.Bytes, len(inputs))
	witnesses[0] = entrance.Serialize()
	empty := molecule.WitnessArgs{}
	for i := 1; i < len(witnesses); i++ {
		witnesses[i] = empty.Serialize()
	}

	typeScript := h.cfg.TypeScript
	typeScript.Args = program.Destination.Bytes()
	lockScript := h.cfg.LockScript
	lockScript.Args = sender.Bytes()

	tx := types.Transaction{
		Version:  0,
		CellDeps: []types.CellDep{h.cfg.LockDep, h.cfg.TypeDep},
		Inputs:   inputs,
		Outputs: []types.CellOutput{
			{
				Capacity: contractCellCapacity,
				Lock:     lockScript,
				Type:     &typeScript,
			},
			{
				Capacity: hexutil.Uint64(total - contractCellCapacity - txFee),
				Lock:     lockScript,
			},
		},
		OutputsData: []hexutil.Bytes{contractData, {}},
		Witnesses:   witnesses,
	}

	receipt := types.TransactionReceipt{Tx: tx}
	encoded, err := json.Marshal(&receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	*res = string(encoded)

	txHash, err := molecule.CalcTxHash(&tx)
	if err == nil {
		log.Info(log.RpcMonitoring, "receipt built",
			"kind", kind.String(), "sender", sender, "tx_hash", txHash.Hex())
	}
	return nil
}

// deriveContractAddress assigns the new contract account address from the
// creating sender and the first consumed out point, so repeated creations by
// one sender land on distinct addresses.
func deriveContractAddress(sender types.EoaAddress, op *types.OutPoint) types.ContractAddress {
	preimage := make([]byte, 0, types.AddressLength+common.HashLength+4)
	preimage = append(preimage, sender[:]...)
	preimage = append(preimage, op.TxHash.Bytes()...)
	preimage = append(preimage, common.Uint32ToBytes(uint32(op.Index))...)
	hash := common.CkbBlake2b256(preimage)
	var addr types.ContractAddress
	copy(addr[:], hash.Bytes()[12:])
	return addr
}
