package rpc

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/polyjuice/common"
	"github.com/colorfulnotion/polyjuice/molecule"
	"github.com/colorfulnotion/polyjuice/signer"
	"github.com/colorfulnotion/polyjuice/storage"
	"github.com/colorfulnotion/polyjuice/types"
)

type fakeChain struct {
	blocks []types.Block
}

func (c *fakeChain) GetTipBlockNumber() (uint64, error) {
	return uint64(len(c.blocks) - 1), nil
}

func (c *fakeChain) GetBlockByNumber(number uint64) (*types.Block, error) {
	return &c.blocks[number], nil
}

func testConfig() *types.RunConfig {
	return &types.RunConfig{
		TypeDep: types.CellDep{
			OutPoint: types.OutPoint{TxHash: common.HexToHash("0x0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a")},
			DepType:  types.DepTypeCode,
		},
		TypeScript: types.Script{
			CodeHash: common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111"),
			HashType: types.HashTypeType,
		},
		LockDep: types.CellDep{
			OutPoint: types.OutPoint{TxHash: common.HexToHash("0x0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b")},
			DepType:  types.DepTypeDepGroup,
		},
		LockScript: types.Script{
			CodeHash: common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222"),
			HashType: types.HashTypeType,
		},
	}
}

const senderHex = "0xa1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1"

// newTestHandler returns a handler over an index holding one large live cell
// for the sender and, when contractCode is non-nil, one contract cell.
func newTestHandler(t *testing.T, contractCode []byte) (*Handler, types.ContractAddress) {
	t.Helper()
	cfg := testConfig()
	sender, err := types.HexToEoaAddress(senderHex)
	require.NoError(t, err)

	lock := cfg.LockScript
	lock.Args = sender.Bytes()
	outputs := []types.CellOutput{{Capacity: 3000_0000_0000, Lock: lock}}
	outputsData := []hexutil.Bytes{{}}

	var contract types.ContractAddress
	if contractCode != nil {
		contract[0] = 0xc0
		typeScript := cfg.TypeScript
		typeScript.Args = contract.Bytes()
		outputs = append(outputs, types.CellOutput{
			Capacity: 500_0000_0000,
			Lock:     lock,
			Type:     &typeScript,
		})
		outputsData = append(outputsData, contractCode)
	}

	chain := &fakeChain{blocks: []types.Block{{
		Header: types.Header{Number: 0},
		Transactions: []types.TransactionInBlock{{
			Hash: common.HexToHash("0x0909090909090909090909090909090909090909090909090909090909090909"),
			Transaction: types.Transaction{
				Outputs:     outputs,
				OutputsData: outputsData,
			},
		}},
	}}}

	store, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, storage.NewIndexer(store, chain, cfg).CatchUp())

	return NewHandler(storage.NewLoader(store), cfg), contract
}

func callParams(t *testing.T, request CallRequest) []string {
	t.Helper()
	encoded, err := json.Marshal(&request)
	require.NoError(t, err)
	return []string{string(encoded)}
}

func decodeReceipt(t *testing.T, res string) *types.TransactionReceipt {
	t.Helper()
	var receipt types.TransactionReceipt
	require.NoError(t, json.Unmarshal([]byte(res), &receipt))
	return &receipt
}

func entranceProgram(t *testing.T, receipt *types.TransactionReceipt) *types.Program {
	t.Helper()
	args, err := molecule.DecodeWitnessArgs(receipt.Tx.Witnesses[0])
	require.NoError(t, err)
	require.NotNil(t, args.InputType)
	wd, err := types.DecodeWitnessPayload(args.InputType)
	require.NoError(t, err)
	return &wd.Program
}

func TestHandlerCreate(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	code := hexutil.Bytes{0xde, 0xad}

	var res string
	require.NoError(t, h.Create(callParams(t, CallRequest{Sender: senderHex, Code: code}), &res))
	receipt := decodeReceipt(t, res)

	program := entranceProgram(t, receipt)
	assert.Equal(t, types.Create, program.Kind)
	assert.Equal(t, uint32(0), program.Flags)
	assert.Equal(t, senderHex, program.Sender.Hex())
	assert.Equal(t, program.Sender, program.TxOrigin)
	assert.Equal(t, []byte(code), program.Code)
	assert.False(t, program.Destination.IsZero())

	// contract cell output carries the code and the derived type args
	require.Len(t, receipt.Tx.Outputs, 2)
	require.NotNil(t, receipt.Tx.Outputs[0].Type)
	assert.Equal(t, program.Destination.Bytes(), []byte(receipt.Tx.Outputs[0].Type.Args))
	assert.Equal(t, code, receipt.Tx.OutputsData[0])

	// capacity is conserved minus the fee
	total := uint64(receipt.Tx.Outputs[0].Capacity) + uint64(receipt.Tx.Outputs[1].Capacity)
	assert.Equal(t, uint64(3000_0000_0000-10_0000), total)

	// the receipt is signable as built
	_, err := signer.BuildSigningMessage(receipt)
	assert.NoError(t, err)
}

// The derived contract address depends only on the creating sender and the
// first consumed out point, so the same unspent state yields the same address.
func TestHandlerCreateAddressDeterministic(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	var res string
	require.NoError(t, h.Create(callParams(t, CallRequest{Sender: senderHex, Code: hexutil.Bytes{1}}), &res))
	first := entranceProgram(t, decodeReceipt(t, res)).Destination

	require.NoError(t, h.Create(callParams(t, CallRequest{Sender: senderHex, Code: hexutil.Bytes{2}}), &res))
	second := entranceProgram(t, decodeReceipt(t, res)).Destination
	assert.Equal(t, first, second)
}

func TestHandlerCall(t *testing.T) {
	code := []byte{0x60, 0x0a}
	h, contract := newTestHandler(t, code)

	var res string
	require.NoError(t, h.Call(callParams(t, CallRequest{
		Sender:      senderHex,
		Destination: contract.Hex(),
		Input:       hexutil.Bytes{0x01},
	}), &res))
	program := entranceProgram(t, decodeReceipt(t, res))

	assert.Equal(t, types.Call, program.Kind)
	assert.Equal(t, uint32(0), program.Flags)
	assert.False(t, program.IsStatic())
	assert.Equal(t, contract, program.Destination)
	assert.Equal(t, code, program.Code) // loaded from the contract cell
	assert.Equal(t, []byte{0x01}, program.Input)
}

func TestHandlerStaticCall(t *testing.T) {
	h, contract := newTestHandler(t, []byte{0x60})

	var res string
	require.NoError(t, h.StaticCall(callParams(t, CallRequest{
		Sender:      senderHex,
		Destination: contract.Hex(),
	}), &res))
	program := entranceProgram(t, decodeReceipt(t, res))
	assert.True(t, program.IsStatic())
}

func TestHandlerCallUnknownContract(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	var res string
	err := h.Call(callParams(t, CallRequest{
		Sender:      senderHex,
		Destination: "0xcccccccccccccccccccccccccccccccccccccccc",
	}), &res)
	assert.Error(t, err)
}

func TestHandlerInsufficientCapacity(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	var res string
	err := h.Create(callParams(t, CallRequest{
		Sender: "0xdddddddddddddddddddddddddddddddddddddddd",
		Code:   hexutil.Bytes{1},
	}), &res)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient capacity")
}

func TestHandlerGetCode(t *testing.T) {
	code := []byte{0xca, 0xfe}
	h, contract := newTestHandler(t, code)

	var res string
	require.NoError(t, h.GetCode([]string{contract.Hex()}, &res))
	assert.Equal(t, "0xcafe", res)

	assert.Error(t, h.GetCode([]string{"0x1234"}, &res)) // short address
	assert.Error(t, h.GetCode(nil, &res))
}

func TestHandlerGetBalance(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	var res string
	require.NoError(t, h.GetBalance([]string{senderHex}, &res))
	assert.Equal(t, "0x45d964b800", res) // 3000_0000_0000

	require.NoError(t, h.GetBalance([]string{"0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"}, &res))
	assert.Equal(t, "0x0", res)
}

func TestHandlerBadRequest(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	var res string
	assert.Error(t, h.Create([]string{"not json"}, &res))
	assert.Error(t, h.Create([]string{`{"sender":"bogus"}`}, &res))
	assert.Error(t, h.Create(nil, &res))
}
