package molecule

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/polyjuice/common"
	"github.com/colorfulnotion/polyjuice/types"
)

// Script hash_type byte values on the wire.
const (
	hashTypeDataByte byte = 0
	hashTypeTypeByte byte = 1
)

// CellDep dep_type byte values on the wire.
const (
	depTypeCodeByte     byte = 0
	depTypeDepGroupByte byte = 1
)

func hashTypeByte(t types.ScriptHashType) (byte, error) {
	switch t {
	case types.HashTypeData:
		return hashTypeDataByte, nil
	case types.HashTypeType:
		return hashTypeTypeByte, nil
	default:
		return 0, fmt.Errorf("invalid script hash type: %q", t)
	}
}

func depTypeByte(t types.DepType) (byte, error) {
	switch t {
	case types.DepTypeCode:
		return depTypeCodeByte, nil
	case types.DepTypeDepGroup:
		return depTypeDepGroupByte, nil
	default:
		return 0, fmt.Errorf("invalid dep type: %q", t)
	}
}

// PackScript encodes a script as a table(code_hash: Byte32, hash_type: byte,
// args: Bytes).
func PackScript(s *types.Script) ([]byte, error) {
	ht, err := hashTypeByte(s.HashType)
	if err != nil {
		return nil, err
	}
	return PackTable(s.CodeHash.Bytes(), []byte{ht}, PackBytes(s.Args)), nil
}

// CalcScriptHash returns the canonical script hash, the blake2b-256 of the
// packed script, used to index cells by lock or type script.
func CalcScriptHash(s *types.Script) (common.Hash, error) {
	packed, err := PackScript(s)
	if err != nil {
		return common.Hash{}, err
	}
	return common.CkbBlake2b256(packed), nil
}

func packOutPoint(buf []byte, op *types.OutPoint) []byte {
	buf = append(buf, op.TxHash.Bytes()...)
	return binary.LittleEndian.AppendUint32(buf, uint32(op.Index))
}

// packCellDeps encodes a fixvec of 37-byte cell dep structs.
func packCellDeps(deps []types.CellDep) ([]byte, error) {
	items := make([]byte, 0, 37*len(deps))
	for i := range deps {
		dt, err := depTypeByte(deps[i].DepType)
		if err != nil {
			return nil, err
		}
		items = packOutPoint(items, &deps[i].OutPoint)
		items = append(items, dt)
	}
	return PackFixVec(len(deps), items), nil
}

// packHeaderDeps encodes a fixvec of 32-byte hashes.
func packHeaderDeps(deps []common.Hash) []byte {
	items := make([]byte, 0, common.HashLength*len(deps))
	for i := range deps {
		items = append(items, deps[i].Bytes()...)
	}
	return PackFixVec(len(deps), items)
}

// packInputs encodes a fixvec of 44-byte cell input structs (since followed
// by the previous out point).
func packInputs(inputs []types.CellInput) []byte {
	items := make([]byte, 0, 44*len(inputs))
	for i := range inputs {
		items = binary.LittleEndian.AppendUint64(items, uint64(inputs[i].Since))
		items = packOutPoint(items, &inputs[i].PreviousOutput)
	}
	return PackFixVec(len(inputs), items)
}

// packOutput encodes a table(capacity: Uint64, lock: Script, type_: ScriptOpt).
func packOutput(out *types.CellOutput) ([]byte, error) {
	lock, err := PackScript(&out.Lock)
	if err != nil {
		return nil, err
	}
	var typeOpt []byte
	if out.Type != nil {
		if typeOpt, err = PackScript(out.Type); err != nil {
			return nil, err
		}
	}
	capacity := binary.LittleEndian.AppendUint64(nil, uint64(out.Capacity))
	return PackTable(capacity, lock, typeOpt), nil
}

func packOutputs(outputs []types.CellOutput) ([]byte, error) {
	items := make([][]byte, len(outputs))
	for i := range outputs {
		packed, err := packOutput(&outputs[i])
		if err != nil {
			return nil, err
		}
		items[i] = packed
	}
	return PackTable(items...), nil
}

func packOutputsData(data [][]byte) []byte {
	items := make([][]byte, len(data))
	for i := range data {
		items[i] = PackBytes(data[i])
	}
	return PackTable(items...)
}

// PackRawTransaction encodes the raw transaction table (witnesses excluded);
// its blake2b-256 is the canonical transaction hash.
func PackRawTransaction(tx *types.Transaction) ([]byte, error) {
	cellDeps, err := packCellDeps(tx.CellDeps)
	if err != nil {
		return nil, err
	}
	outputs, err := packOutputs(tx.Outputs)
	if err != nil {
		return nil, err
	}
	outputsData := make([][]byte, len(tx.OutputsData))
	for i := range tx.OutputsData {
		outputsData[i] = tx.OutputsData[i]
	}
	version := binary.LittleEndian.AppendUint32(nil, uint32(tx.Version))
	return PackTable(
		version,
		cellDeps,
		packHeaderDeps(tx.HeaderDeps),
		packInputs(tx.Inputs),
		outputs,
		packOutputsData(outputsData),
	), nil
}

// CalcTxHash derives the canonical transaction hash from the JSON view.
func CalcTxHash(tx *types.Transaction) (common.Hash, error) {
	raw, err := PackRawTransaction(tx)
	if err != nil {
		return common.Hash{}, err
	}
	return common.CkbBlake2b256(raw), nil
}
