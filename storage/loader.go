package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/colorfulnotion/polyjuice/common"
	"github.com/colorfulnotion/polyjuice/types"
)

// LiveCell is an unspent cell owned by an EOA lock, usable as a transaction
// input.
type LiveCell struct {
	OutPoint types.OutPoint
	Capacity uint64
}

// ContractCell is the cell holding a contract account: its location, balance
// and storage/code data blob.
type ContractCell struct {
	OutPoint types.OutPoint
	Capacity uint64
	Data     []byte
}

// Loader is the read side of the index: account balances, live cells and
// contract cells by address.
type Loader struct {
	store *PersistenceStore
}

func NewLoader(store *PersistenceStore) *Loader {
	return &Loader{store: store}
}

// Balance sums the capacity of every live cell locked to addr.
func (l *Loader) Balance(addr types.EoaAddress) (*uint256.Int, error) {
	cells, err := l.LiveCells(addr)
	if err != nil {
		return nil, err
	}
	total := uint256.NewInt(0)
	for _, cell := range cells {
		total.Add(total, uint256.NewInt(cell.Capacity))
	}
	return total, nil
}

// LiveCells returns every unspent cell locked to addr, in key order.
func (l *Loader) LiveCells(addr types.EoaAddress) ([]LiveCell, error) {
	prefix := make([]byte, 0, len(prefixCell)+types.AddressLength)
	prefix = append(prefix, prefixCell...)
	prefix = append(prefix, addr[:]...)
	records, err := l.store.GetWithPrefix(prefix)
	if err != nil {
		return nil, err
	}
	cells := make([]LiveCell, 0, len(records))
	for _, record := range records {
		key, value := record[0], record[1]
		rest := key[len(prefix):]
		if len(rest) != common.HashLength+4 || len(value) != 8 {
			return nil, fmt.Errorf("corrupt cell record %x", key)
		}
		cells = append(cells, LiveCell{
			OutPoint: types.OutPoint{
				TxHash: common.BytesToHash(rest[:common.HashLength]),
				Index:  hexutil.Uint(binary.LittleEndian.Uint32(rest[common.HashLength:])),
			},
			Capacity: common.BytesToUint64(value),
		})
	}
	return cells, nil
}

// CollectCells picks live cells of addr until their combined capacity covers
// target. Fails when the address cannot cover it.
func (l *Loader) CollectCells(addr types.EoaAddress, target uint64) ([]LiveCell, uint64, error) {
	cells, err := l.LiveCells(addr)
	if err != nil {
		return nil, 0, err
	}
	var picked []LiveCell
	var total uint64
	for _, cell := range cells {
		picked = append(picked, cell)
		total += cell.Capacity
		if total >= target {
			return picked, total, nil
		}
	}
	return nil, 0, fmt.Errorf("insufficient capacity for %s: have %d, need %d", addr, total, target)
}

// LoadContract returns the contract cell for addr.
func (l *Loader) LoadContract(addr types.ContractAddress) (*ContractCell, error) {
	value, found, err := l.store.Get(contractKey(addr[:]))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("contract not found: %s", addr)
	}
	if len(value) < common.HashLength+4+8 {
		return nil, fmt.Errorf("corrupt contract record for %s", addr)
	}
	data := make([]byte, len(value)-common.HashLength-4-8)
	copy(data, value[common.HashLength+4+8:])
	return &ContractCell{
		OutPoint: types.OutPoint{
			TxHash: common.BytesToHash(value[:common.HashLength]),
			Index:  hexutil.Uint(binary.LittleEndian.Uint32(value[common.HashLength : common.HashLength+4])),
		},
		Capacity: common.BytesToUint64(value[common.HashLength+4 : common.HashLength+4+8]),
		Data:     data,
	}, nil
}
