package types

import (
	"bytes"
	"fmt"

	ethereumCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AddressLength is the byte length of an Ethereum-style account address.
const AddressLength = 20

// EoaAddress identifies an externally-owned account. It is a distinct type
// from ContractAddress so the two can never be mixed up in a call frame.
type EoaAddress [AddressLength]byte

// ContractAddress identifies a contract account cell on chain.
type ContractAddress [AddressLength]byte

func BytesToEoaAddress(b []byte) (EoaAddress, error) {
	var a EoaAddress
	if len(b) != AddressLength {
		return a, fmt.Errorf("invalid address length: %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

func BytesToContractAddress(b []byte) (ContractAddress, error) {
	var a ContractAddress
	if len(b) != AddressLength {
		return a, fmt.Errorf("invalid address length: %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// HexToEoaAddress parses a 0x-prefixed 20-byte hex string.
func HexToEoaAddress(s string) (EoaAddress, error) {
	return BytesToEoaAddress(ethereumCommon.FromHex(s))
}

// HexToContractAddress parses a 0x-prefixed 20-byte hex string.
func HexToContractAddress(s string) (ContractAddress, error) {
	return BytesToContractAddress(ethereumCommon.FromHex(s))
}

func (a EoaAddress) Bytes() []byte { return a[:] }

func (a EoaAddress) Hex() string { return hexutil.Encode(a[:]) }

func (a EoaAddress) String() string { return a.Hex() }

func (a EoaAddress) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *EoaAddress) UnmarshalText(input []byte) error {
	parsed, err := HexToEoaAddress(string(input))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a ContractAddress) Bytes() []byte { return a[:] }

func (a ContractAddress) Hex() string { return hexutil.Encode(a[:]) }

func (a ContractAddress) String() string { return a.Hex() }

func (a ContractAddress) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *ContractAddress) UnmarshalText(input []byte) error {
	parsed, err := HexToContractAddress(string(input))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Eoa reinterprets a contract address as an EOA address. Used when a deeper
// call frame's sender is itself a contract and the engine expects the raw
// 20 bytes either way.
func (a ContractAddress) Eoa() EoaAddress {
	return EoaAddress(a)
}

// IsZero reports whether the address is all zero bytes.
func (a EoaAddress) IsZero() bool {
	return bytes.Equal(a[:], make([]byte, AddressLength))
}

func (a ContractAddress) IsZero() bool {
	return bytes.Equal(a[:], make([]byte, AddressLength))
}
