package common

import (
	ethereumCommon "github.com/ethereum/go-ethereum/common"
)

// HashLength is the byte length of a chain hash.
const HashLength = 32

// Hash is a custom type based on Ethereum's common.Hash
type Hash ethereumCommon.Hash

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte {
	return ethereumCommon.Hash(h).Bytes()
}

// String returns the string representation of the hash.
func (h Hash) String() string {
	return ethereumCommon.Hash(h).String()
}

// Hex returns the hexadecimal string representation of the hash.
func (h Hash) Hex() string {
	return ethereumCommon.Hash(h).Hex()
}

func (h Hash) MarshalText() ([]byte, error) {
	return ethereumCommon.Hash(h).MarshalText()
}

func (h *Hash) UnmarshalText(input []byte) error {
	return (*ethereumCommon.Hash)(h).UnmarshalText(input)
}

func (h *Hash) UnmarshalJSON(input []byte) error {
	return (*ethereumCommon.Hash)(h).UnmarshalJSON(input)
}

// BytesToHash converts a byte slice to a Hash.
func BytesToHash(b []byte) Hash {
	return Hash(ethereumCommon.BytesToHash(b))
}

// HexToHash converts a hex string to a Hash.
func HexToHash(s string) Hash {
	return Hash(ethereumCommon.HexToHash(s))
}

func IsNilHash(h Hash) bool {
	return h == Hash{}
}

func Bytes2Hex(d []byte) string {
	return "0x" + ethereumCommon.Bytes2Hex(d)
}

// Hex2Bytes decodes a hex string, with or without the 0x prefix.
func Hex2Bytes(s string) []byte {
	return ethereumCommon.FromHex(s)
}
