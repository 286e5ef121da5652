package common

import (
	"encoding/binary"
	"hash"

	"github.com/dchest/blake2b"
	"golang.org/x/crypto/sha3"
)

// CkbHashPersonalization is the personalization string of the chain's
// canonical blake2b-256. Every transaction hash and signing digest uses it.
const CkbHashPersonalization = "ckb-default-hash"

// CkbBlake2b256 computes the personalized blake2b-256 hash of data.
func CkbBlake2b256(data ...[]byte) Hash {
	h := NewCkbHasher()
	for _, d := range data {
		h.Write(d)
	}
	return BytesToHash(h.Sum(nil))
}

// NewCkbHasher returns a streaming personalized blake2b-256 hasher, for
// callers that assemble the preimage incrementally.
func NewCkbHasher() hash.Hash {
	h, err := blake2b.New(&blake2b.Config{
		Size:   HashLength,
		Person: []byte(CkbHashPersonalization),
	})
	if err != nil {
		panic(err) // static config, cannot fail
	}
	return h
}

// Keccak256 hashes data with legacy Keccak-256, used to derive EOA addresses
// from secp256k1 public keys.
func Keccak256(data []byte) Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return BytesToHash(h.Sum(nil))
}

func Uint64ToBytes(val uint64) []byte {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, val)
	return bytes
}

func Uint32ToBytes(val uint32) []byte {
	bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(bytes, val)
	return bytes
}

func BytesToUint32(data []byte) uint32 {
	if len(data) < 4 {
		panic("BytesToUint32: byte slice too short")
	}
	return binary.LittleEndian.Uint32(data)
}

func BytesToUint64(data []byte) uint64 {
	if len(data) < 8 {
		panic("BytesToUint64: byte slice too short")
	}
	return binary.LittleEndian.Uint64(data)
}
