package signer

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/colorfulnotion/polyjuice/common"
	"github.com/colorfulnotion/polyjuice/types"
)

// Signer produces a recoverable signature over a 32-byte digest. The signing
// protocol is agnostic to the backend: a local key file today, multi-party or
// hardware signers later. Sign is the protocol's only blocking call.
type Signer interface {
	Sign(digest common.Hash) ([types.SignatureLen]byte, error)
}

// FileSigner signs locally with a secp256k1 key loaded from a file holding
// 32 raw bytes, hex-encoded (trailing newline tolerated).
type FileSigner struct {
	key *ecdsa.PrivateKey
}

// NewFileSigner loads the private key at path.
func NewFileSigner(path string) (*FileSigner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read privkey %s: %w", path, err)
	}
	content := strings.TrimSpace(string(raw))
	content = strings.TrimPrefix(content, "0x")
	if len(content) < 64 {
		return nil, fmt.Errorf("privkey %s: expected 64 hex characters, got %d", path, len(content))
	}
	keyBytes, err := hex.DecodeString(content[:64])
	if err != nil {
		return nil, fmt.Errorf("privkey %s: %w", path, err)
	}
	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("privkey %s: %w", path, err)
	}
	return &FileSigner{key: key}, nil
}

// Sign produces the 64-byte compact signature plus recovery id.
func (s *FileSigner) Sign(digest common.Hash) ([types.SignatureLen]byte, error) {
	var out [types.SignatureLen]byte
	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return out, err
	}
	copy(out[:], sig)
	return out, nil
}

// Address derives the EOA address of the key: keccak-256 of the uncompressed
// public key, last 20 bytes.
func (s *FileSigner) Address() types.EoaAddress {
	pub := crypto.FromECDSAPub(&s.key.PublicKey)
	hash := common.Keccak256(pub[1:]) // drop the 0x04 prefix
	var addr types.EoaAddress
	copy(addr[:], hash.Bytes()[12:])
	return addr
}

// FixedSigner returns a preset signature for every digest. Used by tests and
// dry runs where a deterministic signature is required.
type FixedSigner struct {
	Signature [types.SignatureLen]byte
}

func (s *FixedSigner) Sign(common.Hash) ([types.SignatureLen]byte, error) {
	return s.Signature, nil
}
