package signer

import (
	"fmt"

	"github.com/colorfulnotion/polyjuice/common"
	log "github.com/colorfulnotion/polyjuice/log"
	"github.com/colorfulnotion/polyjuice/molecule"
	"github.com/colorfulnotion/polyjuice/types"
)

// The signing protocol over a transaction receipt, in three phases:
//
//  1. decode every witness container, bucket payload-bearing witnesses into
//     input-side and output-side groups, and hash the transaction hash plus
//     all payloads in bucket/index order with the entrance signature zeroed;
//  2. hand the digest to the Signer;
//  3. rebuild witness 0 with the signature embedded at its fixed offset.
//
// The receipt is mutated only in phase 3, after signing succeeded, so any
// failure leaves it untouched. A single run requires exclusive access to its
// receipt; distinct receipts may be signed concurrently.

// entrance captures the witness-0 container before any mutation.
type entrance struct {
	args       *molecule.WitnessArgs
	payload    []byte // original bytes, signature NOT zeroed
	outputSide bool   // which optional field carried the payload
}

type indexedPayload struct {
	index   int
	payload []byte
}

// BuildSigningMessage runs phase 1 and returns the digest to sign. Exposed
// separately so callers can inspect the digest without committing to a
// signer.
func BuildSigningMessage(receipt *types.TransactionReceipt) (common.Hash, error) {
	txHash, err := molecule.CalcTxHash(&receipt.Tx)
	if err != nil {
		return common.Hash{}, err
	}
	digest, _, err := buildSigningMessage(txHash, receipt)
	return digest, err
}

func buildSigningMessage(txHash common.Hash, receipt *types.TransactionReceipt) (common.Hash, *entrance, error) {
	var inputSide, outputSide []indexedPayload
	args := make([]*molecule.WitnessArgs, len(receipt.Tx.Witnesses))

	for idx, witness := range receipt.Tx.Witnesses {
		decoded, err := molecule.DecodeWitnessArgs(witness)
		if err != nil {
			return common.Hash{}, nil, &InvalidWitnessError{Index: idx, Err: err}
		}
		args[idx] = decoded
		// Input-side payloads take priority; a witness carrying neither
		// field contributes nothing to the message.
		if decoded.InputType != nil {
			inputSide = append(inputSide, indexedPayload{idx, decoded.InputType})
		} else if decoded.OutputType != nil {
			outputSide = append(outputSide, indexedPayload{idx, decoded.OutputType})
		}
	}

	hasher := common.NewCkbHasher()
	hasher.Write(txHash.Bytes())

	var ent *entrance
	// Bucket-then-concatenate order is part of the signed-message contract:
	// all input-side payloads (ascending index), then all output-side
	// payloads (ascending index). The entrance payload is hashed with its
	// signature slice zeroed in a private copy.
	for _, bucket := range [][]indexedPayload{inputSide, outputSide} {
		for _, item := range bucket {
			if item.index == 0 {
				ent = &entrance{
					args:       args[0],
					payload:    item.payload,
					outputSide: args[0].InputType == nil,
				}
				zeroed := make([]byte, len(item.payload))
				copy(zeroed, item.payload)
				if err := types.ZeroSignature(zeroed); err != nil {
					return common.Hash{}, nil, &InvalidWitnessError{Index: 0, Err: err}
				}
				hasher.Write(zeroed)
			} else {
				hasher.Write(item.payload)
			}
		}
	}
	if ent == nil {
		return common.Hash{}, nil, ErrNoEntranceWitness
	}

	return common.BytesToHash(hasher.Sum(nil)), ent, nil
}

// SignTransaction drives all three phases over the receipt, replacing
// witness 0 with the signed container. All other witnesses are untouched.
func SignTransaction(receipt *types.TransactionReceipt, s Signer) error {
	txHash, err := molecule.CalcTxHash(&receipt.Tx)
	if err != nil {
		return err
	}
	digest, ent, err := buildSigningMessage(txHash, receipt)
	if err != nil {
		return err
	}
	log.Debug(log.SignerMonitoring, "signing message built", "tx_hash", txHash.Hex(), "digest", digest.Hex())

	signature, err := s.Sign(digest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignFailed, err)
	}

	// Re-embed into the original (unzeroed) payload bytes; everything
	// outside [SignatureOffset, SignatureEnd) must stay byte-identical to
	// what was hashed.
	payload := make([]byte, len(ent.payload))
	copy(payload, ent.payload)
	if err := types.EmbedSignature(payload, signature); err != nil {
		return &InvalidWitnessError{Index: 0, Err: err}
	}

	var rebuilt molecule.WitnessArgs
	if ent.outputSide {
		rebuilt = ent.args.WithOutputType(payload)
	} else {
		rebuilt = ent.args.WithInputType(payload)
	}
	receipt.Tx.Witnesses[0] = rebuilt.Serialize()
	log.Info(log.SignerMonitoring, "entrance witness signed", "tx_hash", txHash.Hex())
	return nil
}
