package types

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

const (
	// SignatureLen is the byte length of a recoverable secp256k1 signature:
	// 64 compact bytes plus one recovery id byte.
	SignatureLen = 65

	// PayloadLenFieldSize is the little-endian length prefix a caller puts in
	// front of the program body when embedding it into a witness.
	PayloadLenFieldSize = 4

	// SignatureOffset / SignatureEnd delimit the signature slice inside the
	// full witness payload (length prefix included). The signing protocol
	// overwrites exactly payload[SignatureOffset:SignatureEnd] and nothing
	// else, so these offsets are part of the on-chain contract.
	SignatureOffset = PayloadLenFieldSize
	SignatureEnd    = PayloadLenFieldSize + SignatureLen
)

// CallKind is the kind of an Ethereum-style call frame.
type CallKind uint8

const (
	Create CallKind = iota
	Call
)

func (k CallKind) String() string {
	switch k {
	case Create:
		return "create"
	case Call:
		return "call"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

func ParseCallKind(s string) (CallKind, error) {
	switch s {
	case "create":
		return Create, nil
	case "call":
		return Call, nil
	default:
		return 0, fmt.Errorf("invalid call kind: %q", s)
	}
}

func (k CallKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *CallKind) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return err
	}
	parsed, err := ParseCallKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Program describes one call or contract-creation request for the execution
// engine. TxOrigin equals Sender at depth 0; deeper frames may differ, which
// is the caller's responsibility when constructing the frame.
type Program struct {
	Kind        CallKind        `json:"kind"`
	Flags       uint32          `json:"flags"` // bit 0: static call
	Depth       uint32          `json:"depth"`
	TxOrigin    EoaAddress      `json:"tx_origin"`
	Sender      EoaAddress      `json:"sender"`
	Destination ContractAddress `json:"destination"`
	Code        []byte          `json:"code"`
	Input       []byte          `json:"input"`
}

// IsStatic reports whether the static-call flag bit is set.
func (p *Program) IsStatic() bool {
	return p.Flags&1 != 0
}

// WitnessData is a Program plus the recoverable signature over the enclosing
// transaction. The signature stays all-zero until the signing protocol runs;
// afterwards only the signature bytes of the encoded payload change.
type WitnessData struct {
	Program   Program
	Signature [SignatureLen]byte
}

// NewWitnessData wraps a program with a zero signature.
func NewWitnessData(program Program) *WitnessData {
	return &WitnessData{Program: program}
}

// fixed program fields after the signature: kind(1) flags(4) depth(4)
// tx_origin(20) sender(20) destination(20)
const programFixedLen = 1 + 4 + 4 + 3*AddressLength

// ProgramData serializes the witness data body:
//
//	signature(65) || kind(1) || flags(4 LE) || depth(4 LE) ||
//	tx_origin(20) || sender(20) || destination(20) ||
//	code_len(4 LE) || code || input_len(4 LE) || input
//
// The 4-byte little-endian length of this body is NOT included; callers that
// embed the body into a witness prepend it themselves (see WitnessPayload).
// The field layout is a byte-exact contract with the execution engine,
// pinned by the golden fixtures in program_test.go.
func (w *WitnessData) ProgramData() []byte {
	p := &w.Program
	data := make([]byte, 0, SignatureLen+programFixedLen+8+len(p.Code)+len(p.Input))
	data = append(data, w.Signature[:]...)
	data = append(data, byte(p.Kind))
	data = binary.LittleEndian.AppendUint32(data, p.Flags)
	data = binary.LittleEndian.AppendUint32(data, p.Depth)
	data = append(data, p.TxOrigin[:]...)
	data = append(data, p.Sender[:]...)
	data = append(data, p.Destination[:]...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(p.Code)))
	data = append(data, p.Code...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(p.Input)))
	data = append(data, p.Input...)
	return data
}

// WitnessPayload returns the full on-chain payload: length(4 LE) || body.
func (w *WitnessData) WitnessPayload() []byte {
	body := w.ProgramData()
	payload := make([]byte, 0, PayloadLenFieldSize+len(body))
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(body)))
	return append(payload, body...)
}

// DecodeWitnessData parses a program body as produced by ProgramData.
func DecodeWitnessData(body []byte) (*WitnessData, error) {
	if len(body) < SignatureLen {
		return nil, fmt.Errorf("%w: body %d bytes, signature needs %d", ErrTruncated, len(body), SignatureLen)
	}
	w := &WitnessData{}
	copy(w.Signature[:], body[:SignatureLen])

	rest := body[SignatureLen:]
	if len(rest) < programFixedLen {
		return nil, fmt.Errorf("%w: program fields %d bytes, need %d", ErrTruncated, len(rest), programFixedLen)
	}
	p := &w.Program
	p.Kind = CallKind(rest[0])
	p.Flags = binary.LittleEndian.Uint32(rest[1:5])
	p.Depth = binary.LittleEndian.Uint32(rest[5:9])
	copy(p.TxOrigin[:], rest[9:29])
	copy(p.Sender[:], rest[29:49])
	copy(p.Destination[:], rest[49:69])

	rest = rest[programFixedLen:]
	var err error
	if p.Code, rest, err = readLengthPrefixed(rest, "code"); err != nil {
		return nil, err
	}
	if p.Input, rest, err = readLengthPrefixed(rest, "input"); err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(rest))
	}
	return w, nil
}

// DecodeWitnessPayload parses a full payload (length prefix included),
// checking that the prefix matches the body length.
func DecodeWitnessPayload(payload []byte) (*WitnessData, error) {
	if len(payload) < PayloadLenFieldSize {
		return nil, fmt.Errorf("%w: payload %d bytes, no length prefix", ErrTruncated, len(payload))
	}
	declared := binary.LittleEndian.Uint32(payload[:PayloadLenFieldSize])
	body := payload[PayloadLenFieldSize:]
	if uint32(len(body)) != declared {
		return nil, fmt.Errorf("%w: length prefix %d, body %d bytes", ErrMalformed, declared, len(body))
	}
	return DecodeWitnessData(body)
}

func readLengthPrefixed(buf []byte, field string) ([]byte, []byte, error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("%w: missing %s length", ErrTruncated, field)
	}
	n := binary.LittleEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint64(n) > uint64(len(buf)) {
		return nil, nil, fmt.Errorf("%w: %s length %d exceeds remaining %d bytes", ErrMalformed, field, n, len(buf))
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return out, buf[n:], nil
}

// ZeroSignature blanks the signature slice of a full witness payload in
// place. The signing protocol calls this on a private copy so the unsigned
// message never depends on signature bytes.
func ZeroSignature(payload []byte) error {
	if len(payload) < SignatureEnd {
		return fmt.Errorf("%w: payload %d bytes, signature region ends at %d", ErrTruncated, len(payload), SignatureEnd)
	}
	for i := SignatureOffset; i < SignatureEnd; i++ {
		payload[i] = 0
	}
	return nil
}

// EmbedSignature overwrites the signature slice of a full witness payload.
func EmbedSignature(payload []byte, signature [SignatureLen]byte) error {
	if len(payload) < SignatureEnd {
		return fmt.Errorf("%w: payload %d bytes, signature region ends at %d", ErrTruncated, len(payload), SignatureEnd)
	}
	copy(payload[SignatureOffset:SignatureEnd], signature[:])
	return nil
}
