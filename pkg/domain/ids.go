package domain

import (
	"encoding/hex"
	"strconv"
	"strings"

	dErrors "certledger/pkg/domain-errors"
)

// Identity is an opaque principal reference (e.g. a public-key-derived
// address). It is used only for equality and role lookup; the registry never
// interprets its contents.
//
// Usage: construct via ParseIdentity at trust boundaries; direct casting
// bypasses validation.
type Identity string

// ParseIdentity constructs an Identity from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or contains
// whitespace; no other errors are expected.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity cannot be empty")
	}
	if strings.ContainsAny(s, " \t\n\r") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity cannot contain whitespace")
	}
	return Identity(s), nil
}

func (i Identity) String() string { return string(i) }

// CertID identifies a certificate record. IDs are densely and monotonically
// assigned starting at 1; zero is reserved for "does not exist".
type CertID uint64

// ParseCertID parses a decimal certificate id from external input.
func ParseCertID(s string) (CertID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "certificate id must be a positive integer")
	}
	return CertID(n), nil
}

func (c CertID) IsZero() bool { return c == 0 }

func (c CertID) String() string { return strconv.FormatUint(uint64(c), 10) }

// DigestSize is the fixed width of document digests in bytes.
const DigestSize = 32

// Digest is the fixed-width cryptographic hash of a certificate's externally
// stored document. The registry treats it as an opaque comparator: clients
// compute it before submission and verifiers recompute it after retrieval.
type Digest [DigestSize]byte

// ParseDigest constructs a Digest from its lowercase hex encoding.
//
// Errors: returns CodeInvalidInput unless the value is exactly DigestSize
// bytes of valid hex.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) != hex.EncodedLen(DigestSize) {
		return d, dErrors.New(dErrors.CodeInvalidInput, "digest must be 32 bytes of hex")
	}
	if _, err := hex.Decode(d[:], []byte(strings.ToLower(s))); err != nil {
		return d, dErrors.New(dErrors.CodeInvalidInput, "digest is not valid hex")
	}
	return d, nil
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// MarshalText encodes the digest as lowercase hex for JSON payloads.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a hex digest, enforcing the fixed width.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
