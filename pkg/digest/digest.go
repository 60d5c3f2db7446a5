package digest

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/blake2b"

	id "certledger/pkg/domain"
)

// Client-side digest helpers. The registry itself never hashes document
// content; issuers compute the digest before submission and verifiers
// recompute it after retrieval from the document store.

// Algorithm names accepted by Compute.
const (
	AlgSHA256  = "sha256"
	AlgBlake2b = "blake2b-256"
)

// SHA256 hashes document bytes with SHA-256.
func SHA256(content []byte) id.Digest {
	return id.Digest(sha256.Sum256(content))
}

// Blake2b hashes document bytes with BLAKE2b-256.
func Blake2b(content []byte) id.Digest {
	return id.Digest(blake2b.Sum256(content))
}

// Compute hashes content with the named algorithm.
func Compute(alg string, content []byte) (id.Digest, error) {
	switch alg {
	case AlgSHA256:
		return SHA256(content), nil
	case AlgBlake2b:
		return Blake2b(content), nil
	default:
		return id.Digest{}, fmt.Errorf("unsupported digest algorithm %q", alg)
	}
}

// Verify reports whether content hashes to want under the named algorithm.
// This is the integrity check verifiers run against the on-registry digest.
func Verify(alg string, content []byte, want id.Digest) (bool, error) {
	got, err := Compute(alg, content)
	if err != nil {
		return false, err
	}
	return got == want, nil
}
