// Package integrity computes content fingerprints of documents.
//
// A Fingerprint is a 256-bit digest of the exact bytes of a file, tagged
// with the algorithm that produced it.
package integrity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Common errors
var (
	ErrUnknownAlgorithm = errors.New("unknown hash algorithm")
	ErrInvalidDigest    = errors.New("invalid digest")
)

// Algorithm names a 256-bit hash function.
type Algorithm string

// Supported algorithms.
const (
	SHA256     Algorithm = "sha256"
	SHA3_256   Algorithm = "sha3-256"
	BLAKE2b256 Algorithm = "blake2b-256"
)

// DefaultAlgorithm is used when none is configured.
const DefaultAlgorithm = SHA256

// Size is the digest length in bytes.
const Size = 32

// Algorithms lists the supported algorithms.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, SHA3_256, BLAKE2b256}
}

// ParseAlgorithm parses an algorithm name. Case and the separator before
// "256" are not significant; the empty string selects the default.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-") {
	case "", "sha256", "sha-256":
		return SHA256, nil
	case "sha3-256", "sha3256":
		return SHA3_256, nil
	case "blake2b-256", "blake2b256", "blake2b":
		return BLAKE2b256, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New(), nil
	case SHA3_256:
		return sha3.New256(), nil
	case BLAKE2b256:
		return blake2b.New256(nil)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
}

// Fingerprint is a digest together with its algorithm.
type Fingerprint struct {
	Algorithm Algorithm
	Digest    [Size]byte
}

// Hex returns the lowercase hex form of the digest.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f.Digest[:])
}

// String returns "algorithm:hex".
func (f Fingerprint) String() string {
	return string(f.Algorithm) + ":" + f.Hex()
}

// Equal reports whether both fingerprints use the same algorithm and
// digest. The digest comparison is constant time.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Algorithm == other.Algorithm &&
		subtle.ConstantTimeCompare(f.Digest[:], other.Digest[:]) == 1
}

// IsZero reports whether f is the zero value.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// MarshalText implements encoding.TextMarshaler using the hex form, the
// shape receipts store.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.Hex()), nil
}

// ParseFingerprint parses a hex digest, optionally prefixed with
// "algorithm:". Without a prefix, alg is assumed.
func ParseFingerprint(s string, alg Algorithm) (Fingerprint, error) {
	if name, digest, ok := strings.Cut(s, ":"); ok {
		parsed, err := ParseAlgorithm(name)
		if err != nil {
			return Fingerprint{}, err
		}
		alg, s = parsed, digest
	}
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	if len(raw) != Size {
		return Fingerprint{}, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidDigest, len(raw), Size)
	}
	f := Fingerprint{Algorithm: alg}
	copy(f.Digest[:], raw)
	return f, nil
}

// Hasher fingerprints byte slices and streams with one algorithm.
type Hasher struct {
	alg Algorithm
}

// NewHasher returns a Hasher for alg.
func NewHasher(alg Algorithm) (*Hasher, error) {
	if _, err := alg.newHash(); err != nil {
		return nil, err
	}
	return &Hasher{alg: alg}, nil
}

// Algorithm returns the hasher's algorithm.
func (h *Hasher) Algorithm() Algorithm {
	return h.alg
}

// Sum fingerprints data.
func (h *Hasher) Sum(data []byte) Fingerprint {
	d, _ := h.alg.newHash()
	d.Write(data)
	return h.fingerprint(d)
}

// SumReader fingerprints everything read from r.
func (h *Hasher) SumReader(r io.Reader) (Fingerprint, error) {
	d, _ := h.alg.newHash()
	if _, err := io.Copy(d, r); err != nil {
		return Fingerprint{}, err
	}
	return h.fingerprint(d), nil
}

func (h *Hasher) fingerprint(d hash.Hash) Fingerprint {
	f := Fingerprint{Algorithm: h.alg}
	copy(f.Digest[:], d.Sum(nil))
	return f
}
