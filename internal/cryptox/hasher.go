// Package cryptox implements the password credential hasher: a keyed
// 512-bit hash whose key is a fresh random salt generated per password.
package cryptox

import (
	"crypto/hmac"
	"crypto/sha512"
	"errors"
	"hash"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/blake2b"
)

// Algorithm names a supported keyed hash.
type Algorithm string

const (
	// AlgorithmHMACSHA512 keys HMAC-SHA512 with a 128-byte salt (one SHA-512 block).
	AlgorithmHMACSHA512 Algorithm = "hmac-sha512"

	// AlgorithmBLAKE2b512 uses BLAKE2b-512 in keyed mode with a 64-byte salt.
	AlgorithmBLAKE2b512 Algorithm = "blake2b-512"
)

// salt sizes in bytes
const (
	hmacSHA512KeySize = sha512.BlockSize
	blake2bKeySize    = blake2b.Size
)

// randomBytes is a test seam for the salt source.
var randomBytes = common.RandomBytes

// CredentialPair is a stored password: the keyed hash and the key it was
// computed with.
type CredentialPair struct {
	Hash []byte
	Salt []byte
}

// Hasher derives and verifies password credentials. It holds no mutable
// state and is safe for concurrent use.
type Hasher struct {
	algorithm Algorithm
	keySize   int
}

// ParseAlgorithm maps a configuration value to an Algorithm. An empty value
// selects HMAC-SHA512.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", AlgorithmHMACSHA512:
		return AlgorithmHMACSHA512, nil
	case AlgorithmBLAKE2b512:
		return AlgorithmBLAKE2b512, nil
	default:
		return "", &common.ConfigurationError{Setting: "hash_algorithm", Reason: "is not supported: " + s}
	}
}

// NewHasher creates a Hasher for the given algorithm.
func NewHasher(algorithm Algorithm) (*Hasher, error) {
	switch algorithm {
	case AlgorithmHMACSHA512:
		return &Hasher{algorithm: algorithm, keySize: hmacSHA512KeySize}, nil
	case AlgorithmBLAKE2b512:
		return &Hasher{algorithm: algorithm, keySize: blake2bKeySize}, nil
	default:
		return nil, &common.ConfigurationError{Setting: "hash_algorithm", Reason: "is not supported: " + string(algorithm)}
	}
}

// Hash generates a fresh random salt and returns the keyed hash of the UTF-8
// encoded plaintext under it.
func (h *Hasher) Hash(plaintext string) (CredentialPair, error) {
	salt, err := randomBytes(h.keySize)
	if err != nil {
		return CredentialPair{}, &common.HashingError{Err: err}
	}
	if len(salt) != h.keySize {
		return CredentialPair{}, &common.HashingError{Err: errors.New("short salt")}
	}

	sum, err := h.sum(plaintext, salt)
	if err != nil {
		return CredentialPair{}, &common.HashingError{Err: err}
	}
	if len(sum) == 0 {
		return CredentialPair{}, &common.HashingError{Err: errors.New("empty digest")}
	}

	return CredentialPair{Hash: sum, Salt: salt}, nil
}

// Verify recomputes the keyed hash of plaintext with the stored salt and
// compares it to the stored hash in constant time.
func (h *Hasher) Verify(plaintext string, storedHash, salt []byte) bool {
	if len(storedHash) == 0 || len(salt) == 0 {
		return false
	}
	sum, err := h.sum(plaintext, salt)
	if err != nil {
		return false
	}
	return hmac.Equal(sum, storedHash)
}

func (h *Hasher) sum(plaintext string, key []byte) ([]byte, error) {
	mac, err := h.newMAC(key)
	if err != nil {
		return nil, err
	}
	if _, err := mac.Write([]byte(plaintext)); err != nil {
		return nil, err
	}
	return mac.Sum(nil), nil
}

func (h *Hasher) newMAC(key []byte) (hash.Hash, error) {
	switch h.algorithm {
	case AlgorithmHMACSHA512:
		return hmac.New(sha512.New, key), nil
	case AlgorithmBLAKE2b512:
		return blake2b.New512(key)
	default:
		return nil, errors.New("unsupported algorithm")
	}
}
