// Package keys derives Sui ed25519 signing keys from BIP-39 mnemonics
// (SLIP-0010, hardened paths only) and from raw private keys.
package keys

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

const (
	// CoinType is the SLIP-44 coin type registered for Sui.
	CoinType = 784

	hardenedOffset = 0x80000000
	slip10Curve    = "ed25519 seed"
)

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidKey      = errors.New("invalid private key")
	ErrInvalidPath     = errors.New("invalid derivation path")
)

// GenerateMnemonic returns a fresh 12-word English BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	defer clear(entropy)

	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic collapses whitespace so that the same phrase typed with
// stray spaces or newlines derives the same keys.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}

// ValidateMnemonic reports ErrInvalidMnemonic unless the phrase passes the
// BIP-39 word list and checksum check.
func ValidateMnemonic(mnemonic string) error {
	if _, err := bip39.EntropyFromMnemonic(NormalizeMnemonic(mnemonic)); err != nil {
		return ErrInvalidMnemonic
	}
	return nil
}

// SeedFromMnemonic validates mnemonic and returns its 64-byte BIP-39 seed
// (empty passphrase). Caller must clear the seed.
func SeedFromMnemonic(mnemonic string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(mnemonic), "")
	if err != nil {
		return nil, ErrInvalidMnemonic
	}
	return seed, nil
}

// DeriveFromMnemonic derives the keypair at path from mnemonic.
func DeriveFromMnemonic(mnemonic, path string) (*Keypair, error) {
	seed, err := SeedFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	defer clear(seed)

	return DeriveFromSeed(seed, path)
}

// DeriveFromSeed derives the keypair at path from a BIP-39 seed.
func DeriveFromSeed(seed []byte, path string) (*Keypair, error) {
	key, err := deriveSLIP10(seed, path)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	return newKeypair(key), nil
}

// deriveSLIP10 walks the SLIP-0010 ed25519 tree and returns the 32-byte
// private key at path.
func deriveSLIP10(seed []byte, path string) ([]byte, error) {
	indices, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha512.New, []byte(slip10Curve))
	mac.Write(seed)
	node := mac.Sum(nil)

	data := make([]byte, 1+ed25519.SeedSize+4)
	defer clear(data)

	for _, index := range indices {
		data[0] = 0x00
		copy(data[1:], node[:32])
		binary.BigEndian.PutUint32(data[33:], index)

		mac = hmac.New(sha512.New, node[32:])
		mac.Write(data)

		next := mac.Sum(nil)
		clear(node)
		node = next
	}

	key := make([]byte, ed25519.SeedSize)
	copy(key, node[:32])
	clear(node)

	return key, nil
}

// parsePath parses "m/a'/b'/..." into hardened child indices. ed25519 in
// SLIP-0010 has no public derivation, so every segment must be hardened.
func parsePath(path string) ([]uint32, error) {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[0] != "m" {
		return nil, ErrInvalidPath
	}

	indices := make([]uint32, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		if !strings.HasSuffix(seg, "'") {
			return nil, ErrInvalidPath
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(seg, "'"), 10, 31)
		if err != nil {
			return nil, ErrInvalidPath
		}
		indices = append(indices, uint32(n)+hardenedOffset)
	}

	return indices, nil
}
