package keys

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// privateKeyHRP is the bech32 prefix of exported Sui private keys.
const privateKeyHRP = "suiprivkey"

// DeriveFromPrivateKey builds a keypair from an encoded private key:
//   - bech32 "suiprivkey1..." (flag || 32-byte seed)
//   - base64 of flag || seed (33 bytes) or of the bare seed (32 bytes)
//   - hex of the seed (32 bytes) or of seed || public key (64 bytes)
func DeriveFromPrivateKey(encoded string) (*Keypair, error) {
	seed, err := decodePrivateKey(strings.TrimSpace(encoded))
	if err != nil {
		return nil, err
	}
	defer clear(seed)

	return newKeypair(seed), nil
}

// ExportPrivateKey encodes the keypair's seed as a bech32 suiprivkey string.
func (k *Keypair) ExportPrivateKey() (string, error) {
	if len(k.priv) != ed25519.PrivateKeySize {
		return "", ErrInvalidKey
	}

	raw := make([]byte, 0, 1+ed25519.SeedSize)
	raw = append(raw, ed25519Flag)
	raw = append(raw, k.priv[:ed25519.SeedSize]...)
	defer clear(raw)

	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	defer clear(conv)

	return bech32.Encode(privateKeyHRP, conv)
}

func decodePrivateKey(s string) ([]byte, error) {
	switch {
	case s == "":
		return nil, ErrInvalidKey

	case strings.HasPrefix(strings.ToLower(s), privateKeyHRP+"1"):
		return decodeBech32Key(s)

	case isHexKey(s):
		return decodeHexKey(s)

	default:
		return decodeBase64Key(s)
	}
}

func decodeBech32Key(s string) ([]byte, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil || hrp != privateKeyHRP {
		return nil, ErrInvalidKey
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return flaggedSeed(raw)
}

func isHexKey(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*ed25519.SeedSize && len(s) != 2*ed25519.PrivateKeySize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func decodeHexKey(s string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, ErrInvalidKey
	}

	switch len(raw) {
	case ed25519.SeedSize:
		return raw, nil

	case ed25519.PrivateKeySize:
		// seed || public key: the public half must match the seed.
		defer clear(raw)
		derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
		defer clear(derived)
		if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
			return nil, ErrInvalidKey
		}
		seed := make([]byte, ed25519.SeedSize)
		copy(seed, raw)
		return seed, nil

	default:
		return nil, ErrInvalidKey
	}
}

func decodeBase64Key(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidKey
	}

	switch len(raw) {
	case ed25519.SeedSize:
		return raw, nil
	case 1 + ed25519.SeedSize:
		return flaggedSeed(raw)
	default:
		clear(raw)
		return nil, ErrInvalidKey
	}
}

// flaggedSeed checks the scheme flag of flag || seed and returns a copy of
// the seed. Only ed25519 keys are supported.
func flaggedSeed(raw []byte) ([]byte, error) {
	defer clear(raw)

	if len(raw) != 1+ed25519.SeedSize || raw[0] != ed25519Flag {
		return nil, ErrInvalidKey
	}

	seed := make([]byte, ed25519.SeedSize)
	copy(seed, raw[1:])
	return seed, nil
}
