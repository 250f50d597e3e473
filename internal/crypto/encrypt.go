package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2 parameters for vault secrets.
	//
	// 100,000 iterations of HMAC-SHA256 costs tens of milliseconds on a
	// desktop CPU and keeps blobs readable by the browser extension, which
	// derives the same key through WebCrypto.
	pbkdf2Iterations = 100_000
	keyLen           = 32 // AES-256
	SaltLen          = 16
	NonceLen         = 12
	tagLen           = 16
)

var (
	// ErrAuthentication is returned when a blob does not authenticate under
	// the given password: wrong password, tampered or truncated data.
	ErrAuthentication = errors.New("authentication failed")
)

// EncryptedBlob is one secret at rest: salt || iv || ciphertext+tag.
type EncryptedBlob struct {
	Salt       []byte
	IV         []byte
	Ciphertext []byte
}

// Bytes returns the opaque wire form salt || iv || ciphertext.
func (b EncryptedBlob) Bytes() []byte {
	out := make([]byte, 0, len(b.Salt)+len(b.IV)+len(b.Ciphertext))
	out = append(out, b.Salt...)
	out = append(out, b.IV...)
	return append(out, b.Ciphertext...)
}

// String returns the standard base64 encoding of Bytes, the text form
// handed to the approval UI.
func (b EncryptedBlob) String() string {
	return base64.StdEncoding.EncodeToString(b.Bytes())
}

// Encrypt seals secret under a key derived from password.
// password must be []byte for security (caller should zero it after use)
func Encrypt(secret, password []byte) (EncryptedBlob, error) {
	// Generate salt and nonce
	salt := make([]byte, SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return EncryptedBlob{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, NonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return EncryptedBlob{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return EncryptedBlob{}, err
	}

	return EncryptedBlob{
		Salt:       salt,
		IV:         nonce,
		Ciphertext: aesGCM.Seal(nil, nonce, secret, nil),
	}, nil
}

// newGCM derives the blob key from password and salt and wraps it in
// AES-GCM. The derived key is wiped once the cipher is built.
func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(password, salt, pbkdf2Iterations, keyLen, sha256.New)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return aesGCM, nil
}
