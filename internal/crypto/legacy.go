package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/hoh-vault/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters of the legacy single-wallet .cwt format.
	// N=2^18 (~256MB RAM); the format predates the vault and is read-only here.
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// LegacyWallet is a decrypted .cwt file.
type LegacyWallet struct {
	Network   string
	Address   string
	CreatedAt string
	// Seed is the 32-byte ed25519 seed of the wallet key.
	Seed *Secret
}

// ReadLegacyWallet reads and decrypts a legacy .cwt wallet file.
// password must be []byte for security (caller should zero it after use)
func ReadLegacyWallet(filePath string, password []byte) (*LegacyWallet, error) {
	cwtFile, err := readCWTFile(filePath)
	if err != nil {
		return nil, err
	}

	// Decode salt and nonce
	salt, err := base64.StdEncoding.DecodeString(cwtFile.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(cwtFile.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(cwtFile.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	// Derive key from password
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(nonce) != aesGCM.NonceSize() {
		return nil, ErrAuthentication
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var walletData model.LegacyWalletData
	if err := json.Unmarshal(plaintext, &walletData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet data: %w", err)
	}
	defer clear(walletData.PrivateKey)

	// Either the bare seed or the full 64-byte key (seed || public key).
	var seed []byte
	switch len(walletData.PrivateKey) {
	case ed25519.SeedSize:
		seed = walletData.PrivateKey
	case ed25519.PrivateKeySize:
		seed = walletData.PrivateKey[:ed25519.SeedSize]
	default:
		return nil, errors.New("invalid private key length")
	}

	return &LegacyWallet{
		Network:   cwtFile.Network,
		Address:   cwtFile.Address,
		CreatedAt: walletData.CreatedAt,
		Seed:      NewSecret(seed),
	}, nil
}

func readCWTFile(filePath string) (*model.CWTFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("file does not exist")
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Skip UTF-8 BOM if present
	if len(fileData) >= 3 && fileData[0] == 0xEF && fileData[1] == 0xBB && fileData[2] == 0xBF {
		fileData = fileData[3:]
	}

	var cwtFile model.CWTFile
	if err := json.Unmarshal(fileData, &cwtFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cwt file: %w", err)
	}

	return &cwtFile, nil
}
