package vault

import (
	"errors"

	"github.com/AlexZinkM/hoh-vault/internal/crypto"
	"github.com/AlexZinkM/hoh-vault/internal/keys"
)

var (
	ErrWeakPassword          = errors.New("password must be at least 8 characters")
	ErrVaultLocked           = errors.New("vault is locked")
	ErrVaultEmpty            = errors.New("vault has no wallets")
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrGroupNotFound         = errors.New("wallet group not found")
	ErrGroupCapacityExceeded = errors.New("wallet group cannot hold more than 1000 wallets")
	ErrImmutableGroup        = errors.New("private key wallet groups cannot be extended")
	ErrLastWalletProtected   = errors.New("cannot remove the last wallet")
	ErrInvalidCount          = errors.New("wallet count must be positive")
	ErrUnknownKind           = errors.New("unknown wallet group kind")

	// Re-exported so callers of the vault need not import the lower layers.
	ErrAuthentication  = crypto.ErrAuthentication
	ErrInvalidMnemonic = keys.ErrInvalidMnemonic
	ErrInvalidKey      = keys.ErrInvalidKey
)
