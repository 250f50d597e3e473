package model

// CreateGroupRequest represents request for POST /vault/create
type CreateGroupRequest struct {
	Password string `json:"password"`
	Mnemonic string `json:"mnemonic,omitempty"` // generated when empty
}

// ImportGroupRequest represents request for POST /vault/import
type ImportGroupRequest struct {
	Password string `json:"password"`
	Secret   string `json:"secret"`
	Kind     string `json:"kind"` // "mnemonic" or "privateKey"
	Name     string `json:"name,omitempty"`
}

// PasswordRequest represents request for POST /vault/unlock
type PasswordRequest struct {
	Password string `json:"password"`
}

// ResetRequest represents request for POST /vault/reset
type ResetRequest struct {
	Password string `json:"password"`
}

// ChangePasswordRequest represents request for POST /vault/password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// AddWalletsRequest represents request for POST /vault/wallets/add
type AddWalletsRequest struct {
	GroupID string `json:"groupId"`
	Count   int    `json:"count"`
}

// WalletRequest represents request for POST /vault/wallets/remove and /vault/wallets/switch
type WalletRequest struct {
	WalletID string `json:"walletId"`
}

// RenameRequest represents request for POST /vault/wallets/rename and /vault/groups/rename
type RenameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BackupRequest represents request for POST /vault/groups/backup
type BackupRequest struct {
	GroupID  string `json:"groupId"`
	Password string `json:"password"`
}

// BackupResponse represents response for POST /vault/groups/backup
type BackupResponse struct {
	GroupID string `json:"groupId"`
	Kind    string `json:"kind"`
	Secret  string `json:"secret"`
}

// SuccessResponse is returned by operations without a payload
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ExportKeyRequest represents request for POST /vault/wallets/export
type ExportKeyRequest struct {
	WalletID string `json:"walletId"`
	Password string `json:"password"`
}

// ExportKeyResponse represents response for POST /vault/wallets/export
type ExportKeyResponse struct {
	WalletID   string `json:"walletId"`
	PrivateKey string `json:"privateKey"` // bech32 suiprivkey
}
