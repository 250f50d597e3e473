package model

// CWTFile represents legacy .cwt file structure
type CWTFile struct {
	Network    string `json:"network"`
	Address    string `json:"address"`
	QR         string `json:"QR"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// LegacyWalletData represents decrypted .cwt payload
type LegacyWalletData struct {
	PrivateKey []byte `json:"privateKey"` // 32-byte seed or 64-byte key (base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}

// Wallet is the public view of one wallet in the vault
type Wallet struct {
	ID             string `json:"id"`
	GroupID        string `json:"groupId"`
	Address        string `json:"address"`
	Alias          string `json:"alias"`
	DerivationPath string `json:"derivationPath,omitempty"`
	Current        bool   `json:"current"`
}

// WalletGroup is the public view of one wallet group
type WalletGroup struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Kind    string   `json:"kind"` // "mnemonic" or "privateKey"
	Wallets []Wallet `json:"wallets"`
}

// VaultStateResponse represents response for GET /vault/state
type VaultStateResponse struct {
	State           string        `json:"state"` // "empty", "locked" or "unlocked"
	CurrentWalletID string        `json:"currentWalletId,omitempty"`
	Groups          []WalletGroup `json:"groups"`
}
