package handler

import (
	"net/http"

	"github.com/AlexZinkM/hoh-vault/internal/model"
	"github.com/AlexZinkM/hoh-vault/internal/vault"
)

// VaultHandler serves the wallet management pages
type VaultHandler struct {
	vault *vault.Vault
}

// NewVaultHandler creates a new VaultHandler
func NewVaultHandler(v *vault.Vault) *VaultHandler {
	return &VaultHandler{vault: v}
}

// State handles GET /vault/state
// @Summary      Vault state
// @Description  Returns the lock state and the metadata of every wallet group
// @Tags         vault
// @Produce      json
// @Success      200  {object}  model.VaultStateResponse
// @Router       /vault/state [get]
func (h *VaultHandler) State(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, http.StatusOK, h.state())
}

func (h *VaultHandler) state() model.VaultStateResponse {
	return model.VaultStateResponse{
		State:           h.vault.State().String(),
		CurrentWalletID: h.vault.CurrentWalletID(),
		Groups:          h.vault.Groups(),
	}
}

// Create handles POST /vault/create
// @Summary      Create wallet group
// @Description  Creates a mnemonic wallet group (generating the mnemonic when none is given) and unlocks the vault
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateGroupRequest  true  "Password and optional mnemonic"
// @Success      200      {object}  model.WalletGroup
// @Failure      400      {object}  model.ErrorResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /vault/create [post]
func (h *VaultHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.CreateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password) // Always clear password from memory

	group, err := h.vault.CreateGroup(password, req.Mnemonic)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Import handles POST /vault/import
// @Summary      Import wallet group
// @Description  Imports a wallet group from a mnemonic or a private key
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportGroupRequest  true  "Secret, kind and password"
// @Success      200      {object}  model.WalletGroup
// @Failure      400      {object}  model.ErrorResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /vault/import [post]
func (h *VaultHandler) Import(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.ImportGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	group, err := h.vault.ImportGroup(req.Secret, password, vault.Kind(req.Kind), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Unlock handles POST /vault/unlock
// @Summary      Unlock vault
// @Description  Decrypts every wallet group; fails as a whole on a wrong password
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.PasswordRequest  true  "Vault password"
// @Success      200      {object}  model.VaultStateResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /vault/unlock [post]
func (h *VaultHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.PasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	if err := h.vault.Unlock(password); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.state())
}

// Lock handles POST /vault/lock
// @Summary      Lock vault
// @Description  Zeroes every decrypted secret and keypair
// @Tags         vault
// @Produce      json
// @Success      200  {object}  model.SuccessResponse
// @Router       /vault/lock [post]
func (h *VaultHandler) Lock(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	h.vault.Lock()
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Wallet locked"})
}

// Reset handles POST /vault/reset
// @Summary      Reset vault
// @Description  Erases every wallet group and encrypted secret; requires the vault password
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.ResetRequest  true  "Vault password"
// @Success      200      {object}  model.SuccessResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /vault/reset [post]
func (h *VaultHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.ResetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	if err := h.vault.ResetWithPassword(password); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Wallet reset"})
}

// ChangePassword handles POST /vault/password
// @Summary      Change password
// @Description  Re-encrypts every wallet group under a new password and locks the vault
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.ChangePasswordRequest  true  "Old and new password"
// @Success      200      {object}  model.SuccessResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /vault/password [post]
func (h *VaultHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	oldPassword, newPassword := []byte(req.OldPassword), []byte(req.NewPassword)
	defer clear(oldPassword)
	defer clear(newPassword)

	if err := h.vault.ChangePassword(oldPassword, newPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "Password changed"})
}

// Wallets handles GET /vault/wallets
// @Summary      List wallets
// @Description  Lists every wallet across all groups, in group order
// @Tags         vault
// @Produce      json
// @Success      200  {array}  model.Wallet
// @Router       /vault/wallets [get]
func (h *VaultHandler) Wallets(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	wallets := h.vault.Wallets()
	if wallets == nil {
		wallets = []model.Wallet{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

// AddWallets handles POST /vault/wallets/add
// @Summary      Add wallets
// @Description  Derives new wallets in a mnemonic group, reusing freed indices first
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.AddWalletsRequest  true  "Group and count"
// @Success      200      {array}   model.Wallet
// @Failure      409      {object}  model.ErrorResponse
// @Failure      423      {object}  model.ErrorResponse
// @Router       /vault/wallets/add [post]
func (h *VaultHandler) AddWallets(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.AddWalletsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	wallets, err := h.vault.AddWallets(req.GroupID, req.Count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallets)
}

// RemoveWallet handles POST /vault/wallets/remove
// @Summary      Remove wallet
// @Description  Removes a wallet; an emptied group is removed with its secret
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.WalletRequest  true  "Wallet id"
// @Success      200      {object}  model.SuccessResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /vault/wallets/remove [post]
func (h *VaultHandler) RemoveWallet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.WalletRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.vault.RemoveWallet(req.WalletID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

// SwitchWallet handles POST /vault/wallets/switch
// @Summary      Switch wallet
// @Description  Selects the current wallet
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.WalletRequest  true  "Wallet id"
// @Success      200      {object}  model.SuccessResponse
// @Router       /vault/wallets/switch [post]
func (h *VaultHandler) SwitchWallet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.WalletRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.vault.SwitchWallet(req.WalletID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

// RenameWallet handles POST /vault/wallets/rename
// @Summary      Rename wallet
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.RenameRequest  true  "Wallet id and alias"
// @Success      200      {object}  model.SuccessResponse
// @Router       /vault/wallets/rename [post]
func (h *VaultHandler) RenameWallet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.RenameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.vault.RenameWallet(req.ID, req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

// RenameGroup handles POST /vault/groups/rename
// @Summary      Rename wallet group
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.RenameRequest  true  "Group id and name"
// @Success      200      {object}  model.SuccessResponse
// @Router       /vault/groups/rename [post]
func (h *VaultHandler) RenameGroup(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.RenameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.vault.RenameGroup(req.ID, req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}

// Backup handles POST /vault/groups/backup
// @Summary      Back up wallet group
// @Description  Returns the mnemonic or private key of a group; the password is always required
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.BackupRequest  true  "Group id and password"
// @Success      200      {object}  model.BackupResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /vault/groups/backup [post]
func (h *VaultHandler) Backup(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.BackupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	secret, err := h.vault.ExportSecret(req.GroupID, password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var kind string
	for _, g := range h.vault.Groups() {
		if g.ID == req.GroupID {
			kind = g.Kind
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, model.BackupResponse{GroupID: req.GroupID, Kind: kind, Secret: secret})
}

// ExportKey handles POST /vault/wallets/export
// @Summary      Export private key
// @Description  Returns the private key of one wallet; the password is always required
// @Tags         vault
// @Accept       json
// @Produce      json
// @Param        request  body      model.ExportKeyRequest  true  "Wallet id and password"
// @Success      200      {object}  model.ExportKeyResponse
// @Failure      401      {object}  model.ErrorResponse
// @Router       /vault/wallets/export [post]
func (h *VaultHandler) ExportKey(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req model.ExportKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	key, err := h.vault.ExportPrivateKey(req.WalletID, password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, model.ExportKeyResponse{WalletID: req.WalletID, PrivateKey: key})
}

// ExportCSV handles GET /vault/export.csv
// @Summary      Export addresses
// @Description  Exports every wallet as CSV (group, alias, address, derivation path)
// @Tags         vault
// @Produce      text/csv
// @Success      200  {string}  string
// @Router       /vault/export.csv [get]
func (h *VaultHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="hoh-wallets.csv"`)
	if err := h.vault.ExportCSV(w); err != nil {
		writeError(w, r, err)
	}
}
