package handler

import (
	"net/http"
	"strconv"

	"github.com/AlexZinkM/hoh-vault/internal/vault"
	"github.com/AlexZinkM/hoh-vault/sui"
)

// WalletHandler serves the read-only wallet pages for the current wallet
type WalletHandler struct {
	vault *vault.Vault
	chain sui.Chain
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(v *vault.Vault, chain sui.Chain) *WalletHandler {
	return &WalletHandler{vault: v, chain: chain}
}

// address returns the ?address= query parameter or the current wallet's
// address.
func (h *WalletHandler) address(r *http.Request) (string, error) {
	if address := r.URL.Query().Get("address"); address != "" {
		return address, nil
	}

	current, err := h.vault.CurrentWallet()
	if err != nil {
		return "", err
	}
	return current.Address, nil
}

// GetBalance handles GET /wallet/balance
// @Summary      Get wallet balance
// @Description  Gets the balance of a coin type (SUI by default) for the current wallet or the given address
// @Tags         wallet
// @Produce      json
// @Param        address   query     string  false  "Address (defaults to the current wallet)"
// @Param        coinType  query     string  false  "Coin type (defaults to 0x2::sui::SUI)"
// @Success      200  {object}  model.BalanceResponse
// @Failure      423  {object}  model.ErrorResponse
// @Router       /wallet/balance [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	address, err := h.address(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := sui.GetBalance(r.Context(), h.chain, address, r.URL.Query().Get("coinType"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// GetCoins handles GET /wallet/coins
// @Summary      List coins
// @Description  Lists one page of coin objects of a coin type
// @Tags         wallet
// @Produce      json
// @Param        address   query     string  false  "Address (defaults to the current wallet)"
// @Param        coinType  query     string  false  "Coin type (defaults to 0x2::sui::SUI)"
// @Param        cursor    query     string  false  "Cursor from the previous page"
// @Param        limit     query     int     false  "Page size"
// @Success      200  {object}  model.CoinsResponse
// @Router       /wallet/coins [get]
func (h *WalletHandler) GetCoins(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	address, err := h.address(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	query := r.URL.Query()

	var cursor *string
	if c := query.Get("cursor"); c != "" {
		cursor = &c
	}

	var limit uint
	if l := query.Get("limit"); l != "" {
		n, err := strconv.ParseUint(l, 10, 32)
		if err != nil {
			badRequest(w, "invalid limit")
			return
		}
		limit = uint(n)
	}

	coins, err := sui.GetCoins(r.Context(), h.chain, address, query.Get("coinType"), cursor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coins)
}

// Receive handles GET /wallet/receive
// @Summary      Receive
// @Description  Returns the current wallet address with a QR code (base64 PNG)
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.ReceiveResponse
// @Failure      423  {object}  model.ErrorResponse
// @Router       /wallet/receive [get]
func (h *WalletHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	current, err := h.vault.CurrentWallet()
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := sui.Receive(current.Address)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Resolve handles GET /wallet/resolve
// @Summary      Resolve SuiNS name
// @Description  Resolves a .sui name to an address
// @Tags         wallet
// @Produce      json
// @Param        name  query     string  true  "Name, e.g. alice.sui"
// @Success      200  {object}  model.ResolveResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallet/resolve [get]
func (h *WalletHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	resp, err := sui.ResolveName(r.Context(), h.chain, r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
