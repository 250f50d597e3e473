package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/hoh-vault/internal/approval"
	"github.com/AlexZinkM/hoh-vault/internal/client"
	"github.com/AlexZinkM/hoh-vault/internal/keys"
	"github.com/AlexZinkM/hoh-vault/internal/model"
	"github.com/AlexZinkM/hoh-vault/internal/vault"
	"github.com/AlexZinkM/hoh-vault/sui"

	"github.com/rs/zerolog/log"
)

type errorKind struct {
	err     error
	status  int
	code    string
	message string
}

// errorKinds maps every core failure to a stable code and a message that
// is safe to show the user. Order matters only for wrapped errors.
var errorKinds = []errorKind{
	{vault.ErrWeakPassword, http.StatusBadRequest, "weak_password", "Password must be at least 8 characters"},
	{vault.ErrInvalidMnemonic, http.StatusBadRequest, "invalid_mnemonic", "Invalid recovery phrase"},
	{vault.ErrInvalidKey, http.StatusBadRequest, "invalid_key", "Invalid private key"},
	{keys.ErrInvalidPath, http.StatusBadRequest, "invalid_path", "Invalid derivation path"},
	{vault.ErrAuthentication, http.StatusUnauthorized, "authentication_failed", "Incorrect password"},
	{vault.ErrVaultLocked, http.StatusLocked, "vault_locked", "Wallet is locked"},
	{vault.ErrVaultEmpty, http.StatusConflict, "vault_empty", "No wallets yet"},
	{vault.ErrWalletNotFound, http.StatusNotFound, "wallet_not_found", "Wallet not found"},
	{vault.ErrGroupNotFound, http.StatusNotFound, "group_not_found", "Wallet group not found"},
	{vault.ErrGroupCapacityExceeded, http.StatusConflict, "group_capacity_exceeded", "A wallet group holds at most 1000 wallets"},
	{vault.ErrImmutableGroup, http.StatusConflict, "immutable_group", "Wallets cannot be added to a private key group"},
	{vault.ErrLastWalletProtected, http.StatusConflict, "last_wallet_protected", "The last wallet cannot be removed; reset the wallet instead"},
	{vault.ErrInvalidCount, http.StatusBadRequest, "invalid_count", "Wallet count must be positive"},
	{vault.ErrUnknownKind, http.StatusBadRequest, "unknown_kind", "Unknown wallet group kind"},
	{approval.ErrUnsupportedMethod, http.StatusBadRequest, "unsupported_method", "Method not supported"},
	{approval.ErrInvalidParams, http.StatusBadRequest, "invalid_params", "Invalid request parameters"},
	{approval.ErrBusy, http.StatusConflict, "busy", "Another approval request is pending"},
	{approval.ErrSuperseded, http.StatusConflict, "superseded", "Approval request was replaced by a newer one"},
	{approval.ErrUserRejected, http.StatusForbidden, "user_rejected", "Request rejected"},
	{approval.ErrShuttingDown, http.StatusServiceUnavailable, "shutting_down", "Wallet is shutting down"},
	{approval.ErrSurfaceNotFound, http.StatusNotFound, "surface_not_found", "Approval window not found"},
	{sui.ErrInvalidName, http.StatusBadRequest, "invalid_name", "Name must end with .sui"},
	{client.ErrNameNotFound, http.StatusNotFound, "name_not_found", "Name is not registered"},
}

// errorResponse resolves err to its status and public envelope. Unknown
// errors become a generic internal error.
func errorResponse(err error) (int, model.ErrorResponse) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, model.ErrorResponse{Error: k.message, Code: k.code}
		}
	}
	return http.StatusInternalServerError, model.ErrorResponse{Error: "Internal error", Code: "internal"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := errorResponse(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, resp)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: message, Code: "bad_request"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed. Should be "+method, http.StatusMethodNotAllowed)
		return false
	}
	return true
}
