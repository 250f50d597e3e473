package api

import (
	"net/http"

	"github.com/AlexZinkM/hoh-vault/internal/approval"
	"github.com/AlexZinkM/hoh-vault/internal/handler"
	"github.com/AlexZinkM/hoh-vault/internal/relay"
	"github.com/AlexZinkM/hoh-vault/internal/vault"
	"github.com/AlexZinkM/hoh-vault/sui"

	_ "github.com/AlexZinkM/hoh-vault/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Services are the long-lived components the HTTP surface is built on
type Services struct {
	Vault    *vault.Vault
	Chain    sui.Chain
	Broker   *approval.Broker
	Surfaces *approval.LocalSurfaces
	Approver *approval.Approver
	Relay    *relay.Channel

	// ApprovalURL is where the approval UI is served; only its origin may
	// call the API from a browser.
	ApprovalURL string
}

// SetupRouter sets up router with handlers behind the request guard
func SetupRouter(s Services) http.Handler {
	vaultHandler := handler.NewVaultHandler(s.Vault)
	walletHandler := handler.NewWalletHandler(s.Vault, s.Chain)
	approvalHandler := handler.NewApprovalHandler(s.Broker, s.Surfaces, s.Approver)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Vault endpoints
	mux.HandleFunc("/vault/state", vaultHandler.State)
	mux.HandleFunc("/vault/create", vaultHandler.Create)
	mux.HandleFunc("/vault/import", vaultHandler.Import)
	mux.HandleFunc("/vault/unlock", vaultHandler.Unlock)
	mux.HandleFunc("/vault/lock", vaultHandler.Lock)
	mux.HandleFunc("/vault/reset", vaultHandler.Reset)
	mux.HandleFunc("/vault/password", vaultHandler.ChangePassword)
	mux.HandleFunc("/vault/wallets", vaultHandler.Wallets)
	mux.HandleFunc("/vault/wallets/add", vaultHandler.AddWallets)
	mux.HandleFunc("/vault/wallets/remove", vaultHandler.RemoveWallet)
	mux.HandleFunc("/vault/wallets/switch", vaultHandler.SwitchWallet)
	mux.HandleFunc("/vault/wallets/rename", vaultHandler.RenameWallet)
	mux.HandleFunc("/vault/groups/rename", vaultHandler.RenameGroup)
	mux.HandleFunc("/vault/wallets/export", vaultHandler.ExportKey)
	mux.HandleFunc("/vault/groups/backup", vaultHandler.Backup)
	mux.HandleFunc("/vault/export.csv", vaultHandler.ExportCSV)

	// Wallet endpoints
	mux.HandleFunc("/wallet/balance", walletHandler.GetBalance)
	mux.HandleFunc("/wallet/coins", walletHandler.GetCoins)
	mux.HandleFunc("/wallet/receive", walletHandler.Receive)
	mux.HandleFunc("/wallet/resolve", walletHandler.Resolve)

	// Approval endpoints
	mux.HandleFunc("/approval/pending", approvalHandler.Pending)
	mux.HandleFunc("/approval/surfaces", approvalHandler.Surfaces)
	mux.HandleFunc("/approval/approve", approvalHandler.Approve)
	mux.HandleFunc("/approval/reject", approvalHandler.Reject)
	mux.HandleFunc("/approval/result", approvalHandler.Result)
	mux.HandleFunc("/approval/close", approvalHandler.Close)

	// Page relay
	mux.Handle(handler.RelayPath, s.Relay)

	return handler.Guard(mux, s.ApprovalURL)
}
