// walletd runs the vault, the approval broker and the page relay behind one
// local HTTP server.
// Usage: PAGE_ORIGIN=https://dapp.example go run ./cmd/walletd
//
// @title        HOH Vault API
// @version      1.0
// @description  Local Sui multi-wallet vault, approval broker and dApp relay.
// @host         localhost:8080
// @BasePath     /
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/hoh-vault/internal/api"
	"github.com/AlexZinkM/hoh-vault/internal/approval"
	"github.com/AlexZinkM/hoh-vault/internal/client"
	"github.com/AlexZinkM/hoh-vault/internal/config"
	"github.com/AlexZinkM/hoh-vault/internal/relay"
	"github.com/AlexZinkM/hoh-vault/internal/vault"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg := config.Get()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	store, err := vault.OpenBoltStore(cfg.VaultDBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.VaultDBPath).Msg("failed to open vault store")
	}
	defer store.Close()

	v, err := vault.Open(store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open vault")
	}

	if cfg.UnlockOnStart && v.State() == vault.StateLocked {
		unlockFromTerminal(v)
	}

	suiClient := client.NewSuiClient(cfg.SuiRPCURL)
	defer suiClient.Close()

	surfaces := approval.NewLocalSurfaces(cfg.ApprovalURL)
	broker := approval.NewBroker(surfaces)
	surfaces.OnClose(func(surfaceID string) {
		broker.SurfaceClosed(surfaceID)
	})
	broker.Start()

	submit := broker.Request
	if cfg.SupersedePending {
		submit = broker.Supersede
	}
	pageRelay := relay.New(cfg.PageOrigin, relay.ForwarderFunc(
		func(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
			return submit(ctx, approval.Method(method), params)
		},
	))

	router := api.SetupRouter(api.Services{
		Vault:    v,
		Chain:    suiClient,
		Broker:   broker,
		Surfaces: surfaces,
		Approver: approval.NewApprover(v, suiClient, cfg.SuiChain),
		Relay:    pageRelay,

		ApprovalURL: cfg.ApprovalURL,
	})

	srv := &http.Server{
		Addr:              "127.0.0.1:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("page_origin", cfg.PageOrigin).
			Str("vault_state", v.State().String()).
			Msg("walletd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")

	// Outstanding approvals are rejected before connections drain.
	broker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	v.Lock()
}

func unlockFromTerminal(v *vault.Vault) {
	password, err := config.PromptForPassword("Vault password: ")
	if err != nil {
		log.Warn().Err(err).Msg("skipping unlock on start")
		return
	}
	defer clear(password)

	if err := v.Unlock(password); err != nil {
		log.Warn().Err(err).Msg("unlock on start failed, vault stays locked")
	}
}
