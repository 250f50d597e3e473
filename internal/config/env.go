package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: the vault password is never configured; it is prompted at runtime
// or sent by the approval UI.
type Config struct {
	Port             string `envconfig:"PORT" default:"8080"`
	VaultDBPath      string `envconfig:"VAULT_DB_PATH" default:"hoh-vault.db"`
	PageOrigin       string `envconfig:"PAGE_ORIGIN" required:"true"`
	ApprovalURL      string `envconfig:"APPROVAL_URL" default:"http://localhost:8080/approve"`
	SuiRPCURL        string `envconfig:"SUI_RPC_URL" default:"https://fullnode.mainnet.sui.io:443"`
	SuiChain         string `envconfig:"SUI_CHAIN" default:"sui:mainnet"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	UnlockOnStart    bool   `envconfig:"UNLOCK_ON_START" default:"false"`
	SupersedePending bool   `envconfig:"SUPERSEDE_PENDING" default:"false"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load reads a fresh Config from environment variables.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return c, nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// PromptForPassword prompts the user for a password in the terminal.
// The password is read without echoing (hidden input).
// Caller must zero the returned slice after use for security.
func PromptForPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return raw, nil
}
