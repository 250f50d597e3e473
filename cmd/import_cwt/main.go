// import_cwt moves a legacy single-wallet .cwt file into the vault as a
// private key group. The legacy file is left untouched.
// Usage: go run ./cmd/import_cwt --file wallet.cwt [--db hoh-vault.db] [--name "Old wallet"]
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/hoh-vault/internal/config"
	"github.com/AlexZinkM/hoh-vault/internal/crypto"
	"github.com/AlexZinkM/hoh-vault/internal/vault"

	"github.com/jessevdk/go-flags"
)

type options struct {
	File string `long:"file" short:"f" description:"Legacy .cwt wallet file" required:"true"`
	DB   string `long:"db" env:"VAULT_DB_PATH" default:"hoh-vault.db" description:"Vault database path"`
	Name string `long:"name" description:"Name of the imported wallet group"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	legacyPassword, err := config.PromptForPassword("Legacy wallet password: ")
	if err != nil {
		return err
	}
	defer clear(legacyPassword)

	legacy, err := crypto.ReadLegacyWallet(opts.File, legacyPassword)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.File, err)
	}
	defer legacy.Seed.Destroy()

	store, err := vault.OpenBoltStore(opts.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	v, err := vault.Open(store)
	if err != nil {
		return err
	}

	prompt := "New vault password: "
	if v.State() != vault.StateEmpty {
		prompt = "Vault password: "
	}
	password, err := config.PromptForPassword(prompt)
	if err != nil {
		return err
	}
	defer clear(password)

	g, err := v.ImportGroup(hex.EncodeToString(legacy.Seed.Bytes()), password, vault.KindPrivateKey, opts.Name)
	if err != nil {
		return fmt.Errorf("failed to import wallet: %w", err)
	}
	v.Lock()

	address := g.Wallets[0].Address
	fmt.Printf("Imported %s as %q\n", address, g.Name)

	// The legacy file records the address the key had on its old chain.
	if legacy.Address != "" {
		fmt.Printf("Legacy %s address was %s\n", legacy.Network, legacy.Address)
	}
	return nil
}
