package vault

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/AlexZinkM/hoh-vault/internal/keys"
	"github.com/AlexZinkM/hoh-vault/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AddWallets derives count new wallets in a mnemonic group. Indices are
// taken from the smallest unused ones, so gaps left by removed wallets are
// refilled before the range grows.
func (v *Vault) AddWallets(groupID string, count int) ([]model.Wallet, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateUnlocked {
		return nil, ErrVaultLocked
	}

	g := v.findGroup(groupID)
	if g == nil {
		return nil, ErrGroupNotFound
	}
	if g.kind != KindMnemonic {
		return nil, ErrImmutableGroup
	}
	if len(g.wallets)+count > MaxWalletsPerGroup {
		return nil, ErrGroupCapacityExceeded
	}

	indices := keys.NextFreeIndices(g.usedPaths(), count)
	added := make([]*wallet, 0, count)
	rollback := func() {
		for _, w := range added {
			w.keypair.Destroy()
		}
	}

	for i, index := range indices {
		w := &wallet{
			id:      uuid.NewString(),
			groupID: g.id,
			alias:   fmt.Sprintf("Wallet %d", len(g.wallets)+i+1),
			path:    keys.Path(index),
		}
		kp, err := keys.DeriveFromSeed(g.seed.Bytes(), w.path)
		if err != nil {
			rollback()
			return nil, err
		}
		w.address = kp.Address()
		w.keypair = kp
		added = append(added, w)
	}

	prev := g.wallets
	g.wallets = append(append([]*wallet(nil), prev...), added...)
	if err := v.commitLocked(nil, nil); err != nil {
		g.wallets = prev
		rollback()
		return nil, err
	}

	log.Info().
		Str("group_id", g.id).
		Int("added", count).
		Int("total", len(g.wallets)).
		Msg("wallets added")

	out := make([]model.Wallet, 0, len(added))
	for _, w := range added {
		out = append(out, v.walletView(w))
	}
	return out, nil
}

// RemoveWallet drops one wallet. A group left without wallets is removed
// together with its encrypted secret. The vault never removes its last
// wallet; use Reset for that. If the removed wallet was selected, the first
// remaining wallet becomes current.
func (v *Vault) RemoveWallet(walletID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateUnlocked {
		return ErrVaultLocked
	}

	g, w := v.findWallet(walletID)
	if w == nil {
		return ErrWalletNotFound
	}
	if v.walletCount() == 1 {
		return ErrLastWalletProtected
	}

	prevGroups, prevWallets, prevCurrent := v.groups, g.wallets, v.currentID

	remaining := make([]*wallet, 0, len(g.wallets)-1)
	for _, gw := range g.wallets {
		if gw.id != walletID {
			remaining = append(remaining, gw)
		}
	}
	g.wallets = remaining

	var deleteBlobs []string
	if len(remaining) == 0 {
		groups := make([]*group, 0, len(v.groups)-1)
		for _, vg := range v.groups {
			if vg.id != g.id {
				groups = append(groups, vg)
			}
		}
		v.groups = groups
		deleteBlobs = []string{g.id}
	}

	if v.currentID == walletID {
		v.currentID = v.firstWalletID()
	}

	if err := v.commitLocked(nil, deleteBlobs); err != nil {
		v.groups, g.wallets, v.currentID = prevGroups, prevWallets, prevCurrent
		return err
	}

	w.keypair.Destroy()
	w.keypair = nil
	if len(remaining) == 0 {
		g.destroy()
	}

	log.Info().Str("group_id", g.id).Msg("wallet removed")
	return nil
}

// RenameWallet sets a wallet's alias.
func (v *Vault) RenameWallet(walletID, alias string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateUnlocked {
		return ErrVaultLocked
	}
	_, w := v.findWallet(walletID)
	if w == nil {
		return ErrWalletNotFound
	}

	prev := w.alias
	w.alias = alias
	if err := v.commitLocked(nil, nil); err != nil {
		w.alias = prev
		return err
	}
	return nil
}

// RenameGroup sets a group's display name.
func (v *Vault) RenameGroup(groupID, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateUnlocked {
		return ErrVaultLocked
	}
	g := v.findGroup(groupID)
	if g == nil {
		return ErrGroupNotFound
	}

	prev := g.name
	g.name = name
	if err := v.commitLocked(nil, nil); err != nil {
		g.name = prev
		return err
	}
	return nil
}

// SwitchWallet selects the current wallet.
func (v *Vault) SwitchWallet(walletID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateUnlocked {
		return ErrVaultLocked
	}
	if _, w := v.findWallet(walletID); w == nil {
		return ErrWalletNotFound
	}

	prev := v.currentID
	v.currentID = walletID
	if err := v.commitLocked(nil, nil); err != nil {
		v.currentID = prev
		return err
	}
	return nil
}

// Sign returns the raw ed25519 signature of payload by the given wallet.
func (v *Vault) Sign(walletID string, payload []byte) ([]byte, error) {
	var sig []byte
	err := v.withKeypair(walletID, func(kp *keys.Keypair) error {
		var err error
		sig, err = kp.Sign(payload)
		return err
	})
	return sig, err
}

// SignTransactionBlock signs BCS transaction bytes and returns the
// serialized Sui signature.
func (v *Vault) SignTransactionBlock(walletID string, txBytes []byte) (string, error) {
	var sig string
	err := v.withKeypair(walletID, func(kp *keys.Keypair) error {
		var err error
		sig, err = kp.SignTransaction(txBytes)
		return err
	})
	return sig, err
}

// SignPersonalMessage signs message with the personal-message intent and
// returns the serialized Sui signature.
func (v *Vault) SignPersonalMessage(walletID string, message []byte) (string, error) {
	var sig string
	err := v.withKeypair(walletID, func(kp *keys.Keypair) error {
		var err error
		sig, err = kp.SignPersonalMessage(message)
		return err
	})
	return sig, err
}

// PublicKey returns the raw ed25519 public key of a wallet.
func (v *Vault) PublicKey(walletID string) ([]byte, error) {
	var pub []byte
	err := v.withKeypair(walletID, func(kp *keys.Keypair) error {
		pub = kp.PublicKey()
		return nil
	})
	return pub, err
}

func (v *Vault) withKeypair(walletID string, fn func(*keys.Keypair) error) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.state != StateUnlocked {
		return ErrVaultLocked
	}
	_, w := v.findWallet(walletID)
	if w == nil || w.keypair == nil {
		return ErrWalletNotFound
	}
	return fn(w.keypair)
}

// ExportCSV writes one row per wallet: group name, alias, address and
// derivation path ("N/A" for private key wallets).
func (v *Vault) ExportCSV(out io.Writer) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"Group Name", "Wallet Name", "Address", "Derivation Path"}); err != nil {
		return err
	}
	for _, g := range v.groups {
		for _, gw := range g.wallets {
			path := gw.path
			if path == "" {
				path = "N/A"
			}
			if err := w.Write([]string{g.name, gw.alias, gw.address, path}); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}
