// Package vault keeps the user's wallet groups. Each group is backed by one
// secret (a mnemonic or a single private key) stored only as an encrypted
// blob; signing keys are re-derived on every unlock and zeroed on lock.
package vault

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/AlexZinkM/hoh-vault/internal/crypto"
	"github.com/AlexZinkM/hoh-vault/internal/keys"
	"github.com/AlexZinkM/hoh-vault/internal/model"
)

const (
	// MaxWalletsPerGroup caps mnemonic groups.
	MaxWalletsPerGroup = 1000
	minPasswordLen     = 8
)

// Kind is the type of secret backing a wallet group.
type Kind string

const (
	KindMnemonic   Kind = "mnemonic"
	KindPrivateKey Kind = "privateKey"
)

// State is the lifecycle state of the vault.
type State int

const (
	StateEmpty State = iota
	StateLocked
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type wallet struct {
	id      string
	groupID string
	address string
	alias   string
	path    string // empty for private key wallets

	keypair *keys.Keypair // nil while locked
}

type group struct {
	id      string
	name    string
	kind    Kind
	wallets []*wallet

	// Plaintext material, present only while unlocked.
	secret *crypto.Secret
	seed   *crypto.Secret // BIP-39 seed, mnemonic groups only
}

// destroy zeroes every piece of key material held by the group.
func (g *group) destroy() {
	g.secret.Destroy()
	g.secret = nil
	g.seed.Destroy()
	g.seed = nil
	for _, w := range g.wallets {
		w.keypair.Destroy()
		w.keypair = nil
	}
}

func (g *group) usedPaths() []string {
	paths := make([]string, 0, len(g.wallets))
	for _, w := range g.wallets {
		if w.path != "" {
			paths = append(paths, w.path)
		}
	}
	return paths
}

// Vault is the encrypted multi-wallet key store. It is safe for concurrent
// use; CPU-heavy operations (unlock, group creation) hold the vault lock
// for their duration, so callers should run them off any latency-sensitive
// goroutine.
type Vault struct {
	mu sync.RWMutex

	store     Store
	state     State
	groups    []*group
	currentID string
}

// Open loads the vault metadata from store. The vault starts Empty when
// nothing is stored and Locked otherwise.
func Open(store Store) (*Vault, error) {
	snap, err := store.LoadSnapshot()
	if err != nil {
		return nil, err
	}

	v := &Vault{store: store}
	if snap == nil || len(snap.Groups) == 0 {
		v.state = StateEmpty
		return v, nil
	}

	for _, gs := range snap.Groups {
		g := &group{id: gs.ID, name: gs.Name, kind: gs.Kind}
		for _, ws := range gs.Wallets {
			g.wallets = append(g.wallets, &wallet{
				id:      ws.ID,
				groupID: gs.ID,
				address: ws.Address,
				alias:   ws.Alias,
				path:    ws.DerivationPath,
			})
		}
		v.groups = append(v.groups, g)
	}
	v.currentID = snap.CurrentWalletID
	v.state = StateLocked

	return v, nil
}

// State returns the current lifecycle state.
func (v *Vault) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Groups returns the metadata of every group. Available in any state.
func (v *Vault) Groups() []model.WalletGroup {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]model.WalletGroup, 0, len(v.groups))
	for _, g := range v.groups {
		out = append(out, v.groupView(g))
	}
	return out
}

// Wallets returns every wallet across all groups, in group order.
func (v *Vault) Wallets() []model.Wallet {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []model.Wallet
	for _, g := range v.groups {
		for _, w := range g.wallets {
			out = append(out, v.walletView(w))
		}
	}
	return out
}

// CurrentWallet returns the selected wallet.
func (v *Vault) CurrentWallet() (model.Wallet, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.state != StateUnlocked {
		return model.Wallet{}, ErrVaultLocked
	}
	_, w := v.findWallet(v.currentID)
	if w == nil {
		return model.Wallet{}, ErrWalletNotFound
	}
	return v.walletView(w), nil
}

// CurrentWalletID returns the id of the selected wallet, or "".
func (v *Vault) CurrentWalletID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.currentID
}

// Lock zeroes all decrypted secrets and keypairs. Metadata stays loaded.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lockLocked()
}

func (v *Vault) lockLocked() {
	for _, g := range v.groups {
		g.destroy()
	}
	if len(v.groups) == 0 {
		v.state = StateEmpty
	} else {
		v.state = StateLocked
	}
}

// Reset locks the vault and erases every persisted record.
func (v *Vault) Reset() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resetLocked()
}

// ResetWithPassword is Reset gated on the vault password. An Empty vault
// has no password and is always reset.
func (v *Vault) ResetWithPassword(password []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.verifyPasswordLocked(password); err != nil {
		return err
	}
	return v.resetLocked()
}

func (v *Vault) resetLocked() error {
	v.lockLocked()
	if err := v.store.Wipe(); err != nil {
		return fmt.Errorf("failed to wipe vault: %w", err)
	}

	v.groups = nil
	v.currentID = ""
	v.state = StateEmpty
	return nil
}

func (v *Vault) walletView(w *wallet) model.Wallet {
	return model.Wallet{
		ID:             w.id,
		GroupID:        w.groupID,
		Address:        w.address,
		Alias:          w.alias,
		DerivationPath: w.path,
		Current:        w.id == v.currentID,
	}
}

func (v *Vault) findGroup(id string) *group {
	for _, g := range v.groups {
		if g.id == id {
			return g
		}
	}
	return nil
}

func (v *Vault) findWallet(id string) (*group, *wallet) {
	for _, g := range v.groups {
		for _, w := range g.wallets {
			if w.id == id {
				return g, w
			}
		}
	}
	return nil, nil
}

func (v *Vault) firstWalletID() string {
	for _, g := range v.groups {
		if len(g.wallets) > 0 {
			return g.wallets[0].id
		}
	}
	return ""
}

func (v *Vault) walletCount() int {
	n := 0
	for _, g := range v.groups {
		n += len(g.wallets)
	}
	return n
}

// snapshot projects groups into their persisted, non-secret form.
func snapshot(groups []*group, currentID string) *Snapshot {
	snap := &Snapshot{
		Version:         snapshotVersion,
		CurrentWalletID: currentID,
		Groups:          make([]GroupSnapshot, 0, len(groups)),
	}
	for _, g := range groups {
		gs := GroupSnapshot{
			ID:      g.id,
			Name:    g.name,
			Kind:    g.kind,
			Wallets: make([]WalletSnapshot, 0, len(g.wallets)),
		}
		for _, w := range g.wallets {
			gs.Wallets = append(gs.Wallets, WalletSnapshot{
				ID:             w.id,
				Address:        w.address,
				Alias:          w.alias,
				DerivationPath: w.path,
			})
		}
		snap.Groups = append(snap.Groups, gs)
	}
	return snap
}

// commitLocked persists the current groups plus any blob changes.
func (v *Vault) commitLocked(putBlobs map[string][]byte, deleteBlobs []string) error {
	if err := v.store.Commit(snapshot(v.groups, v.currentID), putBlobs, deleteBlobs); err != nil {
		return fmt.Errorf("failed to persist vault: %w", err)
	}
	return nil
}

func checkPassword(password []byte) error {
	if utf8.RuneCount(password) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}
