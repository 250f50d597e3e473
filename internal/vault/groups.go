package vault

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/hoh-vault/internal/crypto"
	"github.com/AlexZinkM/hoh-vault/internal/keys"
	"github.com/AlexZinkM/hoh-vault/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateGroup creates a mnemonic wallet group with its first wallet at
// index 0. A mnemonic is generated when none is supplied. On a Locked vault
// the password must unlock the existing groups first; on an Unlocked vault
// it must be the vault password.
// password must be []byte for security (caller should zero it after use)
func (v *Vault) CreateGroup(password []byte, mnemonic string) (model.WalletGroup, error) {
	if err := checkPassword(password); err != nil {
		return model.WalletGroup{}, err
	}

	if mnemonic == "" {
		generated, err := keys.GenerateMnemonic()
		if err != nil {
			return model.WalletGroup{}, err
		}
		mnemonic = generated
	} else {
		mnemonic = keys.NormalizeMnemonic(mnemonic)
		if err := keys.ValidateMnemonic(mnemonic); err != nil {
			return model.WalletGroup{}, err
		}
	}

	return v.addGroup(password, KindMnemonic, mnemonic, "")
}

// ImportGroup adds a group from an existing mnemonic or private key. The
// secret is validated before anything is encrypted or written.
// password must be []byte for security (caller should zero it after use)
func (v *Vault) ImportGroup(secret string, password []byte, kind Kind, name string) (model.WalletGroup, error) {
	if err := checkPassword(password); err != nil {
		return model.WalletGroup{}, err
	}

	switch kind {
	case KindMnemonic:
		secret = keys.NormalizeMnemonic(secret)
		if err := keys.ValidateMnemonic(secret); err != nil {
			return model.WalletGroup{}, err
		}

	case KindPrivateKey:
		kp, err := keys.DeriveFromPrivateKey(secret)
		if err != nil {
			return model.WalletGroup{}, err
		}
		// Store one canonical encoding whatever the user pasted.
		secret, err = kp.ExportPrivateKey()
		kp.Destroy()
		if err != nil {
			return model.WalletGroup{}, err
		}

	default:
		return model.WalletGroup{}, ErrUnknownKind
	}

	return v.addGroup(password, kind, secret, name)
}

func (v *Vault) addGroup(password []byte, kind Kind, secret, name string) (model.WalletGroup, error) {
	secretBytes := []byte(secret)
	defer clear(secretBytes)

	v.mu.Lock()
	defer v.mu.Unlock()

	// A Locked vault is unlocked first and locked again if the group
	// cannot be added.
	wasLocked := v.state == StateLocked
	fail := func(g *group, err error) (model.WalletGroup, error) {
		if g != nil {
			g.destroy()
		}
		if wasLocked {
			v.lockLocked()
		}
		return model.WalletGroup{}, err
	}

	// One password for the whole vault, so the atomic unlock stays possible.
	switch v.state {
	case StateLocked:
		if err := v.unlockLocked(password); err != nil {
			return model.WalletGroup{}, err
		}
	case StateUnlocked:
		if err := v.verifyPasswordLocked(password); err != nil {
			return model.WalletGroup{}, err
		}
	}

	if name == "" {
		name = fmt.Sprintf("Wallet Group %d", len(v.groups)+1)
	}

	g := &group{
		id:     uuid.NewString(),
		name:   name,
		kind:   kind,
		secret: crypto.NewSecret(secretBytes),
	}
	w := &wallet{
		id:      uuid.NewString(),
		groupID: g.id,
		alias:   "Wallet 1",
	}
	if kind == KindMnemonic {
		w.path = keys.Path(0)
	}
	g.wallets = []*wallet{w}

	if err := materialize(g, false); err != nil {
		return fail(g, err)
	}

	blob, err := crypto.Encrypt(secretBytes, password)
	if err != nil {
		return fail(g, err)
	}

	prevCurrent := v.currentID
	v.groups = append(v.groups, g)
	v.currentID = w.id

	if err := v.commitLocked(map[string][]byte{g.id: blob.Bytes()}, nil); err != nil {
		v.groups = v.groups[:len(v.groups)-1]
		v.currentID = prevCurrent
		return fail(g, err)
	}
	v.state = StateUnlocked

	log.Info().
		Str("group_id", g.id).
		Str("kind", string(kind)).
		Msg("wallet group added")

	return v.groupView(g), nil
}

// Unlock decrypts every group's secret and re-derives all keypairs. Either
// every group unlocks or none does: any failure leaves the vault as it was
// and returns ErrAuthentication without naming the failing group.
// password must be []byte for security (caller should zero it after use)
func (v *Vault) Unlock(password []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == StateEmpty {
		return ErrVaultEmpty
	}
	return v.unlockLocked(password)
}

func (v *Vault) unlockLocked(password []byte) error {
	opened := make([]*group, 0, len(v.groups))
	abort := func() {
		for _, g := range opened {
			g.destroy()
		}
	}

	for _, g := range v.groups {
		clone, err := v.openGroup(g, password)
		if err != nil {
			abort()
			if errors.Is(err, ErrAuthentication) {
				log.Warn().Msg("vault unlock rejected")
			}
			return err
		}
		opened = append(opened, clone)
	}

	for _, g := range v.groups {
		g.destroy()
	}
	v.groups = opened
	if _, w := v.findWallet(v.currentID); w == nil {
		v.currentID = v.firstWalletID()
	}
	v.state = StateUnlocked

	log.Info().Int("groups", len(opened)).Msg("vault unlocked")
	return nil
}

// openGroup decrypts g's blob into a fresh copy of g with every keypair
// derived and checked against the stored addresses. Integrity failures are
// reported as ErrAuthentication.
func (v *Vault) openGroup(g *group, password []byte) (*group, error) {
	secret, err := v.decryptBlob(g.id, password)
	if err != nil {
		return nil, err
	}

	clone := &group{
		id:     g.id,
		name:   g.name,
		kind:   g.kind,
		secret: secret,
	}
	for _, w := range g.wallets {
		clone.wallets = append(clone.wallets, &wallet{
			id:      w.id,
			groupID: w.groupID,
			address: w.address,
			alias:   w.alias,
			path:    w.path,
		})
	}

	if err := materialize(clone, true); err != nil {
		clone.destroy()
		return nil, ErrAuthentication
	}
	return clone, nil
}

func (v *Vault) decryptBlob(groupID string, password []byte) (*crypto.Secret, error) {
	raw, err := v.store.LoadBlob(groupID)
	if errors.Is(err, ErrBlobNotFound) {
		return nil, ErrAuthentication
	}
	if err != nil {
		return nil, err
	}

	blob, err := crypto.ParseEncryptedBlob(raw)
	if err != nil {
		return nil, err
	}
	return crypto.DecryptSecret(blob, password)
}

func (v *Vault) verifyPasswordLocked(password []byte) error {
	if len(v.groups) == 0 {
		return nil
	}
	secret, err := v.decryptBlob(v.groups[0].id, password)
	if err != nil {
		return err
	}
	secret.Destroy()
	return nil
}

// materialize derives the seed and every wallet keypair of g from
// g.secret. With verify set each derived address must match the stored
// one; otherwise the address is filled in.
func materialize(g *group, verify bool) error {
	secret := string(g.secret.Bytes())

	switch g.kind {
	case KindMnemonic:
		seed, err := keys.SeedFromMnemonic(secret)
		if err != nil {
			return err
		}
		g.seed = crypto.NewSecret(seed)
		clear(seed)

		for _, w := range g.wallets {
			kp, err := keys.DeriveFromSeed(g.seed.Bytes(), w.path)
			if err != nil {
				return err
			}
			if err := attach(w, kp, verify); err != nil {
				return err
			}
		}
		return nil

	case KindPrivateKey:
		if len(g.wallets) != 1 {
			return ErrImmutableGroup
		}
		kp, err := keys.DeriveFromPrivateKey(secret)
		if err != nil {
			return err
		}
		return attach(g.wallets[0], kp, verify)

	default:
		return ErrUnknownKind
	}
}

func attach(w *wallet, kp *keys.Keypair, verify bool) error {
	if verify && kp.Address() != w.address {
		kp.Destroy()
		return fmt.Errorf("derived address mismatch for wallet %s", w.id)
	}
	w.address = kp.Address()
	w.keypair = kp
	return nil
}

// ChangePassword re-encrypts every group secret under newPassword in one
// atomic write and then locks the vault.
func (v *Vault) ChangePassword(oldPassword, newPassword []byte) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == StateEmpty {
		return ErrVaultEmpty
	}

	secrets := make([]*crypto.Secret, 0, len(v.groups))
	defer func() {
		for _, s := range secrets {
			s.Destroy()
		}
	}()
	for _, g := range v.groups {
		s, err := v.decryptBlob(g.id, oldPassword)
		if err != nil {
			return err
		}
		secrets = append(secrets, s)
	}

	puts := make(map[string][]byte, len(v.groups))
	for i, g := range v.groups {
		blob, err := crypto.Encrypt(secrets[i].Bytes(), newPassword)
		if err != nil {
			return err
		}
		puts[g.id] = blob.Bytes()
	}

	if err := v.commitLocked(puts, nil); err != nil {
		return err
	}
	v.lockLocked()

	log.Info().Msg("vault password changed")
	return nil
}

// ExportSecret decrypts and returns the mnemonic or private key backing a
// group, for backup. The password is required even when unlocked.
func (v *Vault) ExportSecret(groupID string, password []byte) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.findGroup(groupID) == nil {
		return "", ErrGroupNotFound
	}

	secret, err := v.decryptBlob(groupID, password)
	if err != nil {
		return "", err
	}
	defer secret.Destroy()

	return string(secret.Bytes()), nil
}

// ExportPrivateKey returns the bech32 private key of a single wallet.
func (v *Vault) ExportPrivateKey(walletID string, password []byte) (string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	g, w := v.findWallet(walletID)
	if w == nil {
		return "", ErrWalletNotFound
	}

	opened, err := v.openGroup(g, password)
	if err != nil {
		return "", err
	}
	defer opened.destroy()

	for _, ow := range opened.wallets {
		if ow.id == walletID {
			return ow.keypair.ExportPrivateKey()
		}
	}
	return "", ErrWalletNotFound
}

func (v *Vault) groupView(g *group) model.WalletGroup {
	mg := model.WalletGroup{
		ID:      g.id,
		Name:    g.name,
		Kind:    string(g.kind),
		Wallets: make([]model.Wallet, 0, len(g.wallets)),
	}
	for _, w := range g.wallets {
		mg.Wallets = append(mg.Wallets, v.walletView(w))
	}
	return mg
}
