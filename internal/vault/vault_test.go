package vault

import (
	"bytes"
	"crypto/ed25519"
	"encoding/csv"
	"errors"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/hoh-vault/internal/crypto"
	"github.com/AlexZinkM/hoh-vault/internal/keys"

	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"
	testPassword = "correcthorsebattery"
)

var errCommitFailed = errors.New("commit failed")

// flakyStore fails Commit while failCommit is set.
type flakyStore struct {
	*BoltStore
	failCommit bool
}

func (s *flakyStore) Commit(snap *Snapshot, put map[string][]byte, del []string) error {
	if s.failCommit {
		return errCommitFailed
	}
	return s.BoltStore.Commit(snap, put, del)
}

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()

	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestVault(t *testing.T) (*Vault, *BoltStore) {
	t.Helper()

	store := newTestStore(t)
	v, err := Open(store)
	require.NoError(t, err)
	return v, store
}

func TestOpenEmpty(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)
	require.Equal(t, StateEmpty, v.State())
	require.Empty(t, v.Groups())
	require.ErrorIs(t, v.Unlock([]byte(testPassword)), ErrVaultEmpty)
}

func TestCreateGroupWeakPassword(t *testing.T) {
	t.Parallel()

	v, store := newTestVault(t)

	_, err := v.CreateGroup([]byte("short"), testMnemonic)
	require.ErrorIs(t, err, ErrWeakPassword)
	require.Equal(t, StateEmpty, v.State())

	snap, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestPasswordLengthCountsCharacters(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)

	_, err := v.CreateGroup([]byte("пароль"), testMnemonic)
	require.ErrorIs(t, err, ErrWeakPassword)
	// Four characters, twelve bytes.
	_, err = v.CreateGroup([]byte("日本語だ"), testMnemonic)
	require.ErrorIs(t, err, ErrWeakPassword)
	require.Equal(t, StateEmpty, v.State())

	_, err = v.CreateGroup([]byte("日本語のパスワード"), testMnemonic)
	require.NoError(t, err)
}

func TestCreateGroupRoundTrip(t *testing.T) {
	t.Parallel()

	v, store := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)
	require.Equal(t, StateUnlocked, v.State())
	require.Equal(t, "Wallet Group 1", g.Name)
	require.Equal(t, string(KindMnemonic), g.Kind)
	require.Len(t, g.Wallets, 1)
	require.Equal(t, keys.Path(0), g.Wallets[0].DerivationPath)
	require.True(t, g.Wallets[0].Current)

	want, err := keys.DeriveFromMnemonic(testMnemonic, keys.Path(0))
	require.NoError(t, err)
	require.Equal(t, want.Address(), g.Wallets[0].Address)

	raw, err := store.LoadBlob(g.ID)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "abandon")

	blob, err := crypto.ParseEncryptedBlob(raw)
	require.NoError(t, err)
	plain, err := crypto.Decrypt(blob, []byte(testPassword))
	require.NoError(t, err)
	require.Equal(t, testMnemonic, string(plain))

	secret, err := v.ExportSecret(g.ID, []byte(testPassword))
	require.NoError(t, err)
	require.Equal(t, testMnemonic, secret)

	_, err = v.ExportSecret(g.ID, []byte("wrong password"))
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestCreateGroupGeneratesMnemonic(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), "")
	require.NoError(t, err)

	secret, err := v.ExportSecret(g.ID, []byte(testPassword))
	require.NoError(t, err)
	require.NoError(t, keys.ValidateMnemonic(secret))
}

func TestImportGroupValidation(t *testing.T) {
	t.Parallel()

	v, store := newTestVault(t)

	_, err := v.ImportGroup("abandon abandon abandon", []byte(testPassword), KindMnemonic, "")
	require.ErrorIs(t, err, ErrInvalidMnemonic)

	_, err = v.ImportGroup("not-a-key", []byte(testPassword), KindPrivateKey, "")
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = v.ImportGroup(testMnemonic, []byte(testPassword), Kind("ledger"), "")
	require.ErrorIs(t, err, ErrUnknownKind)

	require.Equal(t, StateEmpty, v.State())
	snap, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestImportPrivateKeyGroupIsImmutable(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)

	kp, err := keys.DeriveFromMnemonic(testMnemonic, keys.Path(5))
	require.NoError(t, err)
	encoded, err := kp.ExportPrivateKey()
	require.NoError(t, err)

	g, err := v.ImportGroup(encoded, []byte(testPassword), KindPrivateKey, "Imported")
	require.NoError(t, err)
	require.Equal(t, "Imported", g.Name)
	require.Len(t, g.Wallets, 1)
	require.Equal(t, kp.Address(), g.Wallets[0].Address)
	require.Empty(t, g.Wallets[0].DerivationPath)

	_, err = v.AddWallets(g.ID, 1)
	require.ErrorIs(t, err, ErrImmutableGroup)

	exported, err := v.ExportPrivateKey(g.Wallets[0].ID, []byte(testPassword))
	require.NoError(t, err)
	require.Equal(t, encoded, exported)
}

func TestSecondGroupRequiresVaultPassword(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)

	_, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	_, err = v.CreateGroup([]byte("another password"), "")
	require.ErrorIs(t, err, ErrAuthentication)
	require.Len(t, v.Groups(), 1)

	// Creating on a Locked vault unlocks it first.
	v.Lock()
	g, err := v.CreateGroup([]byte(testPassword), "")
	require.NoError(t, err)
	require.Equal(t, "Wallet Group 2", g.Name)
	require.Equal(t, StateUnlocked, v.State())
	require.Len(t, v.Wallets(), 2)
}

func TestLockUnlock(t *testing.T) {
	t.Parallel()

	v, store := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)
	walletID := g.Wallets[0].ID

	v.Lock()
	require.Equal(t, StateLocked, v.State())
	_, err = v.Sign(walletID, []byte("payload"))
	require.ErrorIs(t, err, ErrVaultLocked)
	_, err = v.CurrentWallet()
	require.ErrorIs(t, err, ErrVaultLocked)

	// Metadata stays readable while locked.
	require.Len(t, v.Groups(), 1)

	require.ErrorIs(t, v.Unlock([]byte("wrong password")), ErrAuthentication)
	require.Equal(t, StateLocked, v.State())

	// A fresh process sees the same vault.
	reopened, err := Open(store)
	require.NoError(t, err)
	require.Equal(t, StateLocked, reopened.State())
	require.NoError(t, reopened.Unlock([]byte(testPassword)))

	current, err := reopened.CurrentWallet()
	require.NoError(t, err)
	require.Equal(t, walletID, current.ID)

	sig, err := reopened.Sign(walletID, []byte("payload"))
	require.NoError(t, err)
	pub, err := reopened.PublicKey(walletID)
	require.NoError(t, err)
	require.True(t, ed25519.Verify(pub, []byte("payload"), sig))

	_, err = reopened.Sign("stale-id", []byte("payload"))
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestUnlockIsAtomic(t *testing.T) {
	t.Parallel()

	v, store := newTestVault(t)

	a, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)
	b, err := v.CreateGroup([]byte(testPassword), "")
	require.NoError(t, err)

	// Re-encrypt group B under a different password behind the vault's back.
	bSecret, err := v.ExportSecret(b.ID, []byte(testPassword))
	require.NoError(t, err)
	blob, err := crypto.Encrypt([]byte(bSecret), []byte("a different password"))
	require.NoError(t, err)
	snap, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.NoError(t, store.Commit(snap, map[string][]byte{b.ID: blob.Bytes()}, nil))

	reopened, err := Open(store)
	require.NoError(t, err)

	err = reopened.Unlock([]byte(testPassword))
	require.ErrorIs(t, err, ErrAuthentication)
	require.Equal(t, StateLocked, reopened.State())

	_, err = reopened.Sign(a.Wallets[0].ID, []byte("payload"))
	require.ErrorIs(t, err, ErrVaultLocked)
	_, err = reopened.Sign(b.Wallets[0].ID, []byte("payload"))
	require.ErrorIs(t, err, ErrVaultLocked)
}

func TestUnlockMissingBlob(t *testing.T) {
	t.Parallel()

	v, store := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	snap, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.NoError(t, store.Commit(snap, nil, []string{g.ID}))

	reopened, err := Open(store)
	require.NoError(t, err)
	require.ErrorIs(t, reopened.Unlock([]byte(testPassword)), ErrAuthentication)
}

func TestAddWalletsReusesPathGaps(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	added, err := v.AddWallets(g.ID, 2)
	require.NoError(t, err)
	require.Len(t, added, 2)
	require.Equal(t, keys.Path(1), added[0].DerivationPath)
	require.Equal(t, keys.Path(2), added[1].DerivationPath)
	require.Equal(t, "Wallet 2", added[0].Alias)
	require.Equal(t, "Wallet 3", added[1].Alias)

	require.NoError(t, v.RemoveWallet(added[0].ID))

	again, err := v.AddWallets(g.ID, 1)
	require.NoError(t, err)
	require.Len(t, again, 1)
	require.Equal(t, keys.Path(1), again[0].DerivationPath)

	want, err := keys.DeriveFromMnemonic(testMnemonic, keys.Path(1))
	require.NoError(t, err)
	require.Equal(t, want.Address(), again[0].Address)
}

func TestAddWalletsValidation(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	_, err = v.AddWallets(g.ID, 0)
	require.ErrorIs(t, err, ErrInvalidCount)

	_, err = v.AddWallets("missing", 1)
	require.ErrorIs(t, err, ErrGroupNotFound)

	v.Lock()
	_, err = v.AddWallets(g.ID, 1)
	require.ErrorIs(t, err, ErrVaultLocked)
}

func TestAddWalletsCapacity(t *testing.T) {
	if testing.Short() {
		t.Skip("derives a full wallet group")
	}
	t.Parallel()

	v, _ := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	_, err = v.AddWallets(g.ID, MaxWalletsPerGroup)
	require.ErrorIs(t, err, ErrGroupCapacityExceeded)

	_, err = v.AddWallets(g.ID, MaxWalletsPerGroup-2)
	require.NoError(t, err)
	require.Len(t, v.Wallets(), MaxWalletsPerGroup-1)

	_, err = v.AddWallets(g.ID, 1)
	require.NoError(t, err)
	require.Len(t, v.Wallets(), MaxWalletsPerGroup)

	_, err = v.AddWallets(g.ID, 1)
	require.ErrorIs(t, err, ErrGroupCapacityExceeded)
	require.Len(t, v.Wallets(), MaxWalletsPerGroup)
}

func TestAddWalletsRollsBackOnCommitFailure(t *testing.T) {
	t.Parallel()

	store := &flakyStore{BoltStore: newTestStore(t)}
	v, err := Open(store)
	require.NoError(t, err)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	store.failCommit = true
	_, err = v.AddWallets(g.ID, 3)
	require.ErrorIs(t, err, errCommitFailed)
	require.Len(t, v.Wallets(), 1)

	store.failCommit = false
	added, err := v.AddWallets(g.ID, 1)
	require.NoError(t, err)
	require.Equal(t, keys.Path(1), added[0].DerivationPath)
}

func TestCreateGroupOnLockedVaultRelocksOnCommitFailure(t *testing.T) {
	t.Parallel()

	store := &flakyStore{BoltStore: newTestStore(t)}
	v, err := Open(store)
	require.NoError(t, err)

	_, err = v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)
	v.Lock()

	store.failCommit = true
	_, err = v.CreateGroup([]byte(testPassword), "")
	require.ErrorIs(t, err, errCommitFailed)
	require.Equal(t, StateLocked, v.State())
	require.Len(t, v.Groups(), 1)

	_, err = v.ImportGroup(testMnemonic, []byte(testPassword), KindMnemonic, "")
	require.ErrorIs(t, err, errCommitFailed)
	require.Equal(t, StateLocked, v.State())

	store.failCommit = false
	require.NoError(t, v.Unlock([]byte(testPassword)))
	require.Len(t, v.Groups(), 1)
}

func TestRemoveWallet(t *testing.T) {
	t.Parallel()

	v, store := newTestVault(t)

	a, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)
	b, err := v.CreateGroup([]byte(testPassword), "")
	require.NoError(t, err)

	// Group B's wallet is current after creation.
	require.Equal(t, b.Wallets[0].ID, v.CurrentWalletID())

	require.NoError(t, v.RemoveWallet(b.Wallets[0].ID))
	require.Len(t, v.Groups(), 1)
	require.Equal(t, a.Wallets[0].ID, v.CurrentWalletID())

	_, err = store.LoadBlob(b.ID)
	require.ErrorIs(t, err, ErrBlobNotFound)

	require.ErrorIs(t, v.RemoveWallet(a.Wallets[0].ID), ErrLastWalletProtected)
	require.ErrorIs(t, v.RemoveWallet("missing"), ErrWalletNotFound)
	require.Len(t, v.Wallets(), 1)
}

func TestRenameAndSwitch(t *testing.T) {
	t.Parallel()

	v, store := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)
	added, err := v.AddWallets(g.ID, 1)
	require.NoError(t, err)

	require.NoError(t, v.RenameWallet(added[0].ID, "Savings"))
	require.NoError(t, v.RenameGroup(g.ID, "Main"))
	require.NoError(t, v.SwitchWallet(added[0].ID))

	require.ErrorIs(t, v.RenameWallet("missing", "x"), ErrWalletNotFound)
	require.ErrorIs(t, v.RenameGroup("missing", "x"), ErrGroupNotFound)
	require.ErrorIs(t, v.SwitchWallet("missing"), ErrWalletNotFound)

	reopened, err := Open(store)
	require.NoError(t, err)
	groups := reopened.Groups()
	require.Len(t, groups, 1)
	require.Equal(t, "Main", groups[0].Name)
	require.Equal(t, "Savings", groups[0].Wallets[1].Alias)
	require.True(t, groups[0].Wallets[1].Current)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	require.ErrorIs(t, v.ChangePassword([]byte(testPassword), []byte("short")), ErrWeakPassword)
	require.ErrorIs(t, v.ChangePassword([]byte("wrong password"), []byte("new password!")), ErrAuthentication)
	require.Equal(t, StateUnlocked, v.State())

	require.NoError(t, v.ChangePassword([]byte(testPassword), []byte("new password!")))
	require.Equal(t, StateLocked, v.State())

	require.ErrorIs(t, v.Unlock([]byte(testPassword)), ErrAuthentication)
	require.NoError(t, v.Unlock([]byte("new password!")))

	secret, err := v.ExportSecret(g.ID, []byte("new password!"))
	require.NoError(t, err)
	require.Equal(t, testMnemonic, secret)
}

func TestReset(t *testing.T) {
	t.Parallel()

	v, store := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	require.NoError(t, v.Reset())
	require.Equal(t, StateEmpty, v.State())
	require.Empty(t, v.Groups())

	snap, err := store.LoadSnapshot()
	require.NoError(t, err)
	require.Nil(t, snap)
	_, err = store.LoadBlob(g.ID)
	require.ErrorIs(t, err, ErrBlobNotFound)

	// A reset vault accepts a new password.
	_, err = v.CreateGroup([]byte("brand new password"), "")
	require.NoError(t, err)

	require.ErrorIs(t, v.ResetWithPassword([]byte(testPassword)), ErrAuthentication)
	require.Equal(t, StateUnlocked, v.State())
	require.Len(t, v.Groups(), 1)

	require.NoError(t, v.ResetWithPassword([]byte("brand new password")))
	require.Equal(t, StateEmpty, v.State())
	require.NoError(t, v.ResetWithPassword(nil))

	_, err = v.CreateGroup([]byte("brand new password"), "")
	require.NoError(t, err)
}

func TestSignIntents(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)
	id := g.Wallets[0].ID

	kp, err := keys.DeriveFromMnemonic(testMnemonic, keys.Path(0))
	require.NoError(t, err)

	tx := []byte{1, 2, 3, 4}
	got, err := v.SignTransactionBlock(id, tx)
	require.NoError(t, err)
	want, err := kp.SignTransaction(tx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	got, err = v.SignPersonalMessage(id, []byte("hello"))
	require.NoError(t, err)
	want, err = kp.SignPersonalMessage([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	v, _ := newTestVault(t)

	g, err := v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	kp, err := keys.DeriveFromMnemonic(testMnemonic, keys.Path(9))
	require.NoError(t, err)
	encoded, err := kp.ExportPrivateKey()
	require.NoError(t, err)
	_, err = v.ImportGroup(encoded, []byte(testPassword), KindPrivateKey, "Imported")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, v.ExportCSV(&buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Group Name", "Wallet Name", "Address", "Derivation Path"},
		{"Wallet Group 1", "Wallet 1", g.Wallets[0].Address, keys.Path(0)},
		{"Imported", "Wallet 1", kp.Address(), "N/A"},
	}, rows)
}
