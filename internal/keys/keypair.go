package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/blake2b"
)

// Sui signature scheme flag for ed25519.
const ed25519Flag = 0x00

var (
	transactionIntent     = []byte{0, 0, 0}
	personalMessageIntent = []byte{3, 0, 0}
)

// Keypair is one derived ed25519 signing key. It is never persisted;
// Destroy zeroes it.
type Keypair struct {
	priv solana.PrivateKey
	pub  solana.PublicKey
}

func newKeypair(seed []byte) *Keypair {
	priv := solana.PrivateKey(ed25519.NewKeyFromSeed(seed))
	return &Keypair{
		priv: priv,
		pub:  priv.PublicKey(),
	}
}

// PublicKey returns the raw 32-byte ed25519 public key.
func (k *Keypair) PublicKey() []byte {
	return k.pub.Bytes()
}

// Address returns the Sui address: 0x-prefixed hex of
// BLAKE2b-256(flag || public key).
func (k *Keypair) Address() string {
	return AddressFromPublicKey(k.pub.Bytes())
}

// AddressFromPublicKey computes the Sui address of an ed25519 public key.
func AddressFromPublicKey(pub []byte) string {
	buf := make([]byte, 0, 1+len(pub))
	buf = append(buf, ed25519Flag)
	buf = append(buf, pub...)

	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:])
}

// Sign returns the raw 64-byte ed25519 signature over payload.
func (k *Keypair) Sign(payload []byte) ([]byte, error) {
	if len(k.priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKey
	}

	sig, err := k.priv.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return sig[:], nil
}

// SignTransaction signs BCS-encoded TransactionData with the transaction
// intent and returns the serialized Sui signature (base64).
func (k *Keypair) SignTransaction(txBytes []byte) (string, error) {
	return k.signWithIntent(transactionIntent, txBytes)
}

// SignPersonalMessage signs message with the personal-message intent. The
// message is BCS-encoded as vector<u8> before hashing.
func (k *Keypair) SignPersonalMessage(message []byte) (string, error) {
	body := binary.AppendUvarint(nil, uint64(len(message)))
	body = append(body, message...)

	return k.signWithIntent(personalMessageIntent, body)
}

func (k *Keypair) signWithIntent(intent, body []byte) (string, error) {
	msg := make([]byte, 0, len(intent)+len(body))
	msg = append(msg, intent...)
	msg = append(msg, body...)
	digest := blake2b.Sum256(msg)

	sig, err := k.Sign(digest[:])
	if err != nil {
		return "", err
	}

	serialized := make([]byte, 0, 1+len(sig)+ed25519.PublicKeySize)
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, sig...)
	serialized = append(serialized, k.pub.Bytes()...)

	return base64.StdEncoding.EncodeToString(serialized), nil
}

// Destroy zeroes the private key.
func (k *Keypair) Destroy() {
	if k == nil {
		return
	}
	clear(k.priv)
	k.priv = nil
}
