package approval

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AlexZinkM/hoh-vault/internal/model"
)

var ErrInvalidParams = errors.New("invalid request params")

// Wallets is the part of the vault the approval surface signs with.
type Wallets interface {
	CurrentWallet() (model.Wallet, error)
	PublicKey(walletID string) ([]byte, error)
	SignTransactionBlock(walletID string, txBytes []byte) (string, error)
	SignPersonalMessage(walletID string, message []byte) (string, error)
}

// Executor submits signed transactions to the chain.
type Executor interface {
	ExecuteTransactionBlock(ctx context.Context, txBytes string, signatures []string) (json.RawMessage, error)
}

// Account is one wallet exposed to a connected page.
type Account struct {
	Address   string   `json:"address"`
	PublicKey []byte   `json:"publicKey"`
	Chains    []string `json:"chains"`
}

type connectResult struct {
	Accounts []Account `json:"accounts"`
}

type transactionParams struct {
	TransactionBlockBytes string `json:"transactionBlockBytes"`
}

type signedTransaction struct {
	Signature             string `json:"signature"`
	TransactionBlockBytes string `json:"transactionBlockBytes"`
}

type personalMessageParams struct {
	Message string `json:"message"`
}

type signedMessage struct {
	Signature string `json:"signature"`
	Bytes     string `json:"bytes"`
}

// Approver builds the result of an approved request with the current
// wallet.
type Approver struct {
	wallets  Wallets
	executor Executor
	chain    string
}

// NewApprover returns an Approver signing with wallets. executor may be nil,
// in which case signAndExecuteTransactionBlock cannot be approved.
func NewApprover(wallets Wallets, executor Executor, chain string) *Approver {
	return &Approver{wallets: wallets, executor: executor, chain: chain}
}

// Approve performs req with the current wallet and returns the result for
// the page.
func (a *Approver) Approve(ctx context.Context, req PendingRequest) (json.RawMessage, error) {
	current, err := a.wallets.CurrentWallet()
	if err != nil {
		return nil, err
	}

	var result any
	switch req.Method {
	case MethodConnect:
		pub, err := a.wallets.PublicKey(current.ID)
		if err != nil {
			return nil, err
		}
		result = connectResult{Accounts: []Account{{
			Address:   current.Address,
			PublicKey: pub,
			Chains:    []string{a.chain},
		}}}

	case MethodSignTransactionBlock:
		signed, err := a.signTransaction(current.ID, req.Params)
		if err != nil {
			return nil, err
		}
		result = signed

	case MethodSignAndExecuteTransactionBlock:
		if a.executor == nil {
			return nil, ErrUnsupportedMethod
		}
		signed, err := a.signTransaction(current.ID, req.Params)
		if err != nil {
			return nil, err
		}
		return a.executor.ExecuteTransactionBlock(ctx, signed.TransactionBlockBytes, []string{signed.Signature})

	case MethodSignPersonalMessage:
		var p personalMessageParams
		msg, err := decodeParam(req.Params, &p, func() string { return p.Message })
		if err != nil {
			return nil, err
		}
		sig, err := a.wallets.SignPersonalMessage(current.ID, msg)
		if err != nil {
			return nil, err
		}
		result = signedMessage{Signature: sig, Bytes: p.Message}

	default:
		return nil, ErrUnsupportedMethod
	}

	return json.Marshal(result)
}

// Decide runs Approve and wraps the outcome as a decision message.
func (a *Approver) Decide(ctx context.Context, req PendingRequest) Decision {
	result, err := a.Approve(ctx, req)
	if err != nil {
		return Rejected(req.ID, err.Error())
	}
	return Approved(req.ID, result)
}

func (a *Approver) signTransaction(walletID string, params json.RawMessage) (signedTransaction, error) {
	var p transactionParams
	tx, err := decodeParam(params, &p, func() string { return p.TransactionBlockBytes })
	if err != nil {
		return signedTransaction{}, err
	}

	sig, err := a.wallets.SignTransactionBlock(walletID, tx)
	if err != nil {
		return signedTransaction{}, err
	}
	return signedTransaction{Signature: sig, TransactionBlockBytes: p.TransactionBlockBytes}, nil
}

// decodeParam unmarshals params into dst and base64-decodes the field field
// returns.
func decodeParam(params json.RawMessage, dst any, field func() string) ([]byte, error) {
	if len(params) == 0 {
		return nil, ErrInvalidParams
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	encoded := field()
	if encoded == "" {
		return nil, ErrInvalidParams
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return raw, nil
}
