// Package approval gates every privileged request from a page behind an
// explicit user decision. At most one request is outstanding at a time and
// every request settles exactly once.
package approval

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupportedMethod = errors.New("method not supported")
	ErrBusy              = errors.New("another approval request is pending")
	ErrSuperseded        = errors.New("approval request superseded")
	ErrUserRejected      = errors.New("user rejected")
	ErrShuttingDown      = errors.New("approval broker is shutting down")
	ErrSurfaceNotFound   = errors.New("approval surface not found")
)

// Method is a page method that needs approval.
type Method string

const (
	MethodConnect                        Method = "connect"
	MethodSignTransactionBlock           Method = "signTransactionBlock"
	MethodSignAndExecuteTransactionBlock Method = "signAndExecuteTransactionBlock"
	MethodSignPersonalMessage            Method = "signPersonalMessage"
)

// Supported reports whether m may be sent to the broker.
func (m Method) Supported() bool {
	switch m {
	case MethodConnect, MethodSignTransactionBlock,
		MethodSignAndExecuteTransactionBlock, MethodSignPersonalMessage:
		return true
	default:
		return false
	}
}

// PendingRequest is what the approval surface reads when it opens.
type PendingRequest struct {
	ID        string          `json:"id"`
	SurfaceID string          `json:"surfaceId"`
	Method    Method          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// DecisionType is the type tag of decision messages.
const DecisionType = "APPROVAL_RESULT"

// Decision is the message the approval surface posts back to the broker.
type Decision struct {
	Type      string          `json:"type"`
	Success   bool            `json:"success"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// Approved builds a successful decision for requestID.
func Approved(requestID string, result json.RawMessage) Decision {
	return Decision{Type: DecisionType, Success: true, Result: result, RequestID: requestID}
}

// Rejected builds a failed decision for requestID.
func Rejected(requestID, reason string) Decision {
	return Decision{Type: DecisionType, Error: reason, RequestID: requestID}
}

// err converts a failed decision into the error returned to the page.
func (d Decision) err() error {
	if d.Error == "" || d.Error == ErrUserRejected.Error() {
		return ErrUserRejected
	}
	return fmt.Errorf("%w: %s", ErrUserRejected, d.Error)
}
