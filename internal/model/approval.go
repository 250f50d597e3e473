package model

import "encoding/json"

// PendingApprovalResponse represents response for GET /approval/pending
type PendingApprovalResponse struct {
	Pending   bool            `json:"pending"`
	RequestID string          `json:"requestId,omitempty"`
	SurfaceID string          `json:"surfaceId,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// ApprovalRequest represents request for POST /approval/approve and /approval/reject
type ApprovalRequest struct {
	RequestID string `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

// SurfaceRequest represents request for POST /approval/close
type SurfaceRequest struct {
	SurfaceID string `json:"surfaceId"`
}

// ApprovalResultResponse reports whether a decision settled the request
type ApprovalResultResponse struct {
	Settled bool   `json:"settled"`
	Error   string `json:"error,omitempty"`
}
