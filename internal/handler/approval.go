package handler

import (
	"net/http"

	"github.com/AlexZinkM/hoh-vault/internal/approval"
	"github.com/AlexZinkM/hoh-vault/internal/model"
)

// ApprovalHandler serves the approval surface
type ApprovalHandler struct {
	broker   *approval.Broker
	surfaces *approval.LocalSurfaces
	approver *approval.Approver
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(broker *approval.Broker, surfaces *approval.LocalSurfaces, approver *approval.Approver) *ApprovalHandler {
	return &ApprovalHandler{broker: broker, surfaces: surfaces, approver: approver}
}

// Pending handles GET /approval/pending
// @Summary      Pending approval
// @Description  Returns the single outstanding approval request, if any
// @Tags         approval
// @Produce      json
// @Success      200  {object}  model.PendingApprovalResponse
// @Router       /approval/pending [get]
func (h *ApprovalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	req, ok := h.broker.Pending()
	if !ok {
		writeJSON(w, http.StatusOK, model.PendingApprovalResponse{})
		return
	}

	writeJSON(w, http.StatusOK, model.PendingApprovalResponse{
		Pending:   true,
		RequestID: req.ID,
		SurfaceID: req.SurfaceID,
		Method:    string(req.Method),
		Params:    req.Params,
	})
}

// Surfaces handles GET /approval/surfaces
// @Summary      Open approval surfaces
// @Tags         approval
// @Produce      json
// @Success      200  {array}  approval.Surface
// @Router       /approval/surfaces [get]
func (h *ApprovalHandler) Surfaces(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.surfaces.Surfaces())
}

// Approve handles POST /approval/approve
// @Summary      Approve request
// @Description  Performs the pending request with the current wallet and settles it
// @Tags         approval
// @Accept       json
// @Produce      json
// @Param        request  body      model.ApprovalRequest  true  "Request id"
// @Success      200      {object}  model.ApprovalResultResponse
// @Router       /approval/approve [post]
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body model.ApprovalRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req, ok := h.broker.Pending()
	if !ok || req.ID != body.RequestID {
		writeJSON(w, http.StatusOK, model.ApprovalResultResponse{Settled: false})
		return
	}

	// A failed signing is reported to the page as a rejection.
	decision := h.approver.Decide(r.Context(), req)
	writeJSON(w, http.StatusOK, model.ApprovalResultResponse{
		Settled: h.broker.Decide(decision),
		Error:   decision.Error,
	})
}

// Reject handles POST /approval/reject
// @Summary      Reject request
// @Tags         approval
// @Accept       json
// @Produce      json
// @Param        request  body      model.ApprovalRequest  true  "Request id and optional reason"
// @Success      200      {object}  model.ApprovalResultResponse
// @Router       /approval/reject [post]
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body model.ApprovalRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.RequestID == "" {
		badRequest(w, "requestId is required")
		return
	}

	settled := h.broker.Decide(approval.Rejected(body.RequestID, body.Reason))
	writeJSON(w, http.StatusOK, model.ApprovalResultResponse{Settled: settled})
}

// Result handles POST /approval/result
// @Summary      Post decision
// @Description  Accepts a raw APPROVAL_RESULT message from the approval surface
// @Tags         approval
// @Accept       json
// @Produce      json
// @Param        request  body      approval.Decision  true  "Decision message"
// @Success      200      {object}  model.ApprovalResultResponse
// @Router       /approval/result [post]
func (h *ApprovalHandler) Result(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var d approval.Decision
	if !decodeBody(w, r, &d) {
		return
	}
	if d.Type != approval.DecisionType {
		badRequest(w, "type must be "+approval.DecisionType)
		return
	}
	if d.RequestID == "" {
		badRequest(w, "requestId is required")
		return
	}

	writeJSON(w, http.StatusOK, model.ApprovalResultResponse{Settled: h.broker.Decide(d)})
}

// Close handles POST /approval/close
// @Summary      Close approval surface
// @Description  Reports that the user closed the approval surface; an undecided request is rejected
// @Tags         approval
// @Accept       json
// @Produce      json
// @Param        request  body      model.SurfaceRequest  true  "Surface id"
// @Success      200      {object}  model.SuccessResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /approval/close [post]
func (h *ApprovalHandler) Close(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body model.SurfaceRequest
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.surfaces.Dismiss(body.SurfaceID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}
