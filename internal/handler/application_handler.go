package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/skillbridge/internal/application"
	"github.com/hitoshi/skillbridge/internal/middleware"
	"github.com/hitoshi/skillbridge/internal/model"
)

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Apply(ctx context.Context, identity *model.Identity, jobID, coverLetter string) (*applicationResponse, error)
	ListForSeeker(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error)
	ListForEmployer(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error)
	ListAll(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error)
	UpdateStatus(ctx context.Context, identity *model.Identity, id string, in application.StatusUpdate) (*applicationResponse, error)
	Delete(ctx context.Context, identity *model.Identity, id string) error
}

// ApplicationHandler は応募管理のHTTPハンドラー。
type ApplicationHandler struct {
	service ApplicationServiceInterface
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(service ApplicationServiceInterface) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

type applyRequest struct {
	JobID       string `json:"jobId"`
	CoverLetter string `json:"coverLetter"`
}

type updateStatusRequest struct {
	Status model.ApplicationStatus `json:"status"`
	Notes  *string                 `json:"notes"`
}

// Apply は求人に応募する。
// POST /api/applications
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Apply(r.Context(), middleware.IdentityFromContext(r.Context()), req.JobID, req.CoverLetter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ListMine は求職者自身の応募一覧を返す。
// GET /api/applications/my-applications
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.writeViews(w, r, h.service.ListForSeeker)
}

// ListForEmployer は求人企業の求人への応募一覧を返す。
// GET /api/applications/employer
func (h *ApplicationHandler) ListForEmployer(w http.ResponseWriter, r *http.Request) {
	h.writeViews(w, r, h.service.ListForEmployer)
}

// ListAll は全応募を返す。
// GET /api/applications
func (h *ApplicationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.writeViews(w, r, h.service.ListAll)
}

func (h *ApplicationHandler) writeViews(
	w http.ResponseWriter,
	r *http.Request,
	list func(context.Context, *model.Identity) ([]applicationViewResponse, error),
) {
	views, err := list(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// UpdateStatus は応募の選考ステータスとメモを更新する。
// PUT /api/applications/{id}/status, PUT /api/applications/{id}
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.UpdateStatus(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), application.StatusUpdate{
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete は応募を削除する。
// DELETE /api/applications/{id}
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Application deleted"})
}
