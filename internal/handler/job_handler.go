package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/skillbridge/internal/job"
	"github.com/hitoshi/skillbridge/internal/middleware"
	"github.com/hitoshi/skillbridge/internal/model"
)

// JobServiceInterface は求人ハンドラーが必要とするサービスインターフェース。
type JobServiceInterface interface {
	Create(ctx context.Context, identity *model.Identity, in job.JobInput) (*jobResponse, error)
	List(ctx context.Context, filter model.JobFilter, page, pageSize int) (*jobPageResponse, error)
	ListMine(ctx context.Context, identity *model.Identity) ([]jobResponse, error)
	ListAll(ctx context.Context, identity *model.Identity) ([]jobResponse, error)
	Get(ctx context.Context, id string) (*jobResponse, error)
	Update(ctx context.Context, identity *model.Identity, id string, patch job.JobPatch) (*jobResponse, error)
	Delete(ctx context.Context, identity *model.Identity, id string) error
}

// JobHandler は求人管理のHTTPハンドラー。
type JobHandler struct {
	service JobServiceInterface
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

// createJobRequest は求人作成リクエスト。所有者はリクエストから受け付けない。
type createJobRequest struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Company      string        `json:"company"`
	Location     string        `json:"location"`
	Type         model.JobType `json:"type"`
	Category     string        `json:"category"`
	Salary       string        `json:"salary"`
	Requirements []string      `json:"requirements"`
	Skills       []string      `json:"skills"`
	IsActive     *bool         `json:"isActive"`
}

type updateJobRequest struct {
	Title        *string        `json:"title"`
	Description  *string        `json:"description"`
	Company      *string        `json:"company"`
	Location     *string        `json:"location"`
	Type         *model.JobType `json:"type"`
	Category     *string        `json:"category"`
	Salary       *string        `json:"salary"`
	Requirements *[]string      `json:"requirements"`
	Skills       *[]string      `json:"skills"`
	IsActive     *bool          `json:"isActive"`
}

// ListJobs は公開中の求人を検索条件とページ指定で返す。
// GET /api/jobs?search=&type=&category=&page=&limit=
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		handleServiceError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	q := r.URL.Query()
	filter := model.JobFilter{
		Search:   q.Get("search"),
		Type:     model.JobType(q.Get("type")),
		Category: q.Get("category"),
	}

	resp, err := h.service.List(r.Context(), filter, page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetJob は求人詳細を返す。非公開の求人もIDで参照できる。
// GET /api/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateJob は求人を作成する。
// POST /api/jobs
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), middleware.IdentityFromContext(r.Context()), job.JobInput{
		Title:        req.Title,
		Description:  req.Description,
		Company:      req.Company,
		Location:     req.Location,
		Type:         req.Type,
		Category:     req.Category,
		Salary:       req.Salary,
		Requirements: req.Requirements,
		Skills:       req.Skills,
		IsActive:     req.IsActive,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// UpdateJob は求人を部分更新する。
// PUT /api/jobs/{id}
func (h *JobHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var req updateJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Update(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), job.JobPatch{
		Title:        req.Title,
		Description:  req.Description,
		Company:      req.Company,
		Location:     req.Location,
		Type:         req.Type,
		Category:     req.Category,
		Salary:       req.Salary,
		Requirements: req.Requirements,
		Skills:       req.Skills,
		IsActive:     req.IsActive,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteJob は求人と関連する応募を削除する。
// DELETE /api/jobs/{id}
func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Job deleted"})
}

// ListMyJobs は操作主体が作成した求人を返す。
// GET /api/jobs/employer/my-jobs
func (h *JobHandler) ListMyJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListMine(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

// ListAllJobs は非公開を含む全求人を返す。
// GET /api/jobs/admin/all
func (h *JobHandler) ListAllJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListAll(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}
