package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/skillbridge/internal/application"
	"github.com/hitoshi/skillbridge/internal/model"
)

// --- POST /api/applications テスト ---

func TestApplicationHandler_Apply_Success(t *testing.T) {
	svc := &mockApplicationService{
		applyFn: func(ctx context.Context, identity *model.Identity, jobID, coverLetter string) (*applicationResponse, error) {
			if identity.ID != testSeeker.ID || jobID != "job-1" || coverLetter != "<p>hi</p>" {
				t.Errorf("unexpected args: %q %q %q", identity.ID, jobID, coverLetter)
			}
			return &applicationResponse{ID: "app-1", JobID: jobID, ApplicantID: identity.ID, Status: model.StatusPending}, nil
		},
	}
	h := NewApplicationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/applications", bytes.NewBufferString(`{"jobId":"job-1","coverLetter":"<p>hi</p>"}`))
	req = withIdentity(req, testSeeker)
	w := httptest.NewRecorder()
	h.Apply(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	resp := decodeBody[applicationResponse](t, w)
	if resp.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", resp.Status, model.StatusPending)
	}
}

func TestApplicationHandler_Apply_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate", model.NewAlreadyAppliedError(), http.StatusConflict, model.ErrCodeAlreadyApplied},
		{"job missing", model.NewJobNotFoundError("job-1"), http.StatusNotFound, model.ErrCodeJobNotFound},
		{"employer", model.NewForbiddenError("application:apply"), http.StatusForbidden, model.ErrCodeForbidden},
		{"empty cover letter", model.NewValidationError("cover letter is required"), http.StatusBadRequest, model.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockApplicationService{
				applyFn: func(ctx context.Context, identity *model.Identity, jobID, coverLetter string) (*applicationResponse, error) {
					return nil, tt.err
				},
			}
			h := NewApplicationHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/applications", bytes.NewBufferString(`{"jobId":"job-1","coverLetter":"x"}`))
			req = withIdentity(req, testSeeker)
			w := httptest.NewRecorder()
			h.Apply(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := parseAPIErrorResponse(t, w)["code"]; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

// --- 一覧 テスト ---

func TestApplicationHandler_ListViews(t *testing.T) {
	view := applicationViewResponse{
		applicationResponse: applicationResponse{ID: "app-1", JobID: "job-1"},
		Job:                 applicationJobSummary{ID: "job-1", Title: "Go Engineer"},
		Applicant:           applicationApplicantSummary{ID: "seeker-1", Name: "Taro"},
	}
	var called string
	svc := &mockApplicationService{
		listForSeekerFn: func(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error) {
			called = "seeker"
			return []applicationViewResponse{view}, nil
		},
		listForEmployerFn: func(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error) {
			called = "employer"
			return []applicationViewResponse{view}, nil
		},
		listAllFn: func(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error) {
			called = "all"
			return []applicationViewResponse{view}, nil
		},
	}
	h := NewApplicationHandler(svc)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"seeker", h.ListMine, "seeker"},
		{"employer", h.ListForEmployer, "employer"},
		{"admin", h.ListAll, "all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/applications", nil), testAdmin)
			w := httptest.NewRecorder()
			tt.handler(w, req)

			if called != tt.want {
				t.Errorf("called = %q, want %q", called, tt.want)
			}
			views := decodeBody[[]map[string]any](t, w)
			if len(views) != 1 {
				t.Fatalf("len = %d, want 1", len(views))
			}
			jobSummary, ok := views[0]["job"].(map[string]any)
			if !ok || jobSummary["title"] != "Go Engineer" {
				t.Errorf("job summary = %v", views[0]["job"])
			}
			if views[0]["jobId"] != "job-1" {
				t.Errorf("jobId = %v, want job-1", views[0]["jobId"])
			}
		})
	}
}

// --- PUT /api/applications/{id}/status テスト ---

func TestApplicationHandler_UpdateStatus(t *testing.T) {
	svc := &mockApplicationService{
		updateStatusFn: func(ctx context.Context, identity *model.Identity, id string, in application.StatusUpdate) (*applicationResponse, error) {
			if id != "app-1" || in.Status != model.StatusReviewed {
				t.Errorf("unexpected args: %q %+v", id, in)
			}
			if in.Notes == nil || *in.Notes != "good" {
				t.Errorf("Notes = %v, want good", in.Notes)
			}
			return &applicationResponse{ID: id, Status: in.Status, Notes: *in.Notes}, nil
		},
	}
	h := NewApplicationHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/applications/app-1/status", bytes.NewBufferString(`{"status":"reviewed","notes":"good"}`))
	req = withChiURLParam(withIdentity(req, testEmployer), "id", "app-1")
	w := httptest.NewRecorder()
	h.UpdateStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestApplicationHandler_UpdateStatus_InvalidStatus(t *testing.T) {
	svc := &mockApplicationService{
		updateStatusFn: func(ctx context.Context, identity *model.Identity, id string, in application.StatusUpdate) (*applicationResponse, error) {
			return nil, model.NewInvalidStatusError(string(in.Status))
		},
	}
	h := NewApplicationHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/applications/app-1/status", bytes.NewBufferString(`{"status":"hired"}`))
	req = withChiURLParam(withIdentity(req, testEmployer), "id", "app-1")
	w := httptest.NewRecorder()
	h.UpdateStatus(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := parseAPIErrorResponse(t, w)["code"]; got != model.ErrCodeInvalidStatus {
		t.Errorf("code = %q, want %q", got, model.ErrCodeInvalidStatus)
	}
}

func TestApplicationHandler_Delete(t *testing.T) {
	svc := &mockApplicationService{
		deleteFn: func(ctx context.Context, identity *model.Identity, id string) error {
			if identity.Role != model.RoleAdmin {
				return model.NewForbiddenError("application:delete")
			}
			return nil
		},
	}
	h := NewApplicationHandler(svc)

	for _, tc := range []struct {
		identity   *model.Identity
		wantStatus int
	}{
		{testAdmin, http.StatusOK},
		{testEmployer, http.StatusForbidden},
	} {
		req := httptest.NewRequest(http.MethodDelete, "/api/applications/app-1", nil)
		req = withChiURLParam(withIdentity(req, tc.identity), "id", "app-1")
		w := httptest.NewRecorder()
		h.Delete(w, req)

		if w.Code != tc.wantStatus {
			t.Errorf("%s: status = %d, want %d", tc.identity.Role, w.Code, tc.wantStatus)
		}
	}
}
