package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/skillbridge/internal/application"
	"github.com/hitoshi/skillbridge/internal/auth"
	"github.com/hitoshi/skillbridge/internal/job"
	"github.com/hitoshi/skillbridge/internal/middleware"
	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/user"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	registerFn      func(ctx context.Context, in auth.RegisterInput) (*authResponse, error)
	loginFn         func(ctx context.Context, email, password string) (*authResponse, error)
	getProfileFn    func(ctx context.Context, identity *model.Identity) (*userResponse, error)
	updateProfileFn func(ctx context.Context, identity *model.Identity, in user.ProfileUpdate) (*userResponse, error)
	listUsersFn     func(ctx context.Context, identity *model.Identity) ([]userResponse, error)
	deleteUserFn    func(ctx context.Context, identity *model.Identity, userID string) error
}

func (m *mockUserService) Register(ctx context.Context, in auth.RegisterInput) (*authResponse, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*authResponse, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockUserService) GetProfile(ctx context.Context, identity *model.Identity) (*userResponse, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, identity)
	}
	return nil, nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, identity *model.Identity, in user.ProfileUpdate) (*userResponse, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, identity, in)
	}
	return nil, nil
}

func (m *mockUserService) ListUsers(ctx context.Context, identity *model.Identity) ([]userResponse, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx, identity)
	}
	return nil, nil
}

func (m *mockUserService) DeleteUser(ctx context.Context, identity *model.Identity, userID string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(ctx, identity, userID)
	}
	return nil
}

// mockJobService はJobServiceInterfaceのモック実装。
type mockJobService struct {
	createFn   func(ctx context.Context, identity *model.Identity, in job.JobInput) (*jobResponse, error)
	listFn     func(ctx context.Context, filter model.JobFilter, page, pageSize int) (*jobPageResponse, error)
	listMineFn func(ctx context.Context, identity *model.Identity) ([]jobResponse, error)
	listAllFn  func(ctx context.Context, identity *model.Identity) ([]jobResponse, error)
	getFn      func(ctx context.Context, id string) (*jobResponse, error)
	updateFn   func(ctx context.Context, identity *model.Identity, id string, patch job.JobPatch) (*jobResponse, error)
	deleteFn   func(ctx context.Context, identity *model.Identity, id string) error
}

func (m *mockJobService) Create(ctx context.Context, identity *model.Identity, in job.JobInput) (*jobResponse, error) {
	if m.createFn != nil {
		return m.createFn(ctx, identity, in)
	}
	return nil, nil
}

func (m *mockJobService) List(ctx context.Context, filter model.JobFilter, page, pageSize int) (*jobPageResponse, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter, page, pageSize)
	}
	return &jobPageResponse{Jobs: []jobResponse{}}, nil
}

func (m *mockJobService) ListMine(ctx context.Context, identity *model.Identity) ([]jobResponse, error) {
	if m.listMineFn != nil {
		return m.listMineFn(ctx, identity)
	}
	return []jobResponse{}, nil
}

func (m *mockJobService) ListAll(ctx context.Context, identity *model.Identity) ([]jobResponse, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, identity)
	}
	return []jobResponse{}, nil
}

func (m *mockJobService) Get(ctx context.Context, id string) (*jobResponse, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockJobService) Update(ctx context.Context, identity *model.Identity, id string, patch job.JobPatch) (*jobResponse, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, identity, id, patch)
	}
	return nil, nil
}

func (m *mockJobService) Delete(ctx context.Context, identity *model.Identity, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, identity, id)
	}
	return nil
}

// mockApplicationService はApplicationServiceInterfaceのモック実装。
type mockApplicationService struct {
	applyFn           func(ctx context.Context, identity *model.Identity, jobID, coverLetter string) (*applicationResponse, error)
	listForSeekerFn   func(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error)
	listForEmployerFn func(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error)
	listAllFn         func(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error)
	updateStatusFn    func(ctx context.Context, identity *model.Identity, id string, in application.StatusUpdate) (*applicationResponse, error)
	deleteFn          func(ctx context.Context, identity *model.Identity, id string) error
}

func (m *mockApplicationService) Apply(ctx context.Context, identity *model.Identity, jobID, coverLetter string) (*applicationResponse, error) {
	if m.applyFn != nil {
		return m.applyFn(ctx, identity, jobID, coverLetter)
	}
	return nil, nil
}

func (m *mockApplicationService) ListForSeeker(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error) {
	if m.listForSeekerFn != nil {
		return m.listForSeekerFn(ctx, identity)
	}
	return []applicationViewResponse{}, nil
}

func (m *mockApplicationService) ListForEmployer(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error) {
	if m.listForEmployerFn != nil {
		return m.listForEmployerFn(ctx, identity)
	}
	return []applicationViewResponse{}, nil
}

func (m *mockApplicationService) ListAll(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, identity)
	}
	return []applicationViewResponse{}, nil
}

func (m *mockApplicationService) UpdateStatus(ctx context.Context, identity *model.Identity, id string, in application.StatusUpdate) (*applicationResponse, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, identity, id, in)
	}
	return nil, nil
}

func (m *mockApplicationService) Delete(ctx context.Context, identity *model.Identity, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, identity, id)
	}
	return nil
}

// --- テストヘルパー ---

var (
	testSeeker   = &model.Identity{ID: "seeker-1", Role: model.RoleJobSeeker}
	testEmployer = &model.Identity{ID: "emp-1", Role: model.RoleEmployer}
	testAdmin    = &model.Identity{ID: "admin-1", Role: model.RoleAdmin}
)

// withIdentity はテスト用にリクエストコンテキストに操作主体を注入するヘルパー。
func withIdentity(r *http.Request, identity *model.Identity) *http.Request {
	return r.WithContext(middleware.ContextWithIdentity(r.Context(), identity))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeBody はレスポンスボディを指定の型にデコードするヘルパー。
func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}
