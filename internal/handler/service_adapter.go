package handler

import (
	"context"

	"github.com/hitoshi/skillbridge/internal/application"
	"github.com/hitoshi/skillbridge/internal/auth"
	"github.com/hitoshi/skillbridge/internal/job"
	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/user"
)

// AccountServiceAdapter は auth.Service と user.Service を UserServiceInterface に適合させるアダプタ。
type AccountServiceAdapter struct {
	auth  *auth.Service
	users *user.Service
}

// NewAccountServiceAdapter はAccountServiceAdapterを生成する。
func NewAccountServiceAdapter(authSvc *auth.Service, userSvc *user.Service) *AccountServiceAdapter {
	return &AccountServiceAdapter{auth: authSvc, users: userSvc}
}

// Register はユーザーを登録しトークンを発行する。
func (a *AccountServiceAdapter) Register(ctx context.Context, in auth.RegisterInput) (*authResponse, error) {
	res, err := a.auth.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	resp := toAuthResponse(res)
	return &resp, nil
}

// Login は認証情報を検証しトークンを発行する。
func (a *AccountServiceAdapter) Login(ctx context.Context, email, password string) (*authResponse, error) {
	res, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	resp := toAuthResponse(res)
	return &resp, nil
}

// GetProfile は操作主体自身のプロフィールを返す。
func (a *AccountServiceAdapter) GetProfile(ctx context.Context, identity *model.Identity) (*userResponse, error) {
	u, err := a.users.GetProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

// UpdateProfile は操作主体自身のプロフィールを更新する。
func (a *AccountServiceAdapter) UpdateProfile(ctx context.Context, identity *model.Identity, in user.ProfileUpdate) (*userResponse, error) {
	u, err := a.users.UpdateProfile(ctx, identity, in)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(u)
	return &resp, nil
}

// ListUsers は全ユーザーを返す。
func (a *AccountServiceAdapter) ListUsers(ctx context.Context, identity *model.Identity) ([]userResponse, error) {
	users, err := a.users.ListUsers(ctx, identity)
	if err != nil {
		return nil, err
	}
	return toUserResponses(users), nil
}

// DeleteUser はユーザーと関連データを削除する。
func (a *AccountServiceAdapter) DeleteUser(ctx context.Context, identity *model.Identity, userID string) error {
	return a.users.DeleteUser(ctx, identity, userID)
}

// JobServiceAdapter は job.Service を JobServiceInterface に適合させるアダプタ。
type JobServiceAdapter struct {
	svc *job.Service
}

// NewJobServiceAdapter はJobServiceAdapterを生成する。
func NewJobServiceAdapter(svc *job.Service) *JobServiceAdapter {
	return &JobServiceAdapter{svc: svc}
}

func (a *JobServiceAdapter) Create(ctx context.Context, identity *model.Identity, in job.JobInput) (*jobResponse, error) {
	return jobResult(a.svc.Create(ctx, identity, in))
}

func (a *JobServiceAdapter) List(ctx context.Context, filter model.JobFilter, page, pageSize int) (*jobPageResponse, error) {
	p, err := a.svc.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	resp := toJobPageResponse(p)
	return &resp, nil
}

func (a *JobServiceAdapter) ListMine(ctx context.Context, identity *model.Identity) ([]jobResponse, error) {
	jobs, err := a.svc.ListMine(ctx, identity)
	if err != nil {
		return nil, err
	}
	return toJobResponses(jobs), nil
}

func (a *JobServiceAdapter) ListAll(ctx context.Context, identity *model.Identity) ([]jobResponse, error) {
	jobs, err := a.svc.ListAll(ctx, identity)
	if err != nil {
		return nil, err
	}
	return toJobResponses(jobs), nil
}

func (a *JobServiceAdapter) Get(ctx context.Context, id string) (*jobResponse, error) {
	return jobResult(a.svc.Get(ctx, id))
}

func (a *JobServiceAdapter) Update(ctx context.Context, identity *model.Identity, id string, patch job.JobPatch) (*jobResponse, error) {
	return jobResult(a.svc.Update(ctx, identity, id, patch))
}

func (a *JobServiceAdapter) Delete(ctx context.Context, identity *model.Identity, id string) error {
	return a.svc.Delete(ctx, identity, id)
}

func jobResult(j *model.Job, err error) (*jobResponse, error) {
	if err != nil {
		return nil, err
	}
	resp := toJobResponse(j)
	return &resp, nil
}

// ApplicationServiceAdapter は application.Service を ApplicationServiceInterface に適合させるアダプタ。
type ApplicationServiceAdapter struct {
	svc *application.Service
}

// NewApplicationServiceAdapter はApplicationServiceAdapterを生成する。
func NewApplicationServiceAdapter(svc *application.Service) *ApplicationServiceAdapter {
	return &ApplicationServiceAdapter{svc: svc}
}

// Apply は求人に応募する。
func (a *ApplicationServiceAdapter) Apply(ctx context.Context, identity *model.Identity, jobID, coverLetter string) (*applicationResponse, error) {
	app, err := a.svc.Apply(ctx, identity, jobID, coverLetter)
	if err != nil {
		return nil, err
	}
	resp := toApplicationResponse(app)
	return &resp, nil
}

func (a *ApplicationServiceAdapter) ListForSeeker(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error) {
	return viewResult(a.svc.ListForSeeker(ctx, identity))
}

func (a *ApplicationServiceAdapter) ListForEmployer(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error) {
	return viewResult(a.svc.ListForEmployer(ctx, identity))
}

func (a *ApplicationServiceAdapter) ListAll(ctx context.Context, identity *model.Identity) ([]applicationViewResponse, error) {
	return viewResult(a.svc.ListAll(ctx, identity))
}

// UpdateStatus は応募の選考ステータスを更新する。
func (a *ApplicationServiceAdapter) UpdateStatus(ctx context.Context, identity *model.Identity, id string, in application.StatusUpdate) (*applicationResponse, error) {
	app, err := a.svc.UpdateStatus(ctx, identity, id, in)
	if err != nil {
		return nil, err
	}
	resp := toApplicationResponse(app)
	return &resp, nil
}

func (a *ApplicationServiceAdapter) Delete(ctx context.Context, identity *model.Identity, id string) error {
	return a.svc.Delete(ctx, identity, id)
}

func viewResult(views []*model.ApplicationView, err error) ([]applicationViewResponse, error) {
	if err != nil {
		return nil, err
	}
	return toApplicationViewResponses(views), nil
}
