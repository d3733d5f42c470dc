// Package job は求人の登録、検索、更新、削除のドメインロジックを提供する。
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/skillbridge/internal/jobquery"
	"github.com/hitoshi/skillbridge/internal/metrics"
	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/policy"
	"github.com/hitoshi/skillbridge/internal/repository"
	"github.com/hitoshi/skillbridge/internal/security"
)

// JobInput は求人作成の入力。
// 所有者は操作主体から決まるため、入力には含めない。
type JobInput struct {
	Title        string
	Description  string
	Company      string
	Location     string
	Type         model.JobType
	Category     string
	Salary       string
	Requirements []string
	Skills       []string
	IsActive     *bool // nilの場合はtrue
}

// JobPatch は求人更新の入力。nilのフィールドは変更しない。
type JobPatch struct {
	Title        *string
	Description  *string
	Company      *string
	Location     *string
	Type         *model.JobType
	Category     *string
	Salary       *string
	Requirements *[]string
	Skills       *[]string
	IsActive     *bool
}

// Service は求人管理のサービス層。
type Service struct {
	repo            repository.JobRepository
	policy          *policy.Policy
	sanitizer       security.Sanitizer
	metrics         metrics.Recorder
	defaultPageSize int
}

// NewService はServiceの新しいインスタンスを生成する。
// defaultPageSizeが0以下の場合はjobquery.DefaultPageSizeを使う。
func NewService(
	repo repository.JobRepository,
	pol *policy.Policy,
	sanitizer security.Sanitizer,
	recorder metrics.Recorder,
	defaultPageSize int,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if defaultPageSize <= 0 {
		defaultPageSize = jobquery.DefaultPageSize
	}
	return &Service{
		repo:            repo,
		policy:          pol,
		sanitizer:       sanitizer,
		metrics:         recorder,
		defaultPageSize: defaultPageSize,
	}
}

// Create は操作主体を所有者として求人を作成する。
func (s *Service) Create(ctx context.Context, identity *model.Identity, in JobInput) (*model.Job, error) {
	if err := s.policy.Authorize(identity, policy.ActionJobCreate); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &model.Job{
		ID:           uuid.New().String(),
		EmployerID:   identity.ID,
		Title:        s.sanitizer.StripTags(in.Title),
		Description:  s.sanitizer.Sanitize(in.Description),
		Company:      s.sanitizer.StripTags(in.Company),
		Location:     s.sanitizer.StripTags(in.Location),
		Type:         in.Type,
		Category:     s.sanitizer.StripTags(in.Category),
		Salary:       s.sanitizer.StripTags(in.Salary),
		Requirements: s.cleanList(in.Requirements),
		Skills:       s.cleanList(in.Skills),
		IsActive:     in.IsActive == nil || *in.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validate(job); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("求人の作成に失敗しました: %w", err)
	}

	s.metrics.RecordJobCreated()
	slog.Info("job created",
		slog.String("job_id", job.ID),
		slog.String("employer_id", job.EmployerID),
	)
	return job, nil
}

// List は公開中の求人を検索条件で絞り込み、新しい順にページングして返す。
// 認証は不要。
func (s *Service) List(ctx context.Context, filter model.JobFilter, page, pageSize int) (*model.JobPage, error) {
	if pageSize < 1 {
		pageSize = s.defaultPageSize
	}
	page, pageSize = jobquery.Normalize(page, pageSize)

	// 未定義の雇用形態はどの求人にも一致しない
	if filter.Type != "" && !filter.Type.Valid() {
		return &model.JobPage{Jobs: []*model.Job{}, CurrentPage: page, PageSize: pageSize}, nil
	}
	filter.ActiveOnly = true
	filter.EmployerID = ""

	jobs, total, err := s.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}

	return &model.JobPage{
		Jobs:        jobs,
		Total:       total,
		TotalPages:  jobquery.TotalPages(total, pageSize),
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

// ListMine は操作主体が所有する求人を公開状態に関係なく新しい順で返す。
func (s *Service) ListMine(ctx context.Context, identity *model.Identity) ([]*model.Job, error) {
	if err := s.policy.Authorize(identity, policy.ActionJobListMine); err != nil {
		return nil, err
	}
	jobs, err := s.repo.ListAll(ctx, model.JobFilter{EmployerID: identity.ID})
	if err != nil {
		return nil, fmt.Errorf("自社求人一覧の取得に失敗しました: %w", err)
	}
	return jobs, nil
}

// ListAll は全求人を新しい順で返す。管理者のみ。
func (s *Service) ListAll(ctx context.Context, identity *model.Identity) ([]*model.Job, error) {
	if err := s.policy.Authorize(identity, policy.ActionJobListAll); err != nil {
		return nil, err
	}
	jobs, err := s.repo.ListAll(ctx, model.JobFilter{})
	if err != nil {
		return nil, fmt.Errorf("全求人一覧の取得に失敗しました: %w", err)
	}
	return jobs, nil
}

// Get は指定IDの求人を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError(id)
	}
	return job, nil
}

// Update は求人を部分更新する。所有者と管理者のみ。所有者は変更できない。
func (s *Service) Update(ctx context.Context, identity *model.Identity, id string, patch JobPatch) (*model.Job, error) {
	if err := s.policy.Authorize(identity, policy.ActionJobUpdate); err != nil {
		return nil, err
	}

	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &policy.Resource{Kind: policy.ResourceJob, ID: job.ID, OwnerID: job.EmployerID}
	if err := s.policy.Check(identity, policy.ActionJobUpdate, res); err != nil {
		return nil, err
	}

	s.apply(job, patch)
	if err := validate(job); err != nil {
		return nil, err
	}
	job.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, job); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewJobNotFoundError(id)
		}
		return nil, fmt.Errorf("求人の更新に失敗しました: %w", err)
	}
	return job, nil
}

// Delete は求人と、その求人へのすべての応募を削除する。所有者と管理者のみ。
func (s *Service) Delete(ctx context.Context, identity *model.Identity, id string) error {
	if err := s.policy.AuthorizeResource(ctx, identity, policy.ActionJobDelete, id); err != nil {
		return err
	}

	cascaded, err := s.repo.DeleteCascade(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewJobNotFoundError(id)
		}
		return fmt.Errorf("求人の削除に失敗しました: %w", err)
	}

	s.metrics.RecordJobDeleted(cascaded)
	slog.Info("job deleted",
		slog.String("job_id", id),
		slog.String("deleted_by", identity.ID),
		slog.Int("cascaded_applications", cascaded),
	)
	return nil
}

func (s *Service) apply(job *model.Job, p JobPatch) {
	if p.Title != nil {
		job.Title = s.sanitizer.StripTags(*p.Title)
	}
	if p.Description != nil {
		job.Description = s.sanitizer.Sanitize(*p.Description)
	}
	if p.Company != nil {
		job.Company = s.sanitizer.StripTags(*p.Company)
	}
	if p.Location != nil {
		job.Location = s.sanitizer.StripTags(*p.Location)
	}
	if p.Type != nil {
		job.Type = *p.Type
	}
	if p.Category != nil {
		job.Category = s.sanitizer.StripTags(*p.Category)
	}
	if p.Salary != nil {
		job.Salary = s.sanitizer.StripTags(*p.Salary)
	}
	if p.Requirements != nil {
		job.Requirements = s.cleanList(*p.Requirements)
	}
	if p.Skills != nil {
		job.Skills = s.cleanList(*p.Skills)
	}
	if p.IsActive != nil {
		job.IsActive = *p.IsActive
	}
}

// cleanList はタグを除去し、空の要素を取り除く。
func (s *Service) cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := s.sanitizer.StripTags(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// validate は必須項目と雇用形態を検証する。サニタイズ後の値で判定する。
func validate(job *model.Job) error {
	required := []struct {
		name  string
		value string
	}{
		{"title", job.Title},
		{"description", job.Description},
		{"company", job.Company},
		{"location", job.Location},
		{"category", job.Category},
	}
	for _, f := range required {
		if f.value == "" {
			return model.NewValidationError(f.name + " is required")
		}
	}
	if !job.Type.Valid() {
		return model.NewInvalidJobTypeError(string(job.Type))
	}
	return nil
}
