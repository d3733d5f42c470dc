// Package application は求人への応募とその選考ステータスのライフサイクルを管理する。
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/skillbridge/internal/metrics"
	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/policy"
	"github.com/hitoshi/skillbridge/internal/repository"
	"github.com/hitoshi/skillbridge/internal/security"
)

// StatusUpdate はステータス更新の入力。Notesがnilの場合はメモを変更しない。
type StatusUpdate struct {
	Status model.ApplicationStatus
	Notes  *string
}

// Service は応募管理のサービス層。
type Service struct {
	apps      repository.ApplicationRepository
	jobs      repository.JobRepository
	policy    *policy.Policy
	sanitizer security.Sanitizer
	metrics   metrics.Recorder
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	apps repository.ApplicationRepository,
	jobs repository.JobRepository,
	pol *policy.Policy,
	sanitizer security.Sanitizer,
	recorder metrics.Recorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		apps:      apps,
		jobs:      jobs,
		policy:    pol,
		sanitizer: sanitizer,
		metrics:   recorder,
	}
}

// Apply は求職者として求人に応募する。
// 同じ求人への二重応募はストレージの一意制約で検出し、Conflictを返す。
// 求人の公開状態は確認しない。
func (s *Service) Apply(ctx context.Context, identity *model.Identity, jobID, coverLetter string) (*model.Application, error) {
	if err := s.policy.Authorize(identity, policy.ActionApplicationApply); err != nil {
		return nil, err
	}

	letter := s.sanitizer.Sanitize(coverLetter)
	if letter == "" {
		return nil, model.NewValidationError("coverLetter is required")
	}
	if jobID == "" {
		return nil, model.NewValidationError("jobId is required")
	}

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError(jobID)
	}

	now := time.Now()
	app := &model.Application{
		ID:          uuid.New().String(),
		JobID:       job.ID,
		ApplicantID: identity.ID,
		CoverLetter: letter,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.apps.Create(ctx, app); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.metrics.RecordApplicationConflict()
			return nil, model.NewAlreadyAppliedError()
		case errors.Is(err, repository.ErrNotFound):
			// 応募と同時に求人が削除された
			return nil, model.NewJobNotFoundError(jobID)
		}
		return nil, fmt.Errorf("応募の作成に失敗しました: %w", err)
	}

	s.metrics.RecordApplicationSubmitted()
	slog.Info("application submitted",
		slog.String("application_id", app.ID),
		slog.String("job_id", app.JobID),
		slog.String("applicant_id", app.ApplicantID),
	)
	return app, nil
}

// ListForSeeker は求職者自身の応募一覧を新しい順で返す。
func (s *Service) ListForSeeker(ctx context.Context, identity *model.Identity) ([]*model.ApplicationView, error) {
	if err := s.policy.Authorize(identity, policy.ActionApplicationListMine); err != nil {
		return nil, err
	}
	views, err := s.apps.ListByApplicant(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return views, nil
}

// ListForEmployer は求人企業が所有する求人への応募一覧を新しい順で返す。
func (s *Service) ListForEmployer(ctx context.Context, identity *model.Identity) ([]*model.ApplicationView, error) {
	if err := s.policy.Authorize(identity, policy.ActionApplicationListEmployer); err != nil {
		return nil, err
	}

	jobIDs, err := s.jobs.ListIDsByEmployer(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("自社求人の取得に失敗しました: %w", err)
	}
	if len(jobIDs) == 0 {
		return []*model.ApplicationView{}, nil
	}

	views, err := s.apps.ListByJobIDs(ctx, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return views, nil
}

// ListAll は全応募を新しい順で返す。管理者のみ。
func (s *Service) ListAll(ctx context.Context, identity *model.Identity) ([]*model.ApplicationView, error) {
	if err := s.policy.Authorize(identity, policy.ActionApplicationListAll); err != nil {
		return nil, err
	}
	views, err := s.apps.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return views, nil
}

// UpdateStatus は応募のステータスとメモを更新する。
// 判定順序は ロール → 存在 → 所有 → ステータス値 の順。
// 所有者は応募先求人の求人企業で、応募は一度だけ読み込む。
func (s *Service) UpdateStatus(ctx context.Context, identity *model.Identity, id string, in StatusUpdate) (*model.Application, error) {
	if err := s.policy.Authorize(identity, policy.ActionApplicationUpdateStatus); err != nil {
		return nil, err
	}

	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError(id)
	}
	job, err := s.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		return nil, fmt.Errorf("応募先求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		// 求人削除と同時に応募も消えている
		return nil, model.NewApplicationNotFoundError(id)
	}
	res := &policy.Resource{Kind: policy.ResourceApplication, ID: app.ID, OwnerID: job.EmployerID}
	if err := s.policy.Check(identity, policy.ActionApplicationUpdateStatus, res); err != nil {
		return nil, err
	}

	if !in.Status.Valid() || !model.CanTransition(app.Status, in.Status) {
		return nil, model.NewInvalidStatusError(string(in.Status))
	}

	previous := app.Status
	app.Status = in.Status
	if in.Notes != nil {
		app.Notes = s.sanitizer.Sanitize(*in.Notes)
	}
	app.UpdatedAt = time.Now()

	if err := s.apps.Update(ctx, app); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewApplicationNotFoundError(id)
		}
		return nil, fmt.Errorf("応募の更新に失敗しました: %w", err)
	}

	s.metrics.RecordStatusChange(string(app.Status))
	slog.Info("application status changed",
		slog.String("application_id", app.ID),
		slog.String("from", string(previous)),
		slog.String("to", string(app.Status)),
		slog.String("changed_by", identity.ID),
	)
	return app, nil
}

// Delete は応募を削除する。管理者のみ。
func (s *Service) Delete(ctx context.Context, identity *model.Identity, id string) error {
	if err := s.policy.Authorize(identity, policy.ActionApplicationDelete); err != nil {
		return err
	}
	if err := s.apps.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewApplicationNotFoundError(id)
		}
		return fmt.Errorf("応募の削除に失敗しました: %w", err)
	}

	slog.Info("application deleted",
		slog.String("application_id", id),
		slog.String("deleted_by", identity.ID),
	)
	return nil
}
