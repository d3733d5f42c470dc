package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/skillbridge/internal/model"
)

const applicationColumns = `id, job_id, applicant_id, cover_letter, status, notes, created_at, updated_at`

// applicationViewQuery は一覧表示用に求人と応募者をJOINする。WHERE句は呼び出し側で付与する。
const applicationViewQuery = `SELECT a.id, a.job_id, a.applicant_id, a.cover_letter, a.status, a.notes,
	a.created_at, a.updated_at, j.title, j.company, j.type, j.location, u.name, u.email
	FROM applications a
	JOIN jobs j ON j.id = a.job_id
	JOIN users u ON u.id = a.applicant_id`

const applicationViewOrder = ` ORDER BY a.created_at DESC, a.id DESC`

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	a := &model.Application{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id,
	).Scan(&a.ID, &a.JobID, &a.ApplicantID, &a.CoverLetter, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if isMissing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application by ID: %w", err)
	}
	a.Status = model.ApplicationStatus(status)
	return a, nil
}

// Create は応募を作成する。
// 一意制約 applications_job_applicant_key の違反はErrDuplicate、
// 求人の外部キー違反はErrNotFoundに変換する。
func (r *PostgresApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.JobID, a.ApplicantID, a.CoverLetter, string(a.Status), a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		switch translated := translatePQError(err); {
		case errors.Is(translated, ErrDuplicate), errors.Is(translated, ErrNotFound):
			return translated
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// Update はステータスとメモを更新する。
func (r *PostgresApplicationRepo) Update(ctx context.Context, a *model.Application) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $2, notes = $3, updated_at = $4 WHERE id = $1`,
		a.ID, string(a.Status), a.Notes, a.UpdatedAt,
	)
	if isMissing(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	return expectAffected(result)
}

// ListByApplicant は応募者の応募一覧を返す。
func (r *PostgresApplicationRepo) ListByApplicant(ctx context.Context, applicantID string) ([]*model.ApplicationView, error) {
	return r.queryViews(ctx, applicationViewQuery+` WHERE a.applicant_id = $1`+applicationViewOrder, applicantID)
}

// ListByJobIDs は指定求人群への応募一覧を返す。
func (r *PostgresApplicationRepo) ListByJobIDs(ctx context.Context, jobIDs []string) ([]*model.ApplicationView, error) {
	if len(jobIDs) == 0 {
		return []*model.ApplicationView{}, nil
	}
	return r.queryViews(ctx, applicationViewQuery+` WHERE a.job_id = ANY($1)`+applicationViewOrder, pq.Array(jobIDs))
}

// ListAll は全応募を返す。
func (r *PostgresApplicationRepo) ListAll(ctx context.Context) ([]*model.ApplicationView, error) {
	return r.queryViews(ctx, applicationViewQuery+applicationViewOrder)
}

func (r *PostgresApplicationRepo) queryViews(ctx context.Context, query string, args ...any) ([]*model.ApplicationView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	views := []*model.ApplicationView{}
	for rows.Next() {
		v := &model.ApplicationView{}
		var status, jobType string
		if err := rows.Scan(
			&v.ID, &v.JobID, &v.ApplicantID, &v.CoverLetter, &status, &v.Notes,
			&v.CreatedAt, &v.UpdatedAt, &v.JobTitle, &v.JobCompany, &jobType, &v.JobLocation,
			&v.ApplicantName, &v.ApplicantEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		v.Status = model.ApplicationStatus(status)
		v.JobType = model.JobType(jobType)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate application rows: %w", err)
	}
	return views, nil
}

// Delete は指定IDの応募を削除する。
func (r *PostgresApplicationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if isMissing(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return expectAffected(result)
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
