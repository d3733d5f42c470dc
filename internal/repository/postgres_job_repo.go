package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/skillbridge/internal/database"
	"github.com/hitoshi/skillbridge/internal/jobquery"
	"github.com/hitoshi/skillbridge/internal/model"
)

const jobColumns = `id, employer_id, title, description, company, location, type, category,
	salary, requirements, skills, is_active, created_at, updated_at`

// jobSelectColumns は読み取り用の列。求人企業の名前と会社名を相関サブクエリで付与する。
// 一覧の検索条件が列名をそのまま参照するため、JOINは使わない。
const jobSelectColumns = jobColumns + `,
	COALESCE((SELECT u.name FROM users u WHERE u.id = jobs.employer_id), ''),
	COALESCE((SELECT u.company FROM users u WHERE u.id = jobs.employer_id), '')`

// PostgresJobRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresJobRepo struct {
	db *sql.DB
}

// NewPostgresJobRepo はPostgresJobRepoを生成する。
func NewPostgresJobRepo(db *sql.DB) *PostgresJobRepo {
	return &PostgresJobRepo{db: db}
}

func scanJob(row rowScanner) (*model.Job, error) {
	j := &model.Job{}
	var jobType string
	var requirements, skills pq.StringArray
	err := row.Scan(
		&j.ID, &j.EmployerID, &j.Title, &j.Description, &j.Company, &j.Location, &jobType, &j.Category,
		&j.Salary, &requirements, &skills, &j.IsActive, &j.CreatedAt, &j.UpdatedAt,
		&j.Employer.Name, &j.Employer.Company,
	)
	if err != nil {
		return nil, err
	}
	j.Type = model.JobType(jobType)
	j.Requirements = []string(requirements)
	j.Skills = []string(skills)
	return j, nil
}

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
func (r *PostgresJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx,
		`SELECT `+jobSelectColumns+` FROM jobs WHERE id = $1`, id))
	if isMissing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job by ID: %w", err)
	}
	return j, nil
}

// Create は求人を作成する。
func (r *PostgresJobRepo) Create(ctx context.Context, j *model.Job) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		j.ID, j.EmployerID, j.Title, j.Description, j.Company, j.Location, string(j.Type), j.Category,
		j.Salary, pq.Array(nonNil(j.Requirements)), pq.Array(nonNil(j.Skills)), j.IsActive,
		j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// Update は求人の可変項目を更新する。employer_idは対象外。
func (r *PostgresJobRepo) Update(ctx context.Context, j *model.Job) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET title = $2, description = $3, company = $4, location = $5, type = $6,
		 category = $7, salary = $8, requirements = $9, skills = $10, is_active = $11, updated_at = $12
		 WHERE id = $1`,
		j.ID, j.Title, j.Description, j.Company, j.Location, string(j.Type),
		j.Category, j.Salary, pq.Array(nonNil(j.Requirements)), pq.Array(nonNil(j.Skills)), j.IsActive, j.UpdatedAt,
	)
	if isMissing(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return expectAffected(result)
}

// List は条件に一致する求人をページングして返す。
func (r *PostgresJobRepo) List(ctx context.Context, filter model.JobFilter, page, size int) ([]*model.Job, int, error) {
	clause := jobquery.Build(filter)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs `+clause.Where, clause.Args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	args := append(append([]any{}, clause.Args...), size, jobquery.Offset(page, size))
	query := fmt.Sprintf(`SELECT %s FROM jobs %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		jobSelectColumns, clause.Where, jobquery.OrderBy, len(args)-1, len(args))

	jobs, err := r.queryJobs(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ListAll は条件に一致する求人をページングせずに返す。
func (r *PostgresJobRepo) ListAll(ctx context.Context, filter model.JobFilter) ([]*model.Job, error) {
	clause := jobquery.Build(filter)
	query := fmt.Sprintf(`SELECT %s FROM jobs %s ORDER BY %s`, jobSelectColumns, clause.Where, jobquery.OrderBy)
	return r.queryJobs(ctx, query, clause.Args...)
}

func (r *PostgresJobRepo) queryJobs(ctx context.Context, query string, args ...any) ([]*model.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*model.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job rows: %w", err)
	}
	return jobs, nil
}

// ListIDsByEmployer は求人企業が所有する求人のID一覧を返す。
func (r *PostgresJobRepo) ListIDsByEmployer(ctx context.Context, employerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM jobs WHERE employer_id = $1`, employerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job IDs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan job ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job IDs: %w", err)
	}
	return ids, nil
}

// DeleteCascade は求人とその応募を同一トランザクションで削除する。
// 求人行を先にロックするため、並行する応募の挿入はコミットまで待たされ、
// コミット後は外部キー違反で失敗する。
func (r *PostgresJobRepo) DeleteCascade(ctx context.Context, id string) (int, error) {
	var cascaded int
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		var lockedID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID)
		if isMissing(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock job: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE job_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete applications: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		cascaded = int(n)

		result, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete job: %w", err)
		}
		return expectAffected(result)
	})
	if err != nil {
		return 0, err
	}
	return cascaded, nil
}

// compile-time interface check
var _ JobRepository = (*PostgresJobRepo)(nil)
