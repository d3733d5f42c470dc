package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/skillbridge/internal/database"
	"github.com/hitoshi/skillbridge/internal/model"
)

const userColumns = `id, name, email, password_hash, role,
	bio, skills, experience, education, resume, company, website,
	created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var role string
	var skills pq.StringArray
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role,
		&u.Profile.Bio, &skills, &u.Profile.Experience, &u.Profile.Education,
		&u.Profile.Resume, &u.Profile.Company, &u.Profile.Website,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	u.Profile.Skills = []string(skills)
	return u, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if isMissing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return u, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return u, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role),
		u.Profile.Bio, pq.Array(nonNil(u.Profile.Skills)), u.Profile.Experience, u.Profile.Education,
		u.Profile.Resume, u.Profile.Company, u.Profile.Website,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(translatePQError(err), ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateProfile は名前とプロフィールを更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, bio = $3, skills = $4, experience = $5, education = $6,
		 resume = $7, company = $8, website = $9, updated_at = $10
		 WHERE id = $1`,
		u.ID, u.Name, u.Profile.Bio, pq.Array(nonNil(u.Profile.Skills)), u.Profile.Experience,
		u.Profile.Education, u.Profile.Resume, u.Profile.Company, u.Profile.Website, u.UpdatedAt,
	)
	if isMissing(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return expectAffected(result)
}

// List は全ユーザーを作成日時の新しい順に返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// DeleteCascade はユーザーと関連する求人・応募を同一トランザクションで削除する。
func (r *PostgresUserRepo) DeleteCascade(ctx context.Context, id string) (*UserCascadeResult, error) {
	res := &UserCascadeResult{}
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		// 所有求人を先にロックし、削除中の求人への応募挿入を外部キー検査で待たせる
		if _, err := tx.ExecContext(ctx,
			`SELECT id FROM jobs WHERE employer_id = $1 FOR UPDATE`, id); err != nil {
			if isMissing(err) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock owned jobs: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM applications
			 WHERE applicant_id = $1
			    OR job_id IN (SELECT id FROM jobs WHERE employer_id = $1)`, id)
		if err != nil {
			return fmt.Errorf("failed to delete applications: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		res.Applications = int(n)

		result, err = tx.ExecContext(ctx, `DELETE FROM jobs WHERE employer_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete jobs: %w", err)
		}
		n, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		res.Jobs = int(n)

		result, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return expectAffected(result)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// expectAffected は更新件数が0の場合にErrNotFoundを返す。
func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// nonNil はnilスライスを空スライスに置き換える。text[] のNOT NULL制約を満たすため。
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
