// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/skillbridge/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile は名前とプロフィールを更新する。ロールとメールアドレスは変更しない。
	UpdateProfile(ctx context.Context, user *model.User) error

	// List は全ユーザーを作成日時の新しい順に返す。
	List(ctx context.Context) ([]*model.User, error)

	// DeleteCascade はユーザーを削除する。
	// ユーザー自身の応募、所有する求人、その求人への応募を同一トランザクションで削除する。
	// ユーザーが存在しない場合はErrNotFoundを返す。
	DeleteCascade(ctx context.Context, id string) (*UserCascadeResult, error)
}

// UserCascadeResult はユーザー削除に伴って削除された件数。
type UserCascadeResult struct {
	Jobs         int
	Applications int
}

// JobRepository は求人データの永続化インターフェース。
type JobRepository interface {
	// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Job, error)

	// Create は求人を作成する。
	Create(ctx context.Context, job *model.Job) error

	// Update は求人の可変項目を更新する。EmployerIDは更新しない。
	Update(ctx context.Context, job *model.Job) error

	// List は条件に一致する求人を新しい順にページングして返す。2番目の戻り値は総件数。
	// page、sizeは正規化済みであること。
	List(ctx context.Context, filter model.JobFilter, page, size int) ([]*model.Job, int, error)

	// ListAll は条件に一致する求人をページングせずに新しい順で返す。
	ListAll(ctx context.Context, filter model.JobFilter) ([]*model.Job, error)

	// ListIDsByEmployer は求人企業が所有する求人のID一覧を返す。
	ListIDsByEmployer(ctx context.Context, employerID string) ([]string, error)

	// DeleteCascade は求人とその応募を同一トランザクションで削除し、削除した応募数を返す。
	// 求人が存在しない場合はErrNotFoundを返す。
	DeleteCascade(ctx context.Context, id string) (int, error)
}

// ApplicationRepository は応募データの永続化インターフェース。
type ApplicationRepository interface {
	// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Application, error)

	// Create は応募を作成する。
	// (job_id, applicant_id) が重複する場合はErrDuplicate、求人が存在しない場合はErrNotFoundを返す。
	Create(ctx context.Context, app *model.Application) error

	// Update はステータスとメモを更新する。存在しない場合はErrNotFoundを返す。
	Update(ctx context.Context, app *model.Application) error

	// ListByApplicant は応募者の応募一覧を新しい順で返す。
	ListByApplicant(ctx context.Context, applicantID string) ([]*model.ApplicationView, error)

	// ListByJobIDs は指定求人群への応募一覧を新しい順で返す。
	ListByJobIDs(ctx context.Context, jobIDs []string) ([]*model.ApplicationView, error)

	// ListAll は全応募を新しい順で返す。
	ListAll(ctx context.Context) ([]*model.ApplicationView, error)

	// Delete は指定IDの応募を削除する。存在しない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}
