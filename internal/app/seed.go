package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/skillbridge/internal/auth"
	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/repository"
)

// seedAdmin は管理者ユーザーが存在しない場合に作成する。
// 同じメールアドレスのユーザーが既に存在する場合は何もせずfalseを返す。
func seedAdmin(ctx context.Context, users repository.UserRepository, email, password string, bcryptCost int) (bool, error) {
	normalized, err := auth.NormalizeEmail(email)
	if err != nil {
		return false, fmt.Errorf("invalid SEED_ADMIN_EMAIL: %w", err)
	}
	if len(password) < auth.MinPasswordLength {
		return false, fmt.Errorf("SEED_ADMIN_PASSWORD must be at least %d characters", auth.MinPasswordLength)
	}

	existing, err := users.FindByEmail(ctx, normalized)
	if err != nil {
		return false, fmt.Errorf("管理者ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		slog.Info("管理者ユーザーは既に存在します", slog.String("user_id", existing.ID))
		return false, nil
	}

	hash, err := model.HashPassword(password, bcryptCost)
	if err != nil {
		return false, err
	}

	now := time.Now()
	admin := &model.User{
		ID:           uuid.New().String(),
		Name:         "Administrator",
		Email:        normalized,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("管理者ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("管理者ユーザーを作成しました", slog.String("user_id", admin.ID))
	return true, nil
}
