// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/skillbridge/internal/auth"
	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/policy"
	"github.com/hitoshi/skillbridge/internal/repository"
	"github.com/hitoshi/skillbridge/internal/security"
)

// ProfileUpdate はプロフィール更新の入力。nilのフィールドは変更しない。
// ロールとメールアドレスはこの操作では変更できない。
type ProfileUpdate struct {
	Name    *string
	Profile *model.Profile
}

// Service はユーザー管理のサービス層。
// プロフィールの参照と更新、管理者によるユーザー一覧と削除を提供する。
type Service struct {
	userRepo  repository.UserRepository
	policy    *policy.Policy
	sanitizer security.Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	pol *policy.Policy,
	sanitizer security.Sanitizer,
) *Service {
	return &Service{
		userRepo:  userRepo,
		policy:    pol,
		sanitizer: sanitizer,
	}
}

// GetProfile は操作主体自身のユーザー情報を返す。
func (s *Service) GetProfile(ctx context.Context, identity *model.Identity) (*model.User, error) {
	if err := s.policy.Authorize(identity, policy.ActionProfileRead); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile は操作主体自身の名前とプロフィールを更新する。
func (s *Service) UpdateProfile(ctx context.Context, identity *model.Identity, in ProfileUpdate) (*model.User, error) {
	user, err := s.GetProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(identity, policy.ActionProfileUpdate); err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := s.sanitizer.StripTags(*in.Name)
		if name == "" {
			return nil, model.NewValidationError("name is required")
		}
		user.Name = name
	}
	if in.Profile != nil {
		user.Profile = auth.SanitizeProfile(s.sanitizer, *in.Profile)
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	return user, nil
}

// ListUsers は全ユーザーを返す。管理者のみ。
func (s *Service) ListUsers(ctx context.Context, identity *model.Identity) ([]*model.User, error) {
	if err := s.policy.Authorize(identity, policy.ActionUserList); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// DeleteUser はユーザーを削除する。管理者のみ。
// ユーザー自身の応募、所有する求人、その求人への応募を同時に削除する。
// 管理者は自分自身を削除できない。
func (s *Service) DeleteUser(ctx context.Context, identity *model.Identity, userID string) error {
	if err := s.policy.Authorize(identity, policy.ActionUserDelete); err != nil {
		return err
	}
	if userID == identity.ID {
		return model.NewValidationError("cannot delete your own account")
	}

	slog.Info("ユーザー削除を開始します",
		slog.String("user_id", userID),
		slog.String("deleted_by", identity.ID),
	)

	res, err := s.userRepo.DeleteCascade(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("ユーザー削除が完了しました",
		slog.String("user_id", userID),
		slog.Int("deleted_jobs", res.Jobs),
		slog.Int("deleted_applications", res.Applications),
	)
	return nil
}
