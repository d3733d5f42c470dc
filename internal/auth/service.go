// Package auth はメールアドレスとパスワードによる登録、ログイン、
// アクセストークンの発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/repository"
	"github.com/hitoshi/skillbridge/internal/security"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	Profile  model.Profile
}

// Result は登録、ログインの結果。
type Result struct {
	User  *model.User
	Token string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokens    *TokenIssuer
	sanitizer security.Sanitizer
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	tokens *TokenIssuer,
	sanitizer security.Sanitizer,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokens:    tokens,
		sanitizer: sanitizer,
		config:    config,
	}
}

// Register は新規ユーザーを登録し、アクセストークンを発行する。
// 登録できるロールはjobSeekerとemployerのみ。管理者はseedコマンドで作成する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	name := s.sanitizer.StripTags(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name is required")
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, model.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if in.Role != model.RoleJobSeeker && in.Role != model.RoleEmployer {
		return nil, model.NewInvalidRoleError(string(in.Role))
	}

	hash, err := model.HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Profile:      SanitizeProfile(s.sanitizer, in.Profile),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return &Result{User: user, Token: token}, nil
}

// Login はメールアドレスとパスワードを検証し、アクセストークンを発行する。
// メールアドレス未登録とパスワード不一致は同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := user.VerifyPassword(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Token: token}, nil
}

// Authenticate はアクセストークンを検証し、現在のユーザーを再取得する。
// 削除済みユーザーのトークンは認証エラーとする。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, model.NewUnauthenticatedError()
	}

	user, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}
	return user, nil
}

// NormalizeEmail はメールアドレスを検証し、前後の空白を除いた小文字に正規化する。
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", model.NewValidationError("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", model.NewValidationError("email format is invalid")
	}
	return email, nil
}

// SanitizeProfile はプロフィールの自由記述をサニタイズする。
func SanitizeProfile(s security.Sanitizer, p model.Profile) model.Profile {
	skills := make([]string, 0, len(p.Skills))
	for _, skill := range p.Skills {
		if v := s.StripTags(skill); v != "" {
			skills = append(skills, v)
		}
	}
	return model.Profile{
		Bio:        s.Sanitize(p.Bio),
		Skills:     skills,
		Experience: s.Sanitize(p.Experience),
		Education:  s.Sanitize(p.Education),
		Resume:     s.StripTags(p.Resume),
		Company:    s.StripTags(p.Company),
		Website:    s.StripTags(p.Website),
	}
}
