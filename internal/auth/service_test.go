package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/skillbridge/internal/model"
	"github.com/hitoshi/skillbridge/internal/repository"
	"github.com/hitoshi/skillbridge/internal/repository/memory"
	"github.com/hitoshi/skillbridge/internal/security"
)

// --- モック定義 ---

type mockUserRepo struct {
	repository.UserRepository
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFn(ctx, email)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.createFn(ctx, user)
}

func newTestService(repo repository.UserRepository) *Service {
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour), security.NewTextSanitizer(), ServiceConfig{BcryptCost: bcrypt.MinCost})
}

func validInput() RegisterInput {
	return RegisterInput{
		Name:     "Alice",
		Email:    "  Alice@Example.com ",
		Password: "secret1",
		Role:     model.RoleJobSeeker,
	}
}

func TestRegister_Success(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store.Users())

	res, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, res.User.ID)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)
	assert.NotEmpty(t, res.Token)

	claims, err := svc.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, model.RoleJobSeeker, claims.Role)

	stored, err := store.Users().FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(in *RegisterInput)
		wantCode string
	}{
		{"name empty", func(in *RegisterInput) { in.Name = "  " }, model.ErrCodeValidation},
		{"name only markup", func(in *RegisterInput) { in.Name = "<script>x</script>" }, model.ErrCodeValidation},
		{"email empty", func(in *RegisterInput) { in.Email = "" }, model.ErrCodeValidation},
		{"email malformed", func(in *RegisterInput) { in.Email = "not-an-email" }, model.ErrCodeValidation},
		{"email with display name", func(in *RegisterInput) { in.Email = "Bob <bob@example.com>" }, model.ErrCodeValidation},
		{"password short", func(in *RegisterInput) { in.Password = "12345" }, model.ErrCodeValidation},
		{"admin role", func(in *RegisterInput) { in.Role = model.RoleAdmin }, model.ErrCodeInvalidRole},
		{"unknown role", func(in *RegisterInput) { in.Role = "recruiter" }, model.ErrCodeInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(memory.NewStore().Users())
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)

			var apiErr *model.APIError
			require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, model.KindValidation, apiErr.Kind)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService(memory.NewStore().Users())
	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "alice@example.com"
	_, err = svc.Register(context.Background(), in)

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, model.ErrCodeEmailTaken, apiErr.Code)
	assert.Equal(t, model.KindConflict, apiErr.Kind)
}

func TestRegister_RepositoryError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newTestService(&mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error { return boom },
	})

	_, err := svc.Register(context.Background(), validInput())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, model.KindOf(err))
}

func TestRegister_SanitizesProfile(t *testing.T) {
	svc := newTestService(memory.NewStore().Users())
	in := validInput()
	in.Name = "<b>Alice</b>"
	in.Profile = model.Profile{
		Bio:    `<p>Go developer</p><script>alert(1)</script>`,
		Skills: []string{"<i>Go</i>", "  ", "SQL"},
	}

	res, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Alice", res.User.Name)
	assert.Equal(t, "<p>Go developer</p>", res.User.Profile.Bio)
	assert.Equal(t, []string{"Go", "SQL"}, res.User.Profile.Skills)
}

func TestLogin(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store.Users())
	_, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	t.Run("success with different case", func(t *testing.T) {
		res, err := svc.Login(context.Background(), "ALICE@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", res.User.Email)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "alice@example.com", "wrong-pass")
		var apiErr *model.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, model.ErrCodeInvalidCredentials, apiErr.Code)
	})

	// 未登録メールアドレスとパスワード不一致は区別しない
	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@example.com", "secret1")
		var apiErr *model.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, model.ErrCodeInvalidCredentials, apiErr.Code)
	})
}

func TestLogin_RepositoryError(t *testing.T) {
	boom := errors.New("timeout")
	svc := newTestService(&mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) { return nil, boom },
	})

	_, err := svc.Login(context.Background(), "a@example.com", "secret1")
	assert.ErrorIs(t, err, boom)
}

func TestAuthenticate(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store.Users())
	res, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)

	_, err = svc.Authenticate(context.Background(), "garbage")
	assert.Equal(t, model.KindUnauthenticated, model.KindOf(err))

	// 削除済みユーザーのトークンは無効
	_, err = store.Users().DeleteCascade(context.Background(), res.User.ID)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), res.Token)
	assert.Equal(t, model.KindUnauthenticated, model.KindOf(err))
}
