package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/skillbridge/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	StatusRecorder    middleware.StatusRecorder

	// 運用
	HealthPinger   Pinger
	MetricsHandler http.Handler

	UserService        UserServiceInterface
	JobService         JobServiceInterface
	ApplicationService ApplicationServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → Auth → RateLimit(General)
//
// 公開ルートはトークンを任意とし、付与されていれば検証する。
// /health と /metrics は認証とレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}

	userHandler := NewUserHandler(deps.UserService)
	jobHandler := NewJobHandler(deps.JobService)
	appHandler := NewApplicationHandler(deps.ApplicationService)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthPinger))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証不要のルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/api/users/register", userHandler.Register)
		r.Post("/api/users/login", userHandler.Login)

		r.Get("/api/jobs", jobHandler.ListJobs)
		r.Get("/api/jobs/{id}", jobHandler.GetJob)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー管理
		r.Get("/api/users/profile", userHandler.GetProfile)
		r.Put("/api/users/profile", userHandler.UpdateProfile)
		r.Get("/api/users", userHandler.ListUsers)
		r.Delete("/api/users/{id}", userHandler.DeleteUser)

		// 求人管理
		r.Post("/api/jobs", jobHandler.CreateJob)
		r.Get("/api/jobs/employer/my-jobs", jobHandler.ListMyJobs)
		r.Get("/api/jobs/admin/all", jobHandler.ListAllJobs)
		r.Put("/api/jobs/{id}", jobHandler.UpdateJob)
		r.Delete("/api/jobs/{id}", jobHandler.DeleteJob)

		// 応募管理
		r.Route("/api/applications", func(r chi.Router) {
			// POST /api/applications - 応募（応募専用レート制限を追加）
			r.With(deps.RateLimiter.ApplyMiddleware()).Post("/", appHandler.Apply)
			r.Get("/", appHandler.ListAll)
			r.Get("/my-applications", appHandler.ListMine)
			r.Get("/employer", appHandler.ListForEmployer)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", appHandler.UpdateStatus)
				r.Put("/status", appHandler.UpdateStatus)
				r.Delete("/", appHandler.Delete)
			})
		})
	})

	return r
}
