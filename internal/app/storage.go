package app

import (
	"fmt"
	"log/slog"

	"github.com/hitoshi/skillbridge/internal/config"
	"github.com/hitoshi/skillbridge/internal/database"
	"github.com/hitoshi/skillbridge/internal/handler"
	"github.com/hitoshi/skillbridge/internal/repository"
	"github.com/hitoshi/skillbridge/internal/repository/memory"
)

// storage は設定されたドライバーのリポジトリ群。
type storage struct {
	users  repository.UserRepository
	jobs   repository.JobRepository
	apps   repository.ApplicationRepository
	pinger handler.Pinger
	close  func() error
}

// openStorage はSTORAGE_DRIVERに応じてリポジトリを初期化する。
// postgresの場合はDB接続を開き、疎通を確認する。
func openStorage(cfg *config.Config) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		store := memory.NewStore()
		slog.Warn("インメモリストアで起動します。データは再起動で失われます")
		return &storage{
			users: store.Users(),
			jobs:  store.Jobs(),
			apps:  store.Applications(),
			close: func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	return &storage{
		users:  repository.NewPostgresUserRepo(db),
		jobs:   repository.NewPostgresJobRepo(db),
		apps:   repository.NewPostgresApplicationRepo(db),
		pinger: db,
		close:  db.Close,
	}, nil
}
