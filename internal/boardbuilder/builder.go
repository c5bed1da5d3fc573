package boardbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/httpapi"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/render"
	"github.com/park285/cheese-board/internal/session"
	"go.uber.org/zap"
)

type Deps struct {
	Sessions *session.Manager
	Repo     *session.Repository
	Catalog  *msgcat.Catalog
	Renderer *render.Renderer
	Server   *httpapi.Server
}

// Close releases Redis and Postgres connections.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var first error
	if d.Sessions != nil {
		if err := d.Sessions.Close(); err != nil {
			first = err
		}
	}
	if d.Repo != nil {
		if err := d.Repo.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	opts := []session.Option{
		session.WithTTL(cfg.SessionTTL),
		session.WithMaxActive(cfg.MaxActiveGames),
		session.WithLogger(logger.Named("session")),
	}

	// Repository (optional)
	var repo *session.Repository
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err = session.NewRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = repo.Migrate(ctx)
		cancel()
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		opts = append(opts, session.WithArchive(repo))
	} else {
		logger.Info("result_archive_disabled")
	}

	mgr, err := session.NewManager(cfg.RedisURL, opts...)
	if err != nil {
		if repo != nil {
			_ = repo.Close()
		}
		return nil, fmt.Errorf("init sessions: %w", err)
	}

	renderer := render.New(cfg.SquarePx)
	server := httpapi.New(mgr, catalog, renderer,
		httpapi.WithLogger(logger.Named("http")),
		httpapi.WithOriginPatterns(cfg.OriginPatterns),
	)

	return &Deps{Sessions: mgr, Repo: repo, Catalog: catalog, Renderer: renderer, Server: server}, nil
}
