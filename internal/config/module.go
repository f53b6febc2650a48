package config

import (
	"github.com/nanogit/nanogit/internal/git"
	"github.com/nanogit/nanogit/internal/repocache"
	"github.com/nanogit/nanogit/internal/session"
	"github.com/nanogit/nanogit/internal/watcher"
	"github.com/nanogit/nanogit/pkg/badgerfx"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir:      cfg.Storage.DataDir,
				InMemory: cfg.Storage.InMemory,
			}
		}),
		fx.Provide(func(cfg Config) repocache.Config {
			return repocache.Config{
				MaxLog:        cfg.Log.MaxItems,
				LogOrder:      git.LogOrder(cfg.Log.Order),
				IdentityScope: git.ConfigScope(cfg.Repository.IdentityScope),
			}
		}),
		fx.Provide(func(cfg Config) watcher.Config {
			return watcher.Config{
				Enabled:  cfg.Watcher.Enabled,
				Debounce: cfg.Watcher.Debounce,
			}
		}),
		fx.Provide(func(cfg Config) session.Config {
			return session.Config{
				Root: cfg.Repository.Root,
			}
		}),
	)
}
