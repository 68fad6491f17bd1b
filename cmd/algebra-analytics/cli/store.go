package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/streamingfast/algebra-analytics/manifest"
	"github.com/streamingfast/algebra-analytics/state"
	"github.com/streamingfast/algebra-analytics/state/kvdb"
	"github.com/streamingfast/algebra-analytics/state/redisdb"
	"go.uber.org/zap"
)

type stateStore interface {
	state.Backend
	state.Iterable
	Close() error
}

type storeOverrides struct {
	Kind       string
	BadgerPath string
	RedisAddr  string
}

func loadDeployment(cmd *cobra.Command) (*manifest.Deployment, error) {
	path := mustGetString(cmd, "manifest")
	if path == "" {
		return nil, fmt.Errorf("the --manifest flag is required")
	}

	deployment, err := manifest.LoadFile(path)
	if err != nil {
		return nil, err
	}

	overrides := storeOverrides{
		Kind:       mustGetString(cmd, "store"),
		BadgerPath: mustGetString(cmd, "badger-path"),
		RedisAddr:  mustGetString(cmd, "redis-addr"),
	}
	if err := overrides.apply(deployment); err != nil {
		return nil, err
	}
	return deployment, nil
}

// apply writes the non empty overrides onto deployment, then validates it
// again so an overridden store kind is checked like a manifest one.
func (o storeOverrides) apply(deployment *manifest.Deployment) error {
	if o.Kind != "" {
		deployment.Store.Kind = o.Kind
	}
	if o.BadgerPath != "" {
		deployment.Store.Path = o.BadgerPath
	}
	if o.RedisAddr != "" {
		deployment.Store.Redis.Addr = o.RedisAddr
	}
	if err := deployment.Validate(); err != nil {
		return fmt.Errorf("invalid deployment after flag overrides: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, deployment *manifest.Deployment) (stateStore, error) {
	cfg := deployment.Store

	switch cfg.Kind {
	case manifest.StoreMemory:
		zlog.Info("using in-memory store, state is lost on exit")
		return kvdb.New(kvdb.Config{Namespace: cfg.Namespace})

	case manifest.StoreBadger:
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger store requires a path")
		}
		zlog.Info("opening badger store", zap.String("path", cfg.Path), zap.String("namespace", cfg.Namespace))
		return kvdb.New(kvdb.Config{Path: cfg.Path, Namespace: cfg.Namespace})

	case manifest.StoreRedis:
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis store requires an address")
		}
		prefix := cfg.Redis.Prefix
		if prefix == "" && cfg.Namespace != "" {
			prefix = cfg.Namespace + ":"
		}
		zlog.Info("connecting redis store", zap.String("addr", cfg.Redis.Addr), zap.String("prefix", prefix))
		return redisdb.New(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   prefix,
		})
	}

	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}
