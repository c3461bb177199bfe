package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/clocktower/pkg/adapters/file"
	"github.com/aretw0/clocktower/pkg/adapters/memory"
	"github.com/aretw0/clocktower/pkg/adapters/redis"
	"github.com/aretw0/clocktower/pkg/persistence/middleware"
	"github.com/aretw0/clocktower/pkg/session"
	"github.com/spf13/cobra"
)

const (
	envEncryptionKey = "CLOCKTOWER_ENCRYPTION_KEY"
	envFallbackKeys  = "CLOCKTOWER_FALLBACK_KEYS"
)

// openSessions builds the game store selected by the persistent flags. Redis
// stores are guarded by a distributed lock so several instances can share them.
func openSessions(cmd *cobra.Command) (*session.Manager, func() error, error) {
	kind, _ := cmd.Flags().GetString("store")
	noop := func() error { return nil }

	mws, err := storeMiddleware(cmd)
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case "memory":
		store := middleware.Wrap(memory.NewStore(), mws...)
		return session.NewManager(store, session.WithLogger(logger)), noop, nil
	case "file":
		dir, _ := cmd.Flags().GetString("dir")
		store := middleware.Wrap(file.New(dir), mws...)
		return session.NewManager(store, session.WithLogger(logger)), noop, nil
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		store := redis.New(addr, password, db, redis.WithTTL(ttl))
		m := session.NewManager(middleware.Wrap(store, mws...),
			session.WithLocker(store.Locker()),
			session.WithLogger(logger),
		)
		return m, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q (want memory, file or redis)", kind)
}

// storeMiddleware masks the --redact patterns and, when a key is set in the
// environment, seals hidden events at rest.
func storeMiddleware(cmd *cobra.Command) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if patterns, _ := cmd.Flags().GetStringSlice("redact"); len(patterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, fmt.Errorf("--redact: %w", err)
		}
		mws = append(mws, pii)
	}

	encoded := os.Getenv(envEncryptionKey)
	if encoded == "" {
		return mws, nil
	}
	cfg := middleware.EncryptionConfig{}
	var err error
	if cfg.ActiveKey, err = middleware.ParseKey(encoded); err != nil {
		return nil, fmt.Errorf("%s: %w", envEncryptionKey, err)
	}
	for _, old := range strings.Split(os.Getenv(envFallbackKeys), ",") {
		if strings.TrimSpace(old) == "" {
			continue
		}
		key, err := middleware.ParseKey(old)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envFallbackKeys, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return append(mws, middleware.NewEncryptionMiddleware(cfg)), nil
}
