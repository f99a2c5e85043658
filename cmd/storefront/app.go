package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/bluescreen10/storefront"
	"github.com/bluescreen10/storefront/apiclient"
	"github.com/bluescreen10/storefront/cart"
	"github.com/bluescreen10/storefront/config"
	"github.com/bluescreen10/storefront/gormstore"
	"github.com/bluescreen10/storefront/logger"
	"github.com/bluescreen10/storefront/memstore"
	"github.com/bluescreen10/storefront/mysqlstore"
	"github.com/bluescreen10/storefront/redisstore"
	"github.com/bluescreen10/storefront/session"
)

// app holds what every command needs. It is filled by open before the
// command runs.
type app struct {
	apiURL     string
	configPath string

	cfg     *config.Config
	logger  *slog.Logger
	store   storefront.Store
	closers []func() error

	api     *apiclient.Client
	session *session.Store
	cart    *cart.Cart
}

func (a *app) open() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFiles(config.GlobalPath(), a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}
	a.cfg = cfg

	a.logger = logger.NewStructured(logger.Options{
		Service: "storefront",
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})

	a.store, err = a.openStore(cfg.Store)
	if err != nil {
		return err
	}

	a.api = apiclient.New(cfg.API.BaseURL, apiclient.WithLogger(a.logger))
	codec := codecFor(cfg.Store.Codec)
	a.session = session.New(a.api, a.store, session.WithLogger(a.logger), session.WithCodec(codec))
	a.cart = cart.New(a.store, cart.WithLogger(a.logger), cart.WithCodec(codec))

	if n := a.cart.Discarded(); n > 0 {
		a.logger.Warn("dropped invalid cart lines", "count", n)
	}
	return nil
}

// codecFor maps the store.codec setting to a Codec. Values are already
// validated by config.
func codecFor(name string) storefront.Codec {
	if name == "gob" {
		return storefront.GobCodec{}
	}
	return storefront.JSONCodec{}
}

func (a *app) openStore(sc config.StoreConfig) (storefront.Store, error) {
	switch sc.Driver {
	case "memory":
		return memstore.New(), nil

	case "sqlite", "postgres":
		if sc.Driver == "sqlite" {
			if err := os.MkdirAll(filepath.Dir(sc.DSN), 0o700); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
		s, err := gormstore.Open(sc.Driver, sc.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "redis":
		opts, err := redisOptions(sc.DSN)
		if err != nil {
			return nil, err
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		return redisstore.New(rdb, redisstore.WithPrefix(sc.Prefix)), nil

	case "mysql":
		s, err := mysqlstore.Open(sc.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
}

// redisOptions accepts a redis:// URL or a bare host:port.
func redisOptions(dsn string) (*redis.Options, error) {
	if strings.Contains(dsn, "://") {
		opts, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: dsn}, nil
}

func (a *app) close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// requireLogin fails early for commands that call authenticated endpoints.
func (a *app) requireLogin() error {
	if !a.session.IsAuthenticated() {
		return errors.New("not logged in, run 'storefront login' first")
	}
	return nil
}
