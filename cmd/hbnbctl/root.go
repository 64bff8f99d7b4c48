package main

import (
	"context"
	"errors"
	"fmt"

	"hbnb/internal/cache"
	"hbnb/internal/config"
	"hbnb/internal/database"
	"hbnb/internal/facade"
	"hbnb/internal/middleware"
	"hbnb/internal/models"
	"hbnb/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var errMemoryBackend = errors.New("hbnbctl needs STORAGE_BACKEND=database; the memory backend has nothing to maintain")

// cli carries what every subcommand needs. loadConfig is swapped in tests.
type cli struct {
	loadConfig func() (*config.Config, error)
	cfg        *config.Config
	// rdb is set by openFacade when Redis is reachable.
	rdb *redis.Client
}

func newRootCmd(loader func() (*config.Config, error)) *cobra.Command {
	c := &cli{loadConfig: loader}

	root := &cobra.Command{
		Use:           "hbnbctl",
		Short:         "HBnB maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			middleware.Logger = middleware.NewLogger(cfg.Env)
			if cfg.BcryptCost > 0 {
				models.PasswordCost = cfg.BcryptCost
			}
			c.cfg = cfg
			return nil
		},
	}

	root.AddCommand(
		c.migrateCmd(),
		c.seedCmd(),
		c.adminCmd(),
		c.eventsCmd(),
	)
	return root
}

// connect opens the configured database without touching the schema.
func (c *cli) connect() (*gorm.DB, error) {
	if c.cfg.StorageBackend == config.StorageMemory {
		return nil, errMemoryBackend
	}
	db, err := database.Connect(c.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// openFacade connects and brings the schema up to date first.
func (c *cli) openFacade(ctx context.Context) (*facade.Facade, func(), error) {
	db, err := c.connect()
	if err != nil {
		return nil, nil, err
	}
	if err := database.ApplySchema(ctx, db, c.cfg); err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("apply schema: %w", err)
	}

	// Writes go through the record cache the servers read from.
	var store repository.Store = repository.NewGormStore(db)
	c.rdb = cache.InitRedis(c.cfg.RedisURL)
	if c.rdb != nil {
		store = repository.NewCachedStore(store)
	}
	closeAll := func() {
		if c.rdb != nil {
			cache.SetClient(nil)
			_ = c.rdb.Close()
			c.rdb = nil
		}
		_ = database.Close(db)
	}
	return facade.New(store), closeAll, nil
}
