package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tdr/proveedores/internal/app"
	"github.com/tdr/proveedores/internal/platform/db"
	"github.com/tdr/proveedores/internal/platform/kv"
	"github.com/tdr/proveedores/internal/suppliers"
)

// options carries the persistent flags shared by every subcommand.
type options struct {
	redisAddr     string
	storageDriver string
	storagePrefix string
	pgDSN         string
	timeout       time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "proveedoresctl",
		Short:         "Operate the supplier service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.redisAddr, "redis-addr", envOr("REDIS_ADDR", "127.0.0.1:6379"), "Redis address (queue and default storage)")
	flags.StringVar(&opts.storageDriver, "storage-driver", envOr("STORAGE_DRIVER", app.StorageRedis), "storage driver: redis or postgres")
	flags.StringVar(&opts.storagePrefix, "storage-prefix", envOr("STORAGE_PREFIX", "proveedores"), "key prefix used by the service")
	flags.StringVar(&opts.pgDSN, "pg-dsn", os.Getenv("PG_DSN"), "Postgres DSN when storage-driver=postgres")
	flags.DurationVar(&opts.timeout, "timeout", 15*time.Second, "overall command timeout")

	root.AddCommand(newJobsCmd(opts), newSuppliersCmd(opts), newSeedCmd(opts))
	return root
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, o.timeout)
}

// repository opens the storage the service writes to. The returned func
// releases the connection.
func (o *options) repository(ctx context.Context) (suppliers.Repository, func(), error) {
	switch o.storageDriver {
	case app.StorageRedis:
		client := redis.NewClient(&redis.Options{Addr: o.redisAddr})
		store := kv.Prefixed{Store: kv.NewRedisStore(client), Prefix: o.storagePrefix}
		return suppliers.NewRepository(store), func() { _ = client.Close() }, nil
	case app.StoragePostgres:
		pool, err := db.Open(ctx, o.pgDSN, db.Options{MaxConns: 1})
		if err != nil {
			return nil, nil, err
		}
		store := kv.Prefixed{Store: kv.NewPostgresStore(pool), Prefix: o.storagePrefix}
		return suppliers.NewRepository(store), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", o.storageDriver)
	}
}
