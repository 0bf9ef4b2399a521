// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	loginstore "github.com/dalemusser/schoolhub/internal/app/store/logins"
	userstore "github.com/dalemusser/schoolhub/internal/app/store/users"
	"github.com/dalemusser/schoolhub/internal/app/system/auth"
	"github.com/dalemusser/schoolhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and, for the redis session backend,
// the Redis client. Both are pinged before returning.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingTimeout := appCfg.TimeoutPing
	if pingTimeout <= 0 {
		pingTimeout = timeouts.DefaultPing
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))

	deps := DBDeps{
		SchoolHubMongoClient:   client,
		SchoolHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.SessionBackend == auth.BackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			_ = client.Disconnect(ctx)
			return DBDeps{}, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr), zap.Int("db", appCfg.RedisDB))
		deps.Redis = rdb
	}

	return deps, nil
}

// EnsureSchema creates the indexes the stores rely on. Index creation is
// idempotent so this runs on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.SchoolHubMongoDatabase
	if db == nil {
		return fmt.Errorf("ensure schema: no database")
	}

	ctx, cancel := context.WithTimeout(ctx, 3*timeouts.Medium())
	defer cancel()

	if err := userstore.New(db, nil, appCfg.BcryptCost).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := loginstore.New(db, logger).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("logins indexes: %w", err)
	}

	logger.Info("schema ensured", zap.Strings("collections", []string{userstore.Collection, loginstore.Collection}))
	return nil
}
