// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backend clients opened in ConnectDB.
type DBDeps struct {
	SchoolHubMongoClient   *mongo.Client
	SchoolHubMongoDatabase *mongo.Database

	// Redis is nil unless the redis session backend is configured.
	Redis redis.UniversalClient
}
