package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/drinkscout/drinkscout/internal/logger"
)

// MongoInstance bundles the connected client with the default database name
// resolved from configuration. The query engine works against Database().
type MongoInstance struct {
	Client   *mongo.Client
	Database string
}

// DB returns the default database handle.
func (m *MongoInstance) DB() *mongo.Database {
	return m.Client.Database(m.Database)
}

// MongoDriver manages the MongoDB client lifecycle.
//
// Supported options:
//   - connection_string: full URI; takes precedence over the discrete options
//   - host (default "localhost"), port (default 27017)
//   - username, password
//   - database: default database name (required when no connection_string)
//   - connect_timeout, socket_timeout (default 120s each)
type MongoDriver struct{}

// NewMongoDriver creates a MongoDB driver.
func NewMongoDriver() *MongoDriver {
	return &MongoDriver{}
}

// Initialize connects to MongoDB and verifies the connection with a ping.
func (d *MongoDriver) Initialize(ctx context.Context, opts Options) (any, error) {
	uri := opts.String("connection_string", "")
	database := opts.String("database", "")

	if uri == "" && database == "" {
		return nil, &ConfigError{
			Driver: "mongo",
			Option: "database",
			Reason: "either database or connection_string must be set",
		}
	}

	if uri == "" {
		uri = BuildMongoURI(opts)
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(opts.Duration("connect_timeout", 120*time.Second)).
		SetSocketTimeout(opts.Duration("socket_timeout", 120*time.Second))

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		// Leave nothing behind so the next GetInstance retries cleanly.
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	logger.Info("mongodb client connected", "database", database)
	return &MongoInstance{Client: client, Database: database}, nil
}

// Cleanup disconnects the client.
func (d *MongoDriver) Cleanup(ctx context.Context, instance any) error {
	inst, ok := instance.(*MongoInstance)
	if !ok || inst == nil || inst.Client == nil {
		return nil
	}
	if err := inst.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb client: %w", err)
	}
	return nil
}

// Healthcheck pings the server.
func (d *MongoDriver) Healthcheck(ctx context.Context, instance any) error {
	inst, ok := instance.(*MongoInstance)
	if !ok || inst == nil || inst.Client == nil {
		return fmt.Errorf("mongo instance not initialized")
	}
	return inst.Client.Ping(ctx, nil)
}

// BuildMongoURI assembles a connection URI from discrete options. Hosts on
// mongodb.net (Atlas) use the mongodb+srv scheme, which forbids an explicit
// port.
func BuildMongoURI(opts Options) string {
	host := opts.String("host", "localhost")
	port := opts.Int("port", 27017)
	username := opts.String("username", "")
	password := opts.String("password", "")

	if username != "" && password != "" {
		if strings.Contains(host, "mongodb.net") {
			return fmt.Sprintf("mongodb+srv://%s:%s@%s", username, password, host)
		}
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", username, password, host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", host, port)
}
