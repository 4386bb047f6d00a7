// Package database opens the store selected by configuration: a GORM
// connection (SQLite or PostgreSQL) or a MongoDB database.
package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/immeasurable-vikrant/taskFlow/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectTimeout = 10 * time.Second

// Connection is an open store. Exactly one of Gorm or Mongo is set.
type Connection struct {
	Driver string
	Gorm   *gorm.DB
	Mongo  *mongo.Database

	client *mongo.Client
}

// Open connects to the configured store.
func Open(ctx context.Context, cfg config.DBConfig) (*Connection, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := OpenGorm(sqlite.Open(cfg.Path), cfg.Debug)
		if err != nil {
			return nil, err
		}
		log.Printf("[database] Connected to SQLite (%s)", cfg.Path)
		return &Connection{Driver: cfg.Driver, Gorm: db}, nil

	case config.DriverPostgres:
		db, err := OpenGorm(postgres.Open(cfg.DSN), cfg.Debug)
		if err != nil {
			return nil, err
		}
		log.Println("[database] Connected to PostgreSQL")
		return &Connection{Driver: cfg.Driver, Gorm: db}, nil

	case config.DriverMongo:
		client, db, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		log.Printf("[database] Connected to MongoDB (database: %s)", cfg.MongoDatabase)
		return &Connection{Driver: cfg.Driver, Mongo: db, client: client}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// OpenGorm opens a GORM connection for the given dialector. Driver errors are
// translated so unique violations surface as gorm.ErrDuplicatedKey.
func OpenGorm(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	level := logger.Silent
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// OpenMongo connects to MongoDB and verifies the connection with a ping.
func OpenMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, client.Database(database), nil
}

// Ping checks that the underlying store is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	switch {
	case c.Gorm != nil:
		sqlDB, err := c.Gorm.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		return sqlDB.PingContext(ctx)
	case c.client != nil:
		return c.client.Ping(ctx, nil)
	}
	return errors.New("database not initialized")
}

// Close releases the connection pool.
func (c *Connection) Close(ctx context.Context) error {
	switch {
	case c.Gorm != nil:
		sqlDB, err := c.Gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	case c.client != nil:
		return c.client.Disconnect(ctx)
	}
	return nil
}
