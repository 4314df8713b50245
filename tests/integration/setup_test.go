//go:build integration

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"task_tracker/internal/cache"
	"task_tracker/internal/config"
	"task_tracker/internal/db"

	"github.com/go-redis/redis/v8"
)

// TestEnv holds all test dependencies
type TestEnv struct {
	DB          *sql.DB
	RedisClient *redis.Client
	Config      *config.Config
}

// SetupTestEnv initializes test environment
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	cfg := loadTestConfig()

	// Setup database
	database := db.Init(&cfg.DB)
	if database == nil {
		t.Fatal("Failed to connect to test database")
	}

	// Run schema migrations
	if err := runMigrations(database); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// Setup Redis
	redisClient := cache.SetupRedis(&cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}
	redisClient.FlushDB(ctx)

	return &TestEnv{
		DB:          database,
		RedisClient: redisClient,
		Config:      cfg,
	}
}

// Cleanup cleans up test environment
func (env *TestEnv) Cleanup(t *testing.T) {
	t.Helper()

	if env.DB != nil {
		env.DB.Exec("TRUNCATE TABLE tasks CASCADE")
		env.DB.Exec("TRUNCATE TABLE users CASCADE")
		env.DB.Close()
	}

	if env.RedisClient != nil {
		env.RedisClient.FlushDB(context.Background())
		env.RedisClient.Close()
	}
}

// loadTestConfig loads test configuration with defaults
func loadTestConfig() *config.Config {
	return &config.Config{
		AppName: "integration-test",
		AppEnv:  "test",
		AppPort: getEnv("APP_PORT", "8081"),
		DB: config.DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "task_tracker_test"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: config.RedisConfig{
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnv("REDIS_DB", "0"),
		},
		JWT: config.JWTConfig{
			Secret: getEnv("JWT_SECRET", "test-secret-key-for-integration"),
		},
	}
}

// runMigrations creates database schema
func runMigrations(database *sql.DB) error {
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS users (
id SERIAL PRIMARY KEY,
username VARCHAR(255) UNIQUE NOT NULL,
email VARCHAR(255) NOT NULL DEFAULT '',
password VARCHAR(255) NOT NULL,
created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = database.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
id SERIAL PRIMARY KEY,
user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
title VARCHAR(255) NOT NULL,
description TEXT NOT NULL DEFAULT '',
status VARCHAR(20) NOT NULL DEFAULT 'TODO',
created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)
	`)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
