package database_test

import (
	"testing"

	"github.com/worklink/worklink-api/internal/pkg/database"
)

func TestNewRedisEmptyURL(t *testing.T) {
	client, err := database.NewRedis("")
	if err != nil {
		t.Fatalf("empty URL must not error: %v", err)
	}
	if client != nil {
		t.Fatal("empty URL must yield a nil client")
	}

	// Closing a nil client is a no-op
	database.CloseRedis(client)
}

func TestNewRedisInvalidURL(t *testing.T) {
	if _, err := database.NewRedis("not-a-redis-url"); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}
