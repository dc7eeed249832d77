package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestConnect_InvalidURL(t *testing.T) {
	_, err := Connect(context.Background(), "localhost:6379", zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "invalid redis url") {
		t.Fatalf("err = %v", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), "redis://127.0.0.1:1/0", zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "failed to ping redis") {
		t.Fatalf("err = %v", err)
	}
}
