package knowledge

import (
	"context"
	"errors"
	"testing"
)

func TestLoadPostgresUnreachable(t *testing.T) {
	_, err := LoadPostgres(context.Background(),
		"host=127.0.0.1 port=1 user=tursd password=tursd dbname=tursd sslmode=disable")
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if !errors.Is(err, ErrLoad) {
		t.Errorf("error does not wrap ErrLoad: %v", err)
	}
}
