package memorypantryfx

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/pantrylabs/pantry"
	"github.com/pantrylabs/pantry/internal/origin/memorigin"
)

func TestModule(t *testing.T) {
	var (
		client *pantry.Client
		origin *memorigin.Fetcher
	)

	app := fxtest.New(t,
		fx.Supply(zap.NewNop()),
		Module,
		fx.Populate(&client, &origin),
	)
	app.RequireStart()
	defer app.RequireStop()

	if client == nil {
		t.Fatal("module did not provide a client")
	}
	if origin == nil {
		t.Fatal("module did not provide the in-memory origin")
	}

	// The injected origin is the one behind the client.
	origin.SetResponse("https://example.com/feed", []byte("payload"))
	got, err := client.Fetch(context.Background(), "https://example.com/feed", pantry.FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Fetch() = %q, want %q", got, "payload")
	}
}

func TestModule_StopClosesClient(t *testing.T) {
	var client *pantry.Client

	app := fxtest.New(t,
		fx.Supply(zap.NewNop()),
		Module,
		fx.Populate(&client),
	)
	app.RequireStart()
	app.RequireStop()

	if _, err := client.Fetch(context.Background(), "https://example.com/feed", pantry.FetchOptions{}); !errors.Is(err, pantry.ErrClosed) {
		t.Errorf("Fetch() after app stop error = %v, want ErrClosed", err)
	}
}
