//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quickbite/internal/api"
	"quickbite/internal/app"
	"quickbite/internal/chat"
	"quickbite/internal/common/config"
	"quickbite/internal/common/logger"
	"quickbite/internal/repository"
	"quickbite/internal/seed"

	cpe "quickbite/internal/workers/chat/confirm-price-edit"
	hcm "quickbite/internal/workers/chat/handle-chat-message"
)

var zapLog *zap.Logger

func TestMain(m *testing.M) {
	if os.Getenv("QUICKBITE_E2E") == "" {
		// Needs Postgres and Redis on localhost.
		os.Exit(0)
	}
	zapLog, _ = zap.NewDevelopment()
	code := m.Run()
	_ = zapLog.Sync()
	os.Exit(code)
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	// Force localhost for e2e runs.
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.Enabled = false
	cfg.Notifications.SNS.Enabled = false
	cfg.Storage.S3.Enabled = false
	cfg.Vision.BaseURL = ""
	cfg.Chat.Selector = "first"

	components, err := app.Build(ctx, cfg, zapLog)
	require.NoError(t, err, "backing stores unavailable")
	defer components.Close()

	log := logger.NewZapAdapter(zapLog)
	require.NoError(t, repository.ApplySchema(ctx, components.Postgres))
	_, err = seed.Run(ctx, components.Menu, nil, seed.Catalog(), log)
	require.NoError(t, err)

	t.Run("workers", func(t *testing.T) {
		testWorkers(t, ctx, components, log)
	})
	t.Run("http", func(t *testing.T) {
		testHTTP(t, components, log)
	})
}

func testWorkers(t *testing.T, ctx context.Context, c *app.Components, log logger.Logger) {
	messages := hcm.NewHandler(hcm.LoadConfig(), c.Assistant, log)
	confirm := cpe.NewHandler(cpe.LoadConfig(), c.Assistant, log)

	session := "e2e-" + time.Now().Format("150405.000")
	out, err := messages.Execute(ctx, &hcm.Input{
		Role: "member", UserIdentifier: "e2e@example.com", SessionID: session, Text: "add 2 teh tarik to my cart",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Replies[0], "Added to your cart")

	lines, err := c.Carts.ForSession(session).Lines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	out, err = messages.Execute(ctx, &hcm.Input{
		Role: "admin", UserIdentifier: "e2e-admin", Text: "change the price of Teh Tarik to RM 3.80",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Confirmation)

	done, err := confirm.Execute(ctx, &cpe.Input{
		Role: "admin", UserIdentifier: "e2e-admin", ItemName: out.Confirmation.Payload.ItemName, NewPrice: out.Confirmation.Payload.NewPrice,
	})
	require.NoError(t, err)
	assert.Contains(t, done.Replies[0], "Done!")

	item, err := c.Menu.FindMenuItemByExactName(ctx, "Teh Tarik")
	require.NoError(t, err)
	assert.Equal(t, 3.8, item.Price)

	// restore the seeded price for the next run
	_, err = seed.Run(ctx, c.Menu, nil, seed.Catalog(), log)
	require.NoError(t, err)
}

func testHTTP(t *testing.T, c *app.Components, log logger.Logger) {
	srv := httptest.NewServer(api.NewServer(api.Config{
		CookieName:     "qb_session",
		MaxUploadBytes: 1 << 20,
		RequestTimeout: 10 * time.Second,
		Mode:           "test",
	}, c.APIDependencies(), log).Router())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Post(srv.URL+"/api/chat/messages", "application/json",
		strings.NewReader(`{"text":"show me the menu"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var view chat.TranscriptView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&view))
	require.NotEmpty(t, view.Replies)
	assert.Contains(t, view.Replies[0], "Classic Burger")
}
