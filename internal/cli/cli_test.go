package cli

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storyloom/internal/config"
	"github.com/aretw0/storyloom/internal/logging"
	"github.com/aretw0/storyloom/pkg/domain"
)

func scriptedConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.LLM.Provider = "scripted"
	cfg.LLM.APIKey = ""
	cfg.Store.Backend = "memory"
	cfg.Export.Dir = t.TempDir()
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := NewApp(context.Background(), cfg, WithAppLogger(logging.NewNop()))
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestNewApp_GenerateAnswerExport(t *testing.T) {
	app := newTestApp(t, scriptedConfig(t))
	ctx := context.Background()
	var out bytes.Buffer

	state, err := Generate(ctx, app, GenerateOptions{SessionID: "s1", Text: "Users reset their password"}, OutputOptions{Writer: &out})
	require.NoError(t, err)
	assert.Equal(t, "s1", state.SessionID)
	assert.Contains(t, out.String(), "As a user, I want users reset their password")
	assert.Contains(t, out.String(), "? Which user roles are involved?")
	assert.Contains(t, out.String(), ">>> Session s1")

	out.Reset()
	state, err = Answer(ctx, app, "s1", "Only admins", OutputOptions{Writer: &out})
	require.NoError(t, err)
	require.Len(t, state.Turns, 1)
	assert.Equal(t, "Only admins", state.Turns[0].Answer)
	assert.Contains(t, out.String(), "ai: Thanks, that is noted.")

	path, err := Export(ctx, app, ExportOptions{SessionID: "s1", Format: "md"}, nil)
	require.NoError(t, err)
	assert.Equal(t, app.Config.Export.Dir, filepath.Dir(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "As a user")
}

func TestNewApp_JSONOutput(t *testing.T) {
	app := newTestApp(t, scriptedConfig(t))
	var out bytes.Buffer

	_, err := Generate(context.Background(), app, GenerateOptions{SessionID: "j1", Text: "Invoices"}, OutputOptions{JSON: true, Writer: &out})
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"session_id":"j1"`)
	assert.Contains(t, out.String(), `"kind":"question"`)
}

func TestNewApp_RecordsMetrics(t *testing.T) {
	app := newTestApp(t, scriptedConfig(t))

	_, err := Generate(context.Background(), app, GenerateOptions{Text: "Invoices"}, OutputOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "storyloom_completions_total")
	assert.Contains(t, names, "storyloom_artifacts_total")
}

func TestNewApp_FileStoreEncrypted(t *testing.T) {
	cfg := scriptedConfig(t)
	cfg.Store.Backend = "file"
	cfg.Store.Dir = t.TempDir()
	cfg.Store.EncryptionKey = hex.EncodeToString(bytes.Repeat([]byte{7}, 32))
	app := newTestApp(t, cfg)
	ctx := context.Background()

	_, err := Generate(ctx, app, GenerateOptions{SessionID: "secret", Text: "Payroll export"}, OutputOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(cfg.Store.Dir, "secret.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Payroll")

	state, err := app.Service.Get(ctx, "secret")
	require.NoError(t, err)
	assert.Contains(t, state.Artifact, "payroll export")
}

func TestNewApp_RedactsPII(t *testing.T) {
	cfg := scriptedConfig(t)
	cfg.Store.RedactPII = true
	app := newTestApp(t, cfg)
	ctx := context.Background()

	_, err := Generate(ctx, app, GenerateOptions{SessionID: "pii", Text: "Notify jane@example.com on failure"}, OutputOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)

	state, err := app.Service.Get(ctx, "pii")
	require.NoError(t, err)
	assert.NotContains(t, state.Requirement.Text, "jane@example.com")
	assert.NotContains(t, state.Artifact, "jane@example.com")
}

func TestNewApp_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := scriptedConfig(t)
	cfg.Store.Backend = "redis"
	cfg.Store.Redis.Addr = mr.Addr()
	app := newTestApp(t, cfg)
	ctx := context.Background()

	_, err := Generate(ctx, app, GenerateOptions{SessionID: "r1", Text: "Invoices"}, OutputOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.True(t, mr.Exists(cfg.Store.Redis.Prefix+"r1"))

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, app, &out))
	assert.Contains(t, out.String(), "r1")
}

func TestNewApp_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"missing api key", func(c *config.Config) { c.LLM.Provider = "groq"; c.LLM.APIKey = "" }},
		{"bad encryption key", func(c *config.Config) { c.Store.EncryptionKey = "short" }},
		{"unknown backend", func(c *config.Config) { c.Store.Backend = "s3" }},
		{"unknown provider", func(c *config.Config) { c.LLM.Provider = "bard"; c.LLM.APIKey = "k" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := scriptedConfig(t)
			tt.modify(cfg)

			_, err := NewApp(context.Background(), cfg, WithAppLogger(logging.NewNop()))

			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestSessions_InspectAndRemove(t *testing.T) {
	app := newTestApp(t, scriptedConfig(t))
	ctx := context.Background()
	_, err := Generate(ctx, app, GenerateOptions{SessionID: "s1", Text: "Invoices"}, OutputOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, app, &out))
	assert.Contains(t, out.String(), "SESSION")
	assert.Contains(t, out.String(), "s1")

	out.Reset()
	require.NoError(t, InspectSession(ctx, app, "s1", true, &out))
	assert.Contains(t, out.String(), "session_id: s1")
	assert.Contains(t, out.String(), "pending_question: Which user roles are involved?")

	out.Reset()
	require.NoError(t, InspectSession(ctx, app, "s1", false, &out))
	assert.Contains(t, out.String(), `"session_id": "s1"`)

	out.Reset()
	require.NoError(t, GraphSession(ctx, app, "s1", &out))
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), "class pending current;")

	out.Reset()
	require.NoError(t, RemoveSession(ctx, app, "s1", &out))
	assert.Contains(t, out.String(), "Session 's1' removed.")

	_, err = app.Service.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, RemoveSession(ctx, app, "s1", &out), domain.ErrSessionNotFound)
}

func TestListSessions_Empty(t *testing.T) {
	app := newTestApp(t, scriptedConfig(t))
	var out bytes.Buffer

	require.NoError(t, ListSessions(context.Background(), app, &out))

	assert.Equal(t, ">>> No sessions found.\n", out.String())
}

func TestRunChat_Headless(t *testing.T) {
	app := newTestApp(t, scriptedConfig(t))
	var out bytes.Buffer

	err := RunChat(context.Background(), app, ChatOptions{
		SessionID: "chat",
		Headless:  true,
		Stdin:     strings.NewReader("Users export invoices\nOnly admins\n/quit\n"),
		Stdout:    &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "As a user")
	assert.Contains(t, out.String(), "Thanks, that is noted.")

	state, err := app.Service.Get(context.Background(), "chat")
	require.NoError(t, err)
	assert.Len(t, state.Turns, 1)
}

func TestRunChat_FreshDiscardsSession(t *testing.T) {
	app := newTestApp(t, scriptedConfig(t))
	ctx := context.Background()
	_, err := Generate(ctx, app, GenerateOptions{SessionID: "old", Text: "Invoices"}, OutputOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)

	err = RunChat(ctx, app, ChatOptions{
		SessionID: "old",
		Headless:  true,
		Fresh:     true,
		Stdin:     strings.NewReader(""),
		Stdout:    &bytes.Buffer{},
	})
	require.NoError(t, err)

	_, err = app.Service.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.EqualError(t, handleExecutionError(assert.AnError), assert.AnError.Error())
}
