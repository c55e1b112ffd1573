package runner_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storyloom"
	"github.com/aretw0/storyloom/pkg/adapters/completion"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/runner"
)

func newService(t *testing.T) *storyloom.Service {
	t.Helper()
	svc, err := storyloom.NewService(completion.NewScripted(),
		storyloom.WithClock(func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return svc
}

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestRunner_ClarificationLoop(t *testing.T) {
	svc := newService(t)
	out := &bytes.Buffer{}
	dir := t.TempDir()

	r := runner.NewRunner(
		runner.WithHeadless(true),
		runner.WithExport(dir, "docx", true),
		runner.WithInputHandler(runner.NewTextHandler(out, runner.WithInputReader(script(
			"Users log in with a one-time SMS code",
			"5 minutes",
			"/ask Is the code single use?",
			"/history",
			"/improve",
			"/export md",
			"/quit",
			"never read",
		)))),
	)

	require.NoError(t, r.Run(context.Background(), svc))

	output := out.String()
	assert.Contains(t, output, "As a user, I want users log in with a one-time SMS code")
	assert.Contains(t, output, "? Which user roles are involved?")
	assert.Contains(t, output, "ai: Thanks, that is noted.")
	assert.Contains(t, output, "? What should happen when the operation fails?")
	assert.Contains(t, output, `ai: The story does not say more about "Is the code single use?"`)
	assert.Contains(t, output, "you: 5 minutes")
	assert.Contains(t, output, "Acceptance criteria were reviewed for testability.")
	assert.Contains(t, output, "[System] Saved "+filepath.Join(dir, "user_story_20240501_103000.md"))

	data, err := os.ReadFile(filepath.Join(dir, "user_story_20240501_103000.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# AI Generated User Story")

	ids, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, ids[0], r.SessionID)

	state, err := svc.Get(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, 1, state.Revision)
	assert.Empty(t, state.Turns)
}

func TestRunner_ResumeSession(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Submit(ctx, "s1", domain.Requirement{Text: "Book a meeting room"})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithSessionID("s1"),
		runner.WithInputHandler(runner.NewTextHandler(out, runner.WithInputReader(script("guests and staff")))),
	)
	require.NoError(t, r.Run(ctx, svc))

	output := out.String()
	assert.Contains(t, output, "book a meeting room")
	assert.Contains(t, output, "? Which user roles are involved?")
	assert.Contains(t, output, "? What should happen when the operation fails?")

	state, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, state.Turns, 1)
	assert.Equal(t, "guests and staff", state.Turns[0].Answer)
}

func TestRunner_ResetAsksForConfirmation(t *testing.T) {
	svc := newService(t)
	out := &bytes.Buffer{}

	r := runner.NewRunner(
		runner.WithSessionID("s1"),
		runner.WithInputHandler(runner.NewTextHandler(out, runner.WithInputReader(script(
			"Track parcels",
			"/reset",
			"n",
			"/reset",
			"yes",
		)))),
	)
	require.NoError(t, r.Run(context.Background(), svc))

	assert.Equal(t, 2, strings.Count(out.String(), "Discard the current story? [y/N]"))
	assert.Contains(t, out.String(), "Session discarded.")

	_, err := svc.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRunner_ErrorsKeepTheLoopAlive(t *testing.T) {
	svc := newService(t)
	out := &bytes.Buffer{}

	r := runner.NewRunner(
		runner.WithHeadless(true),
		runner.WithInputHandler(runner.NewTextHandler(out, runner.WithInputReader(script(
			"/improve",
			"/bogus",
			"/new",
			"Reset a forgotten password",
		)))),
	)
	require.NoError(t, r.Run(context.Background(), svc))

	output := out.String()
	assert.Contains(t, output, "[System] Error: there is no story yet")
	assert.Contains(t, output, "unknown command /bogus")
	assert.Contains(t, output, "[System] Error: please type something first")
	assert.Contains(t, output, "reset a forgotten password")
}

func TestRunner_JSONHandler(t *testing.T) {
	svc := newService(t)
	out := &bytes.Buffer{}

	r := runner.NewRunner(
		runner.WithHeadless(true),
		runner.WithInputHandler(runner.NewJSONHandler(out, script(`"Export invoices"`, "monthly"))),
	)
	require.NoError(t, r.Run(context.Background(), svc))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	var blocks []string
	for _, l := range lines {
		if strings.HasPrefix(l, "[") {
			blocks = append(blocks, l)
		}
	}
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], `"kind":"story"`)
	assert.Contains(t, blocks[1], `"kind":"acknowledgement"`)
	assert.Contains(t, blocks[1], `"kind":"question"`)
}
