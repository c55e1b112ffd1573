package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/storyloom/internal/presentation/graph"
	"github.com/aretw0/storyloom/pkg/domain"
)

// ListSessions prints a table of stored sessions, most recently updated first.
func ListSessions(ctx context.Context, app *App, w io.Writer) error {
	ids, err := app.Service.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		printSystemMessage(w, "No sessions found.")
		return nil
	}

	states := make([]*domain.State, 0, len(ids))
	for _, id := range ids {
		state, err := app.Service.Get(ctx, id)
		if err != nil {
			app.Logger.Warn("Skipping unreadable session", "session_id", id, "err", err)
			continue
		}
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].UpdatedAt.After(states[j].UpdatedAt)
	})

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tTURNS\tREVISION\tPENDING\tUPDATED")
	for _, s := range states {
		pending := "no"
		if s.HasPendingQuestion() {
			pending = "yes"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", s.SessionID, len(s.Turns), s.Revision, pending, s.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// InspectSession prints the stored state as JSON, or as YAML when asYAML is set.
func InspectSession(ctx context.Context, app *App, id string, asYAML bool, w io.Writer) error {
	state, err := app.Service.Get(ctx, id)
	if err != nil {
		return err
	}
	if asYAML {
		return writeYAML(w, state)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

// GraphSession prints the session's dialogue as a Mermaid flowchart.
func GraphSession(ctx context.Context, app *App, id string, w io.Writer) error {
	state, err := app.Service.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, graph.GenerateMermaid(state))
	return err
}

// RemoveSession deletes a stored session.
func RemoveSession(ctx context.Context, app *App, id string, w io.Writer) error {
	if _, err := app.Service.Get(ctx, id); err != nil {
		return err
	}
	if err := app.Service.Reset(ctx, id); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	printSystemMessage(w, "Session '%s' removed.", id)
	return nil
}

// writeYAML re-encodes v through its JSON form so field names match the API.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}
