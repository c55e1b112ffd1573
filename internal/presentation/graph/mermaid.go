package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
)

// labelLimit caps node labels so long answers do not blow up the diagram.
const labelLimit = 48

// GenerateMermaid produces a Mermaid flowchart of a session's clarification dialogue.
// It applies semantic styling:
// - Requirement: ((Circle))
// - Story: [[Subroutine]]
// - Questions: [/Parallelogram/]
// - Answers: [Rectangle]
// The pending question, if any, is styled as the current node.
func GenerateMermaid(state *domain.State) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if state == nil {
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("    req((\"%s\"))\n", label(state.Requirement.Text)))
	if !state.HasArtifact() {
		return sb.String()
	}

	story := "User story"
	if state.Revision > 0 {
		story = fmt.Sprintf("User story <br/> rev %d", state.Revision)
	}
	sb.WriteString(fmt.Sprintf("    story[[\"%s\"]]\n", story))
	sb.WriteString("    req --> story\n")

	prev := "story"
	for i, turn := range state.Turns {
		q := fmt.Sprintf("q%d", i)
		a := fmt.Sprintf("a%d", i)
		sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", q, label(turn.Question)))
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", a, label(turn.Answer)))

		// User questions hang off the dialogue with a dotted edge.
		if turn.Kind == domain.TurnUserQuestion {
			sb.WriteString(fmt.Sprintf("    %s -. asks .-> %s\n", prev, q))
		} else {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, q))
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", q, a))
		prev = a
	}

	if state.HasPendingQuestion() {
		sb.WriteString(fmt.Sprintf("    pending[/\"%s\"/]\n", label(state.PendingQuestion)))
		sb.WriteString(fmt.Sprintf("    %s --> pending\n", prev))
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	sb.WriteString("    class req,story visited;\n")
	if state.HasPendingQuestion() {
		sb.WriteString("    class pending current;\n")
	}

	return sb.String()
}

// label flattens text into a single Mermaid-safe line.
func label(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace(s)
	if r := []rune(s); len(r) > labelLimit {
		s = string(r[:labelLimit-1]) + "…"
	}
	return s
}
