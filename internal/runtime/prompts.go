package runtime

import (
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
)

const systemPrompt = `You are a senior Agile business analyst.
You turn software requirements into small, testable user stories and you help the team
clarify them one question at a time. Answer in the language of the requirement.`

// promptBuilder assembles the ordered message lists sent to the completion service.
type promptBuilder struct {
	parser        interface{ Instruction(string) string }
	historyWindow int
}

func (b promptBuilder) generate(req domain.Requirement) []domain.Message {
	var sb strings.Builder
	sb.WriteString("Convert the requirement below into Agile user stories.\n\n")
	sb.WriteString("1. Decompose it into atomic user stories, each written as \"As a <role>, I want <capability>, so that <benefit>\".\n")
	sb.WriteString("2. Give every story a list of acceptance criteria.\n")
	sb.WriteString("3. List the edge cases the team must handle.\n")
	sb.WriteString("4. List the assumptions you made.\n")
	sb.WriteString("5. End with exactly ONE clarification question about the most important open point.\n\n")

	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		sb.WriteString("Domain context:\n")
		sb.WriteString(ctx)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Requirement:\n")
	sb.WriteString(strings.TrimSpace(req.Text))
	sb.WriteString("\n\n")
	sb.WriteString(b.parser.Instruction("user stories"))

	return []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: sb.String()},
	}
}

func (b promptBuilder) advance(state *domain.State, answer string) []domain.Message {
	msgs := b.anchored(state)

	var sb strings.Builder
	sb.WriteString("User Story:\n")
	sb.WriteString(state.Artifact)
	sb.WriteString("\n\nPrevious Question:\n")
	sb.WriteString(state.PendingQuestion)
	sb.WriteString("\n\nUser Answer:\n")
	sb.WriteString(answer)
	sb.WriteString("\n\n1. Acknowledge the answer briefly.\n")
	sb.WriteString("2. Ask ONE new clarification question that has not been asked before.\n")
	sb.WriteString("Do NOT rewrite the story.\n\n")
	sb.WriteString(b.parser.Instruction("acknowledgement"))

	return append(msgs, domain.Message{Role: domain.RoleUser, Content: sb.String()})
}

func (b promptBuilder) ask(state *domain.State, question string) []domain.Message {
	msgs := b.anchored(state)

	var sb strings.Builder
	sb.WriteString("User Story:\n")
	sb.WriteString(state.Artifact)
	sb.WriteString("\n\nUser Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer clearly.\nDo NOT rewrite the story.")

	return append(msgs, domain.Message{Role: domain.RoleUser, Content: sb.String()})
}

func (b promptBuilder) improve(artifact string) []domain.Message {
	var sb strings.Builder
	sb.WriteString("Improve the user stories below. Make them clearer, more detailed and easier to test.\n")
	sb.WriteString("Keep the \"As a / I want / so that\" form, the acceptance criteria, the edge cases and the assumptions.\n")
	sb.WriteString("End with exactly ONE new clarification question.\n\n")
	sb.WriteString("User Stories:\n")
	sb.WriteString(artifact)
	sb.WriteString("\n\n")
	sb.WriteString(b.parser.Instruction("improved user stories"))

	return []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: sb.String()},
	}
}

// anchored returns the system message, the artifact and the replayed history.
// Each turn becomes an assistant question followed by the user answer, so the
// model can see what was already asked.
func (b promptBuilder) anchored(state *domain.State) []domain.Message {
	msgs := []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleAssistant, Content: state.Artifact},
	}

	turns := state.Turns
	if b.historyWindow > 0 && len(turns) > b.historyWindow {
		turns = turns[len(turns)-b.historyWindow:]
	}

	for _, t := range turns {
		switch t.Kind {
		case domain.TurnUserQuestion:
			msgs = append(msgs,
				domain.Message{Role: domain.RoleUser, Content: t.Question},
				domain.Message{Role: domain.RoleAssistant, Content: t.Answer},
			)
		default:
			msgs = append(msgs,
				domain.Message{Role: domain.RoleAssistant, Content: t.Question},
				domain.Message{Role: domain.RoleUser, Content: t.Answer},
			)
		}
	}
	return msgs
}
