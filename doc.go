/*
Package storyloom turns free-text requirements into Agile user stories and refines them through a
clarification dialogue with a text-completion service.

Every generation ends with exactly one clarification question. Answering it produces a short
acknowledgement and the next question, while the story itself stays put until it is explicitly
improved. The running dialogue is kept per session so that it survives the re-render cycles of the
CLI, HTTP and MCP surfaces.

# Concept

The Engine holds the pure transitions (Generate, Advance, Ask, Improve): it receives a
ConversationState and returns a new one, never touching storage. The Service adds the session
workflow on top of it: input sanitization, per-session locking, load/transition/save and export.
Both are built from the same functional options.

# Usage

	client := completion.NewScripted() // or completion.New(ctx, completion.Config{...})

	svc, err := storyloom.NewService(client,
		storyloom.WithStore(memory.NewStore()),
		storyloom.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state, err := svc.Submit(ctx, "", domain.Requirement{Text: "Users log in with a one-time SMS code"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(state.Artifact)
	fmt.Println(state.PendingQuestion)

	state, err = svc.Answer(ctx, state.SessionID, "5 minutes")
	...

	file, err := svc.Export(ctx, state.SessionID, storyloom.ExportOptions{Format: "docx"})
*/
package storyloom
