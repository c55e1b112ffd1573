/*
Package runner implements the interactive chat loop around a storyloom.Service.

It acts as the bridge between the clarification dialogue and a terminal (or any line-based
stream). The runner reads one line at a time, decides whether it is a new requirement, an
answer to the pending question or a command, calls the service and prints what changed.

# Key Components

  - Runner: The loop. Plain lines are requirements or answers; "/ask", "/improve", "/export",
    "/history", "/new", "/reset" and "/quit" are commands.
  - IOHandler: Decouples how blocks are shown and how lines are read (text or JSON lines).
  - TextHandler: The interactive CLI implementation, with optional markdown rendering.
  - Blocks: Turns the difference between two states into displayable blocks.

# Usage

	r := runner.NewRunner(
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdout, runner.WithInputReader(os.Stdin))),
	)

	if err := r.Run(ctx, svc); err != nil {
		log.Fatal(err)
	}
*/
package runner
