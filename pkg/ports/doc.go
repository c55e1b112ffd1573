/*
Package ports defines the driven ports (interfaces) for the storyloom engine.

These interfaces decouple the clarification loop from external implementations, allowing
the engine to work with various completion providers, storage backends and response parsers.

# Key Interfaces

  - CompletionClient: Turns an ordered list of role-tagged messages into one generated text block.
  - ResponseParser: Splits a generated text block into a body and a single trailing question.
  - StateStore: Responsible for persisting and loading session State.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
