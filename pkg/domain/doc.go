/*
Package domain contains the core domain models of the storyloom clarification loop.

It defines the conversation aggregate that a session carries between interactions and
the records appended to it. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Requirement: The raw requirement text plus optional domain context.
  - State: The ConversationState of one session (Artifact, PendingQuestion, Turns).
  - Turn: One immutable record of a question, its answer and the acknowledgement.
  - Message: A role-tagged message sent to a completion service.
  - Draft: The split result of a single completion (body + trailing question).
*/
package domain
