/*
Package parser provides the strategies that split one completion into a body and a
single trailing clarification question.

Two strategies are available:

  - QuestionMark reproduces the historical heuristic: split on the literal '?', everything
    up to the last '?' is the body and the last fragment, re-terminated with '?', is the
    question. It is best-effort: a '?' inside the body moves the boundary and nothing is reported.
  - Tagged asks the service for <content> and <question> sections and reads them back,
    falling back to another parser (QuestionMark by default) when the tags are missing.
*/
package parser
