package domain

// Role tags a message for the completion service.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the ordered list sent to a completion service.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Draft is a completion split in two parts: the body (story or acknowledgement)
// and the single trailing clarification question.
type Draft struct {
	Body     string `json:"body"`
	Question string `json:"question"`
	Raw      string `json:"raw,omitempty"`
}
