package model

// Subject is a named pool of candidate questions. The whole subjects list
// lives in a single store document; entries are addressed by index, so the
// JSON field names must stay exactly as existing documents have them.
type Subject struct {
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

// CreateSubjectRequest is the payload for creating a subject.
type CreateSubjectRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// AddQuestionRequest is the payload for adding a question to a subject.
type AddQuestionRequest struct {
	Text string `json:"text" binding:"required,min=1,max=2000"`
}
