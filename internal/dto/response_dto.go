package dto

import "time"

// QuestionDTO mirrors model.Question for API responses. The correct answer is
// included so the presentation layer can mark answered questions right or
// wrong without another round trip.
type QuestionDTO struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// QuizStateDTO is the full session snapshot the presentation layer consumes:
// questions, recorded answers, running score and loading flags.
type QuizStateDTO struct {
	SessionID    string         `json:"session_id"`
	Questions    []QuestionDTO  `json:"questions"`
	Answers      map[int]string `json:"answers"`
	CorrectCount int            `json:"correct_count"`
	TotalCount   int            `json:"total_count"`
	Generating   bool           `json:"generating"`
	LoadingMore  bool           `json:"loading_more"`
}

type SessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Kind    string   `json:"kind,omitempty"`
	Details []string `json:"details,omitempty"`
}
