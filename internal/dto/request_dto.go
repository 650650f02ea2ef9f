package dto

// GenerateQuizRequest starts a fresh quiz for a session. Difficulty and
// language are closed sets enforced at binding time.
type GenerateQuizRequest struct {
	Topic      string `json:"topic" binding:"required"`
	Difficulty string `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Language   string `json:"language" binding:"required,oneof=english vietnamese spanish french german japanese"`
}

// SelectAnswerRequest records the user's pick for one question. The index is a
// pointer so that answering question 0 still passes the required check.
type SelectAnswerRequest struct {
	QuestionIndex  *int   `json:"question_index" binding:"required,gte=0"`
	SelectedOption string `json:"selected_option" binding:"required"`
}
