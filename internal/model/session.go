package model

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionClosed   = errors.New("quiz session is closed")
	ErrFetchInFlight   = errors.New("a fetch of this kind is already in flight")
	ErrNoQuestions     = errors.New("quiz session has no questions to extend")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrUnknownOption   = errors.New("selected option is not one of the question's options")
)

// QuizSession owns the authoritative question list and answer state for one
// browser session. All mutations go through the mutex: gin handlers run
// concurrently, so the session enforces single-writer discipline itself
// instead of relying on the UI disabling its buttons.
type QuizSession struct {
	ID        string
	CreatedAt time.Time

	mu          sync.Mutex
	questions   []Question
	answers     map[int]string
	params      GenerationRequest
	hasParams   bool
	generating  bool
	loadingMore bool
	closed      bool
	lastActive  time.Time
}

func NewQuizSession(id string) *QuizSession {
	now := time.Now()
	return &QuizSession{
		ID:         id,
		CreatedAt:  now,
		answers:    make(map[int]string),
		lastActive: now,
	}
}

// BeginGenerate marks a generate fetch as in flight. A second generate while
// one is pending is rejected rather than queued.
func (s *QuizSession) BeginGenerate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.generating {
		return ErrFetchInFlight
	}
	s.generating = true
	s.lastActive = time.Now()
	return nil
}

func (s *QuizSession) EndGenerate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
}

// BeginLoadMore marks a load-more fetch as in flight. Load-more is only
// meaningful once the session holds questions.
func (s *QuizSession) BeginLoadMore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if len(s.questions) == 0 {
		return ErrNoQuestions
	}
	if s.loadingMore {
		return ErrFetchInFlight
	}
	s.loadingMore = true
	s.lastActive = time.Now()
	return nil
}

func (s *QuizSession) EndLoadMore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingMore = false
}

// ApplyGenerate replaces the question list and clears every recorded answer:
// a new topic invalidates the old index-based answer mapping. A session closed
// while the fetch was outstanding discards the result instead of mutating.
func (s *QuizSession) ApplyGenerate(records []Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.questions = make([]Question, len(records))
	copy(s.questions, records)
	s.answers = make(map[int]string)
	s.lastActive = time.Now()
	return nil
}

// ApplyLoadMore appends records to the end of the question list. Existing
// indices, and therefore existing answers, are untouched.
func (s *QuizSession) ApplyLoadMore(records []Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.questions = append(s.questions, records...)
	s.lastActive = time.Now()
	return nil
}

// SetGenerationParams records the parameters of the last successful generate
// so load-more fetches more of the same topic.
func (s *QuizSession) SetGenerationParams(req GenerationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = req
	s.hasParams = true
}

func (s *QuizSession) GenerationParams() (GenerationRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params, s.hasParams
}

// RecordAnswer stores the user's selection for a question. The first answer is
// final: answering an already-answered index is a no-op, so repeated clicks
// cannot corrupt the score.
func (s *QuizSession) RecordAnswer(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	if !s.questions[index].HasOption(option) {
		return ErrUnknownOption
	}
	if _, answered := s.answers[index]; answered {
		return nil
	}
	s.answers[index] = option
	s.lastActive = time.Now()
	return nil
}

// Score recomputes the running score on demand. No cached counter to keep in
// sync with the answer map.
func (s *QuizSession) Score() (correct, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreLocked()
}

func (s *QuizSession) scoreLocked() (correct, total int) {
	for i, q := range s.questions {
		if ans, ok := s.answers[i]; ok && ans == q.CorrectAnswer {
			correct++
		}
	}
	return correct, len(s.questions)
}

// Close tears the session down. Fetches still outstanding will have their
// eventual results rejected by the closed flag.
func (s *QuizSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *QuizSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LastActive returns the time of the last state change, used by the idle sweep.
func (s *QuizSession) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// QuizStateSnapshot is a consistent copy of the session state for presentation.
type QuizStateSnapshot struct {
	Questions   []Question
	Answers     map[int]string
	Correct     int
	Total       int
	Generating  bool
	LoadingMore bool
}

func (s *QuizSession) Snapshot() QuizStateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	questions := make([]Question, len(s.questions))
	copy(questions, s.questions)
	answers := make(map[int]string, len(s.answers))
	for i, a := range s.answers {
		answers[i] = a
	}
	correct, total := s.scoreLocked()
	return QuizStateSnapshot{
		Questions:   questions,
		Answers:     answers,
		Correct:     correct,
		Total:       total,
		Generating:  s.generating,
		LoadingMore: s.loadingMore,
	}
}
