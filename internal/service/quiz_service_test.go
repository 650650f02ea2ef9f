package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/vhoang/QuizForge/internal/dto"
	"github.com/vhoang/QuizForge/internal/model"
	"github.com/vhoang/QuizForge/internal/repository"
)

// stubBatchGenerator returns canned records or a canned error and remembers
// the last request it saw.
type stubBatchGenerator struct {
	records []model.Question
	err     error
	lastReq model.GenerationRequest
	calls   int
}

func (s *stubBatchGenerator) GenerateQuestions(ctx context.Context, req model.GenerationRequest) ([]model.Question, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func questionBatch(n int) []model.Question {
	batch := make([]model.Question, n)
	for i := range batch {
		correct := fmt.Sprintf("right %d", i)
		batch[i] = model.Question{
			Question:      fmt.Sprintf("question %d", i),
			Options:       []string{correct, "wrong a", "wrong b", "wrong c"},
			CorrectAnswer: correct,
		}
	}
	return batch
}

func generateRequest() dto.GenerateQuizRequest {
	return dto.GenerateQuizRequest{Topic: "go concurrency", Difficulty: "hard", Language: "english"}
}

func newQuizServiceWithSession(t *testing.T, gen QuestionGeneratorService) (QuizService, string) {
	t.Helper()
	svc := NewQuizService(repository.NewSessionRepository(), gen)
	resp, err := svc.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return svc, resp.SessionID
}

func TestGeneratePopulatesSession(t *testing.T) {
	stub := &stubBatchGenerator{records: questionBatch(3)}
	svc, sessionID := newQuizServiceWithSession(t, stub)

	state, err := svc.Generate(context.Background(), sessionID, generateRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if stub.lastReq.Count != initialBatchSize {
		t.Errorf("expected initial batch size %d, got %d", initialBatchSize, stub.lastReq.Count)
	}
	if stub.lastReq.Difficulty != model.DifficultyHard || stub.lastReq.Language != model.LanguageEnglish {
		t.Errorf("request parameters lost in translation: %+v", stub.lastReq)
	}
	if state.TotalCount != 3 || len(state.Questions) != 3 {
		t.Errorf("expected 3 questions, got state %+v", state)
	}
	if state.CorrectCount != 0 || len(state.Answers) != 0 {
		t.Errorf("fresh quiz should have no answers, got %+v", state)
	}
}

func TestGenerateFailureLeavesStateUntouched(t *testing.T) {
	stub := &stubBatchGenerator{records: questionBatch(2)}
	svc, sessionID := newQuizServiceWithSession(t, stub)

	if _, err := svc.Generate(context.Background(), sessionID, generateRequest()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	idx := 0
	if _, err := svc.SelectAnswer(sessionID, dto.SelectAnswerRequest{QuestionIndex: &idx, SelectedOption: "right 0"}); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	before, err := svc.GetState(sessionID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}

	stub.err = &GenerationError{Kind: ErrKindNetwork, Err: fmt.Errorf("socket closed")}
	if _, err := svc.Generate(context.Background(), sessionID, generateRequest()); err == nil {
		t.Fatal("expected generate to fail")
	}

	after, err := svc.GetState(sessionID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !reflect.DeepEqual(before.Questions, after.Questions) || !reflect.DeepEqual(before.Answers, after.Answers) {
		t.Error("a failed generate must not corrupt existing state")
	}
}

func TestLoadMoreAppendsAndReusesParams(t *testing.T) {
	stub := &stubBatchGenerator{records: questionBatch(2)}
	svc, sessionID := newQuizServiceWithSession(t, stub)

	if _, err := svc.Generate(context.Background(), sessionID, generateRequest()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	idx := 1
	if _, err := svc.SelectAnswer(sessionID, dto.SelectAnswerRequest{QuestionIndex: &idx, SelectedOption: "wrong a"}); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	state, err := svc.LoadMore(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if stub.lastReq.Count != loadMoreBatchSize {
		t.Errorf("expected load-more batch size %d, got %d", loadMoreBatchSize, stub.lastReq.Count)
	}
	if stub.lastReq.Topic != "go concurrency" {
		t.Errorf("load-more must reuse the generate topic, got %q", stub.lastReq.Topic)
	}
	if state.TotalCount != 4 {
		t.Errorf("expected 4 questions after append, got %d", state.TotalCount)
	}
	if state.Answers[1] != "wrong a" {
		t.Errorf("append must preserve recorded answers, got %v", state.Answers)
	}
}

func TestLoadMoreBeforeGenerateRejected(t *testing.T) {
	svc, sessionID := newQuizServiceWithSession(t, &stubBatchGenerator{})

	_, err := svc.LoadMore(context.Background(), sessionID)
	if !errors.Is(err, model.ErrNoQuestions) {
		t.Errorf("expected ErrNoQuestions, got %v", err)
	}
}

func TestLoadMoreFailureLeavesStateUntouched(t *testing.T) {
	stub := &stubBatchGenerator{records: questionBatch(2)}
	svc, sessionID := newQuizServiceWithSession(t, stub)

	if _, err := svc.Generate(context.Background(), sessionID, generateRequest()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	before, _ := svc.GetState(sessionID)

	stub.err = &GenerationError{Kind: ErrKindParseError, Err: fmt.Errorf("bad json")}
	if _, err := svc.LoadMore(context.Background(), sessionID); err == nil {
		t.Fatal("expected load-more to fail")
	}

	after, _ := svc.GetState(sessionID)
	if !reflect.DeepEqual(before.Questions, after.Questions) || !reflect.DeepEqual(before.Answers, after.Answers) {
		t.Error("a failed load-more must not corrupt existing state")
	}
}

func TestSelectAnswerScoring(t *testing.T) {
	stub := &stubBatchGenerator{records: questionBatch(2)}
	svc, sessionID := newQuizServiceWithSession(t, stub)
	if _, err := svc.Generate(context.Background(), sessionID, generateRequest()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	i0, i1 := 0, 1
	if _, err := svc.SelectAnswer(sessionID, dto.SelectAnswerRequest{QuestionIndex: &i0, SelectedOption: "right 0"}); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	state, err := svc.SelectAnswer(sessionID, dto.SelectAnswerRequest{QuestionIndex: &i1, SelectedOption: "wrong b"})
	if err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	if state.CorrectCount != 1 || state.TotalCount != 2 {
		t.Errorf("expected score (1, 2), got (%d, %d)", state.CorrectCount, state.TotalCount)
	}
}

func TestUnknownSession(t *testing.T) {
	svc := NewQuizService(repository.NewSessionRepository(), &stubBatchGenerator{})

	if _, err := svc.GetState("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), "nope", generateRequest()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.DeleteSession("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteSessionRemoves(t *testing.T) {
	svc, sessionID := newQuizServiceWithSession(t, &stubBatchGenerator{})

	if err := svc.DeleteSession(sessionID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := svc.GetState(sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected session gone, got %v", err)
	}
}

func TestSweepIdleSessions(t *testing.T) {
	svc, sessionID := newQuizServiceWithSession(t, &stubBatchGenerator{})

	if removed := svc.SweepIdleSessions(time.Hour); removed != 0 {
		t.Errorf("fresh session must survive the sweep, removed %d", removed)
	}
	if removed := svc.SweepIdleSessions(0); removed != 1 {
		t.Errorf("expected idle session to be swept, removed %d", removed)
	}
	if _, err := svc.GetState(sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected swept session gone, got %v", err)
	}
}
