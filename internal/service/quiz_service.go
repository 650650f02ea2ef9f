package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/vhoang/QuizForge/internal/dto"
	"github.com/vhoang/QuizForge/internal/model"
	"github.com/vhoang/QuizForge/internal/repository"
)

// Batch sizes are policy constants, not user-configurable.
const (
	initialBatchSize  = 30
	loadMoreBatchSize = 10
)

var ErrSessionNotFound = errors.New("quiz session not found")

// QuizService owns the session registry and composes the question generator
// with the per-session quiz state.
type QuizService interface {
	CreateSession() (*dto.SessionResponse, error)
	GetState(sessionID string) (*dto.QuizStateDTO, error)
	Generate(ctx context.Context, sessionID string, req dto.GenerateQuizRequest) (*dto.QuizStateDTO, error)
	LoadMore(ctx context.Context, sessionID string) (*dto.QuizStateDTO, error)
	SelectAnswer(sessionID string, req dto.SelectAnswerRequest) (*dto.QuizStateDTO, error)
	DeleteSession(sessionID string) error
	SweepIdleSessions(ttl time.Duration) int
}

type quizService struct {
	sessions  repository.SessionRepository
	generator QuestionGeneratorService
}

func NewQuizService(sessions repository.SessionRepository, generator QuestionGeneratorService) QuizService {
	return &quizService{sessions: sessions, generator: generator}
}

func (s *quizService) CreateSession() (*dto.SessionResponse, error) {
	session := model.NewQuizSession(uuid.NewString())
	s.sessions.Save(session)
	log.Info().Str("sessionID", session.ID).Msg("Quiz session created")
	return &dto.SessionResponse{SessionID: session.ID, CreatedAt: session.CreatedAt}, nil
}

func (s *quizService) GetState(sessionID string) (*dto.QuizStateDTO, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	return s.stateDTO(session)
}

func (s *quizService) Generate(ctx context.Context, sessionID string, req dto.GenerateQuizRequest) (*dto.QuizStateDTO, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}

	genReq, err := buildGenerationRequest(req, initialBatchSize)
	if err != nil {
		return nil, err
	}

	if err := session.BeginGenerate(); err != nil {
		log.Warn().Err(err).Str("sessionID", sessionID).Msg("Generate rejected")
		return nil, err
	}

	records, err := s.generator.GenerateQuestions(ctx, genReq)
	session.EndGenerate()
	if err != nil {
		// The session keeps its previous questions and answers untouched.
		log.Error().Err(err).Str("sessionID", sessionID).Str("topic", req.Topic).Msg("Generate fetch failed")
		return nil, err
	}

	if err := session.ApplyGenerate(records); err != nil {
		log.Warn().Err(err).Str("sessionID", sessionID).Msg("Discarding generate result")
		return nil, err
	}
	session.SetGenerationParams(genReq)
	log.Info().Str("sessionID", sessionID).Str("topic", req.Topic).Int("questionCount", len(records)).Msg("Quiz generated")
	return s.stateDTO(session)
}

func (s *quizService) LoadMore(ctx context.Context, sessionID string) (*dto.QuizStateDTO, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}

	genReq, ok := session.GenerationParams()
	if !ok {
		return nil, model.ErrNoQuestions
	}
	genReq.Count = loadMoreBatchSize

	if err := session.BeginLoadMore(); err != nil {
		log.Warn().Err(err).Str("sessionID", sessionID).Msg("LoadMore rejected")
		return nil, err
	}

	records, err := s.generator.GenerateQuestions(ctx, genReq)
	session.EndLoadMore()
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("LoadMore fetch failed")
		return nil, err
	}

	if err := session.ApplyLoadMore(records); err != nil {
		log.Warn().Err(err).Str("sessionID", sessionID).Msg("Discarding load-more result")
		return nil, err
	}
	log.Info().Str("sessionID", sessionID).Int("appended", len(records)).Msg("Quiz extended")
	return s.stateDTO(session)
}

func (s *quizService) SelectAnswer(sessionID string, req dto.SelectAnswerRequest) (*dto.QuizStateDTO, error) {
	session, err := s.find(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.RecordAnswer(*req.QuestionIndex, req.SelectedOption); err != nil {
		return nil, err
	}
	return s.stateDTO(session)
}

func (s *quizService) DeleteSession(sessionID string) error {
	session, err := s.find(sessionID)
	if err != nil {
		return err
	}
	session.Close()
	s.sessions.Delete(sessionID)
	log.Info().Str("sessionID", sessionID).Msg("Quiz session deleted")
	return nil
}

// SweepIdleSessions closes and removes sessions idle past ttl. Returns the
// number removed.
func (s *quizService) SweepIdleSessions(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, session := range s.sessions.All() {
		if session.LastActive().Before(cutoff) {
			session.Close()
			s.sessions.Delete(session.ID)
			removed++
		}
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Idle quiz sessions swept")
	}
	return removed
}

func (s *quizService) find(sessionID string) (*model.QuizSession, error) {
	session, ok := s.sessions.FindByID(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *quizService) stateDTO(session *model.QuizSession) (*dto.QuizStateDTO, error) {
	snap := session.Snapshot()
	var questions []dto.QuestionDTO
	if err := copier.Copy(&questions, &snap.Questions); err != nil {
		log.Error().Err(err).Msg("Failed to copy questions to DTO")
		return nil, fmt.Errorf("error preparing quiz state response: %w", err)
	}
	return &dto.QuizStateDTO{
		SessionID:    session.ID,
		Questions:    questions,
		Answers:      snap.Answers,
		CorrectCount: snap.Correct,
		TotalCount:   snap.Total,
		Generating:   snap.Generating,
		LoadingMore:  snap.LoadingMore,
	}, nil
}

func buildGenerationRequest(req dto.GenerateQuizRequest, count int) (model.GenerationRequest, error) {
	difficulty := model.Difficulty(req.Difficulty)
	language := model.Language(req.Language)
	if !difficulty.Valid() {
		return model.GenerationRequest{}, fmt.Errorf("unsupported difficulty %q", req.Difficulty)
	}
	if !language.Valid() {
		return model.GenerationRequest{}, fmt.Errorf("unsupported language %q", req.Language)
	}
	return model.GenerationRequest{
		Topic:      req.Topic,
		Difficulty: difficulty,
		Language:   language,
		Count:      count,
	}, nil
}
