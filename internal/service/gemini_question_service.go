package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/vhoang/QuizForge/config"
	"github.com/vhoang/QuizForge/internal/model"
)

const (
	// maxFetchAttempts bounds the retry loop: the initial call plus two retries.
	maxFetchAttempts = 3
	// defaultRetryBaseDelay is doubled after each failed attempt (1s, then 2s).
	defaultRetryBaseDelay = time.Second
)

const generatorSystemInstruction = `You are an expert quiz author.
Generate multiple-choice questions on the topic the user provides.
Every question must have exactly 4 answer options, all distinct, and the
correctAnswer field must match one of the options verbatim.
Respond with a JSON array only, no surrounding prose.`

// QuestionGeneratorService turns a generation request into validated questions,
// hiding transient network failure behind a bounded retry budget. It never
// touches session state.
type QuestionGeneratorService interface {
	GenerateQuestions(ctx context.Context, req model.GenerationRequest) ([]model.Question, error)
}

// contentGenerator is the slice of *genai.GenerativeModel this service needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type geminiQuestionService struct {
	client         contentGenerator
	cfg            *config.Config
	retryBaseDelay time.Duration
}

func NewGeminiQuestionService(cfg *config.Config) (QuestionGeneratorService, error) {
	if cfg.Gemini.ApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Question generation will be non-functional.")
		return &geminiQuestionService{cfg: cfg, retryBaseDelay: defaultRetryBaseDelay}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.ApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	m := client.GenerativeModel(cfg.Gemini.Model)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = questionBatchSchema()
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(generatorSystemInstruction)}}
	return &geminiQuestionService{client: m, cfg: cfg, retryBaseDelay: defaultRetryBaseDelay}, nil
}

// questionBatchSchema constrains the model output to an array of question
// objects so the response text parses directly into []model.Question.
func questionBatchSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question":      {Type: genai.TypeString},
				"options":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"correctAnswer": {Type: genai.TypeString},
			},
			Required: []string{"question", "options", "correctAnswer"},
		},
	}
}

func buildQuery(req model.GenerationRequest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generate %d multiple-choice questions about: %s\n\n", req.Count, req.Topic))
	sb.WriteString(fmt.Sprintf("Difficulty level: %s\n", req.Difficulty))
	sb.WriteString(fmt.Sprintf("Write the questions, options and answers in %s.\n\n", req.Language))
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Each question must have exactly 4 answer options\n")
	sb.WriteString("- All 4 options must be distinct\n")
	sb.WriteString("- correctAnswer must be an exact copy of one of the options\n")
	sb.WriteString("- Incorrect options should be plausible but clearly wrong\n")
	return sb.String()
}

func (s *geminiQuestionService) GenerateQuestions(ctx context.Context, req model.GenerationRequest) ([]model.Question, error) {
	if s.client == nil {
		return nil, &GenerationError{Kind: ErrKindNetwork, Err: fmt.Errorf("gemini client not initialized")}
	}

	resp, err := s.callWithRetry(ctx, genai.Text(buildQuery(req)))
	if err != nil {
		return nil, err
	}

	payload, err := extractText(resp)
	if err != nil {
		log.Warn().Err(err).Str("topic", req.Topic).Msg("Gemini response carried no usable text")
		return nil, &GenerationError{Kind: ErrKindMalformedResponse, Err: err}
	}

	var records []model.Question
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		log.Warn().Err(err).Str("topic", req.Topic).Msg("Gemini response text is not a question array")
		return nil, &GenerationError{Kind: ErrKindParseError, Err: fmt.Errorf("decoding question array: %w", err)}
	}

	valid := make([]model.Question, 0, len(records))
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			log.Warn().Err(err).Int("recordIndex", i).Str("question", rec.Question).Msg("Dropping structurally invalid question")
			continue
		}
		valid = append(valid, rec)
	}
	if len(valid) < len(records) {
		log.Info().Int("requested", req.Count).Int("received", len(records)).Int("valid", len(valid)).Msg("Some generated questions were dropped by validation")
	}
	return valid, nil
}

// callWithRetry retries transport failures only. A response that was received
// successfully is never retried, even if its content later fails validation.
func (s *geminiQuestionService) callWithRetry(ctx context.Context, prompt genai.Part) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			delay := s.retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, &GenerationError{Kind: ErrKindNetwork, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
		resp, err := s.client.GenerateContent(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt+1).Int("maxAttempts", maxFetchAttempts).Msg("Gemini call failed")
	}
	return nil, &GenerationError{Kind: ErrKindNetwork, Err: lastErr}
}

// extractText pulls the generated text out of the provider envelope.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty or malformed response structure")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty or malformed response structure")
	}
	return sb.String(), nil
}
