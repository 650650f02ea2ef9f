package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vhoang/QuizForge/internal/dto"
	"github.com/vhoang/QuizForge/internal/model"
	"github.com/vhoang/QuizForge/internal/service"
)

type Controller struct {
	quizSvc service.QuizService
}

func NewController(quizSvc service.QuizService) *Controller {
	return &Controller{quizSvc: quizSvc}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	apiV1 := router.Group("/api/v1")
	{
		sessions := apiV1.Group("/quiz/sessions")
		sessions.POST("", ctrl.CreateSessionHandler)
		sessions.GET("/:session_id", ctrl.GetStateHandler)
		sessions.POST("/:session_id/generate", ctrl.GenerateHandler)
		sessions.POST("/:session_id/load-more", ctrl.LoadMoreHandler)
		sessions.POST("/:session_id/answers", ctrl.SelectAnswerHandler)
		sessions.DELETE("/:session_id", ctrl.DeleteSessionHandler)
	}
}

// CreateSessionHandler godoc
// @Summary Create a new quiz session
// @Description Opens an empty quiz session. One session corresponds to one browser page lifetime.
// @Tags quiz
// @Produce json
// @Success 201 {object} dto.SessionResponse
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /quiz/sessions [post]
func (ctrl *Controller) CreateSessionHandler(ctx *gin.Context) {
	resp, err := ctrl.quizSvc.CreateSession()
	if err != nil {
		log.Error().Err(err).Msg("CreateSession: Service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create session", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetStateHandler godoc
// @Summary Get the current quiz state
// @Description Returns questions, recorded answers, running score and loading flags for a session.
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.QuizStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /quiz/sessions/{session_id} [get]
func (ctrl *Controller) GetStateHandler(ctx *gin.Context) {
	state, err := ctrl.quizSvc.GetState(ctx.Param("session_id"))
	if err != nil {
		ctrl.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// GenerateHandler godoc
// @Summary Generate a fresh quiz
// @Description Fetches a new batch of questions for the given topic, replacing any existing quiz and clearing recorded answers. On failure the previous quiz state is left untouched.
// @Tags quiz
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param request body dto.GenerateQuizRequest true "Topic, difficulty and language"
// @Success 200 {object} dto.QuizStateDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "A generate request is already in flight"
// @Failure 502 {object} dto.ErrorResponse "Upstream generation failure"
// @Router /quiz/sessions/{session_id}/generate [post]
func (ctrl *Controller) GenerateHandler(ctx *gin.Context) {
	var req dto.GenerateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Generate: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	sessionID := ctx.Param("session_id")
	log.Info().Str("sessionID", sessionID).Str("topic", req.Topic).Str("difficulty", req.Difficulty).Str("language", req.Language).Msg("Received generate request")

	state, err := ctrl.quizSvc.Generate(ctx.Request.Context(), sessionID, req)
	if err != nil {
		ctrl.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// LoadMoreHandler godoc
// @Summary Load more questions
// @Description Appends a batch of questions on the session's current topic. Existing questions and answers are preserved; on failure the quiz stays fully intact.
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.QuizStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "No quiz generated yet, or a load-more is already in flight"
// @Failure 502 {object} dto.ErrorResponse "Upstream generation failure"
// @Router /quiz/sessions/{session_id}/load-more [post]
func (ctrl *Controller) LoadMoreHandler(ctx *gin.Context) {
	sessionID := ctx.Param("session_id")
	state, err := ctrl.quizSvc.LoadMore(ctx.Request.Context(), sessionID)
	if err != nil {
		ctrl.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// SelectAnswerHandler godoc
// @Summary Record an answer
// @Description Records the selected option for a question. The first answer is final; repeating a selection for an answered question is a no-op.
// @Tags quiz
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param request body dto.SelectAnswerRequest true "Question index and selected option"
// @Success 200 {object} dto.QuizStateDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid index or option"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /quiz/sessions/{session_id}/answers [post]
func (ctrl *Controller) SelectAnswerHandler(ctx *gin.Context) {
	var req dto.SelectAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("SelectAnswer: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	state, err := ctrl.quizSvc.SelectAnswer(ctx.Param("session_id"), req)
	if err != nil {
		ctrl.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// DeleteSessionHandler godoc
// @Summary Delete a quiz session
// @Description Tears the session down. Results of fetches still outstanding are discarded.
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 204 "Session deleted"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /quiz/sessions/{session_id} [delete]
func (ctrl *Controller) DeleteSessionHandler(ctx *gin.Context) {
	if err := ctrl.quizSvc.DeleteSession(ctx.Param("session_id")); err != nil {
		ctrl.writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// writeError maps service errors onto HTTP statuses. Upstream generation
// failures carry their classification kind in the payload.
func (ctrl *Controller) writeError(ctx *gin.Context, err error) {
	var genErr *service.GenerationError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "Quiz session not found"})
	case errors.Is(err, model.ErrFetchInFlight), errors.Is(err, model.ErrNoQuestions), errors.Is(err, model.ErrSessionClosed):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, model.ErrIndexOutOfRange), errors.Is(err, model.ErrUnknownOption):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	case errors.As(err, &genErr):
		ctx.JSON(http.StatusBadGateway, dto.ErrorResponse{Message: "Question generation failed", Kind: string(genErr.Kind), Details: []string{genErr.Error()}})
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error", Details: []string{err.Error()}})
	}
}
