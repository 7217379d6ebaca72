package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/model"
	"github.com/stemsi/exstem-timer/internal/response"
	"github.com/stemsi/exstem-timer/internal/service"
	"github.com/stemsi/exstem-timer/internal/validator"
)

// TestHandler handles test lifecycle and timer configuration endpoints.
type TestHandler struct {
	testService   *service.TestService
	ticketService *service.TicketService
	log           zerolog.Logger
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService, ticketService *service.TicketService, log zerolog.Logger) *TestHandler {
	return &TestHandler{
		testService:   testService,
		ticketService: ticketService,
		log:           log.With().Str("component", "test_handler").Logger(),
	}
}

// StartTest godoc
// POST /api/v1/tests
// Starts a new test with its timing rules.
func (h *TestHandler) StartTest(c *gin.Context) {
	var req model.StartTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.StartTest(c.Request.Context(), req)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// GetTest godoc
// GET /api/v1/tests/:id
func (h *TestHandler) GetTest(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	test, err := h.testService.Get(c.Request.Context(), testID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// GetTimerConfig godoc
// GET /api/v1/tests/:id/questions/:n/timer
// Returns the timer configuration for question n together with a ticket
// for the timer stream of that page.
func (h *TestHandler) GetTimerConfig(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	cfg, err := h.testService.TimerConfig(c.Request.Context(), testID, n)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	ticket, err := h.ticketService.Issue(testID, n)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.TimerConfigResponse{Timer: *cfg, Ticket: ticket})
}

// FinishTest godoc
// POST /api/v1/tests/:id/finish
// Completes the test. Safe to repeat; later calls return the stored state.
func (h *TestHandler) FinishTest(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	res, err := h.testService.Finish(c.Request.Context(), testID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}
