package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Quokkas/internal/aggregate"
	"github.com/lshigami/Quokkas/internal/dto"
	"github.com/lshigami/Quokkas/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminPollController struct {
	adminPollService service.AdminPollService
	resultsService   service.ResultsService
}

func NewAdminPollController(adminPollService service.AdminPollService, resultsService service.ResultsService) *AdminPollController {
	return &AdminPollController{adminPollService: adminPollService, resultsService: resultsService}
}

// CreatePoll godoc
// @Summary (Admin) Create a poll draft
// @Description Creates a poll with its sections and questions. The poll starts as a draft; definition errors are reported but do not block saving.
// @Tags Admin - Polls
// @Accept json
// @Produce json
// @Param poll_data body dto.PollCreateDTO true "Poll definition"
// @Success 201 {object} dto.PollSaveResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/polls [post]
func (c *AdminPollController) CreatePoll(ctx *gin.Context) {
	var req dto.PollCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreatePoll: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	result, err := c.adminPollService.CreatePoll(req)
	if err != nil {
		log.Error().Err(err).Msg("Admin CreatePoll: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create poll", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, result)
}

// UpdatePoll godoc
// @Summary (Admin) Replace a poll definition
// @Tags Admin - Polls
// @Accept json
// @Produce json
// @Param poll_id path int true "Poll ID"
// @Param poll_data body dto.PollCreateDTO true "Poll definition"
// @Success 200 {object} dto.PollSaveResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /admin/polls/{poll_id} [put]
func (c *AdminPollController) UpdatePoll(ctx *gin.Context) {
	pollID, ok := pollIDParam(ctx)
	if !ok {
		return
	}
	var req dto.PollCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	result, err := c.adminPollService.UpdatePoll(pollID, req)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// PublishPoll godoc
// @Summary (Admin) Publish a poll
// @Description Transitions a draft to open. Blocked when the definition has errors; the response lists them.
// @Tags Admin - Polls
// @Produce json
// @Param poll_id path int true "Poll ID"
// @Success 200 {object} dto.PublishResultDTO
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /admin/polls/{poll_id}/publish [post]
func (c *AdminPollController) PublishPoll(ctx *gin.Context) {
	pollID, ok := pollIDParam(ctx)
	if !ok {
		return
	}
	result, err := c.adminPollService.Publish(pollID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// ClosePoll godoc
// @Summary (Admin) Close an open poll
// @Tags Admin - Polls
// @Produce json
// @Param poll_id path int true "Poll ID"
// @Success 204 "Closed"
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /admin/polls/{poll_id}/close [post]
func (c *AdminPollController) ClosePoll(ctx *gin.Context) {
	pollID, ok := pollIDParam(ctx)
	if !ok {
		return
	}
	if err := c.adminPollService.Close(pollID); err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ReopenPoll godoc
// @Summary (Admin) Reopen a closed poll
// @Tags Admin - Polls
// @Produce json
// @Param poll_id path int true "Poll ID"
// @Success 204 "Reopened"
// @Failure 404 {object} dto.ErrorResponse "Poll not found or not closed"
// @Router /admin/polls/{poll_id}/reopen [post]
func (c *AdminPollController) ReopenPoll(ctx *gin.Context) {
	pollID, ok := pollIDParam(ctx)
	if !ok {
		return
	}
	if err := c.adminPollService.Reopen(pollID); err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// PollResults godoc
// @Summary (Admin) Per-question statistics for a poll
// @Description Aggregates the persisted responses. Optional filters: role, committee, from, to (RFC 3339).
// @Tags Admin - Polls
// @Produce json
// @Param poll_id path int true "Poll ID"
// @Param role query string false "Filter by respondent role"
// @Param committee query string false "Filter by respondent committee"
// @Param from query string false "Earliest submission time (RFC 3339)"
// @Param to query string false "Latest submission time (RFC 3339)"
// @Success 200 {object} dto.PollResultsDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /admin/polls/{poll_id}/results [get]
func (c *AdminPollController) PollResults(ctx *gin.Context) {
	pollID, ok := pollIDParam(ctx)
	if !ok {
		return
	}
	filter, err := filterFromQuery(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}

	results, err := c.resultsService.PollResults(pollID, filter, false)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, results)
}

func pollIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("poll_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Poll ID format"})
		return 0, false
	}
	return uint(id), true
}

func filterFromQuery(ctx *gin.Context) (aggregate.Filter, error) {
	filter := aggregate.Filter{
		Role:      ctx.Query("role"),
		Committee: ctx.Query("committee"),
	}
	if raw := ctx.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if raw := ctx.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}
	return filter, nil
}
