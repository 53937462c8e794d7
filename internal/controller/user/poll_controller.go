package user

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

type PollController struct {
	pollService    service.PollService
	resultsService service.ResultsService
}

func NewPollController(pollService service.PollService, resultsService service.ResultsService) *PollController {
	return &PollController{pollService: pollService, resultsService: resultsService}
}

// ListPolls godoc
// @Summary List open polls
// @Tags Polls
// @Produce json
// @Success 200 {array} dto.PollSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /polls [get]
func (c *PollController) ListPolls(ctx *gin.Context) {
	polls, err := c.pollService.ListOpenPolls()
	if err != nil {
		log.Error().Err(err).Msg("ListPolls: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve polls", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, polls)
}

// GetPoll godoc
// @Summary Get a poll definition
// @Description Returns the full poll with sections and questions, and counts the view.
// @Tags Polls
// @Produce json
// @Param poll_id path int true "Poll ID"
// @Success 200 {object} dto.PollResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Poll ID format"
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /polls/{poll_id} [get]
func (c *PollController) GetPoll(ctx *gin.Context) {
	pollID, ok := pollIDParam(ctx)
	if !ok {
		return
	}
	poll, err := c.pollService.GetPoll(pollID, true)
	if err != nil {
		log.Warn().Err(err).Uint("pollID", pollID).Msg("GetPoll: not found or service error")
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, poll)
}

// PollResults godoc
// @Summary Participant view of poll results
// @Description Available only when the poll shares results with participants.
// @Tags Polls
// @Produce json
// @Param poll_id path int true "Poll ID"
// @Success 200 {object} dto.PollResultsDTO
// @Failure 403 {object} dto.ErrorResponse "Results not shared"
// @Failure 404 {object} dto.ErrorResponse "Poll not found"
// @Router /polls/{poll_id}/results [get]
func (c *PollController) PollResults(ctx *gin.Context) {
	pollID, ok := pollIDParam(ctx)
	if !ok {
		return
	}

	filter := aggregate.Filter{}
	if raw := ctx.Query("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &t
		}
	}
	if raw := ctx.Query("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &t
		}
	}

	results, err := c.resultsService.PollResults(pollID, filter, true)
	if err != nil {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: err.Error()})
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
