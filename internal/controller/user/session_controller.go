package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Quokkas/internal/dto"
	"github.com/lshigami/Quokkas/internal/service"
	"github.com/lshigami/Quokkas/internal/session"
	"github.com/rs/zerolog/log"
)

type SessionController struct {
	submissionService service.SubmissionService
}

func NewSessionController(submissionService service.SubmissionService) *SessionController {
	return &SessionController{submissionService: submissionService}
}

// StartSession godoc
// @Summary Start a response session for a poll
// @Description Opens a navigation session. Identity fields are optional for anonymous-capable polls; the respondent IP is taken from the connection.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param poll_id path int true "Poll ID"
// @Param identity body dto.SessionStartDTO false "Respondent identity"
// @Success 201 {object} dto.SessionStateDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 404 {object} dto.ErrorResponse "Poll not found or not open"
// @Router /polls/{poll_id}/sessions [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	pollID, ok := pollIDParam(ctx)
	if !ok {
		return
	}
	// An empty body is a legitimate anonymous start.
	var req dto.SessionStartDTO
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
			return
		}
	}

	state, err := c.submissionService.StartSession(pollID, req, ctx.ClientIP())
	if err != nil {
		log.Warn().Err(err).Uint("pollID", pollID).Msg("StartSession: poll unavailable")
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, state)
}

// GetSession godoc
// @Summary Current state of a session
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	state, err := c.submissionService.GetState(ctx.Param("session_id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// GetSection godoc
// @Summary A section as presented to this session
// @Description Returns the section with any per-session question/option shuffling applied.
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Param index path int true "Section index"
// @Success 200 {object} dto.SectionViewDTO
// @Failure 404 {object} dto.ErrorResponse "Session or section not found"
// @Router /sessions/{session_id}/sections/{index} [get]
func (c *SessionController) GetSection(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid section index"})
		return
	}
	view, err := c.submissionService.GetSection(ctx.Param("session_id"), index)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// SetAnswer godoc
// @Summary Record one question's answer
// @Description Type-checks the answer against the question before storing it in the session. A zero value clears the answer.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param question_id path int true "Question ID"
// @Param answer body dto.AnswerSubmitDTO true "Answer value"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 400 {object} dto.ErrorResponse "Answer fails validation"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id}/answers/{question_id} [put]
func (c *SessionController) SetAnswer(ctx *gin.Context) {
	questionID, err := strconv.ParseUint(ctx.Param("question_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Question ID format"})
		return
	}
	var req dto.AnswerSubmitDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	state, err := c.submissionService.SetAnswer(ctx.Param("session_id"), uint(questionID), req.Value)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// UploadAnswerFile godoc
// @Summary Upload a file answer
// @Description Accepts a multipart upload for a file-upload question, checks it against the question's size and type limits, stores it, and records the URL as the answer.
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param session_id path string true "Session ID"
// @Param question_id path int true "Question ID"
// @Param file formData file true "File to attach"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 400 {object} dto.ErrorResponse "File rejected"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id}/answers/{question_id}/file [post]
func (c *SessionController) UploadAnswerFile(ctx *gin.Context) {
	questionID, err := strconv.ParseUint(ctx.Param("question_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Question ID format"})
		return
	}
	header, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Missing file field", Details: []string{err.Error()}})
		return
	}
	file, err := header.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Unreadable upload", Details: []string{err.Error()}})
		return
	}
	defer file.Close()

	state, err := c.submissionService.UploadFile(
		ctx.Param("session_id"), uint(questionID),
		header.Filename, header.Header.Get("Content-Type"), header.Size, file,
	)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// AmendResponse godoc
// @Summary Edit an already-submitted response
// @Description Rewrites answers on a persisted response. Only available while the poll is open and has allow_edit_after_submit set; the nonce from the completion receipt authenticates the caller.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param poll_id path int true "Poll ID"
// @Param response_id path string true "Response ID"
// @Param edit body dto.ResponseEditDTO true "Nonce and replacement answers"
// @Success 200 {object} model.Response
// @Failure 400 {object} dto.ErrorResponse "Edit refused"
// @Failure 404 {object} dto.ErrorResponse "Poll or response not found"
// @Router /polls/{poll_id}/responses/{response_id} [put]
func (c *SessionController) AmendResponse(ctx *gin.Context) {
	pollID, ok := pollIDParam(ctx)
	if !ok {
		return
	}
	var req dto.ResponseEditDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.submissionService.AmendResponse(pollID, ctx.Param("response_id"), req)
	if err != nil {
		log.Warn().Err(err).Uint("pollID", pollID).Msg("AmendResponse: edit refused")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Next godoc
// @Summary Advance to the next section
// @Description Validates the current section's required questions first; missing ids are returned and the index does not move.
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id}/next [post]
func (c *SessionController) Next(ctx *gin.Context) {
	state, err := c.submissionService.Next(ctx.Param("session_id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// Previous godoc
// @Summary Go back one section
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 400 {object} dto.ErrorResponse "Already on the first section"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id}/previous [post]
func (c *SessionController) Previous(ctx *gin.Context) {
	state, err := c.submissionService.Previous(ctx.Param("session_id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// Submit godoc
// @Summary Submit the session's answers
// @Description Validates required questions across all sections, then applies the security policy. Policy rejections are reported in the state, not as transport errors.
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 500 {object} dto.ErrorResponse "Persistence failure (retry with the same session)"
// @Router /sessions/{session_id}/submit [post]
func (c *SessionController) Submit(ctx *gin.Context) {
	state, err := c.submissionService.Submit(ctx.Request.Context(), ctx.Param("session_id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		log.Error().Err(err).Str("sessionID", ctx.Param("session_id")).Msg("Submit: persistence failure")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to persist submission", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// Cancel godoc
// @Summary Cancel the session
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id}/cancel [post]
func (c *SessionController) Cancel(ctx *gin.Context) {
	state, err := c.submissionService.Cancel(ctx.Param("session_id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// TabSwitch godoc
// @Summary Report a tab switch
// @Description Counts the event. Past the configured limit a timed poll is force-submitted; an untimed one has its response flagged for review.
// @Tags Sessions
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} dto.SessionStateDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id}/tab-switch [post]
func (c *SessionController) TabSwitch(ctx *gin.Context) {
	state, err := c.submissionService.TabSwitch(ctx.Request.Context(), ctx.Param("session_id"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, state)
}
