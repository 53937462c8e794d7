package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lshigami/Quokkas/internal/dto"
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/policy"
	"github.com/lshigami/Quokkas/internal/repository"
	"github.com/lshigami/Quokkas/internal/session"
	"github.com/lshigami/Quokkas/internal/storage"
	"github.com/lshigami/Quokkas/internal/validation"
	"github.com/rs/zerolog/log"
)

// SubmissionService owns respondent sessions and the submit path: policy
// evaluation, response construction, and the atomic dedup insert.
type SubmissionService interface {
	StartSession(pollID uint, req dto.SessionStartDTO, ip string) (*dto.SessionStateDTO, error)
	GetState(sessionID string) (*dto.SessionStateDTO, error)
	GetSection(sessionID string, index int) (*dto.SectionViewDTO, error)
	SetAnswer(sessionID string, questionID uint, value model.AnswerValue) (*dto.SessionStateDTO, error)
	Next(sessionID string) (*dto.SessionStateDTO, error)
	Previous(sessionID string) (*dto.SessionStateDTO, error)
	Submit(ctx context.Context, sessionID string) (*dto.SessionStateDTO, error)
	Cancel(sessionID string) (*dto.SessionStateDTO, error)
	TabSwitch(ctx context.Context, sessionID string) (*dto.SessionStateDTO, error)
	UploadFile(sessionID string, questionID uint, filename, contentType string, size int64, data io.Reader) (*dto.SessionStateDTO, error)
	AmendResponse(pollID uint, responseID string, req dto.ResponseEditDTO) (*model.Response, error)
}

type submissionService struct {
	pollRepo repository.PollRepository
	respRepo repository.ResponseRepository
	sessions *session.Manager
	files    storage.FileStore
}

func NewSubmissionService(
	pollRepo repository.PollRepository,
	respRepo repository.ResponseRepository,
	sessions *session.Manager,
	files storage.FileStore,
) SubmissionService {
	return &submissionService{
		pollRepo: pollRepo,
		respRepo: respRepo,
		sessions: sessions,
		files:    files,
	}
}

func (s *submissionService) StartSession(pollID uint, req dto.SessionStartDTO, ip string) (*dto.SessionStateDTO, error) {
	poll, err := s.pollRepo.FindByIDWithSections(pollID)
	if err != nil {
		return nil, fmt.Errorf("poll not found with ID %d: %w", pollID, err)
	}
	// Early gate only; the full policy runs again at submit time where it
	// is authoritative.
	if poll.Status != model.StatusOpen {
		return nil, fmt.Errorf("poll %d is %s, not accepting responses", pollID, poll.Status)
	}

	identity := policy.Identity{
		LoggedIn:      req.UserID != "",
		UserID:        req.UserID,
		UserName:      req.UserName,
		UserRole:      req.UserRole,
		UserCommittee: req.UserCommittee,
		IP:            ip,
		DeviceID:      req.DeviceID,
	}

	sess := s.sessions.Create(poll, identity, s.persist)
	log.Info().Str("sessionID", sess.ID).Uint("pollID", pollID).Msg("Session started")
	return stateDTO(sess, nil, false), nil
}

func (s *submissionService) GetState(sessionID string) (*dto.SessionStateDTO, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return stateDTO(sess, nil, false), nil
}

func (s *submissionService) GetSection(sessionID string, index int) (*dto.SectionViewDTO, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sec, ok := sess.PresentedSection(index)
	if !ok {
		return nil, fmt.Errorf("section index %d out of range", index)
	}
	return &dto.SectionViewDTO{SectionIndex: index, Section: sec}, nil
}

func (s *submissionService) SetAnswer(sessionID string, questionID uint, value model.AnswerValue) (*dto.SessionStateDTO, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Answer(questionID, value); err != nil {
		return nil, err
	}
	return stateDTO(sess, nil, false), nil
}

func (s *submissionService) Next(sessionID string) (*dto.SessionStateDTO, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	missing := sess.Next()
	return stateDTO(sess, missing, false), nil
}

func (s *submissionService) Previous(sessionID string) (*dto.SessionStateDTO, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Previous(); err != nil {
		return nil, err
	}
	return stateDTO(sess, nil, false), nil
}

func (s *submissionService) Submit(ctx context.Context, sessionID string) (*dto.SessionStateDTO, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	missing, err := sess.Submit(ctx)
	if len(missing) > 0 {
		return stateDTO(sess, missing, false), nil
	}
	if err != nil {
		var rej *policy.Rejection
		if errors.As(err, &rej) {
			// Rejection state is carried in the DTO, not as a transport error.
			return stateDTO(sess, nil, false), nil
		}
		return nil, err
	}

	s.sessions.Remove(sessionID)
	return stateDTO(sess, nil, false), nil
}

func (s *submissionService) Cancel(sessionID string) (*dto.SessionStateDTO, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Cancel(); err != nil {
		return nil, err
	}
	s.sessions.Remove(sessionID)
	return stateDTO(sess, nil, false), nil
}

func (s *submissionService) TabSwitch(ctx context.Context, sessionID string) (*dto.SessionStateDTO, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	forced := sess.RecordTabSwitch(ctx)
	if forced && sess.State() == session.StateCompleted {
		s.sessions.Remove(sessionID)
	}
	return stateDTO(sess, nil, forced), nil
}

// UploadFile validates an attachment against its question, stores the
// bytes, and records the resulting URL as the answer.
func (s *submissionService) UploadFile(sessionID string, questionID uint, filename, contentType string, size int64, data io.Reader) (*dto.SessionStateDTO, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	var question *model.Question
	for _, sec := range sess.Poll.Sections {
		for i := range sec.Questions {
			if sec.Questions[i].ID == questionID {
				question = &sec.Questions[i]
			}
		}
	}
	if question == nil {
		return nil, fmt.Errorf("%w: id %d", session.ErrUnknownAnswer, questionID)
	}
	if question.Type != model.QuestionFileUpload {
		return nil, fmt.Errorf("question %d does not accept file uploads", questionID)
	}

	// Check size and type before spending bandwidth on the store.
	if verr := validation.CheckAnswer(*question, model.FileAnswer(filename, size, "")); verr != nil {
		return nil, verr
	}

	url, err := s.files.Upload(filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	if err := sess.Answer(questionID, model.FileAnswer(filename, size, url)); err != nil {
		return nil, err
	}
	log.Info().Str("sessionID", sessionID).Uint("questionID", questionID).Str("url", url).Msg("File answer stored")
	return stateDTO(sess, nil, false), nil
}

// AmendResponse rewrites answers on an already-persisted response. Only
// polls with AllowEditAfterSubmit accept edits, only while still open, and
// only from the caller holding the submission's nonce.
func (s *submissionService) AmendResponse(pollID uint, responseID string, req dto.ResponseEditDTO) (*model.Response, error) {
	poll, err := s.pollRepo.FindByIDWithSections(pollID)
	if err != nil {
		return nil, fmt.Errorf("poll not found with ID %d: %w", pollID, err)
	}
	if !poll.AllowEditAfterSubmit {
		return nil, fmt.Errorf("poll %d does not allow editing after submit", pollID)
	}
	if poll.Status != model.StatusOpen || poll.DeadlineExpired(time.Now()) {
		return nil, fmt.Errorf("poll %d is no longer accepting responses", pollID)
	}

	resp, err := s.respRepo.FindByID(responseID)
	if err != nil || resp.PollID != pollID {
		return nil, fmt.Errorf("response %s not found for poll %d", responseID, pollID)
	}
	if req.Nonce == "" || req.Nonce != resp.Nonce {
		return nil, fmt.Errorf("response %s was not submitted by this caller", responseID)
	}

	questions := make(map[uint]model.Question)
	for _, sec := range poll.Sections {
		for _, q := range sec.Questions {
			questions[q.ID] = q
		}
	}

	merged := resp.AnswerMap()
	for qid, v := range req.Answers {
		q, ok := questions[qid]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", session.ErrUnknownAnswer, qid)
		}
		if v.IsZero() {
			delete(merged, qid)
			continue
		}
		if verr := validation.CheckAnswer(q, v); verr != nil {
			return nil, verr
		}
		merged[qid] = v
	}
	if missing := validation.MissingRequiredAll(poll.Sections, merged); len(missing) > 0 {
		return nil, fmt.Errorf("required questions would be left unanswered: %v", missing)
	}

	resp.Answers = resp.Answers[:0]
	for qid, v := range merged {
		resp.Answers = append(resp.Answers, model.Answer{ResponseID: resp.ID, QuestionID: qid, Value: v})
	}
	now := time.Now()
	resp.EditedAt = &now

	if err := s.respRepo.Update(resp); err != nil {
		return nil, fmt.Errorf("updating response %s: %w", responseID, err)
	}
	log.Info().Str("responseID", resp.ID).Uint("pollID", pollID).Msg("Response amended")
	return resp, nil
}

// persist is the session's submit callback: the policy decides, the
// repository's unique index arbitrates concurrent duplicates, and the
// counters are bumped atomically afterwards.
func (s *submissionService) persist(ctx context.Context, sess *session.Session, forced bool) error {
	priors, err := s.respRepo.FindPriors(sess.Poll.ID)
	if err != nil {
		return fmt.Errorf("loading prior responses: %w", err)
	}

	now := time.Now()
	if rej := policy.Evaluate(sess.Poll, sess.Identity, priors, sess.Nonce, now); rej != nil {
		log.Info().Str("sessionID", sess.ID).Str("reason", string(rej.Reason)).Msg("Submission rejected by policy")
		return rej
	}

	resp := policy.BuildResponse(
		sess.Poll, sess.Identity, sess.Answers(), sess.Nonce,
		sess.CompletionSecs(), sess.Flagged(), forced, now,
	)

	stored, err := s.respRepo.CreateIfAbsent(&resp)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			// Lost the insert race; same outcome as the policy check.
			return &policy.Rejection{Reason: policy.DuplicateSubmission, Message: "a submission for this poll already exists"}
		}
		return fmt.Errorf("persisting response: %w", err)
	}

	sess.SetResponseID(stored.ID)

	if stored.ID == resp.ID {
		// Only a genuinely new row counts; an idempotent retry does not.
		if err := s.pollRepo.IncrementResponses(sess.Poll.ID); err != nil {
			log.Warn().Err(err).Uint("pollID", sess.Poll.ID).Msg("Response counter increment failed")
		}
	}

	log.Info().Str("responseID", stored.ID).Uint("pollID", sess.Poll.ID).Bool("forced", forced).Msg("Response persisted")
	return nil
}

func stateDTO(sess *session.Session, missing []uint, forced bool) *dto.SessionStateDTO {
	state := &dto.SessionStateDTO{
		SessionID:        sess.ID,
		PollID:           sess.Poll.ID,
		State:            sess.State(),
		Progress:         sess.Progress(),
		MissingQuestions: missing,
		Rejection:        sess.LastRejection(),
		HasUnsaved:       sess.HasUnsavedAnswers(),
		TabSwitches:      sess.TabSwitches(),
		ForcedSubmit:     forced,
	}
	// The receipt is handed out only with a persisted submission; the nonce
	// is the edit credential and must not leak earlier.
	if state.State == session.StateCompleted {
		state.ResponseID = sess.ResponseID()
		state.Nonce = sess.Nonce
	}
	return state
}
