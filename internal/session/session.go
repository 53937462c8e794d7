package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/policy"
	"github.com/lshigami/Quokkas/internal/validation"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle position of one respondent's session.
type State string

const (
	StateViewing    State = "viewing"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

var (
	ErrNotViewing    = errors.New("session is not accepting input")
	ErrFirstSection  = errors.New("already on the first section")
	ErrUnknownAnswer = errors.New("question does not belong to this poll")
)

// SubmitFunc hands the finished session to the submission service. A
// returned *policy.Rejection (wrapped or not) keeps the session alive at
// the last section; any other error is a persistence failure the caller
// may retry with the same nonce.
type SubmitFunc func(ctx context.Context, s *Session, forced bool) error

// Config carries the per-session knobs derived from the poll and the
// server configuration.
type Config struct {
	// Timer arms the forced-submit countdown when positive.
	Timer time.Duration
	// TabSwitchLimit is how many reported tab switches are tolerated
	// before the session reacts. Zero disables the reaction entirely.
	TabSwitchLimit int
}

// Session is the navigation state machine for a single respondent working
// through a single poll. All methods are safe for concurrent use, though a
// session is expected to serve one respondent.
type Session struct {
	ID       string
	Poll     *model.Poll
	Identity policy.Identity
	Nonce    string

	mu           sync.Mutex
	state        State
	sectionIndex int
	answers      map[uint]model.AnswerValue
	startedAt    time.Time
	tabSwitches  int
	flagged      bool
	forced       bool
	rejection    *policy.Rejection
	responseID   string
	cfg          Config
	submit       SubmitFunc
	timer        *time.Timer
	expireOnce   sync.Once
	seed         int64
}

// New starts a session over a poll snapshot. The countdown, when the poll
// is timed, is armed immediately: viewing the first section starts the clock.
func New(poll *model.Poll, identity policy.Identity, cfg Config, submit SubmitFunc) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Poll:      poll,
		Identity:  identity,
		Nonce:     uuid.NewString(),
		state:     StateViewing,
		answers:   make(map[uint]model.AnswerValue),
		startedAt: time.Now(),
		cfg:       cfg,
		submit:    submit,
		seed:      time.Now().UnixNano(),
	}
	if cfg.Timer > 0 {
		s.timer = time.AfterFunc(cfg.Timer, func() {
			s.TimerExpire(context.Background())
		})
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SectionIndex returns the section currently presented.
func (s *Session) SectionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sectionIndex
}

// LastRejection returns the policy rejection from the most recent failed
// submit, if any.
func (s *Session) LastRejection() *policy.Rejection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejection
}

// SetResponseID records the persisted row so the completion receipt can
// point the respondent at their response.
func (s *Session) SetResponseID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseID = id
}

// ResponseID returns the persisted response id, empty until completion.
func (s *Session) ResponseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responseID
}

// Answers returns a snapshot of the collected answers.
func (s *Session) Answers() map[uint]model.AnswerValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[uint]model.AnswerValue, len(s.answers))
	for k, v := range s.answers {
		snap[k] = v
	}
	return snap
}

// HasUnsavedAnswers tells the presentation layer whether cancelling should
// be confirmed with the respondent.
func (s *Session) HasUnsavedAnswers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateViewing && len(s.answers) > 0
}

// Flagged reports whether the eventual response carries the review marker.
func (s *Session) Flagged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flagged
}

// ForcedByTimer reports whether the submission was forced by the countdown.
func (s *Session) ForcedByTimer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forced
}

// CompletionSecs is the elapsed respondent time in whole seconds.
func (s *Session) CompletionSecs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(time.Since(s.startedAt) / time.Second)
}

// Answer records (or clears, for a zero value) one question's answer after
// type-checking it. Answers may be changed freely while viewing.
func (s *Session) Answer(questionID uint, v model.AnswerValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateViewing {
		return ErrNotViewing
	}
	q, ok := s.findQuestion(questionID)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownAnswer, questionID)
	}
	if v.IsZero() {
		delete(s.answers, questionID)
		return nil
	}
	if err := validation.CheckAnswer(q, v); err != nil {
		return err
	}
	s.answers[questionID] = v
	return nil
}

// Next validates the current section's required questions. When any are
// missing their ids are returned and the section index does not move.
// Advancing past the last section parks the session in Submitting.
func (s *Session) Next() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateViewing {
		return nil
	}
	missing := validation.MissingRequired(s.Poll.Sections[s.sectionIndex], s.answers)
	if len(missing) > 0 {
		return missing
	}
	if s.sectionIndex < len(s.Poll.Sections)-1 {
		s.sectionIndex++
	} else {
		s.state = StateSubmitting
	}
	return nil
}

// Previous moves back one section without validation; respondents may
// freely revisit earlier answers.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		s.state = StateViewing
		return nil
	}
	if s.state != StateViewing {
		return ErrNotViewing
	}
	if s.sectionIndex == 0 {
		return ErrFirstSection
	}
	s.sectionIndex--
	return nil
}

// Submit validates required questions across every section, then hands the
// answers to the security policy and persistence via the submit callback.
// Missing ids are returned without a state change. A policy rejection
// leaves the session viewing the last section with the reason recorded.
func (s *Session) Submit(ctx context.Context) ([]uint, error) {
	s.mu.Lock()
	if s.state != StateViewing && s.state != StateSubmitting {
		s.mu.Unlock()
		return nil, ErrNotViewing
	}
	missing := validation.MissingRequiredAll(s.Poll.Sections, s.answers)
	if len(missing) > 0 {
		s.mu.Unlock()
		return missing, nil
	}
	s.state = StateSubmitting
	s.stopTimer()
	s.mu.Unlock()

	// Consume the expiry slot so a countdown racing this submit cannot
	// persist a second time.
	s.expireOnce.Do(func() {})

	return nil, s.finish(ctx, false)
}

// TimerExpire is the countdown callback. It forces a submit that bypasses
// required-question validation so a respondent is never stuck past the
// deadline; the resulting response may carry fewer answers than required
// questions. Repeated expiry signals are collapsed to a single submission.
func (s *Session) TimerExpire(ctx context.Context) {
	s.expireOnce.Do(func() {
		s.mu.Lock()
		if s.state == StateCompleted || s.state == StateCancelled {
			s.mu.Unlock()
			return
		}
		s.state = StateSubmitting
		s.forced = true
		s.mu.Unlock()

		log.Info().Str("session_id", s.ID).Uint("poll_id", s.Poll.ID).Msg("Session timer expired, forcing submit")
		if err := s.finish(ctx, true); err != nil {
			log.Error().Err(err).Str("session_id", s.ID).Msg("Forced submit failed")
		}
	})
}

// finish runs the submit callback and applies the terminal transition.
func (s *Session) finish(ctx context.Context, forced bool) error {
	err := s.submit(ctx, s, forced)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		var rej *policy.Rejection
		if errors.As(err, &rej) {
			s.rejection = rej
		}
		s.state = StateViewing
		s.sectionIndex = len(s.Poll.Sections) - 1
		return err
	}
	s.state = StateCompleted
	s.rejection = nil
	s.stopTimer()
	return nil
}

// Cancel discards the session. The caller is expected to have confirmed
// when HasUnsavedAnswers reports true.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateViewing && s.state != StateSubmitting {
		return ErrNotViewing
	}
	s.state = StateCancelled
	s.stopTimer()
	return nil
}

// RecordTabSwitch counts one reported tab switch. Past the configured
// limit a timed poll is force-submitted and an untimed one has its
// eventual response flagged for review. A single switch never discards
// answers; reloads and app switching are legitimate.
func (s *Session) RecordTabSwitch(ctx context.Context) (forcedSubmit bool) {
	s.mu.Lock()
	if s.state != StateViewing || !s.Poll.BlockTabSwitching || s.cfg.TabSwitchLimit <= 0 {
		s.mu.Unlock()
		return false
	}
	s.tabSwitches++
	over := s.tabSwitches > s.cfg.TabSwitchLimit
	timed := s.cfg.Timer > 0
	if over && !timed {
		s.flagged = true
	}
	s.mu.Unlock()

	if over && timed {
		s.TimerExpire(ctx)
		return true
	}
	return false
}

// TabSwitches returns the count of reported switches.
func (s *Session) TabSwitches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabSwitches
}

// stopTimer releases the countdown on a terminal transition. Callers hold s.mu.
func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// seededRng derives a deterministic source from the session seed so
// shuffles are stable for the life of the session.
func (s *Session) seededRng(salt int64) *rand.Rand {
	return rand.New(rand.NewSource(s.seed ^ salt<<17))
}

func (s *Session) findQuestion(id uint) (model.Question, bool) {
	for _, sec := range s.Poll.Sections {
		for _, q := range sec.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return model.Question{}, false
}
