package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/Quokkas/internal/dto"
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/policy"
	"github.com/lshigami/Quokkas/internal/repository"
	"github.com/lshigami/Quokkas/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePollRepo struct {
	poll      *model.Poll
	due       []model.Poll
	expired   []model.Poll
	responses int
	views     int
}

func (f *fakePollRepo) Create(p *model.Poll) error { f.poll = p; return nil }
func (f *fakePollRepo) Update(p *model.Poll) error { f.poll = p; return nil }
func (f *fakePollRepo) FindByID(id uint) (*model.Poll, error) {
	if f.poll == nil || f.poll.ID != id {
		return nil, fmt.Errorf("poll %d not found", id)
	}
	return f.poll, nil
}
func (f *fakePollRepo) FindByIDWithSections(id uint) (*model.Poll, error) { return f.FindByID(id) }
func (f *fakePollRepo) FindAll(repository.PollFilter) ([]model.Poll, error) {
	if f.poll == nil {
		return nil, nil
	}
	return []model.Poll{*f.poll}, nil
}
func (f *fakePollRepo) FindDueForPublish(time.Time) ([]model.Poll, error) { return f.due, nil }
func (f *fakePollRepo) FindExpiredOpen(time.Time) ([]model.Poll, error)   { return f.expired, nil }
func (f *fakePollRepo) UpdateStatus(id uint, status model.PollStatus) error {
	f.poll.Status = status
	return nil
}
func (f *fakePollRepo) IncrementViews(uint) error     { f.views++; return nil }
func (f *fakePollRepo) IncrementResponses(uint) error { f.responses++; return nil }

// fakeResponseRepo reproduces the unique-index arbitration of the real
// repository over an in-memory map keyed by (poll_id, dedup_key).
type fakeResponseRepo struct {
	mu     sync.Mutex
	stored map[string]*model.Response
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{stored: make(map[string]*model.Response)}
}

func (f *fakeResponseRepo) key(pollID uint, dedup string) string {
	return fmt.Sprintf("%d/%s", pollID, dedup)
}

func (f *fakeResponseRepo) CreateIfAbsent(resp *model.Response) (*model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(resp.PollID, resp.DedupKey)
	if existing, ok := f.stored[k]; ok {
		if existing.Nonce == resp.Nonce {
			return existing, nil
		}
		return existing, repository.ErrDuplicateSubmission
	}
	f.stored[k] = resp
	return resp, nil
}

func (f *fakeResponseRepo) Update(resp *model.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[f.key(resp.PollID, resp.DedupKey)] = resp
	return nil
}
func (f *fakeResponseRepo) FindByID(id string) (*model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.stored {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("response %s not found", id)
}
func (f *fakeResponseRepo) FindByPollID(pollID uint, _ repository.ResponseFilter) ([]model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Response
	for _, r := range f.stored {
		if r.PollID == pollID {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (f *fakeResponseRepo) FindPriors(pollID uint) ([]policy.Prior, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var priors []policy.Prior
	for _, r := range f.stored {
		if r.PollID != pollID {
			continue
		}
		p := policy.Prior{IP: r.IP, DeviceID: r.DeviceID, Nonce: r.Nonce}
		if r.UserID != nil {
			p.UserID = *r.UserID
		}
		priors = append(priors, p)
	}
	return priors, nil
}

type fakeFileStore struct {
	uploads []string
}

func (f *fakeFileStore) Upload(name, contentType string, data io.Reader) (string, error) {
	f.uploads = append(f.uploads, name)
	return "https://files.example.com/" + name, nil
}

func feedbackPoll() *model.Poll {
	return &model.Poll{
		ID: 1, Title: "Event feedback", Status: model.StatusOpen, OpenForever: true,
		Sections: []model.Section{{
			ID: 1, Title: "Main",
			Questions: []model.Question{
				{ID: 1, Type: model.QuestionLinearScale, Title: "Rate it", Required: true, ScaleMin: 1, ScaleMax: 5},
				{ID: 2, Type: model.QuestionParagraph, Title: "Comments"},
				{ID: 3, Type: model.QuestionFileUpload, Title: "Photos",
					AcceptedFileTypes: []string{"image/*"}, MaxFileSizeMB: 1},
			},
		}},
	}
}

func newTestService(poll *model.Poll) (SubmissionService, *fakePollRepo, *fakeResponseRepo, *fakeFileStore) {
	pollRepo := &fakePollRepo{poll: poll}
	respRepo := newFakeResponseRepo()
	files := &fakeFileStore{}
	svc := NewSubmissionService(pollRepo, respRepo, session.NewManager(3), files)
	return svc, pollRepo, respRepo, files
}

func TestSubmissionFlow(t *testing.T) {
	svc, pollRepo, respRepo, _ := newTestService(feedbackPoll())
	ctx := context.Background()

	state, err := svc.StartSession(1, dto.SessionStartDTO{UserID: "u-1", UserName: "Dana"}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, session.StateViewing, state.State)

	// The required question blocks an early submit.
	state, err = svc.Submit(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, state.MissingQuestions)
	assert.Equal(t, session.StateViewing, state.State)

	state, err = svc.SetAnswer(state.SessionID, 1, model.ScaleAnswer(4))
	require.NoError(t, err)

	state, err = svc.Submit(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StateCompleted, state.State)
	assert.Nil(t, state.Rejection)
	assert.NotEmpty(t, state.ResponseID, "completion carries the receipt")
	assert.NotEmpty(t, state.Nonce)

	assert.Equal(t, 1, pollRepo.responses, "a new row bumps the counter")
	require.Len(t, respRepo.stored, 1)

	_, err = svc.GetState(state.SessionID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound, "completed sessions are unregistered")
}

func TestSubmissionDuplicateRejected(t *testing.T) {
	svc, pollRepo, _, _ := newTestService(feedbackPoll())
	ctx := context.Background()

	submitOnce := func() *dto.SessionStateDTO {
		state, err := svc.StartSession(1, dto.SessionStartDTO{UserID: "u-1"}, "10.0.0.1")
		require.NoError(t, err)
		_, err = svc.SetAnswer(state.SessionID, 1, model.ScaleAnswer(5))
		require.NoError(t, err)
		state, err = svc.Submit(ctx, state.SessionID)
		require.NoError(t, err)
		return state
	}

	first := submitOnce()
	assert.Equal(t, session.StateCompleted, first.State)

	second := submitOnce()
	assert.Equal(t, session.StateViewing, second.State, "rejection keeps the session alive")
	require.NotNil(t, second.Rejection)
	assert.Equal(t, policy.DuplicateSubmission, second.Rejection.Reason)

	assert.Equal(t, 1, pollRepo.responses, "the duplicate never counted")
}

// lostAckResponseRepo commits the first insert but reports a transport
// failure, the way a connection dropped between commit and acknowledgement
// looks to the service.
type lostAckResponseRepo struct {
	*fakeResponseRepo
	dropped bool
}

func (f *lostAckResponseRepo) CreateIfAbsent(resp *model.Response) (*model.Response, error) {
	stored, err := f.fakeResponseRepo.CreateIfAbsent(resp)
	if err == nil && !f.dropped {
		f.dropped = true
		return nil, fmt.Errorf("connection reset during commit")
	}
	return stored, err
}

func TestSubmissionRetryAfterLostAck(t *testing.T) {
	pollRepo := &fakePollRepo{poll: feedbackPoll()}
	respRepo := &lostAckResponseRepo{fakeResponseRepo: newFakeResponseRepo()}
	svc := NewSubmissionService(pollRepo, respRepo, session.NewManager(3), &fakeFileStore{})
	ctx := context.Background()

	state, err := svc.StartSession(1, dto.SessionStartDTO{UserID: "u-1"}, "10.0.0.1")
	require.NoError(t, err)
	_, err = svc.SetAnswer(state.SessionID, 1, model.ScaleAnswer(4))
	require.NoError(t, err)

	// The row is committed but the acknowledgement is lost.
	_, err = svc.Submit(ctx, state.SessionID)
	require.Error(t, err)
	require.Len(t, respRepo.stored, 1)

	// The retry finds its own row among the priors and must complete, not
	// bounce off the duplicate check.
	state, err = svc.Submit(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StateCompleted, state.State)
	assert.Nil(t, state.Rejection)
	assert.NotEmpty(t, state.ResponseID)
	assert.Len(t, respRepo.stored, 1, "the retry reuses the committed row")
}

func TestStartSessionRequiresOpenPoll(t *testing.T) {
	poll := feedbackPoll()
	poll.Status = model.StatusDraft
	svc, _, _, _ := newTestService(poll)

	_, err := svc.StartSession(1, dto.SessionStartDTO{}, "10.0.0.1")
	assert.Error(t, err)
}

func TestAmendResponse(t *testing.T) {
	poll := feedbackPoll()
	poll.AllowEditAfterSubmit = true
	svc, _, respRepo, _ := newTestService(poll)
	ctx := context.Background()

	state, err := svc.StartSession(1, dto.SessionStartDTO{UserID: "u-1"}, "10.0.0.1")
	require.NoError(t, err)
	_, err = svc.SetAnswer(state.SessionID, 1, model.ScaleAnswer(2))
	require.NoError(t, err)
	state, err = svc.Submit(ctx, state.SessionID)
	require.NoError(t, err)
	require.Equal(t, session.StateCompleted, state.State)

	t.Run("receipt nonce edits the stored answers", func(t *testing.T) {
		resp, err := svc.AmendResponse(1, state.ResponseID, dto.ResponseEditDTO{
			Nonce: state.Nonce,
			Answers: map[uint]model.AnswerValue{
				1: model.ScaleAnswer(5),
				2: model.TextAnswer("changed my mind"),
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp.EditedAt)
		assert.Equal(t, 5, resp.AnswerMap()[1].Scale)
		assert.Equal(t, "changed my mind", resp.AnswerMap()[2].Text)

		stored, err := respRepo.FindByID(state.ResponseID)
		require.NoError(t, err)
		assert.Equal(t, 5, stored.AnswerMap()[1].Scale)
	})

	t.Run("wrong nonce is refused", func(t *testing.T) {
		_, err := svc.AmendResponse(1, state.ResponseID, dto.ResponseEditDTO{
			Nonce:   "not-the-receipt",
			Answers: map[uint]model.AnswerValue{1: model.ScaleAnswer(3)},
		})
		assert.Error(t, err)
	})

	t.Run("clearing a required answer is refused", func(t *testing.T) {
		_, err := svc.AmendResponse(1, state.ResponseID, dto.ResponseEditDTO{
			Nonce:   state.Nonce,
			Answers: map[uint]model.AnswerValue{1: {}},
		})
		assert.Error(t, err)
	})

	t.Run("invalid replacement answer is refused", func(t *testing.T) {
		_, err := svc.AmendResponse(1, state.ResponseID, dto.ResponseEditDTO{
			Nonce:   state.Nonce,
			Answers: map[uint]model.AnswerValue{1: model.ScaleAnswer(9)},
		})
		assert.Error(t, err)
	})
}

func TestAmendResponseGatedByPoll(t *testing.T) {
	submitTo := func(poll *model.Poll) (SubmissionService, *dto.SessionStateDTO) {
		svc, _, _, _ := newTestService(poll)
		state, err := svc.StartSession(1, dto.SessionStartDTO{UserID: "u-1"}, "10.0.0.1")
		require.NoError(t, err)
		_, err = svc.SetAnswer(state.SessionID, 1, model.ScaleAnswer(4))
		require.NoError(t, err)
		state, err = svc.Submit(context.Background(), state.SessionID)
		require.NoError(t, err)
		return svc, state
	}
	edit := dto.ResponseEditDTO{Answers: map[uint]model.AnswerValue{1: model.ScaleAnswer(1)}}

	t.Run("poll without the flag refuses edits", func(t *testing.T) {
		svc, state := submitTo(feedbackPoll())
		edit.Nonce = state.Nonce
		_, err := svc.AmendResponse(1, state.ResponseID, edit)
		assert.Error(t, err)
	})

	t.Run("closed poll refuses edits", func(t *testing.T) {
		poll := feedbackPoll()
		poll.AllowEditAfterSubmit = true
		svc, state := submitTo(poll)
		poll.Status = model.StatusClosed
		edit.Nonce = state.Nonce
		_, err := svc.AmendResponse(1, state.ResponseID, edit)
		assert.Error(t, err)
	})
}

func TestUploadFile(t *testing.T) {
	svc, _, _, files := newTestService(feedbackPoll())

	state, err := svc.StartSession(1, dto.SessionStartDTO{UserID: "u-1"}, "10.0.0.1")
	require.NoError(t, err)

	t.Run("accepted upload records the answer", func(t *testing.T) {
		got, err := svc.UploadFile(state.SessionID, 3, "venue.png", "image/png", 200_000, strings.NewReader("bytes"))
		require.NoError(t, err)
		assert.Equal(t, []string{"venue.png"}, files.uploads)
		assert.NotNil(t, got)
	})

	t.Run("oversized upload never reaches the store", func(t *testing.T) {
		_, err := svc.UploadFile(state.SessionID, 3, "huge.png", "image/png", 5_000_000, strings.NewReader("bytes"))
		assert.Error(t, err)
		assert.Len(t, files.uploads, 1)
	})

	t.Run("disallowed type rejected", func(t *testing.T) {
		_, err := svc.UploadFile(state.SessionID, 3, "notes.pdf", "application/pdf", 1_000, strings.NewReader("bytes"))
		assert.Error(t, err)
	})

	t.Run("non-file question refuses uploads", func(t *testing.T) {
		_, err := svc.UploadFile(state.SessionID, 1, "venue.png", "image/png", 100, strings.NewReader("bytes"))
		assert.Error(t, err)
	})
}
