package service

import (
	"testing"
	"time"

	"github.com/lshigami/Quokkas/internal/dto"
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePollWrapsSectionlessQuestions(t *testing.T) {
	pollRepo := &fakePollRepo{}
	svc := NewAdminPollService(pollRepo)

	result, err := svc.CreatePoll(dto.PollCreateDTO{
		Title: "Quick vote",
		Questions: []dto.QuestionCreateDTO{
			{Type: "multiple-choice", Title: "Where to?", Options: []string{"Park", "Beach"}},
			{Type: "yes-no", Title: "Bring guests?"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.DefinitionErrors)

	require.NotNil(t, pollRepo.poll)
	assert.Equal(t, model.StatusDraft, pollRepo.poll.Status)
	require.Len(t, pollRepo.poll.Sections, 1, "flat questions land in one implicit section")
	assert.Equal(t, "Quick vote", pollRepo.poll.Sections[0].Title)
	require.Len(t, pollRepo.poll.Sections[0].Questions, 2)
	assert.Equal(t, 0, pollRepo.poll.Sections[0].Questions[0].Position)
	assert.Equal(t, 1, pollRepo.poll.Sections[0].Questions[1].Position)
}

func TestCreatePollReportsDefinitionErrors(t *testing.T) {
	pollRepo := &fakePollRepo{}
	svc := NewAdminPollService(pollRepo)

	// Drafts may be structurally broken; the defects are reported, not fatal.
	result, err := svc.CreatePoll(dto.PollCreateDTO{
		Title: "Half-built",
		Questions: []dto.QuestionCreateDTO{
			{Type: "dropdown", Title: "Pick"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.DefinitionErrors)
	assert.Equal(t, "options", result.DefinitionErrors[0].Field)
}

func TestPublishGatedByDefinition(t *testing.T) {
	t.Run("broken draft stays draft", func(t *testing.T) {
		pollRepo := &fakePollRepo{poll: &model.Poll{ID: 1, Title: "Broken", Status: model.StatusDraft}}
		svc := NewAdminPollService(pollRepo)

		result, err := svc.Publish(1)
		require.NoError(t, err)
		assert.False(t, result.Published)
		assert.Equal(t, model.StatusDraft, result.Status)
		assert.NotEmpty(t, result.DefinitionErrors)
		assert.Equal(t, model.StatusDraft, pollRepo.poll.Status)
	})

	t.Run("sound draft opens", func(t *testing.T) {
		pollRepo := &fakePollRepo{poll: soundDraft(1)}
		svc := NewAdminPollService(pollRepo)

		result, err := svc.Publish(1)
		require.NoError(t, err)
		assert.True(t, result.Published)
		assert.Equal(t, model.StatusOpen, pollRepo.poll.Status)
	})
}

func TestCloseAndReopen(t *testing.T) {
	poll := soundDraft(1)
	poll.Status = model.StatusOpen
	pollRepo := &fakePollRepo{poll: poll}
	svc := NewAdminPollService(pollRepo)

	require.NoError(t, svc.Close(1))
	assert.Equal(t, model.StatusClosed, pollRepo.poll.Status)

	require.NoError(t, svc.Reopen(1))
	assert.Equal(t, model.StatusOpen, pollRepo.poll.Status)

	assert.Error(t, svc.Reopen(1), "only closed polls can reopen")
}

func TestPublishScheduled(t *testing.T) {
	poll := soundDraft(7)
	due := time.Now().Add(-time.Minute)
	poll.ScheduledPublish = &due
	pollRepo := &fakePollRepo{poll: poll, due: []model.Poll{*poll}}
	svc := NewAdminPollService(pollRepo)

	published, err := svc.PublishScheduled(time.Now())
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, published)
	assert.Equal(t, model.StatusOpen, pollRepo.poll.Status)
}

func TestCloseExpired(t *testing.T) {
	poll := soundDraft(3)
	poll.Status = model.StatusOpen
	deadline := time.Now().Add(-time.Hour)
	poll.Deadline = &deadline
	pollRepo := &fakePollRepo{poll: poll, expired: []model.Poll{*poll}}
	svc := NewAdminPollService(pollRepo)

	closed, err := svc.CloseExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, closed)
	assert.Equal(t, model.StatusClosed, pollRepo.poll.Status)

	// The next sweep has nothing left to close.
	pollRepo.expired = nil
	closed, err = svc.CloseExpired(time.Now())
	require.NoError(t, err)
	assert.Empty(t, closed)
}

func TestUpdatePollPreservesLifecycle(t *testing.T) {
	poll := soundDraft(1)
	poll.Status = model.StatusOpen
	poll.Responses = 9
	poll.Views = 40
	pollRepo := &fakePollRepo{poll: poll}
	svc := NewAdminPollService(pollRepo)

	_, err := svc.UpdatePoll(1, dto.PollCreateDTO{
		Title: "Renamed",
		Questions: []dto.QuestionCreateDTO{
			{Type: "yes-no", Title: "Still coming?"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", pollRepo.poll.Title)
	assert.Equal(t, model.StatusOpen, pollRepo.poll.Status, "edits never touch the lifecycle")
	assert.EqualValues(t, 9, pollRepo.poll.Responses)
	assert.EqualValues(t, 40, pollRepo.poll.Views)
}

func soundDraft(id uint) *model.Poll {
	return &model.Poll{
		ID: id, Title: "Sound", Status: model.StatusDraft,
		Sections: []model.Section{{
			Title: "Main",
			Questions: []model.Question{
				{ID: 1, Type: model.QuestionYesNo, Title: "Coming?"},
			},
		}},
	}
}
