package service

import (
	"testing"
	"time"

	"github.com/lshigami/Quokkas/internal/aggregate"
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollResults(t *testing.T) {
	poll := &model.Poll{
		ID: 1, Title: "Event feedback", Status: model.StatusClosed,
		Responses: 2, Views: 4,
		Sections: []model.Section{{
			Title: "Main",
			Questions: []model.Question{
				{ID: 1, Type: model.QuestionMultipleChoice, Title: "Best part", Options: []string{"Talks", "Food"}},
				{ID: 2, Type: model.QuestionLinearScale, Title: "Overall", ScaleMin: 1, ScaleMax: 5},
				{ID: 3, Type: model.QuestionSectionBreak, Title: "---"},
				{ID: 4, Type: model.QuestionParagraph, Title: "Comments"},
			},
		}},
	}

	respRepo := newFakeResponseRepo()
	now := time.Now()
	store := func(dedup string, answers ...model.Answer) {
		_, err := respRepo.CreateIfAbsent(&model.Response{
			ID: dedup, PollID: 1, DedupKey: dedup, SubmittedAt: now, Answers: answers,
		})
		require.NoError(t, err)
	}
	store("r1",
		model.Answer{QuestionID: 1, Value: model.ChoiceAnswer("Talks")},
		model.Answer{QuestionID: 2, Value: model.ScaleAnswer(5)},
		model.Answer{QuestionID: 4, Value: model.TextAnswer("great venue")},
	)
	store("r2",
		model.Answer{QuestionID: 1, Value: model.ChoiceAnswer("Talks")},
		model.Answer{QuestionID: 2, Value: model.ScaleAnswer(3)},
	)

	svc := NewResultsService(&fakePollRepo{poll: poll}, respRepo)

	results, err := svc.PollResults(1, aggregate.Filter{}, false)
	require.NoError(t, err)
	assert.Equal(t, uint(1), results.PollID)
	assert.InDelta(t, 0.5, results.Stats.CompletionRate, 1e-9)
	require.Len(t, results.Questions, 3, "section breaks carry no result")

	choices := results.Questions[0]
	require.Len(t, choices.Choices, 2)
	assert.Equal(t, 2, choices.Choices[0].Count)
	assert.InDelta(t, 100, choices.Choices[0].Percent, 1e-9)

	scale := results.Questions[1]
	require.NotNil(t, scale.Scale)
	assert.Equal(t, 2, scale.Scale.Count)
	assert.InDelta(t, 4, scale.Scale.Mean, 1e-9)

	texts := results.Questions[2]
	assert.Equal(t, []string{"great venue"}, texts.Texts)
}

func TestPollResultsParticipantGate(t *testing.T) {
	poll := &model.Poll{
		ID: 1, Title: "Private results", Status: model.StatusOpen,
		Sections: []model.Section{{Questions: []model.Question{{ID: 1, Type: model.QuestionYesNo, Title: "?"}}}},
	}
	svc := NewResultsService(&fakePollRepo{poll: poll}, newFakeResponseRepo())

	_, err := svc.PollResults(1, aggregate.Filter{}, true)
	assert.Error(t, err, "participants are refused unless the poll shares results")

	poll.ShowResultsToParticipants = true
	_, err = svc.PollResults(1, aggregate.Filter{}, true)
	assert.NoError(t, err)

	_, err = svc.PollResults(1, aggregate.Filter{}, false)
	assert.NoError(t, err, "admins always see results")
}
