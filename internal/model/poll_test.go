package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollDeepRoundTrip(t *testing.T) {
	deadline := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	timer := 15
	poll := Poll{
		ID: 3, Title: "AGM ballot", Description: "Annual vote",
		Type: PollTypePoll, Status: StatusOpen, Visibility: VisibilityPrivate,
		Deadline: &deadline, UseSections: true,
		TargetRole: "member", AnonymousResponses: true,
		IPLock: true, TimerMinutes: &timer, BlockTabSwitching: true,
		Theme: map[string]string{"accent": "#204080"},
		Sections: []Section{{
			ID: 1, PollID: 3, Title: "Ballot", Position: 0,
			Questions: []Question{
				{
					ID: 1, SectionID: 1, Type: QuestionMultipleChoice, Title: "Next president",
					Required: true, Position: 0, Options: []string{"Avery", "Blake"},
				},
				{
					ID: 2, SectionID: 1, Type: QuestionParagraph, Title: "Anything for the board?",
					Position:    1,
					Conditional: &ConditionalRule{QuestionID: 1, Operator: "equals", Value: "Avery"},
				},
				{
					ID: 3, SectionID: 1, Type: QuestionMatrixGrid, Title: "Rate this year",
					Position: 2, Rows: []string{"Events", "Comms"}, Columns: []string{"Good", "Poor"},
				},
			},
		}},
	}

	raw, err := json.Marshal(poll)
	require.NoError(t, err)

	var got Poll
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, poll, got)
}

func TestTimerDuration(t *testing.T) {
	var p Poll
	assert.Zero(t, p.TimerDuration())

	zero := 0
	p.TimerMinutes = &zero
	assert.Zero(t, p.TimerDuration())

	fifteen := 15
	p.TimerMinutes = &fifteen
	assert.Equal(t, 15*time.Minute, p.TimerDuration())
}

func TestDeadlineExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	var p Poll
	assert.False(t, p.DeadlineExpired(now), "no deadline never expires")

	p.Deadline = &past
	assert.True(t, p.DeadlineExpired(now))

	p.OpenForever = true
	assert.False(t, p.DeadlineExpired(now), "open-forever overrides the deadline")
}
