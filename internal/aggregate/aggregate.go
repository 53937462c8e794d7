package aggregate

import (
	"iter"
	"time"

	"github.com/lshigami/Quokkas/internal/model"
)

// Filter narrows the response set tallied by every function in this package.
// Zero-valued fields match everything.
type Filter struct {
	Role      string
	Committee string
	From      *time.Time
	To        *time.Time
}

func (f Filter) matches(r model.Response) bool {
	if f.Role != "" && (r.UserRole == nil || *r.UserRole != f.Role) {
		return false
	}
	if f.Committee != "" && (r.UserCommittee == nil || *r.UserCommittee != f.Committee) {
		return false
	}
	if f.From != nil && r.SubmittedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && r.SubmittedAt.After(*f.To) {
		return false
	}
	return true
}

// Apply returns the responses passing the filter.
func (f Filter) Apply(responses []model.Response) []model.Response {
	out := make([]model.Response, 0, len(responses))
	for _, r := range responses {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// OptionCount is the tally for one option of a choice question.
type OptionCount struct {
	Option  string  `json:"option"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ChoiceCounts tallies single-choice answers (multiple-choice, dropdown).
// Percentages are over non-null answers and sum to 100. Answers outside the
// declared options ("other" write-ins) tally under their literal value.
func ChoiceCounts(q model.Question, responses []model.Response, f Filter) []OptionCount {
	counts := make(map[string]int)
	total := 0
	for _, r := range f.Apply(responses) {
		v, ok := r.AnswerMap()[q.ID]
		if !ok || v.Kind != model.KindChoice || v.Choice == "" {
			continue
		}
		counts[v.Choice]++
		total++
	}
	return optionCounts(q.Options, counts, total)
}

// CheckboxCounts tallies each option independently: the denominator is the
// number of responses that answered the question, so percentages can sum
// past 100.
func CheckboxCounts(q model.Question, responses []model.Response, f Filter) []OptionCount {
	counts := make(map[string]int)
	answered := 0
	for _, r := range f.Apply(responses) {
		v, ok := r.AnswerMap()[q.ID]
		if !ok || v.Kind != model.KindMultiChoice || len(v.MultiChoice) == 0 {
			continue
		}
		answered++
		for _, sel := range v.MultiChoice {
			counts[sel]++
		}
	}
	return optionCounts(q.Options, counts, answered)
}

func optionCounts(declared []string, counts map[string]int, denominator int) []OptionCount {
	seen := make(map[string]bool, len(declared))
	out := make([]OptionCount, 0, len(declared))
	emit := func(opt string) {
		oc := OptionCount{Option: opt, Count: counts[opt]}
		if denominator > 0 {
			oc.Percent = float64(oc.Count) / float64(denominator) * 100
		}
		out = append(out, oc)
	}
	for _, opt := range declared {
		seen[opt] = true
		emit(opt)
	}
	// Write-ins, in no particular order after the declared options.
	for opt := range counts {
		if !seen[opt] {
			emit(opt)
		}
	}
	return out
}

// ScaleStats is the numeric aggregate for linear-scale and star-rating
// questions: mean plus a histogram over the discrete value range.
type ScaleStats struct {
	Count     int         `json:"count"`
	Mean      float64     `json:"mean"`
	Histogram map[int]int `json:"histogram"`
}

// ScaleDistribution aggregates scale/rating answers. The histogram carries
// an entry for every value in [ScaleMin, ScaleMax], zeroes included.
func ScaleDistribution(q model.Question, responses []model.Response, f Filter) ScaleStats {
	stats := ScaleStats{Histogram: make(map[int]int)}
	for v := q.ScaleMin; v <= q.ScaleMax; v++ {
		stats.Histogram[v] = 0
	}
	sum := 0
	for _, r := range f.Apply(responses) {
		v, ok := r.AnswerMap()[q.ID]
		if !ok {
			continue
		}
		var n int
		switch v.Kind {
		case model.KindScale:
			n = v.Scale
		case model.KindRating:
			n = v.Rating
		default:
			continue
		}
		// Rows persisted before a scale-bounds edit may fall outside the
		// declared range; they are excluded, not grafted onto the histogram.
		if n < q.ScaleMin || n > q.ScaleMax {
			continue
		}
		stats.Histogram[n]++
		stats.Count++
		sum += n
	}
	if stats.Count > 0 {
		stats.Mean = float64(sum) / float64(stats.Count)
	}
	return stats
}

// YesNoSplit is the percentage split of a yes-no question.
type YesNoSplit struct {
	Count      int     `json:"count"`
	Yes        int     `json:"yes"`
	No         int     `json:"no"`
	YesPercent float64 `json:"yes_percent"`
	NoPercent  float64 `json:"no_percent"`
}

// YesNoCounts tallies yes-no answers.
func YesNoCounts(q model.Question, responses []model.Response, f Filter) YesNoSplit {
	var split YesNoSplit
	for _, r := range f.Apply(responses) {
		v, ok := r.AnswerMap()[q.ID]
		if !ok || v.Kind != model.KindYesNo {
			continue
		}
		split.Count++
		if v.YesNo {
			split.Yes++
		} else {
			split.No++
		}
	}
	if split.Count > 0 {
		split.YesPercent = float64(split.Yes) / float64(split.Count) * 100
		split.NoPercent = float64(split.No) / float64(split.Count) * 100
	}
	return split
}

// MatrixTable is a row × column frequency table.
type MatrixTable struct {
	Rows    []string                  `json:"rows"`
	Columns []string                  `json:"columns"`
	Cells   map[string]map[string]int `json:"cells"`
}

// MatrixFrequencies tallies matrix-grid answers into a frequency table with
// a cell for every declared row/column pair.
func MatrixFrequencies(q model.Question, responses []model.Response, f Filter) MatrixTable {
	table := MatrixTable{
		Rows:    q.Rows,
		Columns: q.Columns,
		Cells:   make(map[string]map[string]int, len(q.Rows)),
	}
	for _, row := range q.Rows {
		table.Cells[row] = make(map[string]int, len(q.Columns))
		for _, col := range q.Columns {
			table.Cells[row][col] = 0
		}
	}
	for _, r := range f.Apply(responses) {
		v, ok := r.AnswerMap()[q.ID]
		if !ok || v.Kind != model.KindMatrix {
			continue
		}
		for row, col := range v.Matrix {
			if cols, ok := table.Cells[row]; ok {
				if _, ok := cols[col]; ok {
					cols[col]++
				}
			}
		}
	}
	return table
}

// TextAnswers yields the raw strings answered to a short-answer or
// paragraph question. The sequence is lazy and restartable: ranging over it
// twice walks the responses twice.
func TextAnswers(q model.Question, responses []model.Response, f Filter) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, r := range responses {
			if !f.matches(r) {
				continue
			}
			v, ok := r.AnswerMap()[q.ID]
			if !ok || v.Kind != model.KindText || v.Text == "" {
				continue
			}
			if !yield(v.Text) {
				return
			}
		}
	}
}

// PollStats is the poll-level aggregate.
type PollStats struct {
	Responses         int     `json:"responses"`
	CompletionRate    float64 `json:"completion_rate"`
	AvgCompletionSecs float64 `json:"avg_completion_secs"`
}

// PollLevel computes completion rate (responses over views) and average
// completion time over the filtered responses.
func PollLevel(poll *model.Poll, responses []model.Response, f Filter) PollStats {
	filtered := f.Apply(responses)
	stats := PollStats{Responses: len(filtered)}
	if poll.Views > 0 {
		stats.CompletionRate = float64(poll.Responses) / float64(poll.Views)
	}
	if len(filtered) > 0 {
		sum := 0
		for _, r := range filtered {
			sum += r.CompletionTimeSecs
		}
		stats.AvgCompletionSecs = float64(sum) / float64(len(filtered))
	}
	return stats
}
