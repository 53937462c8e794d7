package session

import (
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/validation"
)

// Progress is derived from the answers on demand, never stored.
type Progress struct {
	SectionIndex    int     `json:"section_index"`
	SectionTotal    int     `json:"section_total"`
	SectionProgress float64 `json:"section_progress"`
	OverallProgress float64 `json:"overall_progress"`
}

// Progress reports how far through the poll the respondent is, counting
// only questions currently visible under conditional logic.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Progress{
		SectionIndex: s.sectionIndex,
		SectionTotal: len(s.Poll.Sections),
	}

	var totalQuestions, totalAnswered int
	for i, sec := range s.Poll.Sections {
		answered, count := s.sectionTally(sec)
		totalQuestions += count
		totalAnswered += answered
		if i == s.sectionIndex && count > 0 {
			p.SectionProgress = float64(answered) / float64(count)
		}
	}
	if totalQuestions > 0 {
		p.OverallProgress = float64(totalAnswered) / float64(totalQuestions)
	}
	return p
}

func (s *Session) sectionTally(sec model.Section) (answered, count int) {
	for _, q := range validation.VisibleQuestions(sec, s.answers) {
		if !q.Answerable() {
			continue
		}
		count++
		if v, ok := s.answers[q.ID]; ok && !v.IsZero() {
			answered++
		}
	}
	return answered, count
}

// PresentedSection returns the section at the given index with its
// questions (and each question's options) shuffled when the poll asks for
// randomization. The shuffle is stable within a session so the respondent
// sees one consistent order.
func (s *Session) PresentedSection(idx int) (model.Section, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx < 0 || idx >= len(s.Poll.Sections) {
		return model.Section{}, false
	}
	src := s.Poll.Sections[idx]
	sec := src
	sec.Questions = make([]model.Question, len(src.Questions))
	copy(sec.Questions, src.Questions)

	if s.Poll.RandomizeQuestions {
		s.shuffleQuestions(sec.Questions, idx)
	}
	for i, q := range sec.Questions {
		if q.ShuffleChoices && q.IsChoice() {
			opts := make([]string, len(q.Options))
			copy(opts, q.Options)
			s.seededRng(int64(q.ID)).Shuffle(len(opts), func(a, b int) {
				opts[a], opts[b] = opts[b], opts[a]
			})
			sec.Questions[i].Options = opts
		}
	}
	return sec, true
}

func (s *Session) shuffleQuestions(qs []model.Question, sectionIdx int) {
	s.seededRng(int64(sectionIdx)).Shuffle(len(qs), func(a, b int) {
		qs[a], qs[b] = qs[b], qs[a]
	})
}
