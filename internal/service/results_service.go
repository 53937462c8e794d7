package service

import (
	"fmt"

	"github.com/lshigami/Quokkas/internal/aggregate"
	"github.com/lshigami/Quokkas/internal/dto"
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/repository"
	"github.com/rs/zerolog/log"
)

// textSampleLimit bounds how many raw text answers a results payload
// carries; the full set stays reviewable through the aggregation iterator.
const textSampleLimit = 50

// ResultsService recomputes per-question statistics on demand over the
// persisted responses. Reads tolerate eventual consistency: a response
// committed moments ago may be missing from a concurrently built report.
type ResultsService interface {
	PollResults(pollID uint, filter aggregate.Filter, participant bool) (*dto.PollResultsDTO, error)
}

type resultsService struct {
	pollRepo repository.PollRepository
	respRepo repository.ResponseRepository
}

func NewResultsService(pollRepo repository.PollRepository, respRepo repository.ResponseRepository) ResultsService {
	return &resultsService{pollRepo: pollRepo, respRepo: respRepo}
}

func (s *resultsService) PollResults(pollID uint, filter aggregate.Filter, participant bool) (*dto.PollResultsDTO, error) {
	poll, err := s.pollRepo.FindByIDWithSections(pollID)
	if err != nil {
		return nil, fmt.Errorf("poll not found with ID %d: %w", pollID, err)
	}
	if participant && !poll.ShowResultsToParticipants {
		return nil, fmt.Errorf("results for poll %d are not shared with participants", pollID)
	}

	repoFilter := repository.ResponseFilter{From: filter.From, To: filter.To}
	responses, err := s.respRepo.FindByPollID(pollID, repoFilter)
	if err != nil {
		log.Error().Err(err).Uint("pollID", pollID).Msg("PollResults: loading responses failed")
		return nil, fmt.Errorf("loading responses for poll %d: %w", pollID, err)
	}

	results := &dto.PollResultsDTO{
		PollID: poll.ID,
		Title:  poll.Title,
		Stats:  aggregate.PollLevel(poll, responses, filter),
	}

	for _, sec := range poll.Sections {
		for _, q := range sec.Questions {
			if !q.Answerable() {
				continue
			}
			results.Questions = append(results.Questions, questionResult(q, responses, filter))
		}
	}
	return results, nil
}

func questionResult(q model.Question, responses []model.Response, f aggregate.Filter) dto.QuestionResultDTO {
	result := dto.QuestionResultDTO{QuestionID: q.ID, Title: q.Title, Type: q.Type}

	switch q.Type {
	case model.QuestionMultipleChoice, model.QuestionDropdown:
		result.Choices = aggregate.ChoiceCounts(q, responses, f)
	case model.QuestionCheckbox:
		result.Choices = aggregate.CheckboxCounts(q, responses, f)
	case model.QuestionLinearScale, model.QuestionStarRating:
		stats := aggregate.ScaleDistribution(q, responses, f)
		result.Scale = &stats
	case model.QuestionYesNo:
		split := aggregate.YesNoCounts(q, responses, f)
		result.YesNo = &split
	case model.QuestionMatrixGrid:
		table := aggregate.MatrixFrequencies(q, responses, f)
		result.Matrix = &table
	case model.QuestionShortAnswer, model.QuestionParagraph:
		for text := range aggregate.TextAnswers(q, responses, f) {
			result.Texts = append(result.Texts, text)
			if len(result.Texts) == textSampleLimit {
				break
			}
		}
	case model.QuestionDate, model.QuestionTime, model.QuestionFileUpload:
		// No numeric aggregate; exposed through raw response review only.
	}
	return result
}
