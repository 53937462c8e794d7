package service

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Quokkas/internal/dto"
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/repository"
	"github.com/rs/zerolog/log"
)

// PollService is the respondent-facing read side.
type PollService interface {
	ListOpenPolls() ([]dto.PollSummaryDTO, error)
	// GetPoll loads the full definition. countView atomically bumps the
	// view counter, the denominator of the completion rate.
	GetPoll(pollID uint, countView bool) (*dto.PollResponseDTO, error)
}

type pollService struct {
	pollRepo repository.PollRepository
}

func NewPollService(pollRepo repository.PollRepository) PollService {
	return &pollService{pollRepo: pollRepo}
}

func (s *pollService) ListOpenPolls() ([]dto.PollSummaryDTO, error) {
	polls, err := s.pollRepo.FindAll(repository.PollFilter{Status: model.StatusOpen})
	if err != nil {
		log.Error().Err(err).Msg("ListOpenPolls: repository error")
		return nil, fmt.Errorf("listing polls: %w", err)
	}

	dtos := make([]dto.PollSummaryDTO, 0, len(polls))
	for _, poll := range polls {
		var summary dto.PollSummaryDTO
		if err := copier.Copy(&summary, &poll); err != nil {
			log.Error().Err(err).Uint("pollID", poll.ID).Msg("ListOpenPolls: copy to summary failed")
			continue
		}
		dtos = append(dtos, summary)
	}
	return dtos, nil
}

func (s *pollService) GetPoll(pollID uint, countView bool) (*dto.PollResponseDTO, error) {
	poll, err := s.pollRepo.FindByIDWithSections(pollID)
	if err != nil {
		return nil, fmt.Errorf("poll not found with ID %d: %w", pollID, err)
	}

	if countView {
		if err := s.pollRepo.IncrementViews(pollID); err != nil {
			// A lost view count is not worth failing the read.
			log.Warn().Err(err).Uint("pollID", pollID).Msg("GetPoll: view increment failed")
		}
	}

	var resp dto.PollResponseDTO
	if err := copier.Copy(&resp, poll); err != nil {
		return nil, fmt.Errorf("preparing poll response: %w", err)
	}
	return &resp, nil
}
