package service

import (
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Quokkas/internal/dto"
	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/repository"
	"github.com/lshigami/Quokkas/internal/validation"
	"github.com/rs/zerolog/log"
)

// AdminPollService manages the authoring side: drafts, structural edits,
// and the draft → open → closed lifecycle.
type AdminPollService interface {
	CreatePoll(req dto.PollCreateDTO) (*dto.PollSaveResultDTO, error)
	UpdatePoll(pollID uint, req dto.PollCreateDTO) (*dto.PollSaveResultDTO, error)
	Publish(pollID uint) (*dto.PublishResultDTO, error)
	Close(pollID uint) error
	Reopen(pollID uint) error
	// PublishScheduled opens every draft whose scheduled publish time has
	// arrived and whose definition is sound. Returns the ids published.
	PublishScheduled(now time.Time) ([]uint, error)
	// CloseExpired closes every open poll past its deadline. Returns the
	// ids closed.
	CloseExpired(now time.Time) ([]uint, error)
}

type adminPollService struct {
	pollRepo repository.PollRepository
}

func NewAdminPollService(pollRepo repository.PollRepository) AdminPollService {
	return &adminPollService{pollRepo: pollRepo}
}

func (s *adminPollService) CreatePoll(req dto.PollCreateDTO) (*dto.PollSaveResultDTO, error) {
	poll := pollFromDTO(req)
	poll.Status = model.StatusDraft

	if err := s.pollRepo.Create(&poll); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("CreatePoll: repository create failed")
		return nil, fmt.Errorf("creating poll: %w", err)
	}

	log.Info().Uint("pollID", poll.ID).Str("title", poll.Title).Msg("Poll created as draft")
	return s.saveResult(&poll)
}

func (s *adminPollService) UpdatePoll(pollID uint, req dto.PollCreateDTO) (*dto.PollSaveResultDTO, error) {
	existing, err := s.pollRepo.FindByIDWithSections(pollID)
	if err != nil {
		return nil, fmt.Errorf("poll not found with ID %d: %w", pollID, err)
	}

	updated := pollFromDTO(req)
	updated.ID = existing.ID
	updated.Status = existing.Status
	updated.Responses = existing.Responses
	updated.Views = existing.Views
	updated.CreatedAt = existing.CreatedAt

	if err := s.pollRepo.Update(&updated); err != nil {
		log.Error().Err(err).Uint("pollID", pollID).Msg("UpdatePoll: repository update failed")
		return nil, fmt.Errorf("updating poll %d: %w", pollID, err)
	}
	return s.saveResult(&updated)
}

func (s *adminPollService) Publish(pollID uint) (*dto.PublishResultDTO, error) {
	poll, err := s.pollRepo.FindByIDWithSections(pollID)
	if err != nil {
		return nil, fmt.Errorf("poll not found with ID %d: %w", pollID, err)
	}

	if defErrs := validation.CheckPollDefinition(*poll); len(defErrs) > 0 {
		log.Warn().Uint("pollID", pollID).Int("errors", len(defErrs)).Msg("Publish blocked by definition errors")
		return &dto.PublishResultDTO{Published: false, Status: poll.Status, DefinitionErrors: defErrs}, nil
	}

	if err := s.pollRepo.UpdateStatus(pollID, model.StatusOpen); err != nil {
		return nil, fmt.Errorf("publishing poll %d: %w", pollID, err)
	}
	log.Info().Uint("pollID", pollID).Msg("Poll published")
	return &dto.PublishResultDTO{Published: true, Status: model.StatusOpen}, nil
}

func (s *adminPollService) Close(pollID uint) error {
	if _, err := s.pollRepo.FindByID(pollID); err != nil {
		return fmt.Errorf("poll not found with ID %d: %w", pollID, err)
	}
	return s.pollRepo.UpdateStatus(pollID, model.StatusClosed)
}

func (s *adminPollService) Reopen(pollID uint) error {
	poll, err := s.pollRepo.FindByID(pollID)
	if err != nil {
		return fmt.Errorf("poll not found with ID %d: %w", pollID, err)
	}
	if poll.Status != model.StatusClosed {
		return fmt.Errorf("poll %d is %s, only closed polls can reopen", pollID, poll.Status)
	}
	return s.pollRepo.UpdateStatus(pollID, model.StatusOpen)
}

func (s *adminPollService) PublishScheduled(now time.Time) ([]uint, error) {
	due, err := s.pollRepo.FindDueForPublish(now)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled polls: %w", err)
	}

	var published []uint
	for _, poll := range due {
		full, err := s.pollRepo.FindByIDWithSections(poll.ID)
		if err != nil {
			log.Error().Err(err).Uint("pollID", poll.ID).Msg("PublishScheduled: reload failed")
			continue
		}
		if defErrs := validation.CheckPollDefinition(*full); len(defErrs) > 0 {
			log.Warn().Uint("pollID", poll.ID).Msg("PublishScheduled: skipping poll with definition errors")
			continue
		}
		if err := s.pollRepo.UpdateStatus(poll.ID, model.StatusOpen); err != nil {
			log.Error().Err(err).Uint("pollID", poll.ID).Msg("PublishScheduled: status update failed")
			continue
		}
		published = append(published, poll.ID)
	}
	return published, nil
}

func (s *adminPollService) CloseExpired(now time.Time) ([]uint, error) {
	expired, err := s.pollRepo.FindExpiredOpen(now)
	if err != nil {
		return nil, fmt.Errorf("listing expired polls: %w", err)
	}

	var closed []uint
	for _, poll := range expired {
		if err := s.pollRepo.UpdateStatus(poll.ID, model.StatusClosed); err != nil {
			log.Error().Err(err).Uint("pollID", poll.ID).Msg("CloseExpired: status update failed")
			continue
		}
		closed = append(closed, poll.ID)
	}
	return closed, nil
}

func (s *adminPollService) saveResult(poll *model.Poll) (*dto.PollSaveResultDTO, error) {
	var resp dto.PollResponseDTO
	if err := copier.Copy(&resp, poll); err != nil {
		return nil, fmt.Errorf("preparing poll response: %w", err)
	}
	return &dto.PollSaveResultDTO{
		Poll:             resp,
		DefinitionErrors: validation.CheckPollDefinition(*poll),
	}, nil
}

// pollFromDTO maps the authoring request onto the model. Sectionless polls
// get their flat question list wrapped in a single implicit section so the
// rest of the engine only ever sees sections.
func pollFromDTO(req dto.PollCreateDTO) model.Poll {
	poll := model.Poll{
		Title:            req.Title,
		Description:      req.Description,
		Type:             model.PollTypePoll,
		Visibility:       model.VisibilityPublic,
		CreatedBy:        req.CreatedBy,
		CreatedByRole:    req.CreatedByRole,
		Deadline:         req.Deadline,
		OpenForever:      req.OpenForever,
		ScheduledPublish: req.ScheduledPublish,
		UseSections:      req.UseSections,

		TargetRole:                req.TargetRole,
		TargetCommittee:           req.TargetCommittee,
		AllowEditAfterSubmit:      req.AllowEditAfterSubmit,
		AllowMultipleSubmissions:  req.AllowMultipleSubmissions,
		AnonymousResponses:        req.AnonymousResponses,
		ShowResultsToParticipants: req.ShowResultsToParticipants,
		RandomizeQuestions:        req.RandomizeQuestions,

		AccountOnlySubmissions: req.AccountOnlySubmissions,
		IPLock:                 req.IPLock,
		DeviceLock:             req.DeviceLock,
		TimerMinutes:           req.TimerMinutes,
		BlockTabSwitching:      req.BlockTabSwitching,

		Theme: req.Theme,
	}
	if req.Type != "" {
		poll.Type = model.PollType(req.Type)
	}
	if req.Visibility != "" {
		poll.Visibility = model.Visibility(req.Visibility)
	}

	sections := req.Sections
	if !req.UseSections && len(req.Questions) > 0 {
		sections = []dto.SectionCreateDTO{{Title: req.Title, Questions: req.Questions}}
	}
	for i, secReq := range sections {
		sec := model.Section{
			Title:       secReq.Title,
			Description: secReq.Description,
			Position:    i,
		}
		for j, qReq := range secReq.Questions {
			sec.Questions = append(sec.Questions, questionFromDTO(qReq, j))
		}
		poll.Sections = append(poll.Sections, sec)
	}
	return poll
}

func questionFromDTO(req dto.QuestionCreateDTO, position int) model.Question {
	return model.Question{
		Type:        model.QuestionType(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Required:    req.Required,
		Position:    position,

		Options:        req.Options,
		AllowOther:     req.AllowOther,
		ShuffleChoices: req.ShuffleChoices,

		ScaleMin:      req.ScaleMin,
		ScaleMax:      req.ScaleMax,
		ScaleMinLabel: req.ScaleMinLabel,
		ScaleMaxLabel: req.ScaleMaxLabel,

		Rows:    req.Rows,
		Columns: req.Columns,

		AcceptedFileTypes: req.AcceptedFileTypes,
		MaxFileSizeMB:     req.MaxFileSizeMB,

		Conditional: req.Conditional,
	}
}
