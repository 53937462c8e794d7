package dto

import (
	"time"

	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/validation"
)

// QuestionCreateDTO carries one question of a poll being authored.
type QuestionCreateDTO struct {
	Type        string `json:"type" binding:"required,oneof=short-answer paragraph multiple-choice checkbox dropdown file-upload linear-scale star-rating matrix-grid yes-no date time section-break"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Required    bool   `json:"required"`

	Options        []string `json:"options"`
	AllowOther     bool     `json:"allow_other"`
	ShuffleChoices bool     `json:"shuffle_choices"`

	ScaleMin      int    `json:"scale_min"`
	ScaleMax      int    `json:"scale_max"`
	ScaleMinLabel string `json:"scale_min_label"`
	ScaleMaxLabel string `json:"scale_max_label"`

	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`

	AcceptedFileTypes []string `json:"accepted_file_types"`
	MaxFileSizeMB     int      `json:"max_file_size_mb"`

	Conditional *model.ConditionalRule `json:"conditional"`
}

type SectionCreateDTO struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Questions   []QuestionCreateDTO `json:"questions" binding:"required,dive"`
}

// PollCreateDTO is the authoring request. Sectionless polls submit the flat
// Questions list instead; the admin service wraps it in one implicit section.
type PollCreateDTO struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Type        string `json:"type" binding:"omitempty,oneof=poll evaluation survey assessment form"`
	Visibility  string `json:"visibility" binding:"omitempty,oneof=public private"`

	CreatedBy     string `json:"created_by"`
	CreatedByRole string `json:"created_by_role"`

	Deadline         *time.Time `json:"deadline"`
	OpenForever      bool       `json:"open_forever"`
	ScheduledPublish *time.Time `json:"scheduled_publish"`

	UseSections bool                `json:"use_sections"`
	Sections    []SectionCreateDTO  `json:"sections" binding:"omitempty,dive"`
	Questions   []QuestionCreateDTO `json:"questions" binding:"omitempty,dive"`

	TargetRole                string `json:"target_role"`
	TargetCommittee           string `json:"target_committee"`
	AllowEditAfterSubmit      bool   `json:"allow_edit_after_submit"`
	AllowMultipleSubmissions  bool   `json:"allow_multiple_submissions"`
	AnonymousResponses        bool   `json:"anonymous_responses"`
	ShowResultsToParticipants bool   `json:"show_results_to_participants"`
	RandomizeQuestions        bool   `json:"randomize_questions"`

	AccountOnlySubmissions bool `json:"account_only_submissions"`
	IPLock                 bool `json:"ip_lock"`
	DeviceLock             bool `json:"device_lock"`
	TimerMinutes           *int `json:"timer_minutes"`
	BlockTabSwitching      bool `json:"block_tab_switching"`

	Theme map[string]string `json:"theme"`
}

// PollSummaryDTO lists a poll without its question tree.
type PollSummaryDTO struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Type        model.PollType   `json:"type"`
	Status      model.PollStatus `json:"status"`
	Visibility  model.Visibility `json:"visibility"`
	Deadline    *time.Time       `json:"deadline,omitempty"`
	OpenForever bool             `json:"open_forever"`
	Responses   int64            `json:"responses"`
	Views       int64            `json:"views"`
	CreatedAt   time.Time        `json:"created_at"`
}

// PollResponseDTO is the full poll definition, sections and questions included.
type PollResponseDTO struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Type        model.PollType   `json:"type"`
	Status      model.PollStatus `json:"status"`
	Visibility  model.Visibility `json:"visibility"`

	Deadline         *time.Time `json:"deadline,omitempty"`
	OpenForever      bool       `json:"open_forever"`
	ScheduledPublish *time.Time `json:"scheduled_publish,omitempty"`

	UseSections bool            `json:"use_sections"`
	Sections    []model.Section `json:"sections,omitempty"`

	AllowEditAfterSubmit      bool `json:"allow_edit_after_submit"`
	AllowMultipleSubmissions  bool `json:"allow_multiple_submissions"`
	AnonymousResponses        bool `json:"anonymous_responses"`
	ShowResultsToParticipants bool `json:"show_results_to_participants"`
	TimerMinutes              *int `json:"timer_minutes,omitempty"`

	Theme map[string]string `json:"theme,omitempty"`

	Responses int64     `json:"responses"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PollSaveResultDTO is returned from create/update: the stored poll plus
// any definition defects that will block publishing.
type PollSaveResultDTO struct {
	Poll             PollResponseDTO              `json:"poll"`
	DefinitionErrors []validation.DefinitionError `json:"definition_errors,omitempty"`
}

// PublishResultDTO reports a publish attempt. Published is false when
// definition errors block the transition to open.
type PublishResultDTO struct {
	Published        bool                         `json:"published"`
	Status           model.PollStatus             `json:"status"`
	DefinitionErrors []validation.DefinitionError `json:"definition_errors,omitempty"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
