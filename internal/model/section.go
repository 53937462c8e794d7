package model

import (
	"time"

	"gorm.io/gorm"
)

// Section is an ordered group of questions and the unit of forward/back
// navigation. Polls authored without sections get exactly one implicit section.
type Section struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	PollID      uint       `json:"poll_id" gorm:"not null;index"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Position    int        `json:"position" gorm:"not null"`
	Questions   []Question `json:"questions,omitempty" gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
