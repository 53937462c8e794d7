package repository

import (
	"time"

	"github.com/lshigami/Quokkas/internal/model"
	"gorm.io/gorm"
)

// PollFilter narrows listing queries.
type PollFilter struct {
	Status     model.PollStatus
	Type       model.PollType
	Visibility model.Visibility
	CreatedBy  string
}

type PollRepository interface {
	Create(poll *model.Poll) error
	Update(poll *model.Poll) error
	FindByID(id uint) (*model.Poll, error)
	FindByIDWithSections(id uint) (*model.Poll, error)
	FindAll(filter PollFilter) ([]model.Poll, error)
	FindDueForPublish(now time.Time) ([]model.Poll, error)
	FindExpiredOpen(now time.Time) ([]model.Poll, error)
	UpdateStatus(id uint, status model.PollStatus) error
	IncrementViews(id uint) error
	IncrementResponses(id uint) error
}

type pollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

func (r *pollRepository) Create(poll *model.Poll) error {
	// Create with associations persists sections and questions in one go.
	return r.db.Create(poll).Error
}

func (r *pollRepository) Update(poll *model.Poll) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(poll).Error
}

func (r *pollRepository) FindByID(id uint) (*model.Poll, error) {
	var poll model.Poll
	if err := r.db.First(&poll, id).Error; err != nil {
		return nil, err
	}
	return &poll, nil
}

func (r *pollRepository) FindByIDWithSections(id uint) (*model.Poll, error) {
	var poll model.Poll
	err := r.db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.position ASC")
		}).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		First(&poll, id).Error
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

func (r *pollRepository) FindAll(filter PollFilter) ([]model.Poll, error) {
	query := r.db.Model(&model.Poll{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Visibility != "" {
		query = query.Where("visibility = ?", filter.Visibility)
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}

	var polls []model.Poll
	err := query.Order("created_at DESC").Find(&polls).Error
	return polls, err
}

func (r *pollRepository) FindDueForPublish(now time.Time) ([]model.Poll, error) {
	var polls []model.Poll
	err := r.db.
		Where("status = ? AND scheduled_publish IS NOT NULL AND scheduled_publish <= ?", model.StatusDraft, now).
		Find(&polls).Error
	return polls, err
}

// FindExpiredOpen lists open polls whose deadline has passed, for the sweep
// that forces them closed. Open-forever polls never expire.
func (r *pollRepository) FindExpiredOpen(now time.Time) ([]model.Poll, error) {
	var polls []model.Poll
	err := r.db.
		Where("status = ? AND open_forever = false AND deadline IS NOT NULL AND deadline <= ?", model.StatusOpen, now).
		Find(&polls).Error
	return polls, err
}

func (r *pollRepository) UpdateStatus(id uint, status model.PollStatus) error {
	return r.db.Model(&model.Poll{}).Where("id = ?", id).Update("status", status).Error
}

// IncrementViews bumps the counter in the database, not read-modify-write,
// so concurrent viewers cannot lose increments.
func (r *pollRepository) IncrementViews(id uint) error {
	return r.db.Model(&model.Poll{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *pollRepository) IncrementResponses(id uint) error {
	return r.db.Model(&model.Poll{}).Where("id = ?", id).
		UpdateColumn("responses", gorm.Expr("responses + 1")).Error
}
