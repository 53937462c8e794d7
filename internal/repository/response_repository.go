package repository

import (
	"errors"
	"time"

	"github.com/lshigami/Quokkas/internal/model"
	"github.com/lshigami/Quokkas/internal/policy"
	"gorm.io/gorm"
)

// ErrDuplicateSubmission is returned when the (poll_id, dedup_key) unique
// index already holds a different submission.
var ErrDuplicateSubmission = errors.New("duplicate submission for this poll")

// ResponseFilter narrows which responses are loaded for aggregation.
type ResponseFilter struct {
	From *time.Time
	To   *time.Time
}

type ResponseRepository interface {
	// CreateIfAbsent is the atomic insert-if-absent primitive: the unique
	// index on (poll_id, dedup_key) decides the race, not a prior read.
	// A retry carrying the nonce of the stored row returns that row with
	// no error; any other collision returns ErrDuplicateSubmission.
	CreateIfAbsent(resp *model.Response) (*model.Response, error)
	Update(resp *model.Response) error
	FindByID(id string) (*model.Response, error)
	FindByPollID(pollID uint, filter ResponseFilter) ([]model.Response, error)
	FindPriors(pollID uint) ([]policy.Prior, error)
}

type responseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) CreateIfAbsent(resp *model.Response) (*model.Response, error) {
	err := r.db.Create(resp).Error
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}

	var existing model.Response
	findErr := r.db.Preload("Answers").
		Where("poll_id = ? AND dedup_key = ?", resp.PollID, resp.DedupKey).
		First(&existing).Error
	if findErr != nil {
		return nil, findErr
	}
	if existing.Nonce == resp.Nonce {
		// Same client retrying the same submission, not a duplicate.
		return &existing, nil
	}
	return &existing, ErrDuplicateSubmission
}

func (r *responseRepository) Update(resp *model.Response) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(resp).Error
}

func (r *responseRepository) FindByID(id string) (*model.Response, error) {
	var resp model.Response
	if err := r.db.Preload("Answers").Where("id = ?", id).First(&resp).Error; err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *responseRepository) FindByPollID(pollID uint, filter ResponseFilter) ([]model.Response, error) {
	query := r.db.Preload("Answers").Where("poll_id = ?", pollID)
	if filter.From != nil {
		query = query.Where("submitted_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("submitted_at <= ?", *filter.To)
	}

	var responses []model.Response
	err := query.Order("submitted_at ASC").Find(&responses).Error
	return responses, err
}

// FindPriors loads the dedup-relevant fields of every existing response for
// a poll, for the policy's duplicate checks. The nonce is included so the
// policy can recognize a retry of a committed-but-unacknowledged submission.
func (r *responseRepository) FindPriors(pollID uint) ([]policy.Prior, error) {
	var rows []model.Response
	err := r.db.Model(&model.Response{}).
		Select("user_id", "ip", "device_id", "nonce").
		Where("poll_id = ?", pollID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	priors := make([]policy.Prior, 0, len(rows))
	for _, row := range rows {
		p := policy.Prior{IP: row.IP, DeviceID: row.DeviceID, Nonce: row.Nonce}
		if row.UserID != nil {
			p.UserID = *row.UserID
		}
		priors = append(priors, p)
	}
	return priors, nil
}
