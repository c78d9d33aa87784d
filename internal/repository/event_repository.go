package repository

import (
	"time"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create stores the event and its participants in one transaction.
func (r *EventRepository) Create(event *models.Event) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		participants := event.Participants
		if err := tx.Omit("Participants").Create(event).Error; err != nil {
			return err
		}
		if len(participants) == 0 {
			return nil
		}
		for i := range participants {
			participants[i].EventID = event.ID
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error; err != nil {
			return err
		}
		event.Participants = participants
		return nil
	})
}

func (r *EventRepository) FindByID(id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("user_id ASC")
	}).First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListByGroup returns events overlapping [from, to] when bounds are given.
func (r *EventRepository) ListByGroup(groupID uint, from, to *time.Time) ([]models.Event, error) {
	var events []models.Event
	q := r.db.Where("group_id = ?", groupID)
	if from != nil {
		q = q.Where("ends_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("starts_at <= ?", *to)
	}
	err := q.Preload("Participants").Order("starts_at ASC").Find(&events).Error
	return events, err
}

func (r *EventRepository) Update(event *models.Event) error {
	return r.db.Model(event).
		Select("title", "description", "location", "virtual_link", "starts_at", "ends_at", "type", "status", "recurrence").
		Updates(event).Error
}

// Delete hard-deletes the event together with its participant rows.
func (r *EventRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *EventRepository) AddParticipants(eventID uint, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]models.EventParticipant, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.EventParticipant{
			EventID: eventID,
			UserID:  id,
			Status:  models.ParticipantPending,
		})
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *EventRepository) SetParticipantStatus(eventID, userID uint, status models.ParticipantStatus, at time.Time) error {
	res := r.db.Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
