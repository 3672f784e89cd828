package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"document-portal-gateway/models"
)

// SessionStore persists gateway sessions. The gate is the only writer.
type SessionStore interface {
	// Get returns the session with the given id, or (nil, nil) when absent.
	Get(id string) (*models.Session, error)
	Put(session *models.Session) error
	Delete(id string) error
	// DeleteByToken removes every session carrying the given upstream token.
	// Used by the global 401 policy.
	DeleteByToken(token string) error
	DeleteExpired(now time.Time) error
}

// GormSessionStore keeps sessions in the gateway's sqlite database.
type GormSessionStore struct {
	db *gorm.DB
}

func NewGormSessionStore(db *gorm.DB) *GormSessionStore {
	return &GormSessionStore{db: db}
}

func (s *GormSessionStore) Get(id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *GormSessionStore) Put(session *models.Session) error {
	return s.db.Save(session).Error
}

func (s *GormSessionStore) Delete(id string) error {
	return s.db.Delete(&models.Session{}, "id = ?", id).Error
}

func (s *GormSessionStore) DeleteByToken(token string) error {
	return s.db.Delete(&models.Session{}, "access_token = ?", token).Error
}

func (s *GormSessionStore) DeleteExpired(now time.Time) error {
	return s.db.Delete(&models.Session{}, "expires_at <= ?", now).Error
}
