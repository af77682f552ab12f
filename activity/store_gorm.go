package activity

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type GormEventStore struct {
	DB *gorm.DB
}

var _ EventStore = (*GormEventStore)(nil)

func NewGormEventStore(db *gorm.DB) (*GormEventStore, error) {
	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, err
	}
	return &GormEventStore{DB: db}, nil
}

func (s *GormEventStore) Append(ctx context.Context, evt *Event) error {
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}
	return s.DB.WithContext(ctx).Create(evt).Error
}

func (s *GormEventStore) CountSince(ctx context.Context, actorID, action string, since time.Time) (int, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&Event{}).
		Where("actor_id = ? AND action = ? AND created_at >= ?", actorID, action, since).
		Count(&count).Error
	return int(count), err
}

func (s *GormEventStore) CountSinceEntity(ctx context.Context, actorID, action, entityType, entityID string, since time.Time) (int, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&Event{}).
		Where("actor_id = ? AND action = ? AND entity_type = ? AND entity_id = ? AND created_at >= ?",
			actorID, action, entityType, entityID, since).
		Count(&count).Error
	return int(count), err
}

func (s *GormEventStore) CountByIPSince(ctx context.Context, ipAddress, action string, since time.Time) (int, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&Event{}).
		Where("ip_address = ? AND action = ? AND created_at >= ?", ipAddress, action, since).
		Count(&count).Error
	return int(count), err
}

func (s *GormEventStore) RecentNetworks(ctx context.Context, actorID string, actions []string, limit int) ([]string, error) {
	var addrs []string
	err := s.DB.WithContext(ctx).Model(&Event{}).
		Where("actor_id = ? AND action IN ? AND ip_address <> ''", actorID, actions).
		Group("ip_address").
		Order("MAX(created_at) DESC").
		Limit(limit).
		Pluck("ip_address", &addrs).Error
	if err != nil {
		return nil, err
	}
	return addrs, nil
}
