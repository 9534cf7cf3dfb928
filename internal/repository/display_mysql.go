package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MySQLDisplayStore keeps display fields in the display_profiles table.
type MySQLDisplayStore struct {
	db        *gorm.DB
	namespace string
}

func NewMySQLDisplayStore(db *gorm.DB, namespace string) *MySQLDisplayStore {
	if namespace == "" {
		namespace = "default"
	}
	return &MySQLDisplayStore{db: db, namespace: namespace}
}

func MigrateDisplay(db *gorm.DB) error {
	return db.AutoMigrate(&model.DisplayEntry{})
}

func (s *MySQLDisplayStore) Get(ctx context.Context, key string) (string, error) {
	var entry model.DisplayEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND `key` = ?", s.namespace, key).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return entry.Value, nil
}

func (s *MySQLDisplayStore) Set(ctx context.Context, key, value string) error {
	return s.upsert(ctx, key, value).Error
}

func (s *MySQLDisplayStore) upsert(ctx context.Context, key, value string) *gorm.DB {
	entry := model.DisplayEntry{
		Namespace: s.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry)
}

func (s *MySQLDisplayStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.remove(ctx, keys).Error
}

func (s *MySQLDisplayStore) remove(ctx context.Context, keys []string) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("namespace = ? AND `key` IN ?", s.namespace, keys).
		Delete(&model.DisplayEntry{})
}
