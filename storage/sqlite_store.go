package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	// Slot is one row of the key-value table backing SqliteStore.
	Slot struct {
		Name      string         `gorm:"primaryKey"`
		Value     datatypes.JSON `gorm:"not null"`
		UpdatedAt time.Time
	}

	SqliteStore struct {
		db *gorm.DB
	}
)

var (
	_ Store = (*SqliteStore)(nil)
)

func NewSqliteStore(ctx context.Context, gdb *gorm.DB) (*SqliteStore, error) {
	_, tx := db.OpenSession(ctx, gdb)
	if err := tx.AutoMigrate(&Slot{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate slots table")
	}

	return &SqliteStore{db: gdb}, nil
}

func (s *SqliteStore) Load(ctx context.Context, slot string, out any) (bool, error) {
	_, tx := db.OpenSession(ctx, s.db)

	var row Slot
	if r := tx.Where("name = ?", slot).Limit(1).Find(&row); r.Error != nil {
		return false, errors.Wrapf(r.Error, "failed to load slot %s", slot)
	} else if r.RowsAffected == 0 {
		return false, nil
	}

	if err := json.Unmarshal(row.Value, out); err != nil {
		return true, errors.Wrapf(err, "failed to decode slot %s", slot)
	}
	return true, nil
}

func (s *SqliteStore) Save(ctx context.Context, slot string, value any) error {
	_, tx := db.OpenSession(ctx, s.db)

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode slot %s", slot)
	}

	row := Slot{Name: slot, Value: datatypes.JSON(data), UpdatedAt: time.Now()}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return errors.Wrapf(err, "failed to save slot %s", slot)
	}

	return nil
}

func (s *SqliteStore) Delete(ctx context.Context, slot string) error {
	_, tx := db.OpenSession(ctx, s.db)

	if err := tx.Where("name = ?", slot).Delete(&Slot{}).Error; err != nil {
		return errors.Wrapf(err, "failed to delete slot %s", slot)
	}
	return nil
}

func (s *SqliteStore) Clear(ctx context.Context) error {
	_, tx := db.OpenSession(ctx, s.db)

	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Slot{}).Error; err != nil {
		return errors.Wrapf(err, "failed to clear slots")
	}
	return nil
}
