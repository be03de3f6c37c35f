package store

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/poorspot/spotd/models"
)

// GormStore maps the snapshot onto relational tables (users, check_in_logs,
// spots, reviews). Save replaces the whole snapshot inside one transaction.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore migrates missing tables and returns the store.
func NewGormStore(db *gorm.DB, logger *zap.Logger) (*GormStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, model := range []interface{}{&models.User{}, &models.CheckInLog{}, &models.Spot{}, &models.Review{}} {
		// Only migrate when table not exists to avoid intrusive changes on existing schema
		if db.Migrator().HasTable(model) {
			continue
		}
		if err := db.AutoMigrate(model); err != nil {
			return nil, wrap("migrate", err)
		}
	}
	return &GormStore{db: db, logger: logger}, nil
}

func (g *GormStore) Load(ctx context.Context) (*models.Dataset, error) {
	ds := models.NewDataset()
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).Order("created_at ASC").Find(&ds.Users).Error; err != nil {
			return err
		}
		return tx.Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).Order("created_at ASC").Find(&ds.Spots).Error
	})
	if err != nil {
		return nil, wrap("load snapshot", err)
	}
	ds.Normalize()
	return ds, nil
}

func (g *GormStore) Save(ctx context.Context, ds *models.Dataset) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userIDs := make([]string, 0, len(ds.Users))
		for i := range ds.Users {
			u := ds.Users[i]
			userIDs = append(userIDs, u.ID)
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(&u).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", u.ID).Delete(&models.CheckInLog{}).Error; err != nil {
				return err
			}
			if len(u.History) == 0 {
				continue
			}
			logs := make([]models.CheckInLog, len(u.History))
			for pos, rec := range u.History {
				rec.RowID = 0
				rec.UserID = u.ID
				rec.Position = pos
				logs[pos] = rec
			}
			if err := tx.CreateInBatches(logs, 200).Error; err != nil {
				return err
			}
		}
		if err := deleteMissing(tx, &models.User{}, "id", userIDs); err != nil {
			return err
		}
		if err := deleteMissing(tx, &models.CheckInLog{}, "user_id", userIDs); err != nil {
			return err
		}

		spotIDs := make([]string, 0, len(ds.Spots))
		for i := range ds.Spots {
			s := ds.Spots[i]
			spotIDs = append(spotIDs, s.ID)
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(&s).Error; err != nil {
				return err
			}
			if err := tx.Where("spot_id = ?", s.ID).Delete(&models.Review{}).Error; err != nil {
				return err
			}
			if len(s.Reviews) == 0 {
				continue
			}
			reviews := make([]models.Review, len(s.Reviews))
			for pos, r := range s.Reviews {
				r.SpotID = s.ID
				r.Position = pos
				reviews[pos] = r
			}
			if err := tx.CreateInBatches(reviews, 200).Error; err != nil {
				return err
			}
		}
		if err := deleteMissing(tx, &models.Spot{}, "id", spotIDs); err != nil {
			return err
		}
		return deleteMissing(tx, &models.Review{}, "spot_id", spotIDs)
	})
	if err != nil {
		return wrap("save snapshot", err)
	}
	return nil
}

func (g *GormStore) Close(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return wrap("close database", err)
	}
	return wrap("close database", sqlDB.Close())
}

// deleteMissing removes rows whose key column is not part of the snapshot.
func deleteMissing(tx *gorm.DB, model interface{}, column string, keep []string) error {
	q := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	if len(keep) == 0 {
		return q.Delete(model).Error
	}
	return q.Where(column+" NOT IN ?", keep).Delete(model).Error
}
