// ABOUTME: Dedup store on a local SQLite file through gorm
// ABOUTME: A single pooled connection serializes upserts from concurrent workers
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"ad-monitor/domain"
)

type listingRecord struct {
	AdID        string    `gorm:"column:ad_id;primaryKey"`
	URL         string    `gorm:"column:url;not null"`
	Title       string    `gorm:"column:title;not null"`
	Price       string    `gorm:"column:price;not null"`
	FirstSeen   time.Time `gorm:"column:first_seen;not null"`
	LastChecked time.Time `gorm:"column:last_checked;not null;index:idx_ad_changes_last_checked"`
}

func (listingRecord) TableName() string { return tableName }

func (r listingRecord) toDomain() domain.Listing {
	return domain.Listing{
		AdID:        r.AdID,
		URL:         r.URL,
		Title:       r.Title,
		Price:       r.Price,
		FirstSeen:   r.FirstSeen.UTC(),
		LastChecked: r.LastChecked.UTC(),
	}
}

type SQLiteListingRepository struct {
	db     *gorm.DB
	logger *slog.Logger
	now    Clock
}

// NewSQLiteListingRepository migrates the ad_changes table and returns the store.
func NewSQLiteListingRepository(db *gorm.DB, logger *slog.Logger, now Clock) (*SQLiteListingRepository, error) {
	if now == nil {
		now = time.Now
	}
	if err := db.AutoMigrate(&listingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate %s: %w", tableName, err)
	}
	return &SQLiteListingRepository{db: db, logger: logger, now: now}, nil
}

func (r *SQLiteListingRepository) Upsert(ctx context.Context, listing domain.Listing) (bool, error) {
	if err := validateListing(listing); err != nil {
		return false, err
	}
	now := checkedAt(listing, r.now)
	isNew := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing listingRecord
		res := tx.Select("ad_id", "first_seen").Where("ad_id = ?", listing.AdID).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			isNew = true
			return tx.Create(&listingRecord{
				AdID:        listing.AdID,
				URL:         listing.URL,
				Title:       listing.Title,
				Price:       listing.Price,
				FirstSeen:   now,
				LastChecked: now,
			}).Error
		}

		lastChecked := now
		if lastChecked.Before(existing.FirstSeen) {
			lastChecked = existing.FirstSeen.UTC()
		}
		return tx.Model(&listingRecord{}).
			Where("ad_id = ?", listing.AdID).
			Updates(map[string]any{
				"title":        listing.Title,
				"price":        listing.Price,
				"last_checked": lastChecked,
			}).Error
	})
	if err != nil {
		return false, storageError("upsert listing "+listing.AdID, err)
	}

	r.logger.DebugContext(ctx, "upserted listing", "ad_id", listing.AdID, "is_new", isNew)
	return isNew, nil
}

func (r *SQLiteListingRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := r.now().UTC().Add(-olderThan)
	res := r.db.WithContext(ctx).Where("last_checked < ?", cutoff).Delete(&listingRecord{})
	if res.Error != nil {
		return 0, storageError("prune listings", res.Error)
	}
	r.logger.InfoContext(ctx, "pruned listings", "removed", res.RowsAffected, "cutoff", cutoff)
	return res.RowsAffected, nil
}

func (r *SQLiteListingRepository) QueryRecent(ctx context.Context, window time.Duration) ([]domain.Listing, error) {
	cutoff := r.now().UTC().Add(-window)
	r.logger.DebugContext(ctx, "getting recent listings", "cutoff", cutoff)

	var records []listingRecord
	err := r.db.WithContext(ctx).
		Where("last_checked >= ?", cutoff).
		Order("last_checked DESC").
		Find(&records).Error
	if err != nil {
		return nil, storageError("query recent listings", err)
	}

	listings := make([]domain.Listing, 0, len(records))
	for _, rec := range records {
		listings = append(listings, rec.toDomain())
	}
	r.logger.DebugContext(ctx, "got recent listings", "count", len(listings))
	return listings, nil
}

func (r *SQLiteListingRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storageError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

func (r *SQLiteListingRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
