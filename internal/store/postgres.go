package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ifuryst/murmur/internal/config"
	"github.com/ifuryst/murmur/internal/models"
)

// PostgresStore keeps the library in Postgres. Status transitions are
// conditional updates so concurrent ticks cannot publish an entry twice.
type PostgresStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// BuildDSN formats the connection string for the postgres driver.
func BuildDSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port, cfg.SSLMode, cfg.TimeZone)
}

func NewPostgresStore(cfg *config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(BuildDSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return newPostgresStoreWithDB(db, logger), nil
}

func newPostgresStoreWithDB(db *gorm.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Load runs the schema migration; rows are read on demand.
func (s *PostgresStore) Load(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&models.Content{},
		&models.Post{},
		&models.ScheduledEntry{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Save is a no-op: every mutation is committed as it happens.
func (s *PostgresStore) Save(ctx context.Context) error {
	return nil
}

func (s *PostgresStore) AddContent(ctx context.Context, content *models.Content, posts []*models.Post) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(content).Error; err != nil {
			return fmt.Errorf("failed to create content: %w", err)
		}
		for _, p := range posts {
			if err := tx.Create(p).Error; err != nil {
				return fmt.Errorf("failed to create %s post: %w", p.Platform, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ListContents(ctx context.Context) ([]models.Content, error) {
	var contents []models.Content
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&contents).Error; err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	return contents, nil
}

func (s *PostgresStore) GetContent(ctx context.Context, id string) (*models.Content, error) {
	var content models.Content
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&content).Error; err != nil {
		return nil, notFound(err, "content "+id)
	}
	return &content, nil
}

func (s *PostgresStore) FindContent(ctx context.Context, title, language string) (*models.Content, error) {
	var content models.Content
	err := s.db.WithContext(ctx).
		Where("LOWER(title) = ? AND language = ?", strings.ToLower(title), language).
		First(&content).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("content %q (%s)", title, language))
	}
	return &content, nil
}

func (s *PostgresStore) ListPosts(ctx context.Context, contentID string) ([]models.Post, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC")
	if contentID != "" {
		q = q.Where("content_id = ?", contentID)
	}
	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, notFound(err, "post "+id)
	}
	return &post, nil
}

func (s *PostgresStore) TransitionPost(ctx context.Context, id string, from, to models.PostStatus, at time.Time) error {
	if err := models.ValidatePostTransition(from, to); err != nil {
		return err
	}
	updates := map[string]interface{}{"status": to}
	if to == models.PostPublished {
		updates["published_at"] = at
	}
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update post %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.conflictOrMissing(ctx, &models.Post{}, "post", id)
	}
	return nil
}

// ScheduleEntry locks the post row so two schedulers cannot both see it
// without a pending entry.
func (s *PostgresStore) ScheduleEntry(ctx context.Context, entry *models.ScheduledEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", entry.PostID).First(&post).Error; err != nil {
			return notFound(err, "post "+entry.PostID)
		}

		var pending int64
		if post.Status != models.PostPublished {
			if err := tx.Model(&models.ScheduledEntry{}).
				Where("post_id = ? AND status = ?", post.ID, models.EntryPending).
				Count(&pending).Error; err != nil {
				return fmt.Errorf("failed to count pending entries: %w", err)
			}
		}
		if err := checkSchedulable(&post, int(pending)); err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
			Update("status", models.PostScheduled).Error; err != nil {
			return fmt.Errorf("failed to update post %s: %w", post.ID, err)
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create scheduled entry: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) ListEntries(ctx context.Context, filter EntryFilter) ([]models.ScheduledEntry, error) {
	q := s.db.WithContext(ctx).Order("scheduled_time ASC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PostID != "" {
		q = q.Where("post_id = ?", filter.PostID)
	}
	var entries []models.ScheduledEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list scheduled entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) TransitionEntry(ctx context.Context, id string, from, to models.EntryStatus, errMsg string, at time.Time) error {
	if err := models.ValidateEntryTransition(from, to); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.ScheduledEntry{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"error":      errMsg,
			"updated_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update entry %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.conflictOrMissing(ctx, &models.ScheduledEntry{}, "entry", id)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.ScheduledEntry{}, &models.Post{}, &models.Content{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear library: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) conflictOrMissing(ctx context.Context, model interface{}, kind, id string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up %s %s: %w", kind, id, err)
	}
	if count == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("%s %s changed concurrently: %w", kind, id, ErrStatusConflict)
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
