package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
)

var ErrNotFound = errors.New("run not found")

// GenerationRun records one scene request and how it was resolved.
type GenerationRun struct {
	ID          uuid.UUID      `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	ImageSHA256 string         `gorm:"column:image_sha256;size:64;index" json:"image_sha256"`
	MimeType    string         `gorm:"column:mime_type;size:64" json:"mime_type"`
	Width       int            `gorm:"column:width" json:"width"`
	Height      int            `gorm:"column:height" json:"height"`
	Model       string         `gorm:"column:model;size:128" json:"model"`
	Provenance  string         `gorm:"column:provenance;size:16;not null;index" json:"provenance"`
	Cached      bool           `gorm:"column:cached;not null;default:false" json:"cached"`
	DurationMs  int64          `gorm:"column:duration_ms" json:"duration_ms"`
	ModelCalls  int            `gorm:"column:model_calls" json:"model_calls"`
	Errors      datatypes.JSON `gorm:"column:errors" json:"errors"`
	Scene       datatypes.JSON `gorm:"column:scene" json:"scene"`
}

func (GenerationRun) TableName() string { return "generation_run" }

func (r *GenerationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

type RunRepo interface {
	Create(ctx context.Context, run *GenerationRun) error
	Get(ctx context.Context, id uuid.UUID) (*GenerationRun, error)
	// ListRecent returns the newest runs first.
	ListRecent(ctx context.Context, limit int) ([]*GenerationRun, error)
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &runRepo{db: db, log: baseLog.With("repo", "RunRepo")}
}

func (r *runRepo) Create(ctx context.Context, run *GenerationRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		r.log.Warn("create run failed", "error", err)
		return err
	}
	return nil
}

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (*GenerationRun, error) {
	var run GenerationRun
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepo) ListRecent(ctx context.Context, limit int) ([]*GenerationRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []*GenerationRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
