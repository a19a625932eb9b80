package stories

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/metrics"
	"github.com/linkup-app/backend/internal/models"
	"github.com/linkup-app/backend/internal/storage"
)

// CleanupService removes expired stories on a fixed interval.
// Stories referenced by a highlight are kept even after expiry.
type CleanupService struct {
	interval time.Duration
	uploader *storage.ImageUploader
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCleanupService creates a cleanup service. A nil uploader skips
// image deletion, database rows are still cleaned.
func NewCleanupService(interval time.Duration, uploader *storage.ImageUploader) *CleanupService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &CleanupService{
		interval: interval,
		uploader: uploader,
		done:     make(chan struct{}),
	}
}

// Start launches the background cleanup loop
func (s *CleanupService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logger.Log.Info("Story cleanup service started",
			zap.Duration("interval", s.interval),
		)

		// One pass at startup to catch stories that expired while down
		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				logger.Log.Info("Story cleanup service stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current pass to finish
func (s *CleanupService) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *CleanupService) runOnce(ctx context.Context) {
	deleted, err := CleanupExpired(ctx, s.uploader)
	if err != nil {
		logger.ErrorWithFields("Story cleanup pass failed", err)
		return
	}
	if deleted > 0 {
		logger.Log.Info("Expired stories cleaned up", zap.Int("deleted", deleted))
	}
}

// CleanupExpired deletes expired stories that no highlight references,
// along with their views and hosted images. Returns the number of
// stories removed. Also used by the admin CLI for manual purges.
func CleanupExpired(ctx context.Context, uploader *storage.ImageUploader) (int, error) {
	var expired []models.Story
	err := database.DB.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Where("id NOT IN (?)",
			database.DB.Model(&models.HighlightedStory{}).Select("story_id"),
		).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}

	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, len(expired))
	for i, st := range expired {
		ids[i] = st.ID
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id IN ?", ids).Delete(&models.StoryView{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id IN ?", ids).Delete(&models.Story{}).Error
	})
	if err != nil {
		return 0, err
	}

	metrics.Get().StoriesCleanedUpTotal.Add(float64(len(expired)))

	if uploader != nil {
		for _, st := range expired {
			if err := uploader.Delete(ctx, st.ImageURL); err != nil {
				logger.WarnWithFields("Failed to delete expired story image", err)
			}
		}
	}

	return len(expired), nil
}
