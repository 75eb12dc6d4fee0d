package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
)

// readCollection loads a collection for a read path. Corrupted content is tolerated:
// the seed returned alongside the *CorruptionError is used and the problem is logged.
func readCollection[T any](ctx context.Context, repo repositories.CollectionRepository[T], logger *slog.Logger) ([]T, error) {
	items, err := repo.Get(ctx)
	if err != nil {
		if repositories.IsCorruptionError(err) {
			logger.WarnContext(ctx, "Using seed data for unreadable collection",
				"collection", repo.Name(),
				"error", err)
			return items, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", repo.Name(), err)
	}
	return items, nil
}

func now() time.Time {
	return time.Now().UTC()
}

// courseProgress is round(100 * completed / modules) over the modules the course still has.
func courseProgress(enrollment models.Enrollment, course models.Course) int {
	total := len(course.Modules)
	if total == 0 {
		return models.MinProgress
	}
	completed := 0
	for _, m := range course.Modules {
		if enrollment.Modules[m.ID].Completed {
			completed++
		}
	}
	return models.ClampProgress(int(math.Round(100 * float64(completed) / float64(total))))
}
