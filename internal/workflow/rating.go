package workflow

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/cache"
	"github.com/freelancehub/backend/internal/models"
)

// RatingWorkflow persists ratings and keeps the rated party's running
// average in sync. The average is always recomputed from all rows rather
// than adjusted incrementally, so it cannot drift; rating insert and
// aggregate write commit together.
type RatingWorkflow struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewRatingWorkflow(db *gorm.DB, c *cache.Cache) *RatingWorkflow {
	return &RatingWorkflow{DB: db, Cache: c}
}

type SubmitRatingInput struct {
	ProjectID uuid.UUID
	RatedID   uuid.UUID
	Direction models.RatingDirection
	Score     int
	Review    string
}

// roundAverage rounds to 2 decimal places for storage.
func roundAverage(v float64) float64 {
	return math.Round(v*100) / 100
}

// recomputeAverage re-reads every rating for (ratedID, direction), averages
// them and writes the result onto the rated party's profile.
func recomputeAverage(tx *gorm.DB, ratedID uuid.UUID, direction models.RatingDirection) error {
	var avg float64
	err := tx.Model(&models.Rating{}).
		Where("rated_id = ? AND direction = ?", ratedID, direction).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	if err != nil {
		return err
	}
	avg = roundAverage(avg)

	var res *gorm.DB
	if direction == models.DirectionClientToFreelancer {
		res = tx.Model(&models.FreelancerProfile{}).
			Where("user_id = ?", ratedID).
			Update("ratings", avg)
	} else {
		res = tx.Model(&models.ClientProfile{}).
			Where("user_id = ?", ratedID).
			Update("ratings", avg)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Submit stores a rating for a completed project and recomputes the rated
// party's average in the same transaction. Double-rating the same
// counterpart for the same project fails with ErrConflict.
func (w *RatingWorkflow) Submit(ctx context.Context, raterID uuid.UUID, in SubmitRatingInput) (*models.Rating, error) {
	if in.Score < 1 || in.Score > 5 {
		return nil, ErrValidation
	}
	if in.Direction != models.DirectionClientToFreelancer && in.Direction != models.DirectionFreelancerToClient {
		return nil, ErrValidation
	}

	rating := models.Rating{
		ID:        uuid.New(),
		ProjectID: in.ProjectID,
		RaterID:   raterID,
		RatedID:   in.RatedID,
		Direction: in.Direction,
		Rating:    in.Score,
		Review:    in.Review,
	}

	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		err := tx.First(&project, "id = ?", in.ProjectID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if project.Status != models.ProjectStatusCompleted {
			return ErrInvalidState
		}
		if project.AssignedTo == nil {
			return ErrInvalidState
		}

		// Rater and rated must be the project's client and assigned
		// freelancer, in the order the direction claims.
		switch in.Direction {
		case models.DirectionClientToFreelancer:
			if raterID != project.ClientID || in.RatedID != *project.AssignedTo {
				return ErrInvalidState
			}
		case models.DirectionFreelancerToClient:
			if raterID != *project.AssignedTo || in.RatedID != project.ClientID {
				return ErrInvalidState
			}
		}

		var existing models.Rating
		err = tx.Where("project_id = ? AND rater_id = ? AND rated_id = ?",
			in.ProjectID, raterID, in.RatedID).First(&existing).Error
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&rating).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return err
		}

		return recomputeAverage(tx, in.RatedID, in.Direction)
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.UserTag(in.RatedID), cache.ProjectTag(in.ProjectID))
	return &rating, nil
}

// Update edits an existing rating. Only the original rater may edit; the
// aggregate is recomputed exactly as on submit.
func (w *RatingWorkflow) Update(ctx context.Context, ratingID, raterID uuid.UUID, newScore int, newReview string) (*models.Rating, error) {
	if newScore < 1 || newScore > 5 {
		return nil, ErrValidation
	}

	var rating models.Rating
	err := w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&rating, "id = ?", ratingID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if rating.RaterID != raterID {
			return ErrForbidden
		}

		if err := tx.Model(&models.Rating{}).
			Where("id = ?", rating.ID).
			Updates(map[string]interface{}{
				"rating": newScore,
				"review": newReview,
			}).Error; err != nil {
			return err
		}
		rating.Rating = newScore
		rating.Review = newReview

		return recomputeAverage(tx, rating.RatedID, rating.Direction)
	})
	if err != nil {
		return nil, err
	}

	w.Cache.InvalidateTags(ctx, cache.UserTag(rating.RatedID), cache.ProjectTag(rating.ProjectID))
	return &rating, nil
}
