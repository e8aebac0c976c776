package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/rolecerto/internal/models"
)

type PicoService struct {
	picosRepo   models.PicosRepo
	reviewsRepo models.ReviewsRepo
	logger      *slog.Logger
}

func NewPicoService(picosRepo models.PicosRepo, reviewsRepo models.ReviewsRepo, logger *slog.Logger) *PicoService {
	return &PicoService{
		picosRepo:   picosRepo,
		reviewsRepo: reviewsRepo,
		logger:      logger,
	}
}

// AggregateRating averages the review ratings; no reviews gives 0.
func AggregateRating(reviews []*models.Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), len(reviews)
}

func (ps *PicoService) CreatePico(ctx context.Context, pico *models.Pico, creator *models.User) (*models.Pico, error) {
	if len(pico.Photos) < models.MinPicoPhotos {
		return nil, fmt.Errorf("%w: at least %d photos are required", models.ErrInvalidInput, models.MinPicoPhotos)
	}
	if err := models.ValidateStruct(ctx, pico); err != nil {
		return nil, err
	}

	now := time.Now()
	pico.ID = uuid.New().String()
	pico.CreatorID = creator.ID
	pico.CreatorName = creator.DisplayName
	pico.AverageRating = 0
	pico.RatingCount = 0
	pico.CreatedAt = now
	pico.UpdatedAt = now

	if err := ps.picosRepo.CreatePico(ctx, pico); err != nil {
		return nil, err
	}
	return pico, nil
}

func (ps *PicoService) GetPico(ctx context.Context, id string) (*models.Pico, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: pico id is required", models.ErrInvalidInput)
	}
	return ps.picosRepo.GetPico(ctx, id)
}

// ListPicos returns picos newest first.
func (ps *PicoService) ListPicos(ctx context.Context) ([]*models.Pico, error) {
	return ps.picosRepo.ListPicos(ctx)
}

// ListPicosByRating orders by average then count, both descending.
func (ps *PicoService) ListPicosByRating(ctx context.Context) ([]*models.Pico, error) {
	picos, err := ps.picosRepo.ListPicos(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(picos, func(i, j int) bool {
		if picos[i].AverageRating != picos[j].AverageRating {
			return picos[i].AverageRating > picos[j].AverageRating
		}
		return picos[i].RatingCount > picos[j].RatingCount
	})
	return picos, nil
}

func (ps *PicoService) SearchPicos(ctx context.Context, term string) ([]*models.Pico, error) {
	picos, err := ps.picosRepo.ListPicos(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return picos, nil
	}

	matches := []*models.Pico{}
	for _, p := range picos {
		if strings.Contains(strings.ToLower(p.Name), term) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// PicoUpdate is a partial pico edit; nil fields are left untouched.
type PicoUpdate struct {
	Name        *string             `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	Location    *string             `json:"location"`
	Coordinates *models.Coordinates `json:"coordinates"`
	Photos      []string            `json:"photos" validate:"omitempty,min=2,dive,url"`
}

func (ps *PicoService) UpdatePico(ctx context.Context, id, userID string, update PicoUpdate) (*models.Pico, error) {
	if err := models.ValidateStruct(ctx, update); err != nil {
		return nil, err
	}

	pico, err := ps.picosRepo.GetPico(ctx, id)
	if err != nil {
		return nil, err
	}
	if pico.CreatorID != userID {
		return nil, fmt.Errorf("only the creator can edit pico %s: %w", id, models.ErrForbidden)
	}

	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		fields["description"] = strings.TrimSpace(*update.Description)
	}
	if update.Location != nil {
		fields["location"] = strings.TrimSpace(*update.Location)
	}
	if update.Coordinates != nil {
		fields["coordinates"] = *update.Coordinates
	}
	if update.Photos != nil {
		fields["photos"] = update.Photos
	}
	if len(fields) == 0 {
		return pico, nil
	}

	if err := ps.picosRepo.UpdatePico(ctx, id, fields); err != nil {
		return nil, err
	}
	return ps.picosRepo.GetPico(ctx, id)
}

// DeletePico removes every review before the pico itself.
func (ps *PicoService) DeletePico(ctx context.Context, id, userID string) error {
	pico, err := ps.picosRepo.GetPico(ctx, id)
	if err != nil {
		return err
	}
	if pico.CreatorID != userID {
		return fmt.Errorf("only the creator can delete pico %s: %w", id, models.ErrForbidden)
	}

	removed, err := ps.reviewsRepo.DeleteReviews(ctx, id)
	if err != nil {
		return err
	}
	ps.logger.Info("Deleted pico reviews", "pico_id", id, "count", removed)

	return ps.picosRepo.DeletePico(ctx, id)
}

// AddReview stores one review per user and pico, then recomputes the pico rating
// before returning.
func (ps *PicoService) AddReview(ctx context.Context, picoID string, review *models.Review, author *models.User) (*models.Pico, error) {
	review.Comment = strings.TrimSpace(review.Comment)
	if err := models.ValidateStruct(ctx, review); err != nil {
		return nil, err
	}

	if _, err := ps.picosRepo.GetPico(ctx, picoID); err != nil {
		return nil, err
	}

	_, err := ps.reviewsRepo.FindUserReview(ctx, picoID, author.ID)
	if err == nil {
		return nil, fmt.Errorf("pico %s: %w", picoID, models.ErrAlreadyReviewed)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	review.ID = uuid.New().String()
	review.PicoID = picoID
	review.UserID = author.ID
	review.UserName = author.DisplayName
	review.UserPhotoURL = author.PhotoURL
	review.CreatedAt = time.Now()

	if err := ps.reviewsRepo.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	if _, _, err := ps.RecomputeRating(ctx, picoID); err != nil {
		return nil, err
	}
	return ps.picosRepo.GetPico(ctx, picoID)
}

// RecomputeRating reads every review of the pico and writes back average and count.
func (ps *PicoService) RecomputeRating(ctx context.Context, picoID string) (float64, int, error) {
	reviews, err := ps.reviewsRepo.ListReviews(ctx, picoID)
	if err != nil {
		return 0, 0, err
	}
	average, count := AggregateRating(reviews)
	if err := ps.picosRepo.SetRating(ctx, picoID, average, count); err != nil {
		return 0, 0, err
	}
	return average, count, nil
}

func (ps *PicoService) ListReviews(ctx context.Context, picoID string) ([]*models.Review, error) {
	return ps.reviewsRepo.ListReviews(ctx, picoID)
}

// UserReview returns the caller's review of a pico, or nil when there is none.
func (ps *PicoService) UserReview(ctx context.Context, picoID, userID string) (*models.Review, error) {
	review, err := ps.reviewsRepo.FindUserReview(ctx, picoID, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return review, err
}
