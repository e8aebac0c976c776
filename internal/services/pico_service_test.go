package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/joshua-takyi/rolecerto/internal/models"
)

func newTestPicoService(store *memStore) *PicoService {
	return NewPicoService(store, store, discardLogger())
}

func seedPico(store *memStore, id, creator string) {
	store.picos[id] = &models.Pico{
		ID:        id,
		Name:      "Pico " + id,
		Location:  "Praia Grande",
		CreatorID: creator,
		Photos:    []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"},
		CreatedAt: time.Now(),
	}
}

func review(rating int) *models.Review {
	return &models.Review{Rating: rating, Comment: "bom demais"}
}

func TestAggregateRating(t *testing.T) {
	tests := []struct {
		ratings []int
		average float64
		count   int
	}{
		{nil, 0, 0},
		{[]int{5}, 5, 1},
		{[]int{4, 5, 3}, 4, 3},
		{[]int{4, 5, 3, 5}, 4.25, 4},
	}
	for _, tt := range tests {
		var reviews []*models.Review
		for _, r := range tt.ratings {
			reviews = append(reviews, review(r))
		}
		average, count := AggregateRating(reviews)
		if average != tt.average || count != tt.count {
			t.Errorf("AggregateRating(%v) = %v, %d; want %v, %d", tt.ratings, average, count, tt.average, tt.count)
		}
	}
}

func TestAddReviewRecomputesRating(t *testing.T) {
	store := newMemStore()
	seedPico(store, "p1", "owner")
	seedUsers(store, "u1", "u2", "u3", "u4")
	ps := newTestPicoService(store)
	ctx := context.Background()

	var pico *models.Pico
	for i, rating := range []int{4, 5, 3} {
		author, _ := store.GetUser(ctx, fmt.Sprintf("u%d", i+1))
		var err error
		pico, err = ps.AddReview(ctx, "p1", review(rating), author)
		if err != nil {
			t.Fatalf("AddReview(%d): %v", rating, err)
		}
	}
	if pico.AverageRating != 4.0 || pico.RatingCount != 3 {
		t.Fatalf("after three reviews: %v / %d", pico.AverageRating, pico.RatingCount)
	}

	author, _ := store.GetUser(ctx, "u4")
	pico, err := ps.AddReview(ctx, "p1", review(5), author)
	if err != nil {
		t.Fatalf("AddReview: %v", err)
	}
	if pico.AverageRating != 4.25 || pico.RatingCount != 4 {
		t.Fatalf("after fourth review: %v / %d", pico.AverageRating, pico.RatingCount)
	}

	reviews, _ := ps.ListReviews(ctx, "p1")
	if len(reviews) != 4 || reviews[0].UserID != "u4" || reviews[0].UserName != "User u4" {
		t.Fatalf("newest review should come first: %+v", reviews[0])
	}
}

func TestAddReviewOncePerUser(t *testing.T) {
	store := newMemStore()
	seedPico(store, "p1", "owner")
	seedUsers(store, "u1")
	ps := newTestPicoService(store)
	ctx := context.Background()
	author, _ := store.GetUser(ctx, "u1")

	if _, err := ps.AddReview(ctx, "p1", review(2), author); err != nil {
		t.Fatalf("first review: %v", err)
	}
	_, err := ps.AddReview(ctx, "p1", review(5), author)
	if !errors.Is(err, models.ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}

	pico, _ := ps.GetPico(ctx, "p1")
	if pico.AverageRating != 2 || pico.RatingCount != 1 {
		t.Errorf("rating changed by refused review: %v / %d", pico.AverageRating, pico.RatingCount)
	}
	mine, err := ps.UserReview(ctx, "p1", "u1")
	if err != nil || mine == nil || mine.Rating != 2 {
		t.Errorf("UserReview = %+v, %v", mine, err)
	}
}

func TestAddReviewValidation(t *testing.T) {
	store := newMemStore()
	seedPico(store, "p1", "owner")
	seedUsers(store, "u1")
	ps := newTestPicoService(store)
	ctx := context.Background()
	author, _ := store.GetUser(ctx, "u1")

	for _, r := range []*models.Review{review(0), review(6), {Rating: 3, Comment: "   "}} {
		if _, err := ps.AddReview(ctx, "p1", r, author); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("review %+v: expected ErrInvalidInput, got %v", r, err)
		}
	}
	if _, err := ps.AddReview(ctx, "missing", review(3), author); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("missing pico: expected ErrNotFound, got %v", err)
	}
}

func TestUserReviewNone(t *testing.T) {
	store := newMemStore()
	seedPico(store, "p1", "owner")
	ps := newTestPicoService(store)

	mine, err := ps.UserReview(context.Background(), "p1", "nobody")
	if err != nil || mine != nil {
		t.Fatalf("expected nil review, got %+v, %v", mine, err)
	}
}

func TestCreatePicoRequiresPhotos(t *testing.T) {
	store := newMemStore()
	ps := newTestPicoService(store)
	creator := models.NewUser("c", "c@example.com", "Creator", "")

	pico := &models.Pico{
		Name:        "Laje",
		Description: "Vista bonita",
		Location:    "Centro",
		Photos:      []string{"https://img.example.com/1.jpg"},
	}
	if _, err := ps.CreatePico(context.Background(), pico, creator); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	pico.Photos = append(pico.Photos, "https://img.example.com/2.jpg")
	created, err := ps.CreatePico(context.Background(), pico, creator)
	if err != nil {
		t.Fatalf("CreatePico: %v", err)
	}
	if created.ID == "" || created.CreatorID != "c" || created.RatingCount != 0 {
		t.Fatalf("created = %+v", created)
	}
}

func TestDeletePicoRemovesReviewsFirst(t *testing.T) {
	store := newMemStore()
	seedPico(store, "p1", "owner")
	seedPico(store, "p2", "owner")
	seedUsers(store, "u1")
	ps := newTestPicoService(store)
	ctx := context.Background()
	author, _ := store.GetUser(ctx, "u1")
	ps.AddReview(ctx, "p1", review(4), author)
	ps.AddReview(ctx, "p2", review(3), author)

	if err := ps.DeletePico(ctx, "p1", "u1"); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("non-creator: expected ErrForbidden, got %v", err)
	}

	store.calls = nil
	if err := ps.DeletePico(ctx, "p1", "owner"); err != nil {
		t.Fatalf("DeletePico: %v", err)
	}
	if want := []string{"DeleteReviews:p1", "DeletePico:p1"}; !reflect.DeepEqual(store.calls, want) {
		t.Fatalf("calls = %v, want %v", store.calls, want)
	}
	if left, _ := ps.ListReviews(ctx, "p1"); len(left) != 0 {
		t.Errorf("reviews left for p1: %d", len(left))
	}
	if left, _ := ps.ListReviews(ctx, "p2"); len(left) != 1 {
		t.Errorf("p2 reviews touched: %d", len(left))
	}
}

func TestDeletePicoKeepsPicoWhenReviewsFail(t *testing.T) {
	store := newMemStore()
	seedPico(store, "p1", "owner")
	store.failOn["DeleteReviews"] = ""
	ps := newTestPicoService(store)

	if err := ps.DeletePico(context.Background(), "p1", "owner"); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, ok := store.picos["p1"]; !ok {
		t.Fatal("pico deleted although its reviews were not")
	}
}

func TestListPicosByRating(t *testing.T) {
	store := newMemStore()
	for id, r := range map[string][2]float64{"a": {4.5, 2}, "b": {4.5, 10}, "c": {5, 1}, "d": {0, 0}} {
		seedPico(store, id, "owner")
		store.picos[id].AverageRating = r[0]
		store.picos[id].RatingCount = int(r[1])
	}
	ps := newTestPicoService(store)

	picos, err := ps.ListPicosByRating(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, p := range picos {
		ids = append(ids, p.ID)
	}
	if fmt.Sprint(ids) != "[c b a d]" {
		t.Fatalf("order = %v", ids)
	}
}
