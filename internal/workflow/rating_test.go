package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/freelancehub/backend/internal/models"
)

func TestRoundAverage(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{4.0, 4.0},
		{4.004, 4.0},
		{4.005, 4.01},
		{3.3333333, 3.33},
		{4.666666, 4.67},
		{0, 0},
	}
	for _, c := range cases {
		if got := roundAverage(c.in); got != c.want {
			t.Fatalf("roundAverage(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSubmitRatingRecomputesAverage(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewRatingWorkflow(gdb, nil)

	projectID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), clientID.String(), "COMPLETED", freelancerID.String()))
	// uniqueness pre-check: no existing rating
	mock.ExpectQuery(`SELECT \* FROM "ratings" WHERE project_id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "ratings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	// full re-scan: {5,3,4} -> 4.00
	mock.ExpectQuery(`SELECT COALESCE\(AVG\(rating\), 0\) FROM "ratings"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(4.0))
	mock.ExpectExec(`UPDATE "freelancer_profiles" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, err := w.Submit(context.Background(), clientID, SubmitRatingInput{
		ProjectID: projectID,
		RatedID:   freelancerID,
		Direction: models.DirectionClientToFreelancer,
		Score:     4,
		Review:    "solid work",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Rating != 4 {
		t.Fatalf("expected stored score 4, got %d", r.Rating)
	}
	expectationsMet(t, mock)
}

func TestSubmitRatingDuplicateFailsWithConflict(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewRatingWorkflow(gdb, nil)

	projectID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), clientID.String(), "COMPLETED", freelancerID.String()))
	mock.ExpectQuery(`SELECT \* FROM "ratings" WHERE project_id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "rater_id", "rated_id"}).
			AddRow(uuid.New().String(), projectID.String(), clientID.String(), freelancerID.String()))
	mock.ExpectRollback()

	_, err := w.Submit(context.Background(), clientID, SubmitRatingInput{
		ProjectID: projectID,
		RatedID:   freelancerID,
		Direction: models.DirectionClientToFreelancer,
		Score:     5,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestSubmitRatingBeforeCompletionFails(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewRatingWorkflow(gdb, nil)

	projectID := uuid.New()
	clientID := uuid.New()
	freelancerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "status", "assigned_to"}).
			AddRow(projectID.String(), clientID.String(), "ASSIGNED", freelancerID.String()))
	mock.ExpectRollback()

	_, err := w.Submit(context.Background(), clientID, SubmitRatingInput{
		ProjectID: projectID,
		RatedID:   freelancerID,
		Direction: models.DirectionClientToFreelancer,
		Score:     5,
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestSubmitRatingScoreOutOfRange(t *testing.T) {
	gdb, _ := newMockDB(t)
	w := NewRatingWorkflow(gdb, nil)

	for _, score := range []int{0, 6, -1} {
		_, err := w.Submit(context.Background(), uuid.New(), SubmitRatingInput{
			ProjectID: uuid.New(),
			RatedID:   uuid.New(),
			Direction: models.DirectionClientToFreelancer,
			Score:     score,
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("score %d: expected ErrValidation, got %v", score, err)
		}
	}
}

func TestUpdateRatingByStrangerForbidden(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewRatingWorkflow(gdb, nil)

	ratingID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "ratings" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rater_id", "rated_id", "direction", "rating"}).
			AddRow(ratingID.String(), uuid.New().String(), uuid.New().String(), "CLIENT_TO_FREELANCER", 4))
	mock.ExpectRollback()

	_, err := w.Update(context.Background(), ratingID, uuid.New(), 5, "edited")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUpdateRatingRecomputesAggregate(t *testing.T) {
	gdb, mock := newMockDB(t)
	w := NewRatingWorkflow(gdb, nil)

	ratingID := uuid.New()
	raterID := uuid.New()
	ratedID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "ratings" WHERE id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "rater_id", "rated_id", "direction", "rating"}).
			AddRow(ratingID.String(), raterID.String(), ratedID.String(), "FREELANCER_TO_CLIENT", 2))
	mock.ExpectExec(`UPDATE "ratings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(AVG\(rating\), 0\) FROM "ratings"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3.67))
	mock.ExpectExec(`UPDATE "client_profiles" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, err := w.Update(context.Background(), ratingID, raterID, 5, "better than I thought")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.Rating != 5 {
		t.Fatalf("expected updated score 5, got %d", r.Rating)
	}
	expectationsMet(t, mock)
}
