package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	apperrors "github.com/ikkim/scanreview-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepository_CreateForCheck(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewReviewRepository(testDB)
	ctx := context.Background()
	user := createUser(t, testDB, "reviewer@example.com")
	business := createBusiness(t, testDB, "Cafe", nil)
	tag := createTag(t, testDB, business.ID, "CAFE-001")
	check := createCheck(t, testDB, tag, "203.0.113.7", baseTime)

	review := &model.Review{BusinessID: business.ID, UserID: user.ID, CheckID: check.ID, Rating: 5, Content: "Lovely coffee and staff"}
	require.NoError(t, repo.CreateForCheck(ctx, review, &user.ID))
	assert.NotZero(t, review.ID)

	var claimed model.Check
	require.NoError(t, testDB.First(&claimed, "id = ?", check.ID).Error)
	require.NotNil(t, claimed.UserID)
	assert.Equal(t, user.ID, *claimed.UserID)

	t.Run("second review for the same check is a unique violation", func(t *testing.T) {
		dup := &model.Review{BusinessID: business.ID, UserID: user.ID, CheckID: check.ID, Rating: 1, Content: "Trying a second time"}
		err := repo.CreateForCheck(ctx, dup, &user.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsUniqueViolation(err))
	})

	t.Run("soft-deleted review still consumes the check", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, review.ID))

		exists, err := repo.ExistsForCheck(ctx, check.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		ratings, err := repo.Ratings(ctx, business.ID)
		require.NoError(t, err)
		assert.Empty(t, ratings)
	})
}

func TestReviewRepository_ClaimLeavesOwnedCheck(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewReviewRepository(testDB)
	ctx := context.Background()
	owner := createUser(t, testDB, "first@example.com")
	anon := createUser(t, testDB, "anon@example.com")
	business := createBusiness(t, testDB, "Cafe", nil)
	tag := createTag(t, testDB, business.ID, "CAFE-001")
	check := createCheck(t, testDB, tag, "203.0.113.7", baseTime)
	require.NoError(t, testDB.Model(check).Update("user_id", owner.ID).Error)

	review := &model.Review{BusinessID: business.ID, UserID: anon.ID, CheckID: check.ID, Rating: 4, Content: "Claim should not move"}
	require.NoError(t, repo.CreateForCheck(ctx, review, &anon.ID))

	var got model.Check
	require.NoError(t, testDB.First(&got, "id = ?", check.ID).Error)
	assert.Equal(t, owner.ID, *got.UserID)
}

func TestReviewRepository_ListAndRespond(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewReviewRepository(testDB)
	ctx := context.Background()
	user := createUser(t, testDB, "reviewer@example.com")
	business := createBusiness(t, testDB, "Cafe", nil)
	tag := createTag(t, testDB, business.ID, "CAFE-001")

	var ids []uint
	for i, rating := range []int{5, 4, 3} {
		check := createCheck(t, testDB, tag, "203.0.113.7", baseTime.Add(time.Duration(-i)*time.Hour))
		review := &model.Review{BusinessID: business.ID, UserID: user.ID, CheckID: check.ID, Rating: rating, Content: "Review number content"}
		require.NoError(t, repo.CreateForCheck(ctx, review, nil))
		ids = append(ids, review.ID)
	}

	ratings, err := repo.Ratings(ctx, business.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{5, 4, 3}, ratings)

	resp := &model.ReviewResponse{ReviewID: ids[0], BusinessID: business.ID, UserID: user.ID, Content: "Thanks!"}
	require.NoError(t, repo.UpsertResponse(ctx, resp))
	update := &model.ReviewResponse{ReviewID: ids[0], BusinessID: business.ID, UserID: user.ID, Content: "Thanks a lot!"}
	require.NoError(t, repo.UpsertResponse(ctx, update))
	assert.Equal(t, resp.ID, update.ID)

	page, total, err := repo.ListByBusiness(ctx, business.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	got, err := repo.FindByID(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, got.Response)
	assert.Equal(t, "Thanks a lot!", got.Response.Content)

	got.Rating = 2
	got.Content = "Changed my mind about it"
	require.NoError(t, repo.UpdateContent(ctx, got))
	ratings, err = repo.Ratings(ctx, business.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2, 4, 3}, ratings)
}
