package repository

import (
	"testing"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Name: "Test User", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createBusiness(t *testing.T, testDB *gorm.DB, name string, ownerID *uint) *model.Business {
	t.Helper()
	business := &model.Business{Name: name, City: "Paris", Address: "1 rue de Rivoli", OwnerID: ownerID}
	require.NoError(t, testDB.Create(business).Error)
	return business
}

func createTag(t *testing.T, testDB *gorm.DB, businessID uint, code string) *model.ScanTag {
	t.Helper()
	tag := &model.ScanTag{BusinessID: businessID, Code: code, Type: model.TagTypeQR, Status: model.TagStatusActive}
	require.NoError(t, testDB.Create(tag).Error)
	return tag
}

func createCheck(t *testing.T, testDB *gorm.DB, tag *model.ScanTag, ip string, scannedAt time.Time) *model.Check {
	t.Helper()
	check := &model.Check{
		TagID:      tag.ID,
		BusinessID: tag.BusinessID,
		IP:         ip,
		ScannedAt:  scannedAt,
		ExpiresAt:  scannedAt.Add(24 * time.Hour),
	}
	require.NoError(t, testDB.Create(check).Error)
	return check
}
