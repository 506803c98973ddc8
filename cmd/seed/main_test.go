package main

import (
	"context"
	"testing"

	"github.com/ikkim/scanreview-backend/internal/app/model"
	"github.com/ikkim/scanreview-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{"Name", "Category", "Address", "City", "Postal Code", "Phone", "Website", "Owner Email", "Tag Label"}

func TestParseBusinessRows(t *testing.T) {
	rows := [][]string{
		header,
		{" Le Comptoir ", "Restaurant", "3 place du Marché", "Bordeaux", "33000", "", "", "Owner@Example.com", "Entrance"},
		{"No City", "cafe", "1 rue Haute", ""},
		{"", "cafe", "1 rue Haute", "Lyon"},
		{"le comptoir", "restaurant", "3 place du Marché", "bordeaux"},
		{"Short Row", "bar", "", "Lille"},
	}

	parsed, skipped := parseBusinessRows(rows)
	require.Len(t, parsed, 2)
	assert.Equal(t, 3, skipped)

	assert.Equal(t, businessRow{
		Line:       2,
		Name:       "Le Comptoir",
		Category:   "restaurant",
		Address:    "3 place du Marché",
		City:       "Bordeaux",
		PostalCode: "33000",
		OwnerEmail: "owner@example.com",
		TagLabel:   "Entrance",
	}, parsed[0])
	assert.Equal(t, "Short Row", parsed[1].Name)
	assert.Equal(t, 6, parsed[1].Line)
}

func TestImportBusinesses(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	require.NoError(t, testDB.Create(&model.Category{Name: "Restaurant", Slug: "restaurant"}).Error)
	owner := &model.User{Email: "owner@example.com", PasswordHash: "x", Name: "Owner", Role: model.RoleOwner}
	require.NoError(t, testDB.Create(owner).Error)

	rows := []businessRow{
		{Line: 2, Name: "Le Comptoir", Category: "restaurant", City: "Bordeaux", OwnerEmail: "owner@example.com"},
		{Line: 3, Name: "Chez Nous", Category: "unknown", City: "Lyon", OwnerEmail: "nobody@example.com"},
	}

	imported, err := importBusinesses(context.Background(), testDB, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	var businesses []model.Business
	require.NoError(t, testDB.Order("id").Find(&businesses).Error)
	require.Len(t, businesses, 2)
	require.NotNil(t, businesses[0].OwnerID)
	assert.Equal(t, owner.ID, *businesses[0].OwnerID)
	assert.NotNil(t, businesses[0].CategoryID)
	assert.Nil(t, businesses[1].OwnerID)
	assert.Nil(t, businesses[1].CategoryID)

	var tags []model.ScanTag
	require.NoError(t, testDB.Find(&tags).Error)
	assert.Len(t, tags, 2)
	for _, tag := range tags {
		assert.Equal(t, model.TagStatusActive, tag.Status)
		assert.Equal(t, model.TagTypeQR, tag.Type)
	}
}
