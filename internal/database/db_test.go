package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/zonepress/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_Health(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Health())
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := database.Open(path)
	require.NoError(t, err)
	_, err = db.RecordPublication(context.Background(), database.Publication{ZoneFile: "z", Origin: "o", Serial: "2024031501", PreviousSerial: "2024031500"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = database.Open(path)
	require.NoError(t, err)
	defer db.Close()
	pubs, err := db.ListPublications(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pubs, 1)
}

func TestRecordAndGetPublication(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	id, err := db.RecordPublication(ctx, database.Publication{
		ZoneFile:       "zones/db.blog.example.com",
		Origin:         "blog.example.com",
		Serial:         "2024031503",
		PreviousSerial: "2024031502",
		Changed:        true,
		Bumped:         true,
		PublishedAt:    at,
		Documents: []database.PublishedDocument{
			{Name: "posts-hello-md", Path: "posts/hello.md", MimeType: "text/markdown", HashAlgorithm: "SHA-1", Hash: "aa", ChunkCount: 3},
			{Name: "notes-abc-txt", Path: "notes/abc.txt", MimeType: "text/plain", HashAlgorithm: "SHA-1", Hash: "a9993e364706816aba3e25717850c26c9cd0d89d", ChunkCount: 1},
		},
	})
	require.NoError(t, err)

	p, err := db.GetPublication(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024031503", p.Serial)
	assert.Equal(t, "2024031502", p.PreviousSerial)
	assert.True(t, p.Changed)
	assert.True(t, p.Bumped)
	assert.True(t, at.Equal(p.PublishedAt))
	require.Len(t, p.Documents, 2)
	assert.Equal(t, "posts-hello-md", p.Documents[0].Name)
	assert.Equal(t, 1, p.Documents[1].ChunkCount)
}

func TestGetPublication_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetPublication(context.Background(), 42)
	assert.ErrorIs(t, err, database.ErrPublicationNotFound)
}

func TestListPublications_NewestFirstWithLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for _, serial := range []string{"2024031501", "2024031502", "2024031503"} {
		_, err := db.RecordPublication(ctx, database.Publication{ZoneFile: "z", Origin: "o", Serial: serial})
		require.NoError(t, err)
	}

	all, err := db.ListPublications(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024031503", all[0].Serial)
	assert.Empty(t, all[0].Documents)

	two, err := db.ListPublications(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "2024031502", two[1].Serial)
}
