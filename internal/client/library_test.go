package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/zonepress/internal/client"
	"github.com/jroosing/zonepress/internal/content"
	"github.com/jroosing/zonepress/internal/records"
	"github.com/jroosing/zonepress/internal/zone"
)

func TestZoneFileLibrary_SeesRepublication(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/zones/db", []byte(header), 0o644))
	lib := &client.ZoneFileLibrary{Fs: fs, Path: "/zones/db", Verifier: client.NewVerifier(client.StdDigester{}, quietLogger()), Logger: quietLogger()}

	entries, err := lib.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)

	b, err := records.NewBuilder(60, 250, "SHA-1")
	require.NoError(t, err)
	doc, err := content.NewDocument("notes/abc.txt", []byte("abc"))
	require.NoError(t, err)
	res, err := (&zone.Assembler{Builder: b, Logger: quietLogger()}).Assemble(header, []content.Document{doc}, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/zones/db", []byte(res.Text), 0o644))

	entries, err = lib.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes-abc-txt", entries[0].Name)

	got, err := lib.Fetch(context.Background(), "notes-abc-txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got.Body))
	assert.True(t, got.Verified)
}

func TestZoneFileLibrary_MissingFile(t *testing.T) {
	lib := &client.ZoneFileLibrary{Fs: afero.NewMemMapFs(), Path: "/nope"}
	_, err := lib.List(context.Background())
	assert.Error(t, err)
}

func TestDNSLibrary_List(t *testing.T) {
	r := mapResolver{
		"notes-abc-txt.blog.example.com": {"t=text/plain;c=1;ha=SHA-1;h=" + abcHash + ";m=e30="},
	}
	c := client.New(r, client.NewVerifier(client.StdDigester{}, quietLogger()), "blog.example.com", quietLogger())

	_, err := (&client.DNSLibrary{Client: c}).List(context.Background())
	assert.ErrorIs(t, err, client.ErrListUnsupported)

	lib := &client.DNSLibrary{Client: c, Names: func(context.Context) ([]string, error) {
		return []string{"notes-abc-txt", "gone-md"}, nil
	}}
	entries, err := lib.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Index.ChunkCount)
}
