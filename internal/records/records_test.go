package records_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/jroosing/zonepress/internal/content"
	"github.com/jroosing/zonepress/internal/frontmatter"
	"github.com/jroosing/zonepress/internal/records"
	"github.com/jroosing/zonepress/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder(t *testing.T, chunkLength int) records.Builder {
	t.Helper()
	b, err := records.NewBuilder(60, chunkLength, "SHA-1")
	require.NoError(t, err)
	return b
}

// =============================================================================
// Index
// =============================================================================

func TestIndex_StringContainsFields(t *testing.T) {
	var meta frontmatter.Metadata
	meta.Set("title", "x")

	ix := records.Index{
		MimeType:      "text/markdown",
		ChunkCount:    3,
		HashAlgorithm: "SHA-1",
		Hash:          "h",
		Metadata:      meta,
	}
	s := ix.String()

	for _, want := range []string{"t=text/markdown", "c=3", "ha=SHA-1", "h=h"} {
		assert.Contains(t, strings.Split(s, ";"), want)
	}
	assert.Contains(t, s, "m="+base64.StdEncoding.EncodeToString([]byte(`{"title":"x"}`)))
}

func TestIndex_FieldOrder(t *testing.T) {
	ix := records.Index{MimeType: "text/plain", ChunkCount: 1, HashAlgorithm: "SHA-1", Hash: "ab"}
	assert.Equal(t, "t=text/plain;c=1;ha=SHA-1;h=ab;m=e30=", ix.String())
}

func TestParseIndex_RoundTrip(t *testing.T) {
	var meta frontmatter.Metadata
	meta.Set("title", "Hello")
	meta.Set("tags", "dns, txt")

	ix := records.Index{
		MimeType:      "text/markdown",
		ChunkCount:    12,
		HashAlgorithm: "SHA-1",
		Hash:          "a9993e364706816aba3e25717850c26c9cd0d89d",
		Metadata:      meta,
	}

	parsed, err := records.ParseIndex(ix.String())
	require.NoError(t, err)

	assert.Equal(t, ix.MimeType, parsed.MimeType)
	assert.Equal(t, ix.ChunkCount, parsed.ChunkCount)
	assert.Equal(t, ix.HashAlgorithm, parsed.HashAlgorithm)
	assert.Equal(t, ix.Hash, parsed.Hash)
	assert.Equal(t, ix.Metadata.Fields(), parsed.Metadata.Fields())
}

func TestParseIndex_LegacyWithoutAlgorithm(t *testing.T) {
	// PHP json_encode of an empty array
	parsed, err := records.ParseIndex("t=text/plain;c=2;h=900150983cd24fb0d6963f7d28e17f72;m=W10=")
	require.NoError(t, err)

	assert.Empty(t, parsed.HashAlgorithm)
	assert.Equal(t, 2, parsed.ChunkCount)
	assert.Equal(t, 0, parsed.Metadata.Len())
}

func TestParseIndex_IgnoresUnknownKeys(t *testing.T) {
	parsed, err := records.ParseIndex("t=text/plain;c=1;ha=SHA-1;h=ab;x=future")
	require.NoError(t, err)
	assert.Equal(t, "ab", parsed.Hash)
}

func TestParseIndex_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing hash", "t=text/plain;c=1"},
		{"missing count", "t=text/plain;h=ab"},
		{"bad count", "t=text/plain;c=x;h=ab"},
		{"negative count", "t=text/plain;c=-1;h=ab"},
		{"field without value", "t=text/plain;c=1;h=ab;garbage"},
		{"chunk count above limit", "t=text/plain;c=65537;h=ab"},
		{"chunk count overflows", "t=text/plain;c=1000000000000000000000;h=ab"},
		{"bad base64", "t=text/plain;c=1;h=ab;m=***"},
		{"bad json", "t=text/plain;c=1;h=ab;m=" + base64.StdEncoding.EncodeToString([]byte("{"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := records.ParseIndex(tt.in)
			assert.ErrorIs(t, err, records.ErrInvalidIndex)
		})
	}
}

// =============================================================================
// Records
// =============================================================================

func TestRecord_Line(t *testing.T) {
	rec, err := records.NewChunkRecord(0, "YWJj", "a9993e364706816aba3e25717850c26c9cd0d89d", 60)
	require.NoError(t, err)

	assert.Equal(t, "0.a9993e364706816aba3e25717850c26c9cd0d89d\t60\tIN\tTXT\t\"YWJj\"", rec.Line())
	assert.Equal(t, records.KindChunk, rec.Kind)
}

func TestNewChunkRecord_TooLong(t *testing.T) {
	_, err := records.NewChunkRecord(0, strings.Repeat("A", 256), "ab", 60)
	assert.ErrorIs(t, err, records.ErrRecordLengthExceeded)
}

func TestRecord_LineSplitsLongContent(t *testing.T) {
	rec := records.Record{Name: "posts-long-md", TTL: 60, Content: strings.Repeat("a", 255) + strings.Repeat("b", 255) + "c", Kind: records.KindMetadata}
	require.NoError(t, rec.Validate())

	strs := rec.Strings()
	require.Len(t, strs, 3)
	assert.Len(t, strs[0], 255)
	assert.Len(t, strs[1], 255)
	assert.Equal(t, "c", strs[2])
	assert.Equal(t, rec.Content, strings.Join(strs, ""))
	assert.True(t, strings.HasSuffix(rec.Line(), "\tTXT\t\""+strs[0]+"\" \""+strs[1]+"\" \"c\""))
}

func TestRecord_ValidateRDataLimit(t *testing.T) {
	rec := records.Record{Name: "huge", Content: strings.Repeat("a", 65400), Kind: records.KindMetadata}
	assert.ErrorIs(t, rec.Validate(), records.ErrRecordLengthExceeded)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, records.ValidateName("posts-hello-md"))
	assert.NoError(t, records.ValidateName("0.a9993e364706816aba3e25717850c26c9cd0d89d"))
	assert.NoError(t, records.ValidateName("under_score"))

	for _, bad := range []string{"", "absolute.", strings.Repeat("a", 64), "a..b", "my post", "semi;colon", "paren(", `quo"te`, "at@", "caf\u00e9"} {
		assert.ErrorIs(t, records.ValidateName(bad), records.ErrInvalidRecordName, bad)
	}
}

func TestValidateChunkLength(t *testing.T) {
	assert.NoError(t, records.ValidateChunkLength(1))
	assert.NoError(t, records.ValidateChunkLength(255))
	assert.ErrorIs(t, records.ValidateChunkLength(256), records.ErrRecordLengthExceeded)
	assert.ErrorIs(t, records.ValidateChunkLength(0), content.ErrInvalidChunkLength)
}

func TestNewBuilder_RejectsLongDigest(t *testing.T) {
	_, err := records.NewBuilder(60, 250, "SHA-256")
	assert.ErrorIs(t, err, records.ErrHashTooLongForLabel)

	_, err = records.NewBuilder(60, 250, "MD5")
	assert.ErrorIs(t, err, content.ErrUnknownAlgorithm)

	_, err = records.NewBuilder(60, 1000, "SHA-1")
	assert.ErrorIs(t, err, records.ErrRecordLengthExceeded)
}

// =============================================================================
// Builder
// =============================================================================

func TestBuild_OrderAndNames(t *testing.T) {
	doc, err := content.NewDocument("notes/abc.txt", []byte("abc"))
	require.NoError(t, err)

	set, err := newBuilder(t, 2).Build(doc)
	require.NoError(t, err)

	hash := "a9993e364706816aba3e25717850c26c9cd0d89d"
	require.Len(t, set.Records, 3)

	meta := set.Metadata()
	assert.Equal(t, records.KindMetadata, meta.Kind)
	assert.Equal(t, "notes-abc-txt", meta.Name)
	assert.Equal(t, "t=text/plain;c=2;ha=SHA-1;h="+hash+";m=e30=", meta.Content)

	chunks := set.Chunks()
	assert.Equal(t, "0."+hash, chunks[0].Name)
	assert.Equal(t, "1."+hash, chunks[1].Name)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("abc")), chunks[0].Content+chunks[1].Content)
	for _, rec := range set.Records {
		assert.Equal(t, uint32(60), rec.TTL)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	doc, err := content.NewDocument("posts/a.md", []byte("+++\ntitle = A\n+++\n"+strings.Repeat("text ", 200)))
	require.NoError(t, err)

	b := newBuilder(t, 100)
	first, err := b.Build(doc)
	require.NoError(t, err)
	second, err := b.Build(doc)
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.Index.ChunkCount, len(first.Chunks()))
}

func TestBuild_EmptyBody(t *testing.T) {
	doc, err := content.NewDocument("notes/empty.txt", nil)
	require.NoError(t, err)

	set, err := newBuilder(t, 10).Build(doc)
	require.NoError(t, err)

	assert.Len(t, set.Records, 1)
	assert.Equal(t, 0, set.Index.ChunkCount)
}

func TestBuild_LargeFrontMatterRoundTrip(t *testing.T) {
	raw := "+++\ntitle = Publishing a blog over DNS TXT records\ndate = 2024-03-15\n" +
		"description = " + strings.Repeat("x", 600) + "\n+++\nbody\n"
	doc, err := content.NewDocument("posts/dns.md", []byte(raw))
	require.NoError(t, err)

	set, err := newBuilder(t, 250).Build(doc)
	require.NoError(t, err)
	meta := set.Metadata()
	assert.Greater(t, len(meta.Content), records.MaxStringLength)
	assert.Greater(t, len(meta.Strings()), 1)

	text := "$ORIGIN blog.example.com.\n$TTL 60\n" + meta.Line() + "\n"
	z, err := zone.ParseText(text)
	require.NoError(t, err)
	txt := z.TXT("posts-dns-md.blog.example.com.")
	require.Len(t, txt, 1)
	assert.Equal(t, meta.Content, txt[0])

	ix, err := records.ParseIndex(txt[0])
	require.NoError(t, err)
	desc, ok := ix.Metadata.Get("description")
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("x", 600), desc)
}

func TestBuild_PathWithSpace(t *testing.T) {
	doc, err := content.NewDocument("posts/my post.txt", []byte("hello\n"))
	require.NoError(t, err)

	set, err := newBuilder(t, 250).Build(doc)
	require.NoError(t, err)
	assert.Equal(t, "posts-my-post-txt", set.Metadata().Name)
	assert.True(t, strings.HasPrefix(set.Metadata().Line(), "posts-my-post-txt\t"))
}

func TestBuild_InvalidDocumentName(t *testing.T) {
	doc, err := content.NewDocument("posts/"+strings.Repeat("n", 70)+".txt", []byte("x"))
	require.NoError(t, err)

	_, err = newBuilder(t, 250).Build(doc)
	assert.ErrorIs(t, err, records.ErrInvalidRecordName)
}
