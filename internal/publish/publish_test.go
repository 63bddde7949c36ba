package publish_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/zonepress/internal/database"
	"github.com/jroosing/zonepress/internal/logging"
	"github.com/jroosing/zonepress/internal/publish"
	"github.com/jroosing/zonepress/internal/records"
	"github.com/jroosing/zonepress/internal/soa"
	"github.com/jroosing/zonepress/internal/zone"
)

const zoneFile = "/srv/zones/db.blog.example.com"

const header = `$ORIGIN blog.example.com.
$TTL 60
@	IN	SOA	ns1.example.com. hostmaster.example.com. (
		2024031502	; serial
		3600		; refresh
		900		; retry
		604800		; expire
		60		; minimum
		)
@	IN	NS	ns1.example.com.
;; START BLOG RECORDS
`

var today = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

type fakeLedger struct {
	pubs []database.Publication
	err  error
}

func (l *fakeLedger) RecordPublication(_ context.Context, p database.Publication) (int64, error) {
	if l.err != nil {
		return 0, l.err
	}
	l.pubs = append(l.pubs, p)
	return int64(len(l.pubs)), nil
}

func setup(t *testing.T, policy zone.BumpPolicy) (afero.Fs, *publish.Publisher, *bytes.Buffer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, zoneFile, []byte(header), 0o640))
	require.NoError(t, afero.WriteFile(fs, "/srv/content/posts/hello.md", []byte("+++\ntitle = Hello\n+++\nHello, DNS!\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/srv/content/scripts/verifier.js", []byte("console.log('ok')\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/srv/content/drafts-ignore/wip.md", []byte("not yet"), 0o644))

	b, err := records.NewBuilder(60, 250, "SHA-1")
	require.NoError(t, err)
	var stdout bytes.Buffer
	p := &publish.Publisher{
		Fs:          fs,
		ZoneFile:    zoneFile,
		ContentRoot: "/srv/content",
		Ignore:      "ignore",
		Assembler:   &zone.Assembler{Builder: b, Policy: policy, Logger: logging.Discard()},
		Stdout:      &stdout,
		Now:         func() time.Time { return today },
		Logger:      logging.Discard(),
	}
	return fs, p, &stdout
}

func TestRun_WritesZoneAndEchoesHeader(t *testing.T) {
	fs, p, stdout := setup(t, zone.BumpAlways)
	ledger := &fakeLedger{}
	p.Ledger = ledger

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024031503", res.SOA.Serial.String())

	written, err := afero.ReadFile(fs, zoneFile)
	require.NoError(t, err)
	assert.Equal(t, res.Text, string(written))
	assert.Contains(t, string(written), "\n; posts-hello-md\n")
	assert.Contains(t, string(written), "\n; scripts-verifier-js\n")
	assert.NotContains(t, string(written), "wip")

	assert.Equal(t, strings.Replace(header, "2024031502", "2024031503", 1), stdout.String())

	info, err := fs.Stat(zoneFile)
	require.NoError(t, err)
	assert.Equal(t, "-rw-r-----", info.Mode().Perm().String())

	entries, err := afero.ReadDir(fs, "/srv/zones")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	require.Len(t, ledger.pubs, 1)
	assert.Equal(t, "2024031503", ledger.pubs[0].Serial)
	assert.Equal(t, "2024031502", ledger.pubs[0].PreviousSerial)
	require.Len(t, ledger.pubs[0].Documents, 2)
	assert.Equal(t, "posts/hello.md", ledger.pubs[0].Documents[0].Path)
}

func TestRun_SecondRunIsStable(t *testing.T) {
	fs, p, _ := setup(t, zone.BumpAlways)
	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024031504", second.SOA.Serial.String())
	_, firstRegion, err := zone.SplitAtMarker(first.Text, zone.DefaultMarker)
	require.NoError(t, err)
	written, err := afero.ReadFile(fs, zoneFile)
	require.NoError(t, err)
	_, secondRegion, err := zone.SplitAtMarker(string(written), zone.DefaultMarker)
	require.NoError(t, err)
	assert.Equal(t, firstRegion, secondRegion, "region is regenerated, not appended")
	assert.False(t, second.Changed)
}

func TestRun_OnChangeSkipsWrite(t *testing.T) {
	fs, p, _ := setup(t, zone.BumpOnChange)
	ledger := &fakeLedger{}
	p.Ledger = ledger

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Bumped)
	written, err := afero.ReadFile(fs, zoneFile)
	require.NoError(t, err)
	assert.Contains(t, string(written), "2024031503")
	assert.Len(t, ledger.pubs, 1)
}

func TestRun_DryRun(t *testing.T) {
	fs, p, stdout := setup(t, zone.BumpAlways)
	ledger := &fakeLedger{}
	p.Ledger = ledger
	p.DryRun = true

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.Text, stdout.String())

	written, err := afero.ReadFile(fs, zoneFile)
	require.NoError(t, err)
	assert.Equal(t, header, string(written))
	assert.Empty(t, ledger.pubs)
}

func TestRun_MissingZoneFile(t *testing.T) {
	fs, p, _ := setup(t, zone.BumpAlways)
	require.NoError(t, fs.Remove(zoneFile))

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, publish.ErrZoneFileNotFound)
	assert.Contains(t, err.Error(), zoneFile)
}

func TestRun_EncodeErrorLeavesZoneUntouched(t *testing.T) {
	fs, p, stdout := setup(t, zone.BumpAlways)
	require.NoError(t, afero.WriteFile(fs, "/srv/content/posts/bad.md", []byte("+++\nbroken\n+++\nbody\n"), 0o644))

	_, err := p.Run(context.Background())
	require.Error(t, err)
	written, err := afero.ReadFile(fs, zoneFile)
	require.NoError(t, err)
	assert.Equal(t, header, string(written))
	assert.Empty(t, stdout.String())
}

func TestRun_SerialOverflowLeavesZoneUntouched(t *testing.T) {
	fs, p, _ := setup(t, zone.BumpAlways)
	full := strings.Replace(header, "2024031502", "2024031599", 1)
	require.NoError(t, afero.WriteFile(fs, zoneFile, []byte(full), 0o644))

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, soa.ErrSerialOverflow)
	written, err := afero.ReadFile(fs, zoneFile)
	require.NoError(t, err)
	assert.Equal(t, full, string(written))
}

func TestRun_LedgerFailureIsNotFatal(t *testing.T) {
	_, p, _ := setup(t, zone.BumpAlways)
	p.Ledger = &fakeLedger{err: errors.New("disk full")}

	_, err := p.Run(context.Background())
	assert.NoError(t, err)
}

func TestInitZone(t *testing.T) {
	fs := afero.NewMemMapFs()
	tmpl := publish.ZoneTemplate{Origin: "blog.example.com", Master: "ns1.example.com", Contact: "hostmaster.example.com"}

	h, err := publish.InitZone(fs, zoneFile, tmpl, today)
	require.NoError(t, err)
	assert.Equal(t, "2024031500", h.Serial.String())
	assert.Equal(t, "blog.example.com.", h.Origin)

	text, err := afero.ReadFile(fs, zoneFile)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(text), "\n"+zone.DefaultMarker+"\n"))

	parsed, err := soa.FromText(string(text))
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = publish.InitZone(fs, zoneFile, tmpl, today)
	assert.ErrorIs(t, err, publish.ErrZoneFileExists)
}

func TestInitZone_ThenPublish(t *testing.T) {
	fs, p, _ := setup(t, zone.BumpAlways)
	require.NoError(t, fs.Remove(zoneFile))
	_, err := publish.InitZone(fs, zoneFile, publish.ZoneTemplate{Origin: "blog.example.com.", Master: "ns1.example.com.", Contact: "hostmaster.example.com."}, today)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024031501", res.SOA.Serial.String())
	assert.Len(t, res.Sets, 2)
}

func TestInitZone_InvalidName(t *testing.T) {
	_, err := publish.InitZone(afero.NewMemMapFs(), zoneFile, publish.ZoneTemplate{Origin: "", Master: "ns1.example.com", Contact: "h.example.com"}, today)
	assert.ErrorIs(t, err, soa.ErrMalformedZoneHeader)
}

func TestInitZone_ReportsFirstInvalidField(t *testing.T) {
	tmpl := publish.ZoneTemplate{Origin: "blog.example.com", Master: "", Contact: ""}
	for range 20 {
		_, err := publish.InitZone(afero.NewMemMapFs(), zoneFile, tmpl, today)
		require.ErrorIs(t, err, soa.ErrMalformedZoneHeader)
		assert.Contains(t, err.Error(), "invalid master")
	}
}
