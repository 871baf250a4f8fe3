package feed

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedHeader = `<?xml version="1.0" encoding="UTF-8"?>
<ndm>
 <oem id="CCSDS_OEM_VERS" version="2.0">
  <body>
   <segment>
    <metadata>
     <OBJECT_NAME>ISS</OBJECT_NAME>
     <OBJECT_ID>1998-067-A</OBJECT_ID>
     <CENTER_NAME>EARTH</CENTER_NAME>
     <REF_FRAME>EME2000</REF_FRAME>
     <TIME_SYSTEM>UTC</TIME_SYSTEM>
    </metadata>
    <data>
`

const feedFooter = `    </data>
   </segment>
  </body>
 </oem>
</ndm>`

func stateVectorXML(epoch string, px, py, pz, vx, vy, vz string) string {
	return fmt.Sprintf(`<stateVector>
 <EPOCH>%s</EPOCH>
 <X units="km">%s</X>
 <Y units="km">%s</Y>
 <Z units="km">%s</Z>
 <X_DOT units="km/s">%s</X_DOT>
 <Y_DOT units="km/s">%s</Y_DOT>
 <Z_DOT units="km/s">%s</Z_DOT>
</stateVector>
`, epoch, px, py, pz, vx, vy, vz)
}

func feedDocument(stateVectors ...string) []byte {
	return []byte(feedHeader + strings.Join(stateVectors, "") + feedFooter)
}

func testParser() *Parser {
	return NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParse_WellFormedFeed(t *testing.T) {
	doc := feedDocument(
		stateVectorXML("2024-052T12:00:00.000Z", "-4788.3", "1403.6", "4439.2", "-4.78", "4.47", "3.51"),
		stateVectorXML("2024-052T12:04:00.000Z", "-5600.1", "2401.9", "3200.7", "-3.90", "4.12", "4.08"),
	)

	eph, err := testParser().Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, "ISS", eph.Metadata.ObjectName)
	assert.Equal(t, "1998-067-A", eph.Metadata.ObjectID)
	assert.Equal(t, "EME2000", eph.Metadata.RefFrame)
	assert.Equal(t, "UTC", eph.Metadata.TimeSystem)
	assert.Equal(t, 0, eph.Skipped)

	require.Len(t, eph.Records, 2)
	assert.Equal(t, 0, eph.Records[0].Index)
	assert.Equal(t, 1, eph.Records[1].Index)
	// Day 52 of 2024 is February 21.
	assert.Equal(t, time.Date(2024, time.February, 21, 12, 0, 0, 0, time.UTC), eph.Records[0].Timestamp)
	assert.Equal(t, -4788.3, eph.Records[0].Position.X)
	assert.Equal(t, 4439.2, eph.Records[0].Position.Z)
	assert.Equal(t, -4.78, eph.Records[0].Velocity.X)
	assert.Equal(t, 4.08, eph.Records[1].Velocity.Z)
}

func TestParse_OEMRootWithoutNDMWrapper(t *testing.T) {
	doc := feedDocument(stateVectorXML("2024-052T12:00:00.000Z", "1", "2", "3", "4", "5", "6"))
	unwrapped := strings.Replace(string(doc), "<ndm>\n ", "", 1)
	unwrapped = strings.Replace(unwrapped, "\n</ndm>", "", 1)

	eph, err := testParser().Parse([]byte(unwrapped))
	require.NoError(t, err)
	require.Len(t, eph.Records, 1)
	assert.Equal(t, "ISS", eph.Metadata.ObjectName)
}

func TestParse_SkipsMalformedRecordsWithoutRenumberingGaps(t *testing.T) {
	doc := feedDocument(
		stateVectorXML("2024-052T12:00:00.000Z", "1", "1", "1", "1", "1", "1"),
		stateVectorXML("not-a-timestamp", "2", "2", "2", "2", "2", "2"),
		stateVectorXML("2024-052T12:08:00.000Z", "3", "3", "3", "3", "3", "3"),
		stateVectorXML("2024-052T12:12:00.000Z", "4", "4", "4", "4", "NaN", "4"),
		stateVectorXML("2024-052T12:16:00.000Z", "5", "5", "5", "5", "5", "5"),
	)

	eph, err := testParser().Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, 2, eph.Skipped)
	require.Len(t, eph.Records, 3)
	// Survivors get contiguous indices in original relative order.
	for i, wantX := range []float64{1, 3, 5} {
		assert.Equal(t, i, eph.Records[i].Index)
		assert.Equal(t, wantX, eph.Records[i].Position.X)
	}
}

func TestParse_MissingComponentDropsRecord(t *testing.T) {
	doc := feedDocument(
		stateVectorXML("2024-052T12:00:00.000Z", "1", "1", "1", "1", "1", "1"),
		stateVectorXML("2024-052T12:04:00.000Z", "2", "", "2", "2", "2", "2"),
	)

	eph, err := testParser().Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, eph.Skipped)
	require.Len(t, eph.Records, 1)
}

func TestParse_WhitespacePaddedComponents(t *testing.T) {
	doc := feedDocument(stateVectorXML("2024-052T12:00:00.000Z", "  -4788.3  ", "\n1403.6\n", "4439.2", "-4.78", "4.47", "3.51"))

	eph, err := testParser().Parse(doc)
	require.NoError(t, err)
	require.Len(t, eph.Records, 1)
	assert.Equal(t, -4788.3, eph.Records[0].Position.X)
	assert.Equal(t, 1403.6, eph.Records[0].Position.Y)
}

func TestParse_AllRecordsMalformedIsFatal(t *testing.T) {
	doc := feedDocument(
		stateVectorXML("bogus", "1", "1", "1", "1", "1", "1"),
		stateVectorXML("2024-052T12:04:00.000Z", "x", "1", "1", "1", "1", "1"),
	)

	_, err := testParser().Parse(doc)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, EmptyFeed, parseErr.Kind)
}

func TestParse_NotXML(t *testing.T) {
	_, err := testParser().Parse([]byte("<html><body>503 Service Unavailable"))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, BadDocument, parseErr.Kind)
}

func TestParseEpochTime(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{name: "full encoding", in: "2024-052T12:00:00.000Z", want: time.Date(2024, time.February, 21, 12, 0, 0, 0, time.UTC)},
		{name: "fractional seconds", in: "2024-052T12:00:00.500Z", want: time.Date(2024, time.February, 21, 12, 0, 0, 500000000, time.UTC)},
		{name: "no fraction", in: "2024-052T12:00:00Z", want: time.Date(2024, time.February, 21, 12, 0, 0, 0, time.UTC)},
		{name: "no zone suffix", in: "2024-052T12:00:00", want: time.Date(2024, time.February, 21, 12, 0, 0, 0, time.UTC)},
		{name: "leading whitespace", in: " 2024-001T00:00:00.000Z ", want: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{name: "day 366 leap year", in: "2024-366T23:59:59.999Z", want: time.Date(2024, time.December, 31, 23, 59, 59, 999000000, time.UTC)},
		{name: "calendar date encoding rejected", in: "2024-02-21T12:00:00Z", wantErr: true},
		{name: "garbage", in: "yesterday", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEpochTime(tt.in)
			if tt.wantErr {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, BadTimestamp, parseErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}
