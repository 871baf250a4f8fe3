package feed

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/iss-telemetry/internal/domain"
)

// ErrorKind classifies feed parsing failures.
type ErrorKind string

const (
	// BadDocument means the document is not well-formed XML or lacks the
	// expected OEM structure entirely.
	BadDocument ErrorKind = "bad_document"
	// BadTimestamp means a state vector's EPOCH field did not match the
	// day-of-year encoding.
	BadTimestamp ErrorKind = "bad_timestamp"
	// BadComponent means a position or velocity component was missing or
	// not a finite number.
	BadComponent ErrorKind = "bad_component"
	// EmptyFeed means the document parsed but yielded zero valid records.
	EmptyFeed ErrorKind = "empty_feed"
)

// ParseError describes why a feed document (or one of its records) could
// not be parsed.
type ParseError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse feed: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse feed: %s: %s", e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Ephemeris is the parsed content of one OEM document: segment metadata
// plus the state-vector records in document order. Skipped counts records
// dropped for per-record errors (bad timestamp, missing or non-finite
// components); surviving records carry contiguous indices starting at 0.
type Ephemeris struct {
	Metadata domain.FeedMetadata
	Records  []domain.EpochRecord
	Skipped  int
}

// Parser converts raw OEM XML documents into Ephemeris values.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser that logs per-record warnings to the given logger.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// OEM XML schema. The feed nests the message under an <ndm> wrapper, but
// documents rooted directly at <oem> are accepted too.

type xmlRoot struct {
	XMLName xml.Name
	OEM     *xmlOEM  `xml:"oem"`
	Body    *xmlBody `xml:"body"`
}

type xmlOEM struct {
	Body *xmlBody `xml:"body"`
}

type xmlBody struct {
	Segment xmlSegment `xml:"segment"`
}

type xmlSegment struct {
	Metadata xmlMetadata `xml:"metadata"`
	Data     xmlData     `xml:"data"`
}

type xmlMetadata struct {
	ObjectName string `xml:"OBJECT_NAME"`
	ObjectID   string `xml:"OBJECT_ID"`
	CenterName string `xml:"CENTER_NAME"`
	RefFrame   string `xml:"REF_FRAME"`
	TimeSystem string `xml:"TIME_SYSTEM"`
}

type xmlData struct {
	StateVectors []xmlStateVector `xml:"stateVector"`
}

type xmlStateVector struct {
	Epoch string    `xml:"EPOCH"`
	X     xmlScalar `xml:"X"`
	Y     xmlScalar `xml:"Y"`
	Z     xmlScalar `xml:"Z"`
	XDot  xmlScalar `xml:"X_DOT"`
	YDot  xmlScalar `xml:"Y_DOT"`
	ZDot  xmlScalar `xml:"Z_DOT"`
}

type xmlScalar struct {
	Units string `xml:"units,attr"`
	Value string `xml:",chardata"`
}

// Parse converts a raw OEM document into an Ephemeris. Records with a
// malformed timestamp or component are skipped with a warning rather than
// failing the whole document; the error is non-nil only when the document
// itself is unusable or no valid records remain.
func (p *Parser) Parse(raw []byte) (*Ephemeris, error) {
	var root xmlRoot
	if err := xml.Unmarshal(raw, &root); err != nil {
		return nil, &ParseError{Kind: BadDocument, Msg: "not well-formed XML", Err: err}
	}

	body := root.Body
	if root.OEM != nil {
		body = root.OEM.Body
	}
	if body == nil {
		return nil, &ParseError{Kind: BadDocument, Msg: "no oem body element"}
	}

	eph := &Ephemeris{
		Metadata: domain.FeedMetadata{
			ObjectName: strings.TrimSpace(body.Segment.Metadata.ObjectName),
			ObjectID:   strings.TrimSpace(body.Segment.Metadata.ObjectID),
			Center:     strings.TrimSpace(body.Segment.Metadata.CenterName),
			RefFrame:   strings.TrimSpace(body.Segment.Metadata.RefFrame),
			TimeSystem: strings.TrimSpace(body.Segment.Metadata.TimeSystem),
		},
	}

	for docPos, sv := range body.Segment.Data.StateVectors {
		rec, err := parseStateVector(sv)
		if err != nil {
			p.logger.Warn("skipping malformed state vector",
				"document_position", docPos,
				"epoch", sv.Epoch,
				"error", err,
			)
			eph.Skipped++
			continue
		}
		rec.Index = len(eph.Records)
		eph.Records = append(eph.Records, rec)
	}

	if len(eph.Records) == 0 {
		return nil, &ParseError{Kind: EmptyFeed, Msg: fmt.Sprintf("no valid state vectors (%d skipped)", eph.Skipped)}
	}
	return eph, nil
}

func parseStateVector(sv xmlStateVector) (domain.EpochRecord, error) {
	ts, err := ParseEpochTime(sv.Epoch)
	if err != nil {
		return domain.EpochRecord{}, err
	}

	rec := domain.EpochRecord{Timestamp: ts}
	for _, c := range []struct {
		name   string
		scalar xmlScalar
		dst    *float64
	}{
		{"X", sv.X, &rec.Position.X},
		{"Y", sv.Y, &rec.Position.Y},
		{"Z", sv.Z, &rec.Position.Z},
		{"X_DOT", sv.XDot, &rec.Velocity.X},
		{"Y_DOT", sv.YDot, &rec.Velocity.Y},
		{"Z_DOT", sv.ZDot, &rec.Velocity.Z},
	} {
		v, err := parseComponent(c.name, c.scalar)
		if err != nil {
			return domain.EpochRecord{}, err
		}
		*c.dst = v
	}

	return rec, nil
}

// ParseEpochTime parses the OEM day-of-year timestamp encoding, e.g.
// "2024-052T12:00:00.000Z", into a UTC instant. Fractional seconds and the
// trailing Z are optional.
func ParseEpochTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-002T15:04:05.999Z", "2006-002T15:04:05.999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ParseError{Kind: BadTimestamp, Msg: fmt.Sprintf("epoch %q does not match YYYY-DDDTHH:MM:SS[.sss][Z]", s)}
}

func parseComponent(name string, sc xmlScalar) (float64, error) {
	raw := strings.TrimSpace(sc.Value)
	if raw == "" {
		return 0, &ParseError{Kind: BadComponent, Msg: fmt.Sprintf("missing %s component", name)}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParseError{Kind: BadComponent, Msg: fmt.Sprintf("%s component %q is not a number", name, raw), Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Kind: BadComponent, Msg: fmt.Sprintf("%s component %q is not finite", name, raw)}
	}
	return v, nil
}
