// Command genfeed writes a synthetic OEM XML ephemeris for local runs and
// manual testing, so the tracker can be exercised without the NASA feed.
// Records follow an idealized circular orbit at ISS-like altitude and
// inclination.
//
// Usage:
//
//	go run ./cmd/genfeed -out testdata/ephemeris.xml -records 60 -start 2024-02-21T12:00:00Z
package main

import (
	"encoding/xml"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"
)

const (
	orbitRadiusKm  = 6798.0 // ~420 km altitude
	inclinationDeg = 51.64
	periodSeconds  = 5580.0 // ~93 minutes
	stepSeconds    = 240.0  // feed samples every 4 minutes
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the generated OEM XML")
	records := flag.Int("records", 60, "number of state vectors to generate")
	start := flag.String("start", time.Now().UTC().Format(time.RFC3339), "timestamp of the first record (RFC 3339)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *records <= 0 {
		return fmt.Errorf("-records must be positive, got %d", *records)
	}
	startTime, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	doc := buildDocument(startTime.UTC(), *records)

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(f)
	enc.Indent("", " ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	log.Printf("wrote %d state vectors to %s", *records, *out)
	return nil
}

// circularState returns position (km) and velocity (km/s) on an inclined
// circular orbit at the given phase angle.
func circularState(phase float64) (pos, vel [3]float64) {
	inc := inclinationDeg * math.Pi / 180
	speed := 2 * math.Pi * orbitRadiusKm / periodSeconds

	sinP, cosP := math.Sin(phase), math.Cos(phase)
	sinI, cosI := math.Sin(inc), math.Cos(inc)

	pos = [3]float64{
		orbitRadiusKm * cosP,
		orbitRadiusKm * sinP * cosI,
		orbitRadiusKm * sinP * sinI,
	}
	vel = [3]float64{
		-speed * sinP,
		speed * cosP * cosI,
		speed * cosP * sinI,
	}
	return pos, vel
}

func buildDocument(start time.Time, n int) ndm {
	vectors := make([]stateVector, 0, n)
	for i := 0; i < n; i++ {
		at := start.Add(time.Duration(i) * time.Duration(stepSeconds) * time.Second)
		phase := 2 * math.Pi * float64(i) * stepSeconds / periodSeconds
		pos, vel := circularState(phase)

		vectors = append(vectors, stateVector{
			Epoch: at.Format("2006-002T15:04:05.000Z"),
			X:     scalar{Units: "km", Value: fmt.Sprintf("%.4f", pos[0])},
			Y:     scalar{Units: "km", Value: fmt.Sprintf("%.4f", pos[1])},
			Z:     scalar{Units: "km", Value: fmt.Sprintf("%.4f", pos[2])},
			XDot:  scalar{Units: "km/s", Value: fmt.Sprintf("%.6f", vel[0])},
			YDot:  scalar{Units: "km/s", Value: fmt.Sprintf("%.6f", vel[1])},
			ZDot:  scalar{Units: "km/s", Value: fmt.Sprintf("%.6f", vel[2])},
		})
	}

	return ndm{
		OEM: oem{
			ID:      "CCSDS_OEM_VERS",
			Version: "2.0",
			Body: body{
				Segment: segment{
					Metadata: metadata{
						ObjectName: "ISS",
						ObjectID:   "1998-067-A",
						CenterName: "EARTH",
						RefFrame:   "EME2000",
						TimeSystem: "UTC",
					},
					Data: data{StateVectors: vectors},
				},
			},
		},
	}
}

// OEM document shape, mirroring the NASA feed's nesting.

type ndm struct {
	XMLName xml.Name `xml:"ndm"`
	OEM     oem      `xml:"oem"`
}

type oem struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr"`
	Body    body   `xml:"body"`
}

type body struct {
	Segment segment `xml:"segment"`
}

type segment struct {
	Metadata metadata `xml:"metadata"`
	Data     data     `xml:"data"`
}

type metadata struct {
	ObjectName string `xml:"OBJECT_NAME"`
	ObjectID   string `xml:"OBJECT_ID"`
	CenterName string `xml:"CENTER_NAME"`
	RefFrame   string `xml:"REF_FRAME"`
	TimeSystem string `xml:"TIME_SYSTEM"`
}

type data struct {
	StateVectors []stateVector `xml:"stateVector"`
}

type stateVector struct {
	Epoch string `xml:"EPOCH"`
	X     scalar `xml:"X"`
	Y     scalar `xml:"Y"`
	Z     scalar `xml:"Z"`
	XDot  scalar `xml:"X_DOT"`
	YDot  scalar `xml:"Y_DOT"`
	ZDot  scalar `xml:"Z_DOT"`
}

type scalar struct {
	Units string `xml:"units,attr"`
	Value string `xml:",chardata"`
}
