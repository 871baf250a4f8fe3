package http

import (
	"time"

	"github.com/couchcryptid/iss-telemetry/internal/domain"
)

// Wire shapes for the query API. The adapter owns the JSON layout so the
// domain types can evolve independently.

type vectorPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Units string  `json:"units"`
}

type epochPayload struct {
	Index    int           `json:"index"`
	Epoch    string        `json:"epoch"`
	Position vectorPayload `json:"position"`
	Velocity vectorPayload `json:"velocity"`
}

type listResponse struct {
	Object   string         `json:"object,omitempty"`
	RefFrame string         `json:"ref_frame,omitempty"`
	Limit    int            `json:"limit"`
	Offset   int            `json:"offset"`
	Total    int            `json:"total"`
	Epochs   []epochPayload `json:"epochs"`
}

type epochResponse struct {
	Object   string `json:"object,omitempty"`
	RefFrame string `json:"ref_frame,omitempty"`
	epochPayload
}

type speedResponse struct {
	Index int     `json:"index"`
	Speed float64 `json:"speed"`
	Units string  `json:"units"`
}

type locationResponse struct {
	Index      int     `json:"index"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	AltitudeKm float64 `json:"altitude_km"`
	Place      string  `json:"place"`
}

type nowResponse struct {
	Object   string `json:"object,omitempty"`
	RefFrame string `json:"ref_frame,omitempty"`
	epochPayload
	Speed      float64          `json:"speed"`
	SpeedUnits string           `json:"speed_units"`
	Location   locationResponse `json:"location"`
}

func toEpochPayload(rec domain.EpochRecord) epochPayload {
	return epochPayload{
		Index:    rec.Index,
		Epoch:    rec.Timestamp.UTC().Format(time.RFC3339Nano),
		Position: vectorPayload{X: rec.Position.X, Y: rec.Position.Y, Z: rec.Position.Z, Units: "km"},
		Velocity: vectorPayload{X: rec.Velocity.X, Y: rec.Velocity.Y, Z: rec.Velocity.Z, Units: "km/s"},
	}
}
