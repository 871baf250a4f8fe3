package domain

import "time"

// Vector3 is a Cartesian 3-vector in the feed's inertial reference frame.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// EpochRecord is one timestamped state-vector sample from the ephemeris feed.
// Index is the record's 0-based position in feed order and is the record's
// identity within a single ingestion generation. Position is in kilometers,
// Velocity in kilometers per second, both in the frame named by the feed
// metadata (EME2000 for the ISS OEM feed).
type EpochRecord struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"epoch"`
	Position  Vector3   `json:"position"`
	Velocity  Vector3   `json:"velocity"`
}

// FeedMetadata is the OEM segment metadata block describing the object and
// reference frame the state vectors are expressed in.
type FeedMetadata struct {
	ObjectName string `json:"object_name"`
	ObjectID   string `json:"object_id"`
	Center     string `json:"center"`
	RefFrame   string `json:"ref_frame"`
	TimeSystem string `json:"time_system"`
}

// GeodeticPoint is a position relative to the WGS-84 reference ellipsoid.
// Latitude and Longitude are in degrees, Altitude in kilometers above the
// ellipsoid surface.
type GeodeticPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude_km"`
}
