// Package domain models ISS ephemeris data and its derived quantities.
//
// # Data Source
//
// State vectors originate from the NASA public OEM (Orbit Ephemeris Message)
// feed for the International Space Station, published at
// https://nasa-public-data.s3.amazonaws.com/iss-coords/current/ISS_OEM/ISS.OEM_J2K_EPH.xml.
// The feed covers a rolling ~15-day window sampled every 4 minutes, roughly
// 5000 records per document.
//
// # OEM Conventions
//
// Epoch timestamps:
//
//	YYYY-DDDTHH:MM:SS.sssZ  →  e.g. "2024-052T12:00:00.000Z"
//	DDD is the 1-based day of year. Times are UTC (TIME_SYSTEM metadata).
//
// State vectors:
//
//	Position components X, Y, Z in kilometers, velocity components X_DOT,
//	Y_DOT, Z_DOT in kilometers per second, both expressed in the EME2000
//	(J2000) Earth-centered inertial frame named by the REF_FRAME metadata.
//
// # Derivations
//
// [Speed] is the Euclidean norm of the velocity vector. [Geodetic] rotates
// the inertial position into the Earth-fixed frame by Greenwich Mean
// Sidereal Time at the sample's epoch and applies Bowring's closed-form
// conversion to WGS-84 latitude, longitude, and altitude. Place names come
// from a reverse-geocoding provider behind the [Geocoder] interface; no
// match (open ocean) and provider failure both resolve to [UnknownPlace].
package domain
