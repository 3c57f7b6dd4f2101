package kernel

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

const (
	// LatitudeMin is the minimum valid latitude in degrees.
	LatitudeMin = -90.0
	// LatitudeMax is the maximum valid latitude in degrees.
	LatitudeMax = 90.0
	// LongitudeMin is the minimum valid longitude in degrees.
	LongitudeMin = -180.0
	// LongitudeMax is the maximum valid longitude in degrees.
	LongitudeMax = 180.0

	// earthRadiusKm is the mean Earth radius used for haversine distance.
	earthRadiusKm = 6371.0
)

// ErrGeoPointIsNotConstructed is returned when attempting to use an
// improperly initialized GeoPoint. Points must be created via NewGeoPoint or
// ParseMapLink.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"geo point must be created via NewGeoPoint or ParseMapLink constructors")

// coordsPattern matches a bare "lat,lng" pair with optional whitespace.
var coordsPattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// atPattern matches the "@lat,lng" segment of map URLs.
var atPattern = regexp.MustCompile(`@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)

// GeoPoint is an immutable value object representing a geographic position
// in WGS84 degrees. The zero value is invalid and fails validation.
//
// Example:
//
//	p, err := kernel.NewGeoPoint(24.8607, 67.0011)
//	if err != nil {
//	    // handle validation error
//	}
//	fmt.Println(p) // GeoPoint(24.860700,67.001100)
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint creates a GeoPoint with the given latitude and longitude.
// Both must be finite and within WGS84 bounds.
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	p := GeoPoint{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(p.setLat(lat), p.setLng(lng)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// ParseMapLink extracts coordinates from an externally supplied location
// encoding. Accepted forms:
//
//   - a bare "lat,lng" pair, e.g. "24.8607,67.0011"
//   - a map URL with a "query"/"q"/"ll" parameter holding "lat,lng"
//   - a map URL with an "@lat,lng" path segment
//
// Malformed input is reported as a validation error, never silently
// defaulted to a fallback location.
func ParseMapLink(link string) (GeoPoint, error) {
	trimmed := strings.TrimSpace(link)
	if trimmed == "" {
		return GeoPoint{}, errs.NewValueIsRequiredError("location link")
	}

	if m := coordsPattern.FindStringSubmatch(trimmed); m != nil {
		return parseLatLngPair(m[1], m[2])
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return GeoPoint{}, errs.NewValueIsInvalidErrorWithCause("location link",
			fmt.Errorf("%q is neither a coordinate pair nor a map URL", trimmed))
	}

	for _, param := range []string{"query", "q", "ll"} {
		if v := u.Query().Get(param); v != "" {
			if m := coordsPattern.FindStringSubmatch(v); m != nil {
				return parseLatLngPair(m[1], m[2])
			}
		}
	}

	if m := atPattern.FindStringSubmatch(u.Path); m != nil {
		return parseLatLngPair(m[1], m[2])
	}

	return GeoPoint{}, errs.NewValueIsInvalidErrorWithCause("location link",
		fmt.Errorf("no coordinates found in %q", trimmed))
}

func parseLatLngPair(latStr, lngStr string) (GeoPoint, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return GeoPoint{}, errs.NewValueIsInvalidErrorWithCause("latitude", err)
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return GeoPoint{}, errs.NewValueIsInvalidErrorWithCause("longitude", err)
	}

	return NewGeoPoint(lat, lng)
}

// Validate checks that the GeoPoint was created through a constructor.
// The zero value fails this validation.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

// Lat returns the latitude in degrees.
func (p GeoPoint) Lat() float64 {
	return p.lat
}

// Lng returns the longitude in degrees.
func (p GeoPoint) Lng() float64 {
	return p.lng
}

// String implements fmt.Stringer.
func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.lat, p.lng)
}

// IsEqual compares two points for coordinate equality. Both points must be
// properly constructed.
func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return p.lat == other.lat && p.lng == other.lng, nil
}

// DistanceKm returns the great-circle distance to other in kilometers using
// the haversine formula. Both points must be properly constructed.
func (p GeoPoint) DistanceKm(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	lat1 := p.lat * math.Pi / 180
	lat2 := other.lat * math.Pi / 180
	dLat := (other.lat - p.lat) * math.Pi / 180
	dLng := (other.lng - p.lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)), nil
}

// setLat sets the latitude with validation. Pointer receiver is intentional
// here: the private setters self-encapsulate bounds checks during
// construction while the public API stays on value receivers.
func (p *GeoPoint) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}

	p.lat = lat
	return nil
}

// setLng sets the longitude with validation.
func (p *GeoPoint) setLng(lng float64) error {
	if math.IsNaN(lng) || lng < LongitudeMin || lng > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lng, LongitudeMin, LongitudeMax)
	}

	p.lng = lng
	return nil
}
