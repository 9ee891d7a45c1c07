package runtrack

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
)

// LocationPoint is a single GPS ping from a vehicle.
// Points arrive in transport order, not time order; callers sort before use.
type LocationPoint struct {
	Point orb.Point
	Time  time.Time
}

func NewLocationPoint(lat, lon float64, t time.Time) LocationPoint {
	return LocationPoint{Point: orb.Point{lon, lat}, Time: t}
}

func (p LocationPoint) Lat() float64 { return p.Point.Lat() }
func (p LocationPoint) Lon() float64 { return p.Point.Lon() }

func (p LocationPoint) IsEmpty() bool {
	return p.Time.IsZero() && p.Point == orb.Point{}
}

type locationPointJSON struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON implements the json.Marshaler interface.
func (p LocationPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationPointJSON{
		Latitude:  p.Lat(),
		Longitude: p.Lon(),
		Timestamp: p.Time,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// The timestamp may be an RFC3339 string, unix seconds,
// or a {"seconds", "nanoseconds"} object as tracking clients send it.
func (p *LocationPoint) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid location point json")
	}
	res := gjson.ParseBytes(data)
	lat, lon := res.Get("latitude"), res.Get("longitude")
	if !lat.Exists() || !lon.Exists() {
		return fmt.Errorf("location point missing coordinates: %s", string(data))
	}
	t, err := ParseInstant(res.Get("timestamp"))
	if err != nil {
		return fmt.Errorf("location point timestamp: %w", err)
	}
	*p = NewLocationPoint(lat.Float(), lon.Float(), t)
	return nil
}

// ParseInstant decodes the instant shapes accepted from tracking clients.
func ParseInstant(res gjson.Result) (time.Time, error) {
	switch {
	case !res.Exists():
		return time.Time{}, fmt.Errorf("missing")
	case res.Type == gjson.String:
		return time.Parse(time.RFC3339Nano, res.String())
	case res.Type == gjson.Number:
		return time.Unix(res.Int(), 0).UTC(), nil
	case res.IsObject():
		sec := res.Get("seconds")
		if !sec.Exists() {
			sec = res.Get("_seconds")
		}
		if !sec.Exists() {
			return time.Time{}, fmt.Errorf("object without seconds: %s", res.Raw)
		}
		nsec := res.Get("nanoseconds")
		if !nsec.Exists() {
			nsec = res.Get("_nanoseconds")
		}
		return time.Unix(sec.Int(), nsec.Int()).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported instant: %s", res.Raw)
}

// ComparePointTime orders points by timestamp.
func ComparePointTime(a, b LocationPoint) int {
	return a.Time.Compare(b.Time)
}

// SortPoints sorts points by timestamp, in place.
// The sort is stable; points sharing a timestamp keep their transport order.
func SortPoints(points []LocationPoint) {
	slices.SortStableFunc(points, ComparePointTime)
}

// SortedPoints returns a sorted copy of points.
func SortedPoints(points []LocationPoint) []LocationPoint {
	out := slices.Clone(points)
	SortPoints(out)
	return out
}

// LineString maps points to (longitude, latitude) coordinates.
func LineString(points []LocationPoint) orb.LineString {
	ls := make(orb.LineString, 0, len(points))
	for _, p := range points {
		ls = append(ls, p.Point)
	}
	return ls
}
