package identity

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// embeddedCoords matches "(37.39, 127.12)" or "(37.39 127.12)" inside an address.
var embeddedCoords = regexp.MustCompile(`\(([-+]?\d+(?:\.\d+)?)[,\s]+([-+]?\d+(?:\.\d+)?)\)`)

// Coordinate is a WGS84 point. Either side may be unknown.
type Coordinate struct {
	Lat *float64
	Lng *float64
}

// Address is the raw shape a collaborator hands over: plain text, or text
// paired with a coordinate it already knows.
type Address interface {
	text() string
	isAddress()
}

// PlainText is an address string that may carry an embedded "(lat, lng)".
type PlainText struct {
	Text string
}

// WithCoords is an address string with a separately supplied coordinate.
type WithCoords struct {
	Text  string
	Coord Coordinate
}

func (a PlainText) text() string { return a.Text }
func (PlainText) isAddress() {}

func (a WithCoords) text() string { return a.Text }
func (WithCoords) isAddress() {}

// Resolved is the only shape code past the normalization boundary sees.
type Resolved struct {
	Address *string
	Lat     *float64
	Lng     *float64
}

// Resolve turns any Address into (address, lat, lng). Coordinates embedded in
// the text win; a WithCoords coordinate fills whichever side is still unknown.
// Malformed numbers become nil rather than failing.
func Resolve(addr Address) Resolved {
	if addr == nil {
		return Resolved{}
	}

	text := addr.text()
	lat, lng := ParseEmbeddedCoords(text)

	if wc, ok := addr.(WithCoords); ok {
		if lat == nil {
			lat = finite(wc.Coord.Lat)
		}
		if lng == nil {
			lng = finite(wc.Coord.Lng)
		}
	}

	out := Resolved{Lat: lat, Lng: lng}
	out.Address = &text
	return out
}

// ParseEmbeddedCoords extracts the first "(lat, lng)" pattern from s.
func ParseEmbeddedCoords(s string) (*float64, *float64) {
	m := embeddedCoords.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	lat := parseFloat(m[1])
	lng := parseFloat(m[2])
	if lat == nil || lng == nil {
		return nil, nil
	}
	return lat, lng
}

// CoordinateFromStrings builds a Coordinate from text fields such as the
// Kakao API's "y"/"x" strings. Unparsable sides stay nil.
func CoordinateFromStrings(lat, lng string) Coordinate {
	return Coordinate{Lat: parseFloat(lat), Lng: parseFloat(lng)}
}

// NewCoordinate wraps known float values.
func NewCoordinate(lat, lng float64) Coordinate {
	return Coordinate{Lat: finite(&lat), Lng: finite(&lng)}
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return finite(&f)
}

func finite(f *float64) *float64 {
	if f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return nil
	}
	v := *f
	return &v
}
