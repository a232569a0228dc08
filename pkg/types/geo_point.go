package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// GeoPoint is the optional coordinate captured alongside a status event.
// Stored as a plain "lat,lng" text column so the sqlite test driver and
// Postgres share one representation.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Value serializes the point as "lat,lng".
func (g GeoPoint) Value() (driver.Value, error) {
	return fmt.Sprintf("%s,%s",
		strconv.FormatFloat(g.Lat, 'f', -1, 64),
		strconv.FormatFloat(g.Lng, 'f', -1, 64),
	), nil
}

// Scan accepts "lat,lng" text or a JSON object from older rows.
func (g *GeoPoint) Scan(value interface{}) error {
	if value == nil {
		*g = GeoPoint{}
		return nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("geopoint: unsupported scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*g = GeoPoint{}
		return nil
	}

	if strings.HasPrefix(raw, "{") {
		return json.Unmarshal([]byte(raw), g)
	}

	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("geopoint: unexpected text %q", raw)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fmt.Errorf("geopoint: parse lat: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fmt.Errorf("geopoint: parse lng: %w", err)
	}

	g.Lat = lat
	g.Lng = lng
	return nil
}
