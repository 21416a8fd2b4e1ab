package util

import "time"

// LoadLocation resolves an IANA zone name. It returns fallback and false when the zone
// database has no such name.
func LoadLocation(name string, fallback *time.Location) (*time.Location, bool) {
	if name == "" {
		return fallback, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback, false
	}
	return loc, true
}
