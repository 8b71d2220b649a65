// pkg/activities/schema.go
package activities

import (
	"errors"
	"os"
	"path/filepath"
)

// DataFileName is the name of the data file next to the installed binary.
const DataFileName = "activities.json"

// Activities maps activity identifiers to arbitrary JSON values. Numbers
// decoded by the store are json.Number so their text survives a round trip.
type Activities map[string]interface{}

// DefaultPath returns activities.json in the directory of the running executable.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exe), DataFileName), nil
}

// Parse decodes data as a JSON object collection, rejecting other roots,
// null, and trailing data.
func Parse(data []byte) (Activities, error) {
	var out Activities
	if err := Decode(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("expected a JSON object, got null")
	}
	return out, nil
}
