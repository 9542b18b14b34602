package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	RunMetadata
	Laps []LapRow `json:"laps"`
}

// ExportJSON writes a run and its laps as one indented JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, laps []LapRow) error {
	data := ExportData{RunMetadata: *meta, Laps: laps}
	if data.Laps == nil {
		data.Laps = []LapRow{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
