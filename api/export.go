package api

import (
	"encoding/json"
	"io"

	"github.com/rotblauer/fleetd/types/runtrack"
)

type ExportResult struct {
	Runs    int
	Drivers int
}

// Export writes every driver, then the runs matching filter, as newline-delimited JSON.
// The output is readable by Import.
func Export(src RunSource, filter runtrack.RunFilter, w io.Writer) (ExportResult, error) {
	res := ExportResult{}
	enc := json.NewEncoder(w)
	drivers, err := src.Drivers()
	if err != nil {
		return res, err
	}
	for _, d := range drivers {
		if err := enc.Encode(d); err != nil {
			return res, err
		}
		res.Drivers++
	}
	runs, err := src.ListRuns(filter)
	if err != nil {
		return res, err
	}
	for _, r := range runs {
		if err := enc.Encode(r); err != nil {
			return res, err
		}
		res.Runs++
	}
	return res, nil
}
