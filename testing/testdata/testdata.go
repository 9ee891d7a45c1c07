package testdata

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/rotblauer/fleetd/runz"
	"github.com/rotblauer/fleetd/stream"
	"github.com/rotblauer/fleetd/types/runtrack"
)

// basepath is the root directory of this package.
var basepath string

func init() {
	_, currentFile, _, _ := runtime.Caller(0)
	basepath = filepath.Dir(currentFile)
}

// Path returns the absolute path the given relative file or directory path,
// relative to this testdata/ directory in the user's GOPATH.
// If rel is already absolute, it is returned unmodified.
// Taken from https://github.com/grpc/grpc-go/blob/master/testdata/testdata.go.
func Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}

	return filepath.Join(basepath, rel)
}

// Source_Fleet20241118 holds two drivers (d1 morning, d2 night) and three runs, in UTC:
//
//	r1  truck-7  d1  08:00-09:00  COMPLETED    100->130 km  stops Depot North, Rail Yard
//	r2  truck-7  d1  10:00-       IN_PROGRESS  130 km       stops Harbor Gate (done), Depot South
//	r3  truck-9  d2  21:00-22:30  COMPLETED    5000->5042.5 km
//
//	zcat testing/testdata/fleet_2024-11-18.ndjson.gz | wc -l
//	5
var Source_Fleet20241118 = "./fleet_2024-11-18.ndjson.gz"

// Run_InProgress_1 is a run as the tracking client posts it,
// with the nested seconds/nanoseconds ping timestamps it uses.
var Run_InProgress_1 = `{
  "id": "r9",
  "driverId": "d1",
  "driverName": "Ana Ruiz",
  "vehicleId": "truck-7",
  "startMileage": 200,
  "startTime": "2024-11-18T16:00:00Z",
  "status": "IN_PROGRESS",
  "stops": [
    {"name": "Depot North", "status": "COMPLETED", "arrivalTime": "2024-11-18T16:10:00Z", "departureTime": "2024-11-18T16:15:00Z", "mileageAtStop": 204},
    {"name": "Rail Yard", "status": "PENDING"}
  ],
  "locationHistory": [
    {"latitude": 45.000, "longitude": -93.25, "timestamp": {"seconds": 1731945600, "nanoseconds": 0}},
    {"latitude": 45.002, "longitude": -93.25, "timestamp": {"seconds": 1731945900, "nanoseconds": 0}},
    {"latitude": 45.004, "longitude": -93.25, "timestamp": {"seconds": 1731946200, "nanoseconds": 0}},
    {"latitude": 45.006, "longitude": -93.25, "timestamp": {"seconds": 1731946500, "nanoseconds": 0}},
    {"latitude": 45.008, "longitude": -93.25, "timestamp": {"seconds": 1731946800, "nanoseconds": 0}}
  ]
}`

// ReadRuns reads every run of an NDJSON fixture, skipping the driver records.
func ReadRuns(ctx context.Context, path string) ([]runtrack.Run, error) {
	r, err := runz.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	runs := stream.Filter(ctx, func(run runtrack.Run) bool {
		return !run.VehicleID.IsEmpty()
	}, stream.NDJSON[runtrack.Run](ctx, r))
	return stream.Collect(ctx, runs), nil
}
