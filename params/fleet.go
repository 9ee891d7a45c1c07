package params

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

func init() {
	metrics.Enabled = true
}

var DatadirRoot = func() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fleetd")
}()

var StateDBName = "fleet.db"
var RunsBucket = []byte("runs")
var DriversBucket = []byte("drivers")

var DefaultGZipCompressionLevel = gzip.BestCompression

// DefaultLocation is the zone used to decide the calendar date of a run,
// which is part of the aggregation key.
var DefaultLocation = time.Local

// DefaultRunsPerDayWindow is the number of trailing days reported by RunsPerDay.
var DefaultRunsPerDayWindow = 7

var (
	CacheLastKnownTTL = 1 * 24 * time.Hour
	CacheRouteViewTTL = 10 * time.Minute

	DefaultAggregateMemoSize = 256
	DefaultPingDedupeSize    = 10_000
)

var (
	INFLUXDB_URL    = os.Getenv("INFLUXDB_URL")
	INFLUXDB_TOKEN  = os.Getenv("INFLUXDB_TOKEN")
	INFLUXDB_ORG    = os.Getenv("INFLUXDB_ORG")
	INFLUXDB_BUCKET = os.Getenv("INFLUXDB_BUCKET")
)
