package webd

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/rotblauer/fleetd/api"
	"github.com/rotblauer/fleetd/common"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/runz"
	"github.com/rotblauer/fleetd/testing/testdata"
)

func init() {
	// The fixtures are dated in UTC.
	params.DefaultLocation = time.UTC
}

// newTestWebDaemon creates a new WebDaemon for testing purposes,
// with its data dir under t.TempDir. The daemon is closed on cleanup.
func newTestWebDaemon(t *testing.T) *WebDaemon {
	t.Helper()
	reset := common.SlogResetLevel(slog.LevelError)
	t.Cleanup(reset)

	config := params.DefaultTestWebDaemonConfig()
	config.DataDir = t.TempDir()
	d, err := NewWebDaemon(config)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Error(err)
		}
	})
	return d
}

// newSeededWebDaemon is a test daemon with the fleet fixture imported.
func newSeededWebDaemon(t *testing.T) *WebDaemon {
	t.Helper()
	d := newTestWebDaemon(t)
	f, err := runz.Open(testdata.Path(testdata.Source_Fleet20241118))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	res, err := api.Import(context.Background(), d.store, f)
	if err != nil {
		t.Fatal(err)
	}
	if res.Runs != 3 || res.Drivers != 2 {
		t.Fatalf("seeded %+v", res)
	}
	return d
}
