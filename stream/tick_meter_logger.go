package stream

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/fleetd/common"
)

// tickScanMeter logs read throughput of an import on an interval.
type tickScanMeter struct {
	started  time.Time
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	label    time.Time // start time of the last run read
	vehicles []string

	countMeter metrics.Meter
	sizeMeter  metrics.Meter
}

func newTickScanMeter(interval time.Duration) *tickScanMeter {
	reg := metrics.NewRegistry()
	rl := &tickScanMeter{
		started:    time.Now(),
		ticker:     time.NewTicker(interval),
		done:       make(chan struct{}),
		countMeter: metrics.NewMeter(),
		sizeMeter:  metrics.NewMeter(),
	}
	if err := reg.Register("records.meter", rl.countMeter); err != nil {
		panic(err)
	}
	if err := reg.Register("bytes.meter", rl.sizeMeter); err != nil {
		panic(err)
	}
	go rl.run()
	return rl
}

func (rl *tickScanMeter) mark(label time.Time, data []byte) {
	rl.mu.Lock()
	if !label.IsZero() {
		rl.label = label
	}
	rl.mu.Unlock()
	rl.countMeter.Mark(1)
	rl.sizeMeter.Mark(int64(len(data)))
}

func (rl *tickScanMeter) addVehicle(vehicle string) {
	if vehicle == "" {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if !slices.Contains(rl.vehicles, vehicle) {
		rl.vehicles = append(rl.vehicles, vehicle)
	}
}

func (rl *tickScanMeter) run() {
	for {
		select {
		case <-rl.ticker.C:
			rl.log()
		case <-rl.done:
			return
		}
	}
}

func (rl *tickScanMeter) log() {
	countSnap := rl.countMeter.Snapshot()
	sizeSnap := rl.sizeMeter.Snapshot()

	rl.mu.Lock()
	label := rl.label
	vehicles := strings.Join(rl.vehicles, ",")
	rl.mu.Unlock()

	slog.Info("Read records", "n", humanize.Comma(countSnap.Count()),
		"vehicles", vehicles,
		"read.last", label.Format(time.DateTime),
		"rps", common.DecimalToFixed(countSnap.Rate1(), 0),
		"bps", humanize.Bytes(uint64(sizeSnap.Rate1())),
		"total.bytes", humanize.Bytes(uint64(sizeSnap.Count())),
		"running", time.Since(rl.started).Round(time.Second))
}

func (rl *tickScanMeter) stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() {
		rl.ticker.Stop()
		close(rl.done)
		rl.countMeter.Stop()
		rl.sizeMeter.Stop()
	})
}
