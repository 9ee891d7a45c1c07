package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
)

type RecordKind string

const (
	RecordRun    RecordKind = "run"
	RecordDriver RecordKind = "driver"
)

var ErrUnknownRecord = errors.New("unknown record kind")

// Record is one line of an import, peeked but not decoded.
type Record struct {
	Kind RecordKind
	// Key is the vehicle for runs and the driver id for drivers.
	Key string
	Raw json.RawMessage
}

// PeekRecord classifies a JSON object without decoding it.
// Runs carry a vehicleId, drivers carry a shift.
func PeekRecord(raw []byte) (Record, error) {
	if v := gjson.GetBytes(raw, "vehicleId"); v.Exists() {
		return Record{Kind: RecordRun, Key: v.String(), Raw: raw}, nil
	}
	if gjson.GetBytes(raw, "shift").Exists() {
		return Record{Kind: RecordDriver, Key: gjson.GetBytes(raw, "id").String(), Raw: raw}, nil
	}
	return Record{}, ErrUnknownRecord
}

// ScanRecords reads newline-delimited JSON objects from r and emits them classified.
// Lines that cannot be classified are reported on the error channel and skipped.
// The error channel gets io.EOF when the reader is exhausted.
func ScanRecords(ctx context.Context, r io.Reader) (<-chan Record, <-chan error) {
	out := make(chan Record)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)

		met := newTickScanMeter(5 * time.Second)
		defer met.stop()
		defer func() {
			slog.Info("Scan done",
				"records", humanize.Comma(met.countMeter.Snapshot().Count()),
				"running", time.Since(met.started).Round(time.Second))
		}()

		dec := json.NewDecoder(r)
		for {
			msg := json.RawMessage{}
			if err := dec.Decode(&msg); err != nil {
				if errors.Is(err, io.EOF) {
					errs <- io.EOF
					return
				}
				errs <- fmt.Errorf("scanner(%w)", err)
				return
			}
			rec, err := PeekRecord(msg)
			if err != nil {
				slog.Warn("Skipping record", "error", err, "line", truncate(msg, 80))
				continue
			}
			label := gjson.GetBytes(msg, "startTime").Time()
			met.mark(label, msg)
			if rec.Kind == RecordRun {
				met.addVehicle(rec.Key)
			}
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case out <- rec:
			}
		}
	}()
	return out, errs
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
