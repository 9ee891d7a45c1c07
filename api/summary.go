package api

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
	"github.com/rotblauer/fleetd/common"
	"github.com/rotblauer/fleetd/types/runtrack"
	"github.com/shopspring/decimal"
)

// MinuteStats describes a set of durations in minutes.
type MinuteStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

type Summary struct {
	Runs             int         `json:"runs"`
	Points           int         `json:"points"`
	OutliersRejected int         `json:"outliersRejected"`
	Segments         int         `json:"segments"`
	TotalDistance    float64     `json:"totalDistance"`
	Travel           MinuteStats `json:"travelMinutes"`
	Dwell            MinuteStats `json:"stopMinutes"`
	Text             string      `json:"text"`
}

// Summarize describes the segments of one route.
// The live leg counts toward travel but has no dwell.
func Summarize(segments []runtrack.Segment, points, rejected int) Summary {
	s := Summary{
		Runs:             1,
		Points:           points,
		OutliersRejected: rejected,
		Segments:         len(segments),
	}
	var travel, dwell []float64
	total := decimal.Zero
	for _, seg := range segments {
		travel = append(travel, seg.TravelTime.Minutes())
		if seg.StopTime != nil {
			dwell = append(dwell, seg.StopTime.Minutes())
		}
		if seg.Distance != nil {
			total = total.Add(decimal.NewFromFloat(*seg.Distance))
		}
	}
	s.TotalDistance, _ = total.Float64()
	s.Travel = minuteStats(travel)
	s.Dwell = minuteStats(dwell)

	var travelSum float64
	for _, m := range travel {
		travelSum += m
	}
	s.Text = fmt.Sprintf("%s legs, %s km, %s min driving",
		humanize.Comma(int64(len(segments))),
		humanize.CommafWithDigits(s.TotalDistance, 1),
		humanize.Comma(int64(travelSum)))
	return s
}

// minuteStats is zero for an empty input.
func minuteStats(minutes []float64) MinuteStats {
	if len(minutes) == 0 {
		return MinuteStats{}
	}
	statsMustFloat := func(fn func() (float64, error)) float64 {
		out, _ := fn()
		return out
	}
	statsData := stats.Float64Data(minutes)
	return MinuteStats{
		Mean:   common.DecimalToFixed(statsMustFloat(statsData.Mean), 1),
		Median: common.DecimalToFixed(statsMustFloat(statsData.Median), 1),
		Max:    statsMustFloat(statsData.Max),
	}
}
