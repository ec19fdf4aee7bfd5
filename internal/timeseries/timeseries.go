// Package timeseries holds the channel-batch container consumed and produced
// by the adjusted algorithm: named, timestamped, equal-length sample arrays
// with per-trace station metadata. Gaps are NaN samples.
package timeseries

import (
	"math"
	"time"
)

// Stats carries the metadata attached to one trace. Outputs inherit the
// input trace's Stats except for the fields the algorithm overrides.
type Stats struct {
	Station    string
	Network    string
	Channel    string
	Location   string
	DataType   string
	Starttime  time.Time
	SampleRate float64 // samples per second
}

// Delta returns the sample spacing.
func (s Stats) Delta() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / s.SampleRate)
}

type Trace struct {
	Stats Stats
	Data  []float64
}

// Endtime is the timestamp of the last sample.
func (t Trace) Endtime() time.Time {
	if len(t.Data) == 0 {
		return t.Stats.Starttime
	}
	return t.Stats.Starttime.Add(time.Duration(len(t.Data)-1) * t.Stats.Delta())
}

type Stream []Trace

// Select returns every trace whose channel code matches.
func (st Stream) Select(channel string) Stream {
	var out Stream
	for _, t := range st {
		if t.Stats.Channel == channel {
			out = append(out, t)
		}
	}
	return out
}

// First returns the single trace for a channel, or false when absent.
func (st Stream) First(channel string) (Trace, bool) {
	for _, t := range st {
		if t.Stats.Channel == channel {
			return t, true
		}
	}
	return Trace{}, false
}

// Starttime returns the earliest trace start in the stream.
func (st Stream) Starttime() time.Time {
	var min time.Time
	for i, t := range st {
		if i == 0 || t.Stats.Starttime.Before(min) {
			min = t.Stats.Starttime
		}
	}
	return min
}

// Endtime returns the latest trace end in the stream.
func (st Stream) Endtime() time.Time {
	var max time.Time
	for _, t := range st {
		if e := t.Endtime(); e.After(max) {
			max = e
		}
	}
	return max
}

// HasFullCoverage reports whether some trace for the channel spans
// [start, end] with no gap samples inside the span. A missing channel
// counts as zero coverage, never an error.
func HasFullCoverage(st Stream, channel string, start, end time.Time) bool {
	for _, t := range st.Select(channel) {
		if traceCovers(t, start, end) {
			return true
		}
	}
	return false
}

func traceCovers(t Trace, start, end time.Time) bool {
	if len(t.Data) == 0 || t.Stats.Delta() == 0 {
		return false
	}
	if t.Stats.Starttime.After(start) || t.Endtime().Before(end) {
		return false
	}
	lo := int(start.Sub(t.Stats.Starttime) / t.Stats.Delta())
	hi := int(end.Sub(t.Stats.Starttime) / t.Stats.Delta())
	if lo < 0 {
		lo = 0
	}
	if hi > len(t.Data)-1 {
		hi = len(t.Data) - 1
	}
	for i := lo; i <= hi; i++ {
		if math.IsNaN(t.Data[i]) {
			return false
		}
	}
	return true
}
