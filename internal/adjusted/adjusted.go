package adjusted

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"geomagd/internal/timeseries"
)

const (
	// TotalField is the channel code handled additively via the pier
	// correction rather than through the matrix.
	TotalField = "F"

	DefaultDataType = "adjusted"
	DefaultLocation = "A0"
)

// Config is the algorithm's configuration surface. Zero values take the
// observatory defaults: H,E,Z,F in, X,Y,Z,F out.
type Config struct {
	InChannels  []string `koanf:"in_channels"`
	OutChannels []string `koanf:"out_channels"`
	Statefile   string   `koanf:"statefile"`
	DataType    string   `koanf:"data_type"`
	Location    string   `koanf:"location"`
}

// CoverageFunc reports whether one channel has full data coverage for a
// time range. The default is timeseries.HasFullCoverage; tests and
// embedders may inject their own.
type CoverageFunc func(st timeseries.Stream, channel string, start, end time.Time) bool

type Option func(*Adjusted)

func WithCoverage(fn CoverageFunc) Option {
	return func(a *Adjusted) { a.coverage = fn }
}

// Adjusted applies a Calibration to channel batches. It holds configuration
// only; the calibration is a Process parameter, so an instance is safe to
// reuse across sequential batches.
type Adjusted struct {
	in       []string
	out      []string
	dataType string
	location string
	coverage CoverageFunc
}

func New(cfg Config, opts ...Option) (*Adjusted, error) {
	a := &Adjusted{
		in:       cfg.InChannels,
		out:      cfg.OutChannels,
		dataType: cfg.DataType,
		location: cfg.Location,
		coverage: timeseries.HasFullCoverage,
	}
	if len(a.in) == 0 {
		a.in = []string{"H", "E", "Z", "F"}
	}
	if len(a.out) == 0 {
		a.out = []string{"X", "Y", "Z", "F"}
	}
	if a.dataType == "" {
		a.dataType = DefaultDataType
	}
	if a.location == "" {
		a.location = DefaultLocation
	}
	if len(a.in) != len(a.out) {
		return nil, fmt.Errorf("adjusted: %d input channels vs %d output channels", len(a.in), len(a.out))
	}
	if count(a.in, TotalField) > 1 || count(a.out, TotalField) > 1 {
		return nil, fmt.Errorf("adjusted: at most one %s channel per list", TotalField)
	}
	if contains(a.in, TotalField) != contains(a.out, TotalField) {
		return nil, fmt.Errorf("adjusted: %s must appear in both channel lists or neither", TotalField)
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

func (a *Adjusted) InChannels() []string  { return a.in }
func (a *Adjusted) OutChannels() []string { return a.out }

// Channels returns the input channel count, which sizes the default
// identity calibration.
func (a *Adjusted) Channels() int { return len(a.in) }

// Process applies the calibration to one batch. The non-F input channels
// are stacked in configured order, a bias row of ones is appended, and the
// matrix is applied; each output row except the bias row becomes an output
// channel. The total field, when configured on both sides, bypasses the
// matrix: F out = F in + pier correction.
//
// Every input channel must be present with the same non-zero length, and
// the matrix dimension must equal the non-F channel count plus one (the
// bias row); otherwise an error is returned and no output is produced.
func (a *Adjusted) Process(cal Calibration, st timeseries.Stream) (timeseries.Stream, error) {
	mr, mc := cal.Matrix.Dims()
	if mr != mc {
		return nil, fmt.Errorf("adjusted: calibration matrix is %dx%d, want square", mr, mc)
	}
	dim := len(a.in) - count(a.in, TotalField) + 1
	if mr != dim {
		return nil, fmt.Errorf("adjusted: calibration matrix dimension %d, want %d for channels %v", mr, dim, a.in)
	}

	// Every configured input must be present with the same length.
	traces := make(map[string]timeseries.Trace, len(a.in))
	samples := 0
	for _, ch := range a.in {
		tr, ok := st.First(ch)
		if !ok {
			return nil, fmt.Errorf("adjusted: input channel %s missing from batch", ch)
		}
		if len(tr.Data) == 0 {
			return nil, fmt.Errorf("adjusted: input channel %s is empty", ch)
		}
		if samples == 0 {
			samples = len(tr.Data)
		} else if len(tr.Data) != samples {
			return nil, fmt.Errorf("adjusted: input channel %s has %d samples, want %d", ch, len(tr.Data), samples)
		}
		traces[ch] = tr
	}

	// Stack the vector channels plus the bias row of ones.
	raw := mat.NewDense(dim, samples, nil)
	row := 0
	for _, ch := range a.in {
		if ch == TotalField {
			continue
		}
		raw.SetRow(row, traces[ch].Data)
		row++
	}
	ones := make([]float64, samples)
	for i := range ones {
		ones[i] = 1
	}
	raw.SetRow(dim-1, ones)

	var adj mat.Dense
	adj.Mul(cal.Matrix, raw)

	// The final row carries the affine bias only, not a physical channel.
	out := make(timeseries.Stream, 0, dim)
	for i := 0; i < dim-1; i++ {
		out = append(out, a.createTrace(a.out[i], traces[a.in[i]].Stats, adj.RawRowView(i)))
	}

	if contains(a.in, TotalField) && contains(a.out, TotalField) {
		f := traces[TotalField]
		data := make([]float64, len(f.Data))
		for i, v := range f.Data {
			data[i] = v + cal.PierCorrection
		}
		out = append(out, a.createTrace(TotalField, f.Stats, data))
	}
	return out, nil
}

// CanProduceData decides whether any adjusted output can be produced for
// the time range, in tiers: the total field alone suffices for an adjusted
// F; the full H, E, Z vector suffices for adjusted X, Y, Z; otherwise every
// configured input channel must be covered. Missing channels contribute
// zero coverage; this never fails.
func (a *Adjusted) CanProduceData(start, end time.Time, st timeseries.Stream) bool {
	has := func(ch string) bool { return a.coverage(st, ch, start, end) }

	if contains(a.in, TotalField) && has(TotalField) {
		return true
	}
	if contains(a.in, "H") && contains(a.in, "E") && contains(a.in, "Z") &&
		has("H") && has("E") && has("Z") {
		return true
	}
	for _, ch := range a.in {
		if !has(ch) {
			return false
		}
	}
	return true
}

func (a *Adjusted) createTrace(channel string, stats timeseries.Stats, data []float64) timeseries.Trace {
	stats.Channel = channel
	stats.DataType = a.dataType
	stats.Location = a.location
	return timeseries.Trace{Stats: stats, Data: append([]float64(nil), data...)}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func count(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}
