package timeseries

import (
	"encoding/json"
	"math"
	"time"
)

// Wire format for one trace. Sample gaps travel as JSON null because JSON
// has no NaN literal.
type traceJSON struct {
	Station    string     `json:"station"`
	Network    string     `json:"network,omitempty"`
	Channel    string     `json:"channel"`
	Location   string     `json:"location,omitempty"`
	DataType   string     `json:"data_type,omitempty"`
	Starttime  time.Time  `json:"starttime"`
	SampleRate float64    `json:"sample_rate"`
	Samples    []*float64 `json:"samples"`
}

type streamJSON struct {
	Traces []traceJSON `json:"traces"`
}

// EncodeJSON serializes the stream for transport.
func EncodeJSON(st Stream) ([]byte, error) {
	doc := streamJSON{Traces: make([]traceJSON, 0, len(st))}
	for _, t := range st {
		tj := traceJSON{
			Station:    t.Stats.Station,
			Network:    t.Stats.Network,
			Channel:    t.Stats.Channel,
			Location:   t.Stats.Location,
			DataType:   t.Stats.DataType,
			Starttime:  t.Stats.Starttime,
			SampleRate: t.Stats.SampleRate,
			Samples:    make([]*float64, len(t.Data)),
		}
		for i, v := range t.Data {
			if !math.IsNaN(v) {
				v := v
				tj.Samples[i] = &v
			}
		}
		doc.Traces = append(doc.Traces, tj)
	}
	return json.Marshal(doc)
}

// DecodeJSON parses a stream produced by EncodeJSON (or by an upstream
// acquisition frame using the same layout). Null samples become NaN.
func DecodeJSON(raw []byte) (Stream, error) {
	var doc streamJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	st := make(Stream, 0, len(doc.Traces))
	for _, tj := range doc.Traces {
		t := Trace{
			Stats: Stats{
				Station:    tj.Station,
				Network:    tj.Network,
				Channel:    tj.Channel,
				Location:   tj.Location,
				DataType:   tj.DataType,
				Starttime:  tj.Starttime,
				SampleRate: tj.SampleRate,
			},
			Data: make([]float64, len(tj.Samples)),
		}
		for i, p := range tj.Samples {
			if p == nil {
				t.Data[i] = math.NaN()
			} else {
				t.Data[i] = *p
			}
		}
		st = append(st, t)
	}
	return st, nil
}
