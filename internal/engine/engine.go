package engine

import (
	"context"

	"geomagd/internal/pipeline"
	"geomagd/internal/transport"
)

type Config struct {
	GRPCPort    int
	MetricsPort int
	PipelineYml string
}

type Engine struct {
	transport *transport.Server
	runner    *pipeline.Runner
}

func (e *Engine) Run(ctx context.Context) error {
	e.transport.SetServing(true)

	go func() {
		<-ctx.Done()
		e.transport.Stop()
		if e.runner != nil {
			_ = e.runner.Close()
		}
	}()

	return e.transport.Serve()
}
