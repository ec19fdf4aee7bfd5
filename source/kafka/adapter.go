package kafka

import (
	"context"

	"geomagd/internal/wire"
)

type EmitFunc func(*wire.Frame) error

type Adapter interface {
	Configure(Config) error
	Run(context.Context, EmitFunc) error
	Close() error
}
