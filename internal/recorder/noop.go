package recorder

import "MarketPulse/internal/model"

// NoopRecorder is a no-op implementation used when no output path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBoard(_ *model.Board) error { return nil }
func (n *NoopRecorder) Close() error                     { return nil }
