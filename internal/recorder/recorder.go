package recorder

import "MarketPulse/internal/model"

// Recorder publishes the board produced by each refresh.
type Recorder interface {
	RecordBoard(board *model.Board) error
	Close() error
}
