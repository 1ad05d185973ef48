package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"MarketPulse/internal/model"
)

// JSONRecorder writes the board to a pretty-printed JSON file.
// The file is replaced atomically so readers never see a partial document.
type JSONRecorder struct {
	Path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewJSONRecorder creates a recorder writing to path, creating its directory if needed.
func NewJSONRecorder(path string, logger *zap.Logger) (*JSONRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	return &JSONRecorder{Path: path, logger: logger}, nil
}

func (r *JSONRecorder) RecordBoard(board *model.Board) error {
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(r.Path), filepath.Base(r.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write board: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod board: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.Path); err != nil {
		return fmt.Errorf("replace board: %w", err)
	}

	r.logger.Info("board written", zap.String("path", r.Path), zap.Int("instruments", board.Len()))
	return nil
}

func (r *JSONRecorder) Close() error { return nil }

// ReadBoard loads a previously written board. A missing file yields an empty board.
func ReadBoard(path string) (*model.Board, error) {
	board := model.NewBoard()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return board, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, board); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return board, nil
}
