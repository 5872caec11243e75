package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"discounter/internal/model"

	"github.com/rs/zerolog"
)

// FileNotifier appends one JSON document per voucher to a journal file.
type FileNotifier struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	logger zerolog.Logger
}

// NewFileNotifier opens (or creates) the journal at path for appending.
func NewFileNotifier(path string, logger zerolog.Logger) (*FileNotifier, error) {
	logger = logger.With().Str("component", "file-notifier").Logger()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error().Err(err).Str("file", path).Msg("failed to open voucher journal")
		return nil, fmt.Errorf("failed to open voucher journal %s: %w", path, err)
	}

	logger.Info().Str("file", path).Msg("voucher journal opened")

	return &FileNotifier{
		file:   file,
		path:   path,
		logger: logger,
	}, nil
}

// Notify appends voucher as a single line.
func (n *FileNotifier) Notify(ctx context.Context, voucher model.Voucher) error {
	line, err := json.Marshal(voucher)
	if err != nil {
		return fmt.Errorf("failed to encode voucher: %w", err)
	}
	line = append(line, '\n')

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := n.file.Write(line); err != nil {
		n.logger.Error().Err(err).Str("file", n.path).Str("code", voucher.Code).Msg("failed to write voucher")
		return fmt.Errorf("failed to write voucher to %s: %w", n.path, err)
	}
	return nil
}

// Close closes the journal.
func (n *FileNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.file.Close()
}
