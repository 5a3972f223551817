package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dexPricer/internal/model"
)

// JsonlMetricsSink appends window metrics to a JSONL file.
type JsonlMetricsSink struct {
	path string
	mu   sync.Mutex
}

func NewJsonlMetricsSink(path string) *JsonlMetricsSink {
	return &JsonlMetricsSink{path: path}
}

// UpsertWindowMetrics appends a batch of window metrics as JSON lines.
// Later lines for the same window supersede earlier ones.
func (s *JsonlMetricsSink) UpsertWindowMetrics(_ context.Context, metrics []model.PairWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range metrics {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal window metrics: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write window metrics: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
