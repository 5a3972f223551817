package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dexPricer/internal/model"
	"dexPricer/internal/pricing"
)

// Tracker values a single swap.
type Tracker interface {
	TrackSwap(ctx context.Context, pairID string, amount0, amount1 decimal.Decimal) (pricing.TrackedAmounts, error)
}

// MetricsSink persists closed window metrics.
type MetricsSink interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PairWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Aggregator aggregates swap records into tracked pair window metrics.
type Aggregator struct {
	cfg          Config
	tracker      Tracker
	sink         MetricsSink
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

func NewAggregator(cfg Config, tracker Tracker, sink MetricsSink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		tracker:      tracker,
		sink:         sink,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run executes aggregation over a swap records JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.sink == nil {
		return fmt.Errorf("metrics sink is nil")
	}
	if a.tracker == nil {
		return fmt.Errorf("tracker is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.PairWindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs
	var total, windows, skipped, failed int

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.SwapRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode swap record", zap.Error(err))
			continue
		}

		if record.Timestamp <= startTs {
			skipped++
			continue
		}

		pair, err := model.NormalizeAddress(record.Pair)
		if err != nil {
			failed++
			a.logger.Warn("swap pair", zap.Error(err), zap.String("tx", record.TxHash))
			continue
		}
		amount0, amount1, err := record.Amounts()
		if err != nil {
			failed++
			a.logger.Warn("swap amounts", zap.Error(err), zap.String("pair", pair), zap.String("tx", record.TxHash))
			continue
		}
		tracked, err := a.tracker.TrackSwap(ctx, pair, amount0, amount1)
		if err != nil {
			return fmt.Errorf("track swap %s: %w", record.TxHash, err)
		}

		windowStart := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		acc := a.accumulators[pair]
		if acc == nil {
			acc = NewAccumulator(record, pair, windowStart, windowEnd)
			a.accumulators[pair] = acc
		} else if acc.WindowStart != windowStart {
			batch = append(batch, acc.Metrics(a.cfg.WindowSeconds))
			windows++
			acc = NewAccumulator(record, pair, windowStart, windowEnd)
			a.accumulators[pair] = acc
		}

		acc.AddSwap(record, amount0, amount1, tracked)

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
				return fmt.Errorf("write window metrics: %w", err)
			}
			batch = batch[:0]

			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	keys := make([]string, 0, len(a.accumulators))
	for key := range a.accumulators {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		batch = append(batch, a.accumulators[key].Metrics(a.cfg.WindowSeconds))
		windows++
	}

	if len(batch) > 0 {
		if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
			return fmt.Errorf("write window metrics: %w", err)
		}
	}

	// Windows that can still receive swaps are rebuilt whole on the next run.
	for key, acc := range a.accumulators {
		if acc.WindowEnd <= maxTs {
			delete(a.accumulators, key)
		}
	}
	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}
	a.accumulators = make(map[string]*Accumulator)

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	checkpoint := a.cfg.RecomputeFrom
	if start, ok := minOpenWindowStart(a.accumulators); ok {
		checkpoint = 0
		if start > 0 {
			checkpoint = start - 1
		}
	}
	return a.cfg.StateStore.Save(ctx, checkpoint)
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func unixTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

func minOpenWindowStart(acc map[string]*Accumulator) (uint64, bool) {
	var min uint64
	found := false
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if !found || entry.WindowStart < min {
			min = entry.WindowStart
			found = true
		}
	}
	return min, found
}
