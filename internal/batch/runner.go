// Package batch processes many messages against one catalog and collects
// the results as CSV rows.
package batch

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/voice-ledger/internal/csvio"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent provider calls when none is configured.
const DefaultWorkers = 4

// MessageProcessor is the part of pipeline.Processor the runner needs.
type MessageProcessor interface {
	Process(ctx context.Context, req models.VoiceRequest) (models.Result, error)
}

// Runner fans messages out to a processor with bounded concurrency.
type Runner struct {
	processor MessageProcessor
	workers   int
	logger    logging.Logger
}

// Summary counts what a run produced.
type Summary struct {
	Messages     int
	Transactions int
	Failed       int
}

// NewRunner creates a Runner. workers < 1 uses DefaultWorkers.
func NewRunner(processor MessageProcessor, workers int, logger logging.Logger) *Runner {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Runner{
		processor: processor,
		workers:   workers,
		logger:    logger,
	}
}

// Run processes every message and returns the flattened rows in input order.
// A message that fails yields one error row; the run itself only fails when
// ctx is cancelled.
func (r *Runner) Run(ctx context.Context, catalog models.EntityCatalog, messages []csvio.MessageRow, envelope models.Envelope) ([]csvio.TransactionRow, Summary, error) {
	perMessage := make([][]csvio.TransactionRow, len(messages))
	failed := make([]bool, len(messages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, msg := range messages {
		id := msg.ID
		if id == "" {
			id = fmt.Sprintf("%d", i+1)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if strings.TrimSpace(msg.Message) == "" {
				perMessage[i] = []csvio.TransactionRow{csvio.ErrorRow(id, fmt.Errorf("empty message"))}
				failed[i] = true
				return nil
			}

			result, err := r.processor.Process(gctx, models.VoiceRequest{
				Message:  msg.Message,
				Catalog:  catalog,
				Envelope: envelope,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.WithError(err).Warn("Message failed", logging.F("message_id", id))
				perMessage[i] = []csvio.TransactionRow{csvio.ErrorRow(id, err)}
				failed[i] = true
				return nil
			}
			perMessage[i] = csvio.RowsFromRecords(id, result.Transactions)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}

	summary := Summary{Messages: len(messages)}
	rows := make([]csvio.TransactionRow, 0, len(messages))
	for i, chunk := range perMessage {
		rows = append(rows, chunk...)
		if failed[i] {
			summary.Failed++
		} else {
			summary.Transactions += len(chunk)
		}
	}

	r.logger.Info("Batch complete",
		logging.F(logging.FieldCount, summary.Messages),
		logging.F("transactions", summary.Transactions),
		logging.F("failed", summary.Failed))
	return rows, summary, nil
}
