// Package bulkindex drives chunked, partial-failure-aware document
// ingestion against the engine port, retrying only the items that failed
// on a given pass, bounded by a maximum retry count.
package bulkindex

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/antflydb/searchctl/internal/engine"
)

// Config controls chunking and retry behavior.
type Config struct {
	ChunkSize  int
	MaxRetries int
}

// DefaultConfig matches the engine port's typical bulk request size.
func DefaultConfig() Config {
	return Config{ChunkSize: 500, MaxRetries: 2}
}

// Result summarizes one Index call: how many documents succeeded, and which
// ones failed on every attempted pass along with their final error.
type Result struct {
	Total     int
	Succeeded int
	Failed    []FailedItem
	Attempts  int
	TookMs    int64
}

// FailedItem is a document that did not succeed after all retry passes,
// carrying the pass number (1-based) on which it made its last attempt.
type FailedItem struct {
	Document engine.Document
	Err      error
	Attempt  int
}

// Indexer chunks a document set and writes it to the engine port, retrying
// only the items that failed on the previous pass, up to Config.MaxRetries
// additional passes per chunk.
type Indexer struct {
	port   engine.Port
	config Config
	logger *zap.Logger
}

// New constructs an Indexer. A nil logger is replaced with a no-op logger.
func New(port engine.Port, config Config, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultConfig().ChunkSize
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = DefaultConfig().MaxRetries
	}
	return &Indexer{port: port, config: config, logger: logger}
}

// Index writes docs to index in chunks of Config.ChunkSize, retrying failed
// items within each chunk up to Config.MaxRetries times before giving up on
// them.
func (ix *Indexer) Index(ctx context.Context, index string, docs []engine.Document) (Result, error) {
	start := time.Now()
	result := Result{Total: len(docs)}

	for s := 0; s < len(docs); s += ix.config.ChunkSize {
		e := s + ix.config.ChunkSize
		if e > len(docs) {
			e = len(docs)
		}
		chunk := docs[s:e]

		chunkResult, err := ix.indexChunkWithRetries(ctx, index, chunk)
		if err != nil {
			result.TookMs = time.Since(start).Milliseconds()
			return result, fmt.Errorf("indexing chunk [%d:%d): %w", s, e, err)
		}
		result.Succeeded += chunkResult.Succeeded
		result.Failed = append(result.Failed, chunkResult.Failed...)
		if chunkResult.Attempts > result.Attempts {
			result.Attempts = chunkResult.Attempts
		}
	}

	result.TookMs = time.Since(start).Milliseconds()
	return result, nil
}

// indexChunkWithRetries submits chunk in passes, retrying only the items
// still failing after each pass, up to Config.MaxRetries additional passes.
// A transport-level error from the engine port fails every item in that
// pass rather than the whole chunk's indexing attempt: those items become
// retry candidates for the next pass (or final failures, on the last one)
// instead of aborting the Index call.
func (ix *Indexer) indexChunkWithRetries(ctx context.Context, index string, chunk []engine.Document) (Result, error) {
	var result Result
	pending := chunk

	for pass := 0; pass <= ix.config.MaxRetries && len(pending) > 0; pass++ {
		if pass > 0 {
			ix.logger.Info("retrying failed bulk items",
				zap.String("target_index", index),
				zap.Int("pass", pass),
				zap.Int("count", len(pending)),
			)
		}
		result.Attempts = pass + 1

		items, err := ix.port.BulkIndex(ctx, index, pending)
		if err != nil {
			ix.logger.Warn("bulk index transport error, failing pass",
				zap.String("target_index", index),
				zap.Int("pass", pass),
				zap.Error(err),
			)
			if pass == ix.config.MaxRetries {
				for _, d := range pending {
					result.Failed = append(result.Failed, FailedItem{Document: d, Err: err, Attempt: pass + 1})
				}
				pending = nil
			}
			continue
		}

		var retry []engine.Document
		for _, item := range items {
			if item.Error == nil {
				result.Succeeded++
				continue
			}
			if pass == ix.config.MaxRetries {
				result.Failed = append(result.Failed, FailedItem{Document: item.Document, Err: item.Error, Attempt: pass + 1})
			} else {
				retry = append(retry, item.Document)
			}
		}
		pending = retry
	}

	return result, nil
}
