// Package idhash computes deterministic identifiers so that repeated
// runs, permuted inputs, and independent engine implementations all name
// the same event the same way.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(ticker|announcement_date|effective_date|index_name)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(ticker string, announced, effective time.Time, indexName string) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		ticker,
		domain.FormatDate(announced),
		domain.FormatDate(effective),
		indexName,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeResultID computes a deterministic result_id for one event
// simulated under one strategy.
// Formula: SHA256(event_id|strategy)
func ComputeResultID(eventID string, strategy domain.Strategy) string {
	data := fmt.Sprintf("%s|%s", eventID, string(strategy))

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
