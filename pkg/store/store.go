// Package store persists audit reports.
//
// Three backends implement [report.Store]:
//   - memory: in-process storage for tests and the standalone server
//   - file: one JSON file per report, for CLI use
//   - mongo: a MongoDB collection, for shared deployments
//
// # Usage
//
//	// CLI
//	st, err := store.NewFileStore("") // Uses ~/.cache/hapaudit/reports/
//
//	// Server
//	st, err := store.NewMongoStore(ctx, store.MongoConfig{
//	    URI:      "mongodb://localhost:27017",
//	    Database: "hapaudit",
//	})
//
//	runner := report.NewRunner(c, nil, logger)
//	runner.Store = st
//
// Stores never keep Counts: reports are recounted from their boundaries
// when loaded.
package store

import (
	"sort"

	"github.com/matzehuels/hapaudit/pkg/report"
)

// newestFirst orders reports by creation time, newest first, with ID as
// the tie breaker.
func newestFirst(rs []*report.Report) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}
