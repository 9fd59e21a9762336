package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
)

// Keyer generates cache keys.
type Keyer interface {
	// GraphKey identifies an imported graph document by content hash.
	GraphKey(graphHash string) string

	// ReportKey identifies the report of one event over one graph.
	ReportKey(graphHash, event string, opts ReportKeyOpts) string
}

// ReportKeyOpts holds every option that changes a report.
type ReportKeyOpts struct {
	Targets              []string `json:"targets"`
	Others               []string `json:"others"`
	MinimumNCount        int64    `json:"minimum_n_count"`
	MaxInsertionLength   int64    `json:"max_insertion_length"`
	MaxDeletionLength    int64    `json:"max_deletion_length"`
	IgnoreAdjacencyBases bool     `json:"ignore_adjacency_bases"`
	Substitutions        bool     `json:"substitutions"`
}

// canonical returns o with sorted event lists, so that the order in which
// a user names targets never changes the key.
func (o ReportKeyOpts) canonical() ReportKeyOpts {
	o.Targets = slices.Sorted(slices.Values(o.Targets))
	o.Others = slices.Sorted(slices.Values(o.Others))
	return o
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey returns "graph:<hash>".
func (k *DefaultKeyer) GraphKey(graphHash string) string {
	return "graph:" + graphHash
}

// ReportKey returns "report:<event>:<hash>", the hash covering the graph
// and the canonical options.
func (k *DefaultKeyer) ReportKey(graphHash, event string, opts ReportKeyOpts) string {
	data, _ := json.Marshal(struct {
		Graph string        `json:"graph"`
		Opts  ReportKeyOpts `json:"opts"`
	}{graphHash, opts.canonical()})
	return "report:" + event + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. Graph documents are identified by
// the hash of their canonical JSON.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var _ Keyer = (*DefaultKeyer)(nil)
