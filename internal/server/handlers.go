package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/hapaudit/pkg/bed"
	"github.com/matzehuels/hapaudit/pkg/buildinfo"
	"github.com/matzehuels/hapaudit/pkg/cache"
	"github.com/matzehuels/hapaudit/pkg/capcode"
	"github.com/matzehuels/hapaudit/pkg/errors"
	"github.com/matzehuels/hapaudit/pkg/flower"
	hio "github.com/matzehuels/hapaudit/pkg/io"
	"github.com/matzehuels/hapaudit/pkg/render/nodelink"
	"github.com/matzehuels/hapaudit/pkg/report"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

// graphSummary describes an uploaded document.
type graphSummary struct {
	Hash      string   `json:"hash"`
	Events    []string `json:"events"`
	Sequences int      `json:"sequences"`
	Blocks    int      `json:"blocks"`
	Flowers   int      `json:"flowers"`
}

func summarize(hash string, g *flower.Graph) graphSummary {
	sum := graphSummary{Hash: hash, Sequences: len(g.Sequences())}
	for _, e := range g.Events() {
		sum.Events = append(sum.Events, e.Header())
	}
	for _, f := range g.Flowers() {
		sum.Flowers++
		sum.Blocks += len(f.Blocks())
	}
	return sum
}

func (s *Server) handleUploadGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	hash, g, err := s.storeGraph(r, doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, summarize(hash, g))
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*hio.Document, error) {
	body := http.MaxBytesReader(w, r.Body, s.defaults.Server.MaxUploadBytes)
	if strings.Contains(r.Header.Get("Content-Type"), "toml") {
		return hio.ReadTOML(body)
	}
	return hio.ReadJSON(body)
}

// storeGraph builds doc, keeps its JSON in the cache under its hash and
// its graph in memory.
func (s *Server) storeGraph(r *http.Request, doc *hio.Document) (string, *flower.Graph, error) {
	for _, seq := range doc.Sequences {
		if seq.Bases == "" {
			return "", nil, errors.New(errors.ErrCodeInvalidInput, "sequence %q has no bases; uploaded documents must carry bases inline", seq.Name)
		}
	}
	g, err := doc.Build()
	if err != nil {
		return "", nil, err
	}
	hash := hio.Hash(doc)
	var buf bytes.Buffer
	if err := hio.WriteJSON(doc, &buf); err != nil {
		return "", nil, err
	}
	if err := s.runner.Cache.Set(r.Context(), s.runner.Keyer.GraphKey(hash), buf.Bytes(), cache.TTLGraph); err != nil {
		s.logger.Warn("graph not cached", "hash", hash, "error", err)
	}
	s.graphs.Add(hash, g)
	return hash, g, nil
}

// loadGraph returns the graph uploaded under hash.
func (s *Server) loadGraph(r *http.Request, hash string) (*flower.Graph, error) {
	if g, ok := s.graphs.Get(hash); ok {
		return g, nil
	}
	data, hit, err := s.runner.Cache.Get(r.Context(), s.runner.Keyer.GraphKey(hash))
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, errors.New(errors.ErrCodeNotFound, "graph %s not found; upload it to /graphs first", hash)
	}
	doc, err := hio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	g, err := doc.Build()
	if err != nil {
		return nil, err
	}
	s.graphs.Add(hash, g)
	return g, nil
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	g, err := s.loadGraph(r, hash)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summarize(hash, g))
}

var contentTypes = map[string]string{
	"dot": "text/vnd.graphviz",
	"svg": "image/svg+xml",
	"pdf": "application/pdf",
	"png": "image/png",
}

func (s *Server) handleRenderGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.loadGraph(r, chi.URLParam(r, "hash"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "svg"
	}
	opts := nodelink.Options{
		Flower:   q.Get("flower"),
		Events:   splitParam(q.Get("events")),
		Detailed: q.Get("detailed") == "true",
	}
	if id := q.Get("report"); id != "" {
		rep, err := s.store.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.Highlight = errorBlocks(rep)
	}
	scale := 2.0
	if v := q.Get("scale"); v != "" {
		if scale, err = strconv.ParseFloat(v, 64); err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameters, err, "scale"))
			return
		}
	}

	dot, err := nodelink.ToDOT(g, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := nodelink.Render(r.Context(), dot, format, scale)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeBody(w, contentTypes[format], out)
}

// errorBlocks lists the blocks bounded by an error-coded boundary.
func errorBlocks(rep *report.Report) []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range rep.Boundaries {
		if b.Code.IsError() && b.Block != "" && !seen[b.Block] {
			seen[b.Block] = true
			out = append(out, b.Block)
		}
	}
	return out
}

// auditRequest names a graph by hash or carries it inline. Empty target,
// other and parameter fields take the server's configured defaults.
type auditRequest struct {
	GraphHash string         `json:"graph_hash,omitempty"`
	Graph     *hio.Document  `json:"graph,omitempty"`
	Options   report.Options `json:"options"`
}

type auditResponse struct {
	GraphHash string           `json:"graph_hash"`
	Reports   []report.Summary `json:"reports"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.defaults.Server.MaxUploadBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode audit request"))
		return
	}

	var (
		g    *flower.Graph
		hash = req.GraphHash
		err  error
	)
	switch {
	case req.Graph != nil && hash != "":
		err = errors.New(errors.ErrCodeInvalidInput, "give either graph or graph_hash, not both")
	case req.Graph != nil:
		hash, g, err = s.storeGraph(r, req.Graph)
	case hash != "":
		g, err = s.loadGraph(r, hash)
	default:
		err = errors.New(errors.ErrCodeInvalidInput, "graph or graph_hash is required")
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.withDefaults(req.Options)
	opts.Logger = s.logger
	reps, err := s.runner.Run(r.Context(), g, hash, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := auditResponse{GraphHash: hash, Reports: make([]report.Summary, len(reps))}
	for i, rep := range reps {
		resp.Reports[i] = rep.Summary()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) withDefaults(o report.Options) report.Options {
	d := s.defaults.ReportOptions(o.Events...)
	if len(o.Targets) == 0 {
		o.Targets = d.Targets
	}
	if len(o.Others) == 0 {
		o.Others = d.Others
	}
	if o.Parameters == (capcode.Parameters{}) {
		o.Parameters = d.Parameters
	}
	if o.CacheSize == 0 {
		o.CacheSize = d.CacheSize
	}
	o.Substitutions = o.Substitutions || d.Substitutions
	o.IgnoreAdjacencyBases = o.IgnoreAdjacencyBases || d.IgnoreAdjacencyBases
	return o
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reps, err := s.store.List(r.Context(), r.URL.Query().Get("event"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]report.Summary, len(reps))
	for i, rep := range reps {
		out[i] = rep.Summary()
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func contigIntervals(rep *report.Report) []bed.Interval   { return rep.ContigPaths }
func scaffoldIntervals(rep *report.Report) []bed.Interval { return rep.Scaffolds }

func (s *Server) handleReportBED(pick func(*report.Report) []bed.Interval) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := bed.Write(&buf, pick(rep)); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeBody(w, "text/plain; charset=utf-8", buf.Bytes())
	}
}

func splitParam(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
