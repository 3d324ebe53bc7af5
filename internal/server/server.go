// Package server exposes tree and forest generation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arborgen/internal/config"
	"arborgen/internal/domain"
	"arborgen/internal/export"
	"arborgen/internal/forest"
	"arborgen/internal/generator"
	"arborgen/internal/logging"
	"arborgen/internal/lsystem"
	"arborgen/internal/species"
)

const defaultShutdownTimeout = 5 * time.Second

// maxBodyBytes bounds forest request bodies.
const maxBodyBytes = 1 << 20

type Server struct {
	cfg      *config.Config
	gen      *generator.Generator
	height   forest.HeightFunc
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	httpSrv  *http.Server
}

type Option func(*Server)

// WithHeight places forests on a heightfield instead of flat ground.
func WithHeight(h forest.HeightFunc) Option {
	return func(s *Server) {
		s.height = h
	}
}

// WithGatherer serves metrics from g on /metrics when server.metrics is set.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger. nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logging.OrNop(l)
	}
}

func New(cfg *config.Config, gen *generator.Generator, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	if gen == nil {
		return nil, errors.New("server: nil generator")
	}
	s := &Server{
		cfg:    cfg,
		gen:    gen,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/species", s.handleSpeciesList)
	r.Get("/species/{name}", s.handleSpecies)
	r.Get("/species/{name}/tree", s.handleTree)
	r.Post("/forest", s.handleForest)
	r.Post("/forest/scene", s.handleForestScene)
	if s.cfg.Server.Metrics && s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown incomplete", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type speciesSummary struct {
	Name        string  `json:"name"`
	Axiom       string  `json:"axiom"`
	Iterations  int     `json:"iterations"`
	Angle       float32 `json:"angle"`
	LeafPolicy  string  `json:"leaf_policy"`
	ScaleMin    float64 `json:"scale_min"`
	ScaleMax    float64 `json:"scale_max"`
	Fingerprint string  `json:"fingerprint"`
}

func (s *Server) handleSpeciesList(w http.ResponseWriter, r *http.Request) {
	catalog := s.gen.Catalog()
	out := make([]speciesSummary, 0, catalog.Len())
	for _, name := range catalog.Sorted() {
		t, err := catalog.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, summarize(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func summarize(t species.Template) speciesSummary {
	return speciesSummary{
		Name:        t.Name,
		Axiom:       t.Grammar.Axiom,
		Iterations:  t.Grammar.Iterations,
		Angle:       t.Turtle.Angle,
		LeafPolicy:  string(t.Turtle.LeafPolicy),
		ScaleMin:    t.ScaleMin,
		ScaleMax:    t.ScaleMax,
		Fingerprint: t.Fingerprint(),
	}
}

type speciesDetail struct {
	speciesSummary
	Rules          map[string][]lsystem.Rule `json:"rules"`
	Step           float32                   `json:"step"`
	Radius         float32                   `json:"radius"`
	RadiusTaper    float32                   `json:"radius_taper"`
	BranchRoll     float32                   `json:"branch_roll"`
	LengthScale    float32                   `json:"length_scale"`
	Jitter         float32                   `json:"jitter"`
	LeafSize       float32                   `json:"leaf_size"`
	Variation      float64                   `json:"variation"`
	Stochastic     bool                      `json:"stochastic"`
	RadialSegments int                       `json:"radial_segments"`
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	t, err := s.gen.Catalog().Lookup(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	rules := make(map[string][]lsystem.Rule, len(t.Grammar.Rules))
	for sym, rs := range t.Grammar.Rules {
		rules[string(sym)] = rs
	}
	writeJSON(w, http.StatusOK, speciesDetail{
		speciesSummary: summarize(t),
		Rules:          rules,
		Step:           t.Turtle.Step,
		Radius:         t.Turtle.Radius,
		RadiusTaper:    t.Turtle.RadiusTaper,
		BranchRoll:     t.Turtle.BranchRoll,
		LengthScale:    t.Turtle.LengthScale,
		Jitter:         t.Turtle.Jitter,
		LeafSize:       t.Geometry.LeafSize,
		Variation:      t.Variation,
		Stochastic:     t.Grammar.Stochastic(),
		RadialSegments: t.Geometry.RadialSegments,
	})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	seed, err := parseSeed(r.URL.Query().Get("seed"))
	if err != nil {
		http.Error(w, "invalid seed parameter", http.StatusBadRequest)
		return
	}

	res, err := s.gen.Generate(r.Context(), name, seed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("X-Arborgen-Cached", strconv.FormatBool(res.Cached))

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, res.Stats)
	case "obj":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := export.WriteOBJ(w, fmt.Sprintf("%s_%d", name, seed), res.Mesh); err != nil {
			s.logger.Error("write obj", "species", name, "seed", seed, "error", err)
		}
	case "tmsh":
		w.Header().Set("Content-Type", "application/octet-stream")
		if err := export.WriteBinary(w, res.Mesh); err != nil {
			s.logger.Error("write tmsh", "species", name, "seed", seed, "error", err)
		}
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
	}
}

func parseSeed(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// decodeForest reads a JSON body over the configured forest defaults. A mix
// in the body replaces the default mix.
func (s *Server) decodeForest(w http.ResponseWriter, r *http.Request) (generator.ForestRequest, error) {
	fc := s.cfg.Forest
	fc.Mix = make(map[string]float64, len(s.cfg.Forest.Mix))
	for k, v := range s.cfg.Forest.Mix {
		fc.Mix[k] = v
	}

	raw := map[string]any{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return generator.ForestRequest{}, domain.Invalid("body", "must be a JSON object")
	}
	if _, ok := raw["mix"]; ok {
		fc.Mix = nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      &fc,
		ErrorUnused: true,
	})
	if err != nil {
		return generator.ForestRequest{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return generator.ForestRequest{}, domain.Invalid("body", err.Error())
	}
	for name := range fc.Mix {
		if _, err := s.gen.Catalog().Lookup(name); err != nil {
			return generator.ForestRequest{}, domain.Invalid("mix."+name, "names an unknown species")
		}
	}

	cfg := *s.cfg
	cfg.Forest = fc
	return cfg.ForestRequest(s.height), nil
}

func (s *Server) handleForest(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeForest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	layout, err := s.gen.Compose(req)
	unmet := errors.Is(err, domain.ErrDensityUnmet)
	if err != nil && !unmet {
		s.writeError(w, err)
		return
	}
	w.Header().Set("X-Arborgen-Density-Unmet", strconv.FormatBool(unmet))

	doc := export.NewLayoutDoc(uuid.NewString(), layout)
	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		format = "json"
	case "yaml", "yml":
		w.Header().Set("Content-Type", "application/yaml")
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return
	}
	if err := export.WriteLayout(w, format, doc); err != nil {
		s.logger.Error("write layout", "id", doc.ID, "error", err)
	}
}

func (s *Server) handleForestScene(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeForest(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	f, err := s.gen.Forest(r.Context(), req)
	unmet := errors.Is(err, domain.ErrDensityUnmet)
	if err != nil && !unmet {
		s.writeError(w, err)
		return
	}
	w.Header().Set("X-Arborgen-Density-Unmet", strconv.FormatBool(unmet))
	w.Header().Set("X-Arborgen-Trees", strconv.Itoa(len(f.Layout.Placements)))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := export.WriteOBJ(w, "forest", f.Scene()); err != nil {
		s.logger.Error("write scene", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSpeciesNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrLengthExceeded), errors.Is(err, domain.ErrUnbalancedStack):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}
