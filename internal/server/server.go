package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dsdash/internal/analysis"
	"github.com/KaramelBytes/dsdash/internal/dashboard"
	"github.com/KaramelBytes/dsdash/internal/dataset"
	"github.com/KaramelBytes/dsdash/internal/export"
)

// Options configures the API server.
type Options struct {
	Defaults      dashboard.Params
	MaxIndustries int
	MaxCities     int
}

// Server serves the dashboard API over one immutable dataset.
type Server struct {
	ds       *dataset.Dataset
	opt      Options
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics
	engine   *gin.Engine
}

// New builds the server and its routes. A nil logger disables request logging.
func New(ds *dataset.Dataset, opt Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	s := &Server{
		ds:       ds,
		opt:      opt,
		logger:   logger,
		registry: reg,
		metrics:  newMetrics(reg),
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the gin engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.metrics.middleware())

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/options", s.options)
		api.GET("/overview", s.overview)
		api.GET("/salary", section(s, "salary", (*dashboard.View).Salary))
		api.GET("/jobs", section(s, "jobs", (*dashboard.View).Jobs))
		api.GET("/ratio", section(s, "ratio", (*dashboard.View).Ratio))
		api.GET("/dimensions", section(s, "dimensions", (*dashboard.View).Dimensions))
		api.GET("/scores", section(s, "scores", (*dashboard.View).Scores))
		api.GET("/rankings", s.rankings)
		api.GET("/report", s.report)
		api.GET("/export/rankings.csv", s.exportRankings)
		api.GET("/export/postings.csv", s.exportPostings)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		s.logger.Info("request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.String("query", ctx.Request.URL.RawQuery),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) view(ctx *gin.Context, name string) (*dashboard.View, bool) {
	p, err := parseParams(ctx, s.opt.Defaults)
	if err != nil {
		s.fail(ctx, name, err)
		return nil, false
	}
	v := dashboard.NewView(s.ds, p)
	s.metrics.rowsVec.WithLabelValues(name).Observe(float64(len(v.Rows())))
	return v, true
}

func section[T any](s *Server, name string, fn func(*dashboard.View) (*T, error)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		v, ok := s.view(ctx, name)
		if !ok {
			return
		}
		out, err := fn(v)
		if err != nil {
			s.fail(ctx, name, err)
			return
		}
		ctx.JSON(http.StatusOK, out)
	}
}

func (s *Server) options(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dashboard.BuildOptions(s.ds, s.opt.MaxIndustries, s.opt.MaxCities))
}

func (s *Server) overview(ctx *gin.Context) {
	v, ok := s.view(ctx, "overview")
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, v.Overview())
}

func (s *Server) rankings(ctx *gin.Context) {
	v, ok := s.view(ctx, "rankings")
	if !ok {
		return
	}
	rk, err := v.Rankings(v.Params().View)
	if err != nil {
		s.fail(ctx, "rankings", err)
		return
	}
	ctx.JSON(http.StatusOK, rk)
}

func (s *Server) report(ctx *gin.Context) {
	p, err := parseParams(ctx, s.opt.Defaults)
	if err != nil {
		s.fail(ctx, "report", err)
		return
	}
	rep, err := dashboard.Build(ctx.Request.Context(), s.ds, p)
	if err != nil {
		s.fail(ctx, "report", err)
		return
	}
	if ctx.Query("format") == "markdown" {
		ctx.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(rep.Markdown()))
		return
	}
	ctx.JSON(http.StatusOK, rep)
}

func (s *Server) exportRankings(ctx *gin.Context) {
	v, ok := s.view(ctx, "export_rankings")
	if !ok {
		return
	}
	rk, err := v.Rankings(v.Params().View)
	if err != nil {
		s.fail(ctx, "export_rankings", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteRankings(&buf, rk.Rows); err != nil {
		s.fail(ctx, "export_rankings", err)
		return
	}
	s.sendCSV(ctx, rk.Title, buf.Bytes())
}

func (s *Server) exportPostings(ctx *gin.Context) {
	v, ok := s.view(ctx, "export_postings")
	if !ok {
		return
	}
	if len(v.Rows()) == 0 {
		s.fail(ctx, "export_postings", fmt.Errorf("postings: %w", analysis.ErrEmptyAfterFilter))
		return
	}
	var buf bytes.Buffer
	if err := export.WritePostings(&buf, v.Rows()); err != nil {
		s.fail(ctx, "export_postings", err)
		return
	}
	s.sendCSV(ctx, "ds_postings", buf.Bytes())
}

func (s *Server) sendCSV(ctx *gin.Context, title string, data []byte) {
	name := export.FileName(title, time.Now())
	ctx.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr), zap.Int("rows", s.ds.Len()))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
