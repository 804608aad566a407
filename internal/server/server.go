// Package server exposes the annotation workflow over HTTP: instance
// display, link saving with navigation, live predictions and dataset
// editing for bookmarklets.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jlonij/dac-web/internal/annotate"
	"github.com/jlonij/dac-web/internal/dataset"
	"github.com/jlonij/dac-web/internal/linker"
	"github.com/jlonij/dac-web/internal/model"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Services are the collaborators the server talks to.
type Services interface {
	annotate.NERProvider

	// Predict asks the linker for a mention, optionally with candidates.
	Predict(ctx context.Context, url, ne string, candidates bool) (linker.LinkedEntity, error)

	// Candidates returns the candidate links offered for a mention.
	Candidates(ctx context.Context, url, ne string) ([]model.Candidate, error)

	// ArticleText returns the plain text of an article.
	ArticleText(ctx context.Context, url string) (string, error)
}

// Store is the dataset persistence the server needs.
type Store interface {
	dataset.Loader
	dataset.VersionedStore

	// AtomicReplace persists ds under the size-delta guard.
	AtomicReplace(name string, ds *model.Dataset, maxDelta int64) error
}

// Options configures a Server.
type Options struct {
	// Store holds the datasets.
	Store Store

	// Services are the linker, NER and OCR collaborators.
	Services Services

	// Siblings returns the datasets that must not share articles.
	Siblings annotate.SiblingFunc

	// LinkMaxDelta bounds the file size change of a link save.
	LinkMaxDelta int64

	// EditMaxDelta bounds the file size change of an add or delete.
	EditMaxDelta int64

	// ConflictDetection enables version-checked writes.
	ConflictDetection bool

	// Logger receives request and error logs.
	Logger *slog.Logger
}

// Server serves the annotation interface.
type Server struct {
	store             Store
	services          Services
	mutator           *annotate.Mutator
	linkMaxDelta      int64
	editMaxDelta      int64
	conflictDetection bool
	logger            *slog.Logger
	router            *gin.Engine
}

// New creates a Server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Store == nil || opts.Services == nil {
		return nil, errors.New("server requires a store and services")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mutatorOpts := []annotate.Option{annotate.WithLogger(logger)}
	if opts.Siblings != nil {
		mutatorOpts = append(mutatorOpts, annotate.WithSiblings(opts.Siblings))
	}

	s := &Server{
		store:             opts.Store,
		services:          opts.Services,
		mutator:           annotate.NewMutator(opts.Services, opts.Store, mutatorOpts...),
		linkMaxDelta:      opts.LinkMaxDelta,
		editMaxDelta:      opts.EditMaxDelta,
		conflictDetection: opts.ConflictDetection,
		logger:            logger,
	}
	s.router = s.setupRouter()
	return s, nil
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/predict", s.predict)
	r.GET("/:name", s.display)
	r.POST("/:name", s.saveLinks)
	r.GET("/:name/edit", s.edit)

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// load reads a dataset, with its version when conflict detection is on.
func (s *Server) load(name string) (*model.Dataset, dataset.Version, error) {
	if s.conflictDetection {
		return s.store.LoadVersioned(name)
	}
	ds, err := s.store.Load(name)
	return ds, "", err
}

// persist writes ds, version-checked when conflict detection is on and the
// client supplied the version it edited.
func (s *Server) persist(name string, ds *model.Dataset, version string, maxDelta int64) error {
	if s.conflictDetection && version != "" {
		return s.store.CompareAndSwap(name, dataset.Version(version), ds, maxDelta)
	}
	return s.store.AtomicReplace(name, ds, maxDelta)
}
