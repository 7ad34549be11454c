package webd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/rotblauer/trackplay/api"
	"github.com/rotblauer/trackplay/params"
	"golang.org/x/time/rate"
)

// WebDaemon serves one playback session over HTTP and a websocket.
type WebDaemon struct {
	Config  *params.WebDaemonConfig
	Session *api.Session

	logger         *slog.Logger
	started        time.Time
	melodyInstance *melody.Melody
	uploadLimiter  *rate.Limiter

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewWebDaemon(config *params.WebDaemonConfig) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	session, err := api.NewSession(config.Playback)
	if err != nil {
		return nil, err
	}
	return &WebDaemon{
		Config:        config,
		Session:       session,
		logger:        slog.With("d", "web"),
		started:       time.Now(),
		uploadLimiter: rate.NewLimiter(config.UploadRate, config.UploadBurst),
		quit:          make(chan struct{}),
	}, nil
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully and closes the session.
func (s *WebDaemon) Run(ctx context.Context) error {
	ln, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	server := &http.Server{Handler: s.NewRouter()}

	s.logger.Info("Starting web daemon", "network", s.Config.Network, "address", ln.Addr().String())
	if s.Config.MetricsLogInterval > 0 {
		go s.Session.Player().LogMetrics(ctx, s.Config.MetricsLogInterval)
	}
	errs := make(chan error, 1)
	go func() {
		errs <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down web daemon")
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errs:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close disconnects websocket clients, stops broadcasting and closes the session.
func (s *WebDaemon) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		if s.melodyInstance != nil {
			if err := s.melodyInstance.Close(); err != nil {
				s.logger.Warn("Failed to close websocket hub", "error", err)
			}
		}
		s.Session.Close()
		s.wg.Wait()
	})
}

func (s *WebDaemon) NewRouter() *mux.Router {
	s.initMelody()

	router := mux.NewRouter().StrictSlash(false)
	router.Use(s.loggingMiddleware)
	router.Use(ghandlers.RecoveryHandler(ghandlers.PrintRecoveryStack(true)))

	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.melodyInstance.HandleRequest(w, r); err != nil {
			s.logger.Warn("Websocket upgrade failed", "error", err)
		}
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))
	apiJSONRoutes.Use(ghandlers.CompressHandler)

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)

	uploadRoutes := apiJSONRoutes.NewRoute().Subrouter()
	uploadRoutes.Use(rateLimitMiddlewareFunc(s.uploadLimiter))
	uploadRoutes.Path("/tracks").HandlerFunc(s.handleUploadTracks).Methods(http.MethodPost)

	apiJSONRoutes.Path("/tracks").HandlerFunc(s.handleListTracks).Methods(http.MethodGet)
	apiJSONRoutes.Path("/tracks").HandlerFunc(s.handleResetTracks).Methods(http.MethodDelete)
	apiJSONRoutes.Path("/tracks/{id:[0-9]+}").HandlerFunc(s.handleGetTrack).Methods(http.MethodGet)
	apiJSONRoutes.Path("/tracks/{id:[0-9]+}/profile").HandlerFunc(s.handleGetProfile).Methods(http.MethodGet)

	apiJSONRoutes.Path("/playback").HandlerFunc(s.handleGetFrame).Methods(http.MethodGet)
	apiJSONRoutes.Path("/playback/start").HandlerFunc(s.handleStart).Methods(http.MethodPost)
	apiJSONRoutes.Path("/playback/pause").HandlerFunc(s.handlePause).Methods(http.MethodPost)
	apiJSONRoutes.Path("/playback/restart").HandlerFunc(s.handleRestart).Methods(http.MethodPost)
	apiJSONRoutes.Path("/playback/seek").HandlerFunc(s.handleSeek).Methods(http.MethodPost)
	apiJSONRoutes.Path("/playback/speed").HandlerFunc(s.handleSpeed).Methods(http.MethodPost)

	apiJSONRoutes.Path("/map").HandlerFunc(s.handleMap).Methods(http.MethodGet)
	apiJSONRoutes.Path("/readouts").HandlerFunc(s.handleReadouts).Methods(http.MethodGet)

	apiJSONRoutes.Path("/markers").HandlerFunc(s.handleListMarkers).Methods(http.MethodGet)
	apiJSONRoutes.Path("/markers").HandlerFunc(s.handleAddMarker).Methods(http.MethodPost)
	apiJSONRoutes.Path("/markers/bullseye").HandlerFunc(s.handleAddBullsEye).Methods(http.MethodPost)
	apiJSONRoutes.Path("/markers/{id:[0-9]+}").HandlerFunc(s.handleRemoveMarker).Methods(http.MethodDelete)

	return router
}
