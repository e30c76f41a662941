package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/memorymatch/pkg/api/handlers"
	"github.com/cbodonnell/memorymatch/pkg/api/middleware"
	authproviders "github.com/cbodonnell/memorymatch/pkg/auth/providers"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/repositories"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port        int
	TLS         *TLSConfig
	AllowOrigin string
	// AuthProvider is optional. Without it participant ids are taken from request bodies.
	AuthProvider authproviders.AuthProvider
	Rooms        handlers.RoomService
	Repository   repositories.Repository
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the routes of the room and leaderboard endpoints.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.NewCORSMiddleware(opts.AllowOrigin))
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	roomsRouter := router.PathPrefix("/rooms").Subrouter()
	roomsRouter.Use(middleware.NewAuthMiddleware(opts.AuthProvider))
	roomsRouter.HandleFunc("", handlers.HandleCreateRoom(opts.Rooms)).Methods(http.MethodPost)
	roomsRouter.HandleFunc("/{code}", handlers.HandleGetRoom(opts.Rooms)).Methods(http.MethodGet)
	roomsRouter.HandleFunc("/{code}/join", handlers.HandleJoinRoom(opts.Rooms)).Methods(http.MethodPost)
	roomsRouter.HandleFunc("/{code}/leave", handlers.HandleLeaveRoom(opts.Rooms)).Methods(http.MethodPost)

	if opts.Repository != nil {
		router.HandleFunc("/leaderboard", handlers.HandleSubmitScore(opts.Repository)).Methods(http.MethodPost)
		router.HandleFunc("/leaderboard", handlers.HandleTopScores(opts.Repository)).Methods(http.MethodGet)
		router.HandleFunc("/leaderboard/players/{player}", handlers.HandlePlayerScores(opts.Repository)).Methods(http.MethodGet)
	}

	return router
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
