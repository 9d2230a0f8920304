package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Controller registers a group of routes on the router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

type HTTPServer struct {
	Controllers    []Controller
	Middlewares    []mux.MiddlewareFunc
	AllowedOrigins []string

	mu  sync.Mutex
	srv *http.Server
}

func NewHTTPServer(controllers []Controller, middlewares []mux.MiddlewareFunc, allowedOrigins []string) *HTTPServer {
	return &HTTPServer{
		Controllers:    controllers,
		Middlewares:    middlewares,
		AllowedOrigins: allowedOrigins,
	}
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.Middlewares...)
	for _, controller := range s.Controllers {
		controller.Register(r)
	}
	return r
}

func (s *HTTPServer) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(gziphandler.GzipHandler(s.Router()))
}

// Start serves until Shutdown is called or the listener fails. A
// Shutdown-initiated stop returns nil.
func (s *HTTPServer) Start(socketAddress string) error {
	s.mu.Lock()
	s.srv = &http.Server{Addr: socketAddress, Handler: s.Handler()}
	srv := s.srv
	s.mu.Unlock()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight
// requests up to ctx's deadline.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
