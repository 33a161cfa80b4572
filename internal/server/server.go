package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/trendystore/authserver/config"
	"github.com/trendystore/authserver/internal/auth"
	"github.com/trendystore/authserver/internal/db"
	"github.com/trendystore/authserver/internal/handlers"
	"github.com/trendystore/authserver/internal/logging"
	"github.com/trendystore/authserver/internal/mq"
	"github.com/trendystore/authserver/internal/services"
	"github.com/trendystore/authserver/internal/store"
)

const requestTimeout = 60 * time.Second

// UserStore is the user persistence the services need.
type UserStore interface {
	services.UserRepository
	services.CredentialRepository
}

// RoleStore is the role persistence the services need.
type RoleStore interface {
	services.RoleRepository
	services.RoleLookup
	services.UserRoleLister
}

// Services groups the use-case layer mounted by the router.
type Services struct {
	Auth   *services.AuthService
	Users  *services.UserService
	Roles  *services.RoleService
	Tokens *auth.TokenIssuer
}

// NewServices builds the services over the given stores.
func NewServices(cfg config.AuthConfig, users UserStore, roles RoleStore, opts ...services.Option) (Services, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return Services{}, errors.New("JWT_SECRET is required")
	}
	tokens, err := auth.NewTokenIssuer(secret, cfg.TokenTTL)
	if err != nil {
		return Services{}, err
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	return Services{
		Auth:   services.NewAuthService(users, roles, hasher, tokens, cfg.MaxLoginAttempts, opts...),
		Users:  services.NewUserService(users, roles, hasher, opts...),
		Roles:  services.NewRoleService(roles, opts...),
		Tokens: tokens,
	}, nil
}

// NewRouter mounts every route under cfg.BasePath plus /healthz at the root.
func NewRouter(cfg config.Config, svc Services, log logging.Logger) *chi.Mux {
	checks := handlers.NewPreChecks(svc.Users, svc.Roles, log)
	gate := handlers.NewGate(svc.Tokens, svc.Auth, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.RequestLogger(log),
		middleware.Timeout(requestTimeout),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{handlers.TokenHeader, "Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
		}),
	)
	router.Get("/healthz", handlers.Healthz)

	basePath := "/" + strings.Trim(cfg.BasePath, "/")
	router.Route(basePath, func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, svc.Auth, svc.Users, checks, log)
		})
		r.Route("/user", func(r chi.Router) {
			handlers.UserRouter(r, svc.Users, checks, log)
		})
		r.Route("/role", func(r chi.Router) {
			handlers.RoleRouter(r, svc.Roles, checks, log)
		})
		r.Route("/test", func(r chi.Router) {
			handlers.TestRouter(r, gate)
		})
	})
	return router
}

// Server wraps the HTTP server and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *mq.MQ
	log        logging.Logger
}

// New connects to Postgres and the optional event bus and builds the server.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	bus, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	opts := []services.Option{services.WithLogger(log)}
	if bus != nil {
		opts = append(opts, services.WithEvents(mq.NewEventPublisher(bus, cfg.MQ.Channel)))
		log.Info(ctx, "account events enabled", "backend", cfg.MQ.Backend, "channel", cfg.MQ.Channel)
	}

	svc, err := NewServices(cfg.Auth, store.NewUserRepository(dbConn), store.NewRoleRepository(dbConn), opts...)
	if err != nil {
		closeAll(dbConn, bus)
		return nil, err
	}

	router := NewRouter(cfg, svc, log)

	port := cfg.ServerPort
	if port == 0 {
		port = 8088
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the bus and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	closeAll(s.db, s.bus)
	return err
}

func closeAll(dbConn *sql.DB, bus *mq.MQ) {
	if bus != nil {
		_ = bus.Close()
	}
	if dbConn != nil {
		_ = dbConn.Close()
	}
}
