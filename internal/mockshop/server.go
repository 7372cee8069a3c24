package mockshop

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/stockroom/internal/shop"
)

type contextKey string

const contextKeyUser contextKey = "user"

const tokenTTL = 12 * time.Hour

// Account is a login the server accepts.
type Account struct {
	User     shop.User
	Password string
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger routes request logging through l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSecret sets the HMAC key for issued tokens.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithClock replaces time.Now for timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server is an in-memory storefront API. It backs the serve-dev command and
// the integration tests of the client packages.
type Server struct {
	mu        sync.Mutex
	accounts  map[string]Account
	products  map[string]shop.Product
	orders    map[string]shop.Order
	inventory map[string]shop.InventoryItem
	images    map[string][]byte
	seq       int

	faults  map[string][]int
	calls   map[string]int
	latency time.Duration

	secret []byte
	now    func() time.Time
	logger *slog.Logger
}

// New returns an empty server. Call Seed for demo data.
func New(opts ...Option) *Server {
	s := &Server{
		accounts:  make(map[string]Account),
		products:  make(map[string]shop.Product),
		orders:    make(map[string]shop.Order),
		inventory: make(map[string]shop.InventoryItem),
		images:    make(map[string][]byte),
		faults:    make(map[string][]int),
		calls:     make(map[string]int),
		secret:    []byte("stockroom-dev"),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, s.trace, s.inject)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", s.handleLogin)
		api.Get("/products", s.handleListProducts)
		api.Get("/products/{id}", s.handleGetProduct)

		api.Group(func(authed chi.Router) {
			authed.Use(s.requireUser)
			authed.Get("/orders", s.handleListOrders)
			authed.Post("/orders", s.handleCreateOrder)
			authed.Get("/orders/{id}", s.handleGetOrder)

			authed.Group(func(admin chi.Router) {
				admin.Use(requireAdmin)
				admin.Post("/products", s.handleCreateProduct)
				admin.Put("/products/{id}", s.handleUpdateProduct)
				admin.Delete("/products/{id}", s.handleDeleteProduct)
				admin.Post("/products/{id}/image", s.handleUploadImage)
				admin.Put("/orders/{id}/status", s.handleUpdateOrderStatus)
				admin.Get("/inventory", s.handleListInventory)
				admin.Get("/inventory/{id}", s.handleGetInventory)
				admin.Put("/inventory/{id}", s.handleSetInventory)
			})
		})
	})
	return r
}

// ListenAndServe serves Router on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev storefront listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// FailNext makes the next len(statuses) requests for "METHOD /path" answer
// with the given statuses instead of reaching the handler.
func (s *Server) FailNext(method, path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := callKey(method, path)
	s.faults[key] = append(s.faults[key], statuses...)
}

// SetLatency delays every request by d, or until the client gives up.
func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// Calls reports how many requests reached "METHOD /path", faulted ones
// included.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[callKey(method, path)]
}

// TotalCalls reports every request seen.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func callKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

func (s *Server) trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("dev storefront request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := callKey(r.Method, r.URL.Path)
		s.mu.Lock()
		s.calls[key]++
		latency := s.latency
		status := 0
		if queued := s.faults[key]; len(queued) > 0 {
			status = queued[0]
			s.faults[key] = queued[1:]
		}
		s.mu.Unlock()

		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) signToken(u shop.User) (string, error) {
	now := s.now().UTC()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
			return s.secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(s.now),
		)
		if err != nil || !parsed.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		sub, _ := claims["sub"].(string)
		user, ok := s.userByID(sub)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unknown account")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !userFromContext(r.Context()).IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFromContext(ctx context.Context) shop.User {
	u, _ := ctx.Value(contextKeyUser).(shop.User)
	return u
}

func (s *Server) userByID(id string) (shop.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.User.ID == id {
			return a.User, true
		}
	}
	return shop.User{}, false
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
