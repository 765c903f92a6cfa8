package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"road-smart-optimizer/internal/database"
	"road-smart-optimizer/internal/distance"
	"road-smart-optimizer/internal/geocoding"
	"road-smart-optimizer/internal/handlers"
	"road-smart-optimizer/internal/routing"
	"road-smart-optimizer/internal/sqlite"
	"road-smart-optimizer/web"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	handler    *handlers.Handler
	db         database.DataStore
	listener   net.Listener
	addr       string
}

// Config holds server configuration
type Config struct {
	Addr string // e.g., "127.0.0.1:8080" or "127.0.0.1:0" for random port
}

// New creates and initializes a new server (does not start it)
func New(cfg Config) (*Server, error) {
	appConfig, err := database.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log.Printf("Initializing data store: backend=%s", appConfig.Backend)
	db, err := openDataStore(appConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}

	geocoder := geocoding.NewCachedGeocoder(
		geocoding.NewDefaultGeocoder(appConfig.GoogleAPIKey),
		db.GeocodeCache(),
	)

	handler := &handlers.Handler{
		DB:       db,
		Geocoder: geocoder,
		Session:  routing.NewSession(distance.Kilometers),
	}

	mux := setupRoutes(handler, web.Static)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      loggingMiddleware(corsMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		db:         db,
		addr:       cfg.Addr,
	}, nil
}

// openDataStore opens the persistence backend named in the config. The
// SQLite store carries its geocode cache in the database; the JSON store
// pairs the plans file with a cache file under the app cache directory.
func openDataStore(cfg *database.AppConfig) (database.DataStore, error) {
	if cfg.Backend == database.BackendSQLite {
		return sqlite.New(cfg.DatabasePath)
	}

	cachePath, err := database.GetGeocodeCachePath()
	if err != nil {
		return nil, err
	}
	geocodeCache, err := database.NewFileGeocodeCache(cachePath)
	if err != nil {
		return nil, err
	}

	plansPath, err := database.GetPlansFilePath()
	if err != nil {
		return nil, err
	}
	return database.NewJSONStore(plansPath, geocodeCache)
}

// Start starts the server and returns the actual address (useful for random port)
func (s *Server) Start() (string, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = listener
	actualAddr := listener.Addr().String()
	log.Printf("Starting server on %s", actualAddr)

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return actualAddr, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

// setupRoutes configures all HTTP routes
func setupRoutes(handler *handlers.Handler, staticFS fs.FS) *http.ServeMux {
	mux := http.NewServeMux()

	staticSubFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-filesystem: %v", err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSubFS))))

	mux.HandleFunc("/api/v1/health", handler.HandleHealthCheck)

	mux.HandleFunc("/api/v1/open-url", handleOpenURL)

	mux.HandleFunc("/api/v1/tours/compute", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleComputeTour(w, r)
	})

	mux.HandleFunc("/api/v1/address-search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.HandleAddressSearch(w, r)
	})

	mux.HandleFunc("/api/v1/plans", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.HandleListPlans(w, r)
		case http.MethodPost:
			handler.HandleCreatePlan(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/plans/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/plans/" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodGet:
			handler.HandleGetPlan(w, r)
		case http.MethodPut:
			handler.HandleUpdatePlan(w, r)
		case http.MethodDelete:
			handler.HandleDeletePlan(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// The planner UI is a single embedded page
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		content, err := fs.ReadFile(staticFS, "static/index.html")
		if err != nil {
			log.Printf("[ERROR] Failed to read index page: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(content)
	})

	return mux
}

// handleOpenURL opens a URL in the system's default browser
func handleOpenURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}

	// Only allow http/https URLs for security
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		http.Error(w, "Only HTTP/HTTPS URLs are allowed", http.StatusBadRequest)
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", req.URL)
	case "darwin":
		cmd = exec.Command("open", req.URL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", req.URL)
	default:
		http.Error(w, "Unsupported platform", http.StatusInternalServerError)
		return
	}

	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open URL: %v", err)
		http.Error(w, "Failed to open URL", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, lrw.statusCode, duration)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Only allow localhost origins (Wails webview and local development)
		if origin == "" ||
			strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") ||
			strings.HasPrefix(origin, "wails://") {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
