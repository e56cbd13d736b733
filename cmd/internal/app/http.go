package app

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/api"
)

const serviceName = "Teacher Poli API Server"

// httpDeps is what the route table needs from the App.
type httpDeps struct {
	log      Logger
	cfg      Config
	dbPool   *pgxpool.Pool
	registry *prometheus.Registry
	auth     *api.Handler
	started  time.Time
	version  string
}

func registerHTTP(mux *http.ServeMux, d httpDeps) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"uptime":    time.Since(d.started).Seconds(),
		})
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.cfg.ReadinessRequireDB && d.dbPool == nil {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}
		if d.dbPool != nil {
			if err := PingDB(r.Context(), d.dbPool, 2*time.Second); err != nil {
				d.log.Info("readyz.db.not_ready", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if d.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry}))
	}

	var routes []string
	if d.auth != nil {
		d.auth.Register(mux)
		routes = d.auth.Routes()
	}

	index := indexHandler(d.version, routes)
	var static http.Handler
	if d.cfg.StaticDir != "" {
		static = spaHandler(d.cfg.StaticDir)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case isAPIPath(r.URL.Path):
			notFound(w, r)
		case static != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead):
			static.ServeHTTP(w, r)
		case static == nil && r.URL.Path == "/" && r.Method == http.MethodGet:
			index.ServeHTTP(w, r)
		default:
			notFound(w, r)
		}
	})
}

func indexHandler(version string, routes []string) http.Handler {
	endpoints := append([]string{"GET /health"}, routes...)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   serviceName,
			"version":   version,
			"status":    "running",
			"endpoints": endpoints,
		})
	})
}

// spaHandler serves files from dir and falls back to index.html for
// unknown paths so client-side routes survive a reload.
func spaHandler(dir string) http.Handler {
	root := os.DirFS(dir)
	files := http.FileServerFS(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = "."
		}
		if st, err := fs.Stat(root, name); err == nil && !st.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFileFS(w, r, root, "index.html")
	})
}

func isAPIPath(p string) bool {
	for _, prefix := range []string{"/auth/", "/webhook/", "/debug/", "/api/"} {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "Endpoint não encontrado",
		"path":    r.URL.RequestURI(),
	})
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.WriteHeader(http.StatusMethodNotAllowed)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
