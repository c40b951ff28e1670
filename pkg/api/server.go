// Package api implements the HTTP surface over the version reconstruction
// engine: a thin JSON API mirroring the original deployment's endpoints,
// kept interface-thin by design since auth, routing, and presentation are
// non-core external collaborators.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/snapvault/browser/internal/config"
	"github.com/snapvault/browser/internal/version"
	browsererrors "github.com/snapvault/browser/pkg/errors"
	"github.com/snapvault/browser/pkg/health"
	"github.com/snapvault/browser/pkg/metrics"
	"github.com/snapvault/browser/pkg/types"
	"github.com/snapvault/browser/pkg/utils"
)

// ServerConfig configures the HTTP server's own listener settings,
// independent of the adapters and auth it serves.
type ServerConfig struct {
	Address       string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	EnableCORS    bool
	EnableMetrics bool
}

// DefaultServerConfig mirrors the defaults the original deployment runs with.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:       ":8080",
		ReadTimeout:   10 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   60 * time.Second,
		EnableCORS:    true,
		EnableMetrics: true,
	}
}

// Server is the HTTP surface over the object store adapter, snapshot
// adapter, and version mapper.
type Server struct {
	httpServer *http.Server
	config     ServerConfig

	objects   types.ObjectStore
	snapshots types.SnapshotStore
	mapper    *version.Mapper
	remote    *config.RemoteFilter
	paging    config.PagingConfig

	health  *health.Tracker
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New builds the HTTP server and wires its routes.
func New(
	cfg ServerConfig,
	authCfg config.AuthConfig,
	paging config.PagingConfig,
	objects types.ObjectStore,
	snapshots types.SnapshotStore,
	mapper *version.Mapper,
	remote *config.RemoteFilter,
	healthTracker *health.Tracker,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config:    cfg,
		objects:   objects,
		snapshots: snapshots,
		mapper:    mapper,
		remote:    remote,
		paging:    paging,
		health:    healthTracker,
		metrics:   collector,
		logger:    logger.With("component", "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/buckets", s.handleListBuckets)
	mux.HandleFunc("GET /api/snapshots", s.handleListSnapshots)
	mux.HandleFunc("GET /api/b/{bucket}", s.handleListObjects)
	mux.HandleFunc("GET /api/b/{bucket}/o/{path...}", s.handleObjectRoute)

	if cfg.EnableMetrics && collector != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	}

	auth := newAuthenticator(authCfg)
	var handler http.Handler = auth.middleware(mux)
	handler = s.requestIDMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	if cfg.EnableCORS {
		handler = cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}).Handler(handler)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.config.Address)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth reports overall health plus per-component detail, derived
// from the health tracker's view of the object store and snapshot adapters.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		respondJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
		return
	}

	overall := s.health.GetOverallHealth()
	statusCode := http.StatusOK
	if overall == health.StateUnavailable {
		statusCode = http.StatusServiceUnavailable
	}
	respondJSON(w, statusCode, map[string]any{
		"status":     overall.String(),
		"components": s.health.GetAllComponents(),
	})
}

// handleListBuckets mirrors /api/buckets: live buckets, filtered by the
// remote bucket-visibility document.
func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buckets, err := s.objects.ListBuckets(ctx)
	if err != nil {
		s.respondAdapterError(w, "ListBuckets", err)
		return
	}

	names := make([]string, len(buckets))
	byName := make(map[string]types.BucketInfo, len(buckets))
	for i, b := range buckets {
		names[i] = b.Name
		byName[b.Name] = b
	}

	var allowed []string
	if s.remote != nil {
		allowed = s.remote.FilterBuckets(names)
	} else {
		allowed = names
	}

	filtered := make([]types.BucketInfo, 0, len(allowed))
	for _, name := range allowed {
		filtered = append(filtered, byName[name])
	}

	respondJSON(w, http.StatusOK, map[string]any{"buckets": filtered})
}

// handleListSnapshots mirrors /api/snapshots.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	descriptors, err := s.mapper.EnumerateSnapshots(r.Context())
	if err != nil {
		s.respondAdapterError(w, "EnumerateSnapshots", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"snapshots": descriptors})
}

// handleListObjects mirrors /api/b/{bucket}, with pagination over the
// combined folders+files result the way the original deployment paginates.
func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	bucket := r.PathValue("bucket")
	prefix := r.URL.Query().Get("prefix")

	listing, err := s.objects.ListObjects(r.Context(), bucket, prefix, "/", 1000)
	if err != nil {
		s.respondAdapterError(w, "ListObjects", err)
		return
	}

	page, perPage := s.resolvePaging(r)
	folders, files, total, totalPages := paginateListing(listing, page, perPage)

	respondJSON(w, http.StatusOK, map[string]any{
		"bucket":      bucket,
		"prefix":      prefix,
		"folders":     folders,
		"files":       files,
		"page":        page,
		"per_page":    perPage,
		"total_items": total,
		"total_pages": totalPages,
	})
}

// resolvePaging applies the configured default/allowed page sizes to the
// request's page/per_page query parameters.
func (s *Server) resolvePaging(r *http.Request) (page, perPage int) {
	page = 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}

	perPage = s.paging.DefaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		for _, opt := range s.paging.PageSizeOptions {
			if opt == v {
				perPage = v
				break
			}
		}
	}
	if perPage <= 0 {
		perPage = 20
	}
	return page, perPage
}

func paginateListing(listing *types.ObjectListing, page, perPage int) ([]types.Folder, []types.ObjectMetadata, int, int) {
	total := len(listing.Folders) + len(listing.Files)
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage

	type item struct {
		folder *types.Folder
		file   *types.ObjectMetadata
	}
	all := make([]item, 0, total)
	for i := range listing.Folders {
		all = append(all, item{folder: &listing.Folders[i]})
	}
	for i := range listing.Files {
		all = append(all, item{file: &listing.Files[i]})
	}
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}

	var folders []types.Folder
	var files []types.ObjectMetadata
	for _, it := range all[start:end] {
		if it.folder != nil {
			folders = append(folders, *it.folder)
		} else {
			files = append(files, *it.file)
		}
	}
	return folders, files, total, totalPages
}

// handleObjectRoute dispatches the three operations the original exposed as
// separate decorated routes (object metadata, version timeline, download)
// under one wildcard path since the key itself may contain slashes.
func (s *Server) handleObjectRoute(w http.ResponseWriter, r *http.Request) {
	bucket := r.PathValue("bucket")
	rawPath := r.PathValue("path")

	switch {
	case strings.HasSuffix(rawPath, "/versions"):
		s.handleObjectVersions(w, r, bucket, strings.TrimSuffix(rawPath, "/versions"))
	case strings.HasSuffix(rawPath, "/download"):
		s.handleDownload(w, r, bucket, strings.TrimSuffix(rawPath, "/download"))
	default:
		s.handleObjectMetadata(w, r, bucket, rawPath)
	}
}

func (s *Server) handleObjectMetadata(w http.ResponseWriter, r *http.Request, bucket, key string) {
	if err := utils.ValidatePath(key, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta, err := s.objects.HeadObject(r.Context(), bucket, key)
	if err != nil {
		s.respondAdapterError(w, "HeadObject", err)
		return
	}
	if meta == nil {
		respondError(w, http.StatusNotFound, "object not found")
		return
	}
	respondJSON(w, http.StatusOK, meta)
}

// handleObjectVersions implements list_object_versions, the version
// mapper's core operation, as a JSON endpoint.
func (s *Server) handleObjectVersions(w http.ResponseWriter, r *http.Request, bucket, key string) {
	if err := utils.ValidatePath(key, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	versions, err := s.mapper.ListObjectVersions(r.Context(), bucket, key)
	if err != nil {
		s.respondAdapterError(w, "ListObjectVersions", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

// handleDownload implements get_version_content: streams a version's bytes
// with a Content-Disposition attachment header, dispatching to the live
// store or a named snapshot per the "current"/*(current) grammar.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, bucket, key string) {
	if err := utils.ValidatePath(key, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	versionID := r.URL.Query().Get("version")
	if versionID == "" {
		versionID = "current"
	}

	data, _, err := s.mapper.GetVersionContent(r.Context(), bucket, key, versionID)
	if err != nil {
		s.respondAdapterError(w, "GetVersionContent", err)
		return
	}

	filename := path.Base(key)
	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// respondAdapterError translates a structured adapter error into its HTTP
// status, falling back to 500 for anything that didn't cross an adapter
// boundary as a *browsererrors.Error.
func (s *Server) respondAdapterError(w http.ResponseWriter, operation string, err error) {
	var appErr *browsererrors.Error
	if errors.As(err, &appErr) {
		if s.metrics != nil {
			s.metrics.RecordAdapterRequest(operation, false)
		}
		respondError(w, appErr.HTTPStatus, appErr.Message)
		return
	}
	s.logger.Error("unclassified adapter error", "operation", operation, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

// Middleware

type requestIDKey struct{}
type identityKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func withIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		r = r.WithContext(withRequestID(r.Context(), id))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"request_id", r.Context().Value(requestIDKey{}),
		)
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]any{"error": message})
}
