package webserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/y0ug/scanvault/internal/models"
	"github.com/y0ug/scanvault/internal/report"
	"github.com/y0ug/scanvault/internal/scanner"
	"github.com/y0ug/scanvault/internal/scanresult"
	"github.com/y0ug/scanvault/internal/scanvault"
	"github.com/y0ug/scanvault/pkg/auth"
)

// WebServer holds the data needed for handling HTTP requests.
type WebServer struct {
	Service    *scanvault.Service
	config     *WebserverConfig
	authConfig *auth.Config
	Logger     *logrus.Logger
}

// StartWebServer starts the HTTP server.
func StartWebServer(ctx context.Context, ws *WebServer) (*http.Server, error) {
	server := &http.Server{
		Addr:    ws.config.ListenTo,
		Handler: ws.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	// Start the server in a separate goroutine
	go func() {
		ws.Logger.Infof("Server starting on %s", ws.config.ListenTo)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.Logger.Errorf("ListenAndServe(): %v", err)
		}
	}()

	return server, nil
}

// NewWebServer initializes a new WebServer.
func NewWebServer(service *scanvault.Service, config *WebserverConfig, authConfig *auth.Config, logger *logrus.Logger) *WebServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if authConfig == nil {
		authConfig = &auth.Config{AuthType: auth.AuthTypeNone}
	}
	return &WebServer{
		Service:    service,
		config:     config,
		authConfig: authConfig,
		Logger:     logger,
	}
}

// Handler returns the router wrapped with CORS handling.
func (ws *WebServer) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   ws.config.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}
	return cors.New(corsOptions).Handler(ws.InitRouter())
}

// InitRouter initializes the HTTP routes.
func (ws *WebServer) InitRouter() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	if ws.authConfig.Enabled() {
		api.Use(auth.NewMiddleware(ws.authConfig, ws.Logger).AuthMiddleware)
	}

	api.HandleFunc("/scan", ws.handleScan).Methods(http.MethodPost)
	api.HandleFunc("/results", ws.handleIngestResults).Methods(http.MethodPost)
	api.HandleFunc("/history", ws.handleGetHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", ws.handleClearHistory).Methods(http.MethodDelete)
	api.HandleFunc("/history/{id}", ws.handleGetEntry).Methods(http.MethodGet)
	api.HandleFunc("/history/{id}", ws.handleDeleteEntry).Methods(http.MethodDelete)
	api.HandleFunc("/history/{id}/export", ws.handleExportEntry).Methods(http.MethodGet)
	api.HandleFunc("/export", ws.handleExportHistory).Methods(http.MethodGet)
	api.HandleFunc("/stats", ws.handleGetStats).Methods(http.MethodGet)
	api.HandleFunc("/rulesets", ws.handleGetRuleSets).Methods(http.MethodGet)

	// Static file serving
	if ws.config.StaticDir != "" {
		r.PathPrefix("/").Handler(
			http.StripPrefix("/", http.FileServer(http.Dir(ws.config.StaticDir))))
	}
	return r
}

// handleScan handles the POST /api/scan endpoint.
func (ws *WebServer) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ws.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		ws.Logger.WithError(err).Warn("Invalid multipart upload")
		auth.WriteErrorResponse(w, "Invalid multipart upload", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		auth.WriteErrorResponse(w, "No file uploaded", http.StatusBadRequest)
		return
	}

	files := make([]scanner.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			ws.Logger.WithError(err).WithField("filename", fh.Filename).Error("Failed to read upload")
			auth.WriteErrorResponse(w, "Failed to read uploaded file", http.StatusBadRequest)
			return
		}
		files = append(files, scanner.File{Name: fh.Filename, Data: data})
	}

	rep, err := ws.Service.ScanFiles(r.Context(), r.URL.Query().Get("type"), files)
	if err != nil {
		auth.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := models.ScanResponse{
		Results:  toEntries(rep.Results),
		Failures: make([]models.ScanFailure, 0, len(rep.Failures)),
	}
	for _, f := range rep.Failures {
		response.Failures = append(response.Failures, models.ScanFailure{Filename: f.Filename, Error: f.Err.Error()})
	}

	if len(rep.Results) == 0 && len(rep.Failures) > 0 {
		status := http.StatusBadGateway
		if allRejected(rep.Failures) {
			status = http.StatusBadRequest
		}
		auth.WriteErrorResponseData(w, "Scan failed", response, status)
		return
	}

	auth.WriteSuccessResponse(w, "Scan completed", response)
}

// handleIngestResults handles the POST /api/results endpoint.
func (ws *WebServer) handleIngestResults(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, ws.config.MaxUploadBytes))
	if err != nil {
		auth.WriteErrorResponse(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	raws, err := scanresult.SplitBatch(body)
	if err != nil {
		ws.Logger.WithError(err).Warn("Invalid JSON payload")
		auth.WriteErrorResponse(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	results := ws.Service.IngestRaw(r.Context(), raws)
	auth.WriteSuccessResponse(w, "Results ingested successfully", toEntries(results))
}

// handleGetHistory handles the GET /api/history endpoint.
func (ws *WebServer) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entries := ws.Service.History()
	auth.WriteSuccessResponse(w, "History retrieved successfully", models.HistoryResponse{
		Entries: entries,
		Total:   len(entries),
	})
}

// handleClearHistory handles the DELETE /api/history endpoint.
func (ws *WebServer) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	ws.Service.ClearHistory(r.Context())
	auth.WriteSuccessResponse(w, "History cleared successfully", nil)
}

// handleGetEntry handles the GET /api/history/{id} endpoint.
func (ws *WebServer) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry, err := ws.Service.Entry(id)
	if err != nil {
		ws.writeLookupError(w, id, err)
		return
	}
	auth.WriteSuccessResponse(w, "Entry retrieved successfully", entry)
}

// handleDeleteEntry handles the DELETE /api/history/{id} endpoint.
func (ws *WebServer) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := ws.Service.Remove(r.Context(), id); err != nil {
		ws.writeLookupError(w, id, err)
		return
	}
	auth.WriteSuccessResponse(w, "Entry deleted successfully", nil)
}

// handleExportEntry handles the GET /api/history/{id}/export endpoint.
func (ws *WebServer) handleExportEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, filename, err := ws.Service.ExportEntry(id)
	if err != nil {
		ws.writeLookupError(w, id, err)
		return
	}
	ws.writeDownload(w, filename, doc)
}

// handleExportHistory handles the GET /api/export endpoint.
func (ws *WebServer) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	docs, filename := ws.Service.ExportHistory()
	ws.writeDownload(w, filename, docs)
}

// handleGetStats handles the GET /api/stats endpoint.
func (ws *WebServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	auth.WriteSuccessResponse(w, "Statistics retrieved successfully", ws.Service.Stats())
}

// handleGetRuleSets handles the GET /api/rulesets endpoint.
func (ws *WebServer) handleGetRuleSets(w http.ResponseWriter, r *http.Request) {
	auth.WriteSuccessResponse(w, "Rule sets retrieved successfully", models.RuleSetsResponse{
		RuleSets:   scanner.RuleSets,
		Categories: scanner.Categories(),
	})
}

func (ws *WebServer) writeLookupError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, scanvault.ErrEntryNotFound) {
		auth.WriteErrorResponse(w, "Entry not found", http.StatusNotFound)
		return
	}
	ws.Logger.WithError(err).WithField("id", id).Error("History lookup failed")
	auth.WriteErrorResponse(w, "Internal server error", http.StatusInternalServerError)
}

// writeDownload sends v as an indented JSON attachment.
func (ws *WebServer) writeDownload(w http.ResponseWriter, filename string, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := report.Encode(w, v); err != nil {
		ws.Logger.WithError(err).WithField("filename", filename).Error("Failed to write report")
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func toEntries(results []models.ScanResult) []models.HistoryEntry {
	entries := make([]models.HistoryEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, scanresult.Entry(r))
	}
	return entries
}

func allRejected(failures []scanvault.FileError) bool {
	for _, f := range failures {
		if !errors.Is(f.Err, scanner.ErrFileType) {
			return false
		}
	}
	return true
}
