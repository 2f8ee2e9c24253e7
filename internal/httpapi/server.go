// Package httpapi serves the traind REST and WebSocket API. Handlers
// speak to the rest of the daemon only through the Service interface,
// so the package tests against mocks and never touches real hardware.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"traind/internal/training"
	"traind/pkg/types"
)

// DeviceService exposes the device catalog and selection control.
type DeviceService interface {
	Devices() types.DeviceListResponse
	Device(id string) (types.Device, error)
	DeviceSettings() types.DeviceSettings
	DevicePreferences() []types.PreferenceInfo
	SetDevicePreference(pref types.DevicePreference) (types.Device, error)
	SelectDevice(id string) (types.Device, error)
	RefreshDevices(ctx context.Context) (types.DeviceListResponse, error)
	BenchmarkDevice(ctx context.Context, id string, sizes []int, iters int) (types.BenchmarkResult, error)
	ClearDeviceMemory(id string) (types.MemoryClearResult, error)
}

// ModelService exposes trainable-unit CRUD, export and the builder set.
type ModelService interface {
	CreateModel(req types.CreateUnitRequest) (types.TrainableUnit, error)
	Model(id string) (types.TrainableUnit, error)
	Models(skip, limit int, unitType types.UnitType) types.UnitListResponse
	UpdateModel(id string, req types.UpdateUnitRequest) (types.TrainableUnit, error)
	DeleteModel(id string) error
	ExportModel(id string, format types.ExportFormat) (types.ExportResult, error)
	Builders() []types.BuilderInfo
	Builder(id string) (types.BuilderInfo, error)
}

// TrainingService exposes job lifecycle control and progress streams.
type TrainingService interface {
	StartTraining(req types.StartTrainingRequest) (types.StartTrainingResponse, error)
	TrainingJob(id string) (types.Job, error)
	TrainingJobs(status types.JobState) types.JobListResponse
	StopTraining(id string) (types.Job, error)
	PauseTraining(id string) (types.Job, error)
	ResumeTraining(id string) (types.Job, error)
	TrainingMetrics(id string) (types.MetricsSnapshot, error)
	Subscribe(trainingID string, sink training.Sink)
	Unsubscribe(trainingID string, sink training.Sink)
}

// Service defines the methods required by the HTTP API layer.
type Service interface {
	DeviceService
	ModelService
	TrainingService
	Info() types.ServerInfo
	Health() types.HealthResponse
	DetailedHealth(ctx context.Context) (types.DetailedHealthResponse, error)
	Ready() bool
}

// NewMux builds the router over svc. Behavior knobs (body limit, CORS,
// logger, base context) are configured through the package setters
// before the mux is built.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	r.Use(requestLogMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Info())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("starting"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Health())
		})
		api.Get("/health/detailed", func(w http.ResponseWriter, r *http.Request) {
			resp, err := svc.DetailedHealth(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, resp)
		})

		api.Route("/gpu", func(gpu chi.Router) {
			gpu.Get("/", handleListDevices(svc))
			gpu.Get("/settings", handleDeviceSettings(svc))
			gpu.Get("/preferences", handleDevicePreferences(svc))
			gpu.Post("/preference", handleSetPreference(svc))
			gpu.Post("/refresh", handleRefreshDevices(svc))
			gpu.Get("/benchmark", handleBenchmark(svc))
			gpu.Post("/memory/clear", handleClearMemory(svc))
			gpu.Get("/{device_id}", handleGetDevice(svc))
			gpu.Post("/{device_id}/select", handleSelectDevice(svc))
		})

		api.Route("/models", func(models chi.Router) {
			models.Post("/", handleCreateModel(svc))
			models.Get("/", handleListModels(svc))
			models.Get("/{model_id}", handleGetModel(svc))
			models.Put("/{model_id}", handleUpdateModel(svc))
			models.Delete("/{model_id}", handleDeleteModel(svc))
			models.Post("/{model_id}/export", handleExportModel(svc))
		})

		api.Route("/training", func(tr chi.Router) {
			tr.Post("/start", handleStartTraining(svc))
			tr.Get("/", handleListTraining(svc))
			tr.Get("/{training_id}", handleGetTraining(svc))
			tr.Post("/{training_id}/stop", handleStopTraining(svc))
			tr.Post("/{training_id}/pause", handlePauseTraining(svc))
			tr.Post("/{training_id}/resume", handleResumeTraining(svc))
			tr.Get("/{training_id}/metrics", handleTrainingMetrics(svc))
		})

		api.Route("/plugins", func(pl chi.Router) {
			pl.Get("/", handleListBuilders(svc))
			pl.Get("/{plugin_id}", handleGetBuilder(svc))
		})
	})

	r.Get("/ws", handleGenericWS(svc))
	r.Get("/ws/training/{training_id}", handleTrainingWS(svc))

	MountSwagger(r)

	return r
}

// writeJSON writes v with the given status. Encoding failures after the
// header is out can only be logged.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("response encode failed")
	}
}

// decodeJSON enforces the JSON content type and body limit, then
// decodes into v. It writes the error response itself and reports
// whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if !hasJSONContentType(r) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// An oversized body also lands here; keep the message uniform.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be
// empty (lifecycle posts). An absent or empty body leaves v untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return decodeJSON(w, r, v)
}

func hasJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct != "" && strings.HasPrefix(strings.ToLower(ct), "application/json")
}
