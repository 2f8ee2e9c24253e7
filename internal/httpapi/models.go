package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"traind/pkg/types"
)

func handleCreateModel(svc ModelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateUnitRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		meta, err := svc.CreateModel(req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, meta)
	}
}

func handleGetModel(svc ModelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := svc.Model(chi.URLParam(r, "model_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meta)
	}
}

func handleListModels(svc ModelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		skip := intQuery(q.Get("skip"), 0)
		limit := intQuery(q.Get("limit"), 0)
		writeJSON(w, http.StatusOK, svc.Models(skip, limit, types.UnitType(q.Get("type"))))
	}
}

func handleUpdateModel(svc ModelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateUnitRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		meta, err := svc.UpdateModel(chi.URLParam(r, "model_id"), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meta)
	}
}

func handleDeleteModel(svc ModelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteModel(chi.URLParam(r, "model_id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleExportModel(svc ModelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ExportRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.ExportModel(chi.URLParam(r, "model_id"), req.Format)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleListBuilders(svc ModelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		builders := svc.Builders()
		writeJSON(w, http.StatusOK, types.BuilderListResponse{
			Plugins: builders,
			Total:   len(builders),
		})
	}
}

func handleGetBuilder(svc ModelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.Builder(chi.URLParam(r, "plugin_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// intQuery parses a non-negative integer query value, falling back to
// def on absence or garbage.
func intQuery(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
