package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"traind/pkg/types"
)

func handleListDevices(svc DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Devices())
	}
}

func handleGetDevice(svc DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Device(chi.URLParam(r, "device_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleDeviceSettings(svc DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.DeviceSettings())
	}
}

func handleDevicePreferences(svc DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"preferences": svc.DevicePreferences(),
		})
	}
}

func handleSetPreference(svc DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SetPreferenceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Preference == "" {
			writeJSONError(w, http.StatusBadRequest, "preference is required")
			return
		}
		d, err := svc.SetDevicePreference(req.Preference)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"preference":      req.Preference,
			"selected_device": d,
		})
	}
}

func handleSelectDevice(svc DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.SelectDevice(chi.URLParam(r, "device_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleRefreshDevices(svc DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Link with the base context so a daemon shutdown cancels an
		// in-flight re-discovery.
		ctx, cancel := linkedContext(r.Context())
		defer cancel()
		resp, err := svc.RefreshDevices(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleBenchmark(svc DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sizes, err := parseSizes(q.Get("sizes"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		iters := 0
		if v := q.Get("iterations"); v != "" {
			iters, err = strconv.Atoi(v)
			if err != nil || iters < 0 {
				writeJSONError(w, http.StatusBadRequest, "invalid iterations: "+v)
				return
			}
		}

		ctx, cancel := linkedContext(r.Context())
		defer cancel()
		res, err := svc.BenchmarkDevice(ctx, q.Get("device_id"), sizes, iters)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleClearMemory(svc DeviceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.ClearDeviceMemory(r.URL.Query().Get("device_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// parseSizes reads a comma-separated list of matrix sizes. Empty input
// means "use the defaults"; blanks between commas are skipped.
func parseSizes(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var sizes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid benchmark size: %q", part)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}
