package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"traind/pkg/types"
)

func handleStartTraining(svc TrainingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.StartTrainingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ModelID == "" {
			writeJSONError(w, http.StatusBadRequest, "model_id is required")
			return
		}
		resp, err := svc.StartTraining(req)
		if err != nil {
			writeError(w, err)
			return
		}
		// The job is accepted, not finished; work continues in the
		// background.
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func handleGetTraining(svc TrainingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.TrainingJob(chi.URLParam(r, "training_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func handleListTraining(svc TrainingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := types.JobState(r.URL.Query().Get("status"))
		writeJSON(w, http.StatusOK, svc.TrainingJobs(status))
	}
}

// Lifecycle posts are lenient: a command that does not apply in the
// job's current state is ignored and the unchanged status comes back.
// Only unknown training ids fail.

func handleStopTraining(svc TrainingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.StopTraining(chi.URLParam(r, "training_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func handlePauseTraining(svc TrainingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.PauseTraining(chi.URLParam(r, "training_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func handleResumeTraining(svc TrainingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.ResumeTraining(chi.URLParam(r, "training_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func handleTrainingMetrics(svc TrainingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.TrainingMetrics(chi.URLParam(r, "training_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
