package http

import (
	"net/http"

	"go.uber.org/zap"

	"cattlefeed/pipeline"
)

// handleTrain retrains from the configured dataset, persists the bundle and
// swaps the new predictor in. Concurrent requests get 409.
func (a *API) handleTrain(w http.ResponseWriter, r *http.Request) {
	if !a.trainMu.TryLock() {
		writeError(w, http.StatusConflict, "training already in progress")
		return
	}
	defer a.trainMu.Unlock()

	result, err := pipeline.Train(a.training)
	if err != nil {
		zap.L().Error("training failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.advisor.Models().Swap(result.Predictor)

	entry := result.Log()
	if a.logs != nil {
		if err := a.logs.SaveTrainingLog(r.Context(), entry); err != nil {
			zap.L().Warn("failed to record training run", zap.Error(err))
		}
	}
	respondJSON(w, http.StatusOK, entry)
}

func (a *API) handleTrainingHistory(w http.ResponseWriter, r *http.Request) {
	if a.logs == nil {
		respondJSON(w, http.StatusOK, []interface{}{})
		return
	}
	logs, err := a.logs.LoadTrainingLog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
