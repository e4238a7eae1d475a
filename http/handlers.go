package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cattlefeed/advisor"
	"cattlefeed/db"
	"cattlefeed/ml"
	"cattlefeed/pipeline"
)

// TrainingLogStore records and lists completed training runs.
type TrainingLogStore interface {
	SaveTrainingLog(ctx context.Context, entry db.TrainingLog) error
	LoadTrainingLog(ctx context.Context) ([]db.TrainingLog, error)
}

// API holds the handler dependencies. Training requests are serialised.
type API struct {
	advisor  *advisor.Advisor
	training pipeline.TrainingConfig
	logs     TrainingLogStore

	trainMu sync.Mutex
}

func NewAPI(adv *advisor.Advisor, training pipeline.TrainingConfig, logs TrainingLogStore) *API {
	return &API{advisor: adv, training: training, logs: logs}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/breeds", handleBreeds)
	mux.HandleFunc("GET /api/ingredients", handleIngredients)
	mux.HandleFunc("POST /api/validate", handleValidate)
	mux.HandleFunc("POST /api/predict", a.handlePredict)
	mux.HandleFunc("POST /api/recommend", a.handleRecommend)
	mux.HandleFunc("POST /api/train", a.handleTrain)
	mux.HandleFunc("GET /api/train/history", a.handleTrainingHistory)
}

type cattleRequest struct {
	BreedClass   string  `json:"breed_class"`
	TargetWeight float64 `json:"target_weight"`
	BodyWeight   float64 `json:"body_weight"`
	ADG          float64 `json:"adg"`
}

type recommendRequest struct {
	cattleRequest
	Predictions ml.PredictionRecord `json:"predictions,omitempty"`
	Excluded    []string            `json:"excluded"`
}

type breedResponse struct {
	advisor.BreedInfo
	DisplayName string `json:"display_name"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok", "model_loaded": false}
	if predictor := a.advisor.Models().Current(); predictor != nil {
		status["model_loaded"] = true
		status["model_type"] = predictor.ModelType()
	}
	respondJSON(w, http.StatusOK, status)
}

func handleBreeds(w http.ResponseWriter, r *http.Request) {
	title := cases.Title(language.English)
	breeds := advisor.Breeds()
	out := make([]breedResponse, 0, len(breeds))
	for _, breed := range breeds {
		out = append(out, breedResponse{
			BreedInfo:   breed,
			DisplayName: title.String(strings.ReplaceAll(string(breed.Name), "_", " ")),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func handleIngredients(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, advisor.Ingredients())
}

func handleValidate(w http.ResponseWriter, r *http.Request) {
	var req cattleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	valid, reason := advisor.Validate(req.BreedClass, req.TargetWeight)
	respondJSON(w, http.StatusOK, map[string]interface{}{"valid": valid, "reason": reason})
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req cattleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := a.advisor.Predict(r.Context(), req.BreedClass, req.TargetWeight, req.BodyWeight, req.ADG)
	if err != nil {
		writePredictError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"predictions": record})
}

// handleRecommend accepts either a prediction record from an earlier
// /api/predict call or the raw cattle inputs.
func (a *API) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record := req.Predictions
	if len(record) == 0 {
		var err error
		record, err = a.advisor.Predict(r.Context(), req.BreedClass, req.TargetWeight, req.BodyWeight, req.ADG)
		if err != nil {
			writePredictError(w, err)
			return
		}
	} else if err := record.Complete(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text := a.advisor.Recommend(r.Context(), record, req.Excluded)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"predictions":    record,
		"excluded":       req.Excluded,
		"recommendation": text,
	})
}

func writePredictError(w http.ResponseWriter, err error) {
	var invalid *advisor.ValidationError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Reason)
	case errors.Is(err, ml.ErrModelNotInitialized):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		zap.L().Error("prediction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
