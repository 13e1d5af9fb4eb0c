package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"babyweight_service/internal/domain/model"
	"babyweight_service/internal/infrastructure/mlclient"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type PredictionService interface {
	PredictBabies(ctx context.Context, babies []model.Baby) ([]model.PredictionRecord, error)
	PredictBaby(ctx context.Context, baby model.Baby, defaultValue float64) (float64, error)
}

type Handler struct {
	service PredictionService
}

func NewHandler(service PredictionService) *Handler {
	return &Handler{service: service}
}

// BabyPayload holds one record; values may be JSON strings, numbers or booleans.
type BabyPayload map[string]any

type PredictRequest struct {
	Babies []BabyPayload `json:"babies" binding:"required"`
}

type PredictedWeight struct {
	Key             string  `json:"key"`
	PredictedWeight float64 `json:"predicted_weight"`
}

type PredictResponse struct {
	Predictions []PredictedWeight `json:"predictions"`
}

type PredictOneResponse struct {
	PredictedWeight float64 `json:"predicted_weight"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Register(router gin.IRouter) {
	router.GET("/health", h.Health)
	group := router.Group("/api")
	group.POST("/predict", h.Predict)
	group.POST("/predict/one", h.PredictOne)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	babies := make([]model.Baby, 0, len(req.Babies))
	for _, payload := range req.Babies {
		babies = append(babies, payload.toBaby())
	}

	predictions, err := h.service.PredictBabies(c.Request.Context(), babies)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := PredictResponse{Predictions: make([]PredictedWeight, 0, len(predictions))}
	for _, p := range predictions {
		resp.Predictions = append(resp.Predictions, PredictedWeight{Key: p.Key, PredictedWeight: p.PredictedWeight})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) PredictOne(c *gin.Context) {
	defaultValue := -1.0
	if raw := c.Query("default"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid default %q", raw)})
			return
		}
		defaultValue = v
	}

	var payload BabyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	value, err := h.service.PredictBaby(c.Request.Context(), payload.toBaby(), defaultValue)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, PredictOneResponse{PredictedWeight: value})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Prediction request failed")
	} else {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("Prediction request rejected")
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mlclient.ErrFieldAccess):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mlclient.ErrTransportTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, mlclient.ErrUnsuccessfulResponse),
		errors.Is(err, mlclient.ErrDecode),
		errors.Is(err, mlclient.ErrConnection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (p BabyPayload) toBaby() model.Baby {
	values := make(map[model.Field]string, len(p))
	for k, v := range p {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			values[model.Field(k)] = val
		case float64:
			values[model.Field(k)] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			if val {
				values[model.Field(k)] = "True"
			} else {
				values[model.Field(k)] = "False"
			}
		default:
			values[model.Field(k)] = fmt.Sprint(val)
		}
	}
	return model.NewBaby(values)
}
