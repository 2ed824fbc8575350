package main

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/events"
)

const (
	MessageStage           = "stage"
	MessageRecommendations = "recommendations"
	MessageError           = "error"
)

type WebSocketsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type ErrorBody struct {
	Code  apperrors.Code `json:"code"`
	Error string         `json:"error"`
}

type SuggestionRequest struct {
	Restaurant string `json:"restaurant"`
	Cals       string `json:"cals"`
	Budget     string `json:"budget"`
}

type RecipeResponse struct {
	Recipe string `json:"recipe"`
}

type eventPublisher interface {
	Publish(evt events.RecommendationEvent) error
}

func newErrorBody(err error) ErrorBody {
	return ErrorBody{Code: apperrors.CodeOf(err), Error: err.Error()}
}

func queryFloat(ctx *gin.Context, name string, required bool) (float64, error) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		if required {
			return 0, apperrors.New(apperrors.CodeInvalidRequest, name+" is required")
		}
		return 0, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.WrapWithContext(apperrors.CodeInvalidRequest, "invalid "+name, err,
			map[string]any{name: raw})
	}

	return v, nil
}

func queryInt(ctx *gin.Context, name string, fallback int) (int, error) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.WrapWithContext(apperrors.CodeInvalidRequest, "invalid "+name, err,
			map[string]any{name: raw})
	}

	return v, nil
}

func queryString(ctx *gin.Context, name string) (string, error) {
	v := ctx.Query(name)
	if v == "" {
		return "", apperrors.New(apperrors.CodeInvalidRequest, name+" is required")
	}

	return v, nil
}
