package main

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/events"
	"github.com/imkonsowa/food-recs/maps"
	"github.com/imkonsowa/food-recs/metrics"
	"github.com/imkonsowa/food-recs/models"
	"github.com/imkonsowa/food-recs/recommend"
)

type Handler struct {
	service      *recommend.Service
	publisher    eventPublisher
	upgrader     websocket.Upgrader
	maxPriceTier int
}

// NewHandler wires the routes to service. publisher may be nil, in which case
// served recommendations are not published.
func NewHandler(service *recommend.Service, publisher eventPublisher, maxPriceTier int) *Handler {
	return &Handler{
		service:      service,
		publisher:    publisher,
		upgrader:     websocket.Upgrader{},
		maxPriceTier: maxPriceTier,
	}
}

func (h *Handler) writeError(ctx *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	attrs := []any{"request_id", ctx.GetString(requestIDKey), "path", ctx.Request.URL.Path, "error", err}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
	} else {
		slog.Warn("request rejected", attrs...)
	}

	ctx.JSON(status, newErrorBody(err))
}

func (h *Handler) publish(req models.RecommendationRequest, result *recommend.Result) {
	if h.publisher == nil {
		return
	}

	evt := events.NewRecommendationEvent(req, result.Coordinate, result.Candidates, result.Records)
	if err := h.publisher.Publish(evt); err != nil {
		metrics.PublishFailures.Inc()
		slog.Error("failed to publish recommendation event", "id", evt.ID, "error", err)
	}
}

func (h *Handler) Recommendations(ctx *gin.Context) {
	var req models.RecommendationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid request body", err))
		return
	}

	result, err := h.service.Recommend(ctx.Request.Context(), req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	h.publish(req, result)

	ctx.JSON(http.StatusOK, result.Records)
}

func (h *Handler) StreamRecommendations(ctx *gin.Context) {
	req, err := streamRequest(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		slog.Error("failed to upgrade connection", "request_id", ctx.GetString(requestIDKey), "error", err)
		return
	}
	defer conn.Close()

	write := func(msg WebSocketsMessage) bool {
		if err := conn.WriteJSON(msg); err != nil {
			slog.Error("failed to write to ws connection", "error", err)
			return false
		}
		return true
	}

	result, err := h.service.RecommendWithProgress(ctx.Request.Context(), req, func(stage recommend.Stage) {
		write(WebSocketsMessage{Type: MessageStage, Data: stage})
	})
	if err != nil {
		slog.Warn("streamed recommendation failed", "request_id", ctx.GetString(requestIDKey), "error", err)
		write(WebSocketsMessage{Type: MessageError, Data: newErrorBody(err)})
		return
	}

	h.publish(req, result)

	if write(WebSocketsMessage{Type: MessageRecommendations, Data: result.Records}) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

func streamRequest(ctx *gin.Context) (models.RecommendationRequest, error) {
	req := models.RecommendationRequest{
		Location: ctx.Query("location"),
		Cuisine:  ctx.Query("cuisine"),
	}

	var err error
	if req.MaxDistance, err = queryFloat(ctx, "maxDistance", true); err != nil {
		return req, err
	}
	if req.Cals, err = queryInt(ctx, "cals", 0); err != nil {
		return req, err
	}
	if req.Budget, err = queryFloat(ctx, "budget", false); err != nil {
		return req, err
	}

	return req, nil
}

func (h *Handler) RestaurantSuggestion(ctx *gin.Context) {
	var req SuggestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid request body", err))
		return
	}

	suggestions, err := h.service.SuggestForRestaurant(ctx.Request.Context(), req.Restaurant, req.Cals, req.Budget)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, suggestions)
}

func (h *Handler) Groceries(ctx *gin.Context) {
	req, err := h.groceryRequest(ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	result, err := h.service.Groceries(ctx.Request.Context(), req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *Handler) groceryRequest(ctx *gin.Context) (recommend.GroceryRequest, error) {
	var req recommend.GroceryRequest

	lat, err := queryString(ctx, "lat")
	if err != nil {
		return req, err
	}
	lng, err := queryString(ctx, "lng")
	if err != nil {
		return req, err
	}
	if req.Center, err = maps.ParseLatLng(lat + "," + lng); err != nil {
		return req, err
	}

	if req.RadiusMeters, err = queryInt(ctx, "radius", 0); err != nil {
		return req, err
	}
	if req.MaxPriceTier, err = queryInt(ctx, "max_price", h.maxPriceTier); err != nil {
		return req, err
	}
	if req.Cuisine, err = queryString(ctx, "cuisine"); err != nil {
		return req, err
	}
	if req.Budget, err = queryFloat(ctx, "budget", true); err != nil {
		return req, err
	}

	return req, nil
}

func (h *Handler) Recipe(ctx *gin.Context) {
	budget, err := queryFloat(ctx, "budget", false)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	store := models.Candidate{Name: ctx.Query("store"), Address: ctx.Query("address")}

	recipe, err := h.service.Recipe(ctx.Request.Context(), ctx.Query("dish"), store, budget)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, RecipeResponse{Recipe: recipe})
}
