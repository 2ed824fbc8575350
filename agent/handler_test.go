package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/config"
	"github.com/imkonsowa/food-recs/events"
	"github.com/imkonsowa/food-recs/generator"
	"github.com/imkonsowa/food-recs/models"
	"github.com/imkonsowa/food-recs/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeRecords = "Taco A,Chicken tacos,480,9.50\n" +
	"Burrito B,Veggie bowl,550,11.00\n" +
	"Taqueria C,Fish taco plate,520,12.00"

type fakeGeocoder struct {
	err error
}

func (f *fakeGeocoder) Geocode(context.Context, string) (models.Coordinate, error) {
	return models.Coordinate{Lat: 38.54, Lng: -121.75}, f.err
}

type fakePlaces struct {
	restaurants []models.Candidate
	groceries   []models.Candidate
	err         error
}

func (f *fakePlaces) SearchPlaces(_ context.Context, criteria models.SearchCriteria) ([]models.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if criteria.Type == models.PlaceGrocery {
		return f.groceries, nil
	}
	return f.restaurants, nil
}

type fakePublisher struct {
	published []events.RecommendationEvent
	err       error
}

func (f *fakePublisher) Publish(evt events.RecommendationEvent) error {
	f.published = append(f.published, evt)
	return f.err
}

type fixture struct {
	geo       *fakeGeocoder
	places    *fakePlaces
	text      string
	genErr    error
	genCalls  int
	publisher *fakePublisher
	server    config.Server
}

func newFixture() *fixture {
	return &fixture{
		geo: &fakeGeocoder{},
		places: &fakePlaces{restaurants: []models.Candidate{
			{Name: "Taco A"}, {Name: "Burrito B"}, {Name: "Taqueria C"}, {Name: "Cantina D"},
		}},
		text:      threeRecords,
		publisher: &fakePublisher{},
	}
}

func (f *fixture) router() *gin.Engine {
	gen := generator.Func(func(context.Context, string) (string, error) {
		f.genCalls++
		return f.text, f.genErr
	})
	service := recommend.NewService(f.geo, f.places, gen)

	agent := &Agent{
		config:  &config.Config{Server: f.server},
		handler: NewHandler(service, f.publisher, 1),
	}

	return agent.Router()
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, req)

	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const recsBody = `{"location":"37.4,-122.1","maxDistance":2,"cuisine":"Mexican","cals":600,"budget":12}`

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRecommendations(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/recs", recsBody)
	require.Equal(t, http.StatusOK, w.Code)

	var records []models.RecommendationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "Taco A", records[0].Name)
	assert.Equal(t, "Fish taco plate", records[2].Dish)

	require.Len(t, f.publisher.published, 1)
	evt := f.publisher.published[0]
	assert.Equal(t, []string{"Taco A", "Burrito B", "Taqueria C"}, evt.Candidates)
	assert.Equal(t, records, evt.Records)
	assert.Equal(t, models.Coordinate{Lat: 37.4, Lng: -122.1}, evt.Coordinate)
}

func TestRecommendationsNoRestaurants(t *testing.T) {
	f := newFixture()
	f.places.restaurants = nil

	w := f.do(t, http.MethodPost, "/recs", recsBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Zero(t, f.genCalls)
}

func TestRecommendationsErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(f *fixture)
		status int
		code   apperrors.Code
	}{
		{
			name:   "malformed body",
			body:   `{"location":`,
			status: http.StatusBadRequest,
			code:   apperrors.CodeInvalidRequest,
		},
		{
			name:   "missing location",
			body:   `{"maxDistance":2}`,
			status: http.StatusBadRequest,
			code:   apperrors.CodeInvalidRequest,
		},
		{
			name:   "non-positive distance",
			body:   `{"location":"37.4,-122.1","maxDistance":0}`,
			status: http.StatusBadRequest,
			code:   apperrors.CodeInvalidRequest,
		},
		{
			name: "geocode failure",
			body: `{"location":"nowhere at all","maxDistance":2}`,
			setup: func(f *fixture) {
				f.geo.err = apperrors.NewWithContext(apperrors.CodeGeocode, "geocode error: ZERO_RESULTS",
					map[string]any{"status": "ZERO_RESULTS"})
			},
			status: http.StatusBadRequest,
			code:   apperrors.CodeGeocode,
		},
		{
			name: "places unreachable",
			body: recsBody,
			setup: func(f *fixture) {
				f.places.err = apperrors.Upstream("places", errors.New("connection refused"))
			},
			status: http.StatusBadGateway,
			code:   apperrors.CodeUpstream,
		},
		{
			name: "generator failure",
			body: recsBody,
			setup: func(f *fixture) {
				f.genErr = apperrors.Upstream("gemini", context.DeadlineExceeded)
			},
			status: http.StatusBadGateway,
			code:   apperrors.CodeUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			w := f.do(t, http.MethodPost, "/recs", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
			assert.Empty(t, f.publisher.published)
		})
	}
}

func TestRecommendationsPublishFailureIgnored(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("nats: no responders")

	w := f.do(t, http.MethodPost, "/recs", recsBody)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.publisher.published, 1)
}

func TestRecommendationsWithoutPublisher(t *testing.T) {
	f := newFixture()
	gen := generator.Func(func(context.Context, string) (string, error) { return threeRecords, nil })
	agent := &Agent{
		config:  &config.Config{},
		handler: NewHandler(recommend.NewService(f.geo, f.places, gen), nil, 1),
	}

	req := httptest.NewRequest(http.MethodPost, "/recs", strings.NewReader(recsBody))
	w := httptest.NewRecorder()
	agent.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRestaurantSuggestion(t *testing.T) {
	f := newFixture()
	f.text = "```\nGrilled chicken salad, dressing on the side\n```"

	w := f.do(t, http.MethodPost, "/recs/restaurant", `{"restaurant":"Taco A","cals":"500"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Grilled chicken salad, dressing on the side"]`, w.Body.String())

	w = f.do(t, http.MethodPost, "/recs/restaurant", `{"cals":"500"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGroceries(t *testing.T) {
	one, two := 1, 2
	f := newFixture()
	f.places.groceries = []models.Candidate{
		{Name: "Pricey Market", Address: "2 Main St", PriceLevel: &two},
		{Name: "Budget Foods", Address: "1 Main St", PriceLevel: &one},
	}
	f.text = "Chana masala, Dal tadka,\nAloo gobi"

	w := f.do(t, http.MethodGet, "/groceries?lat=38.54&lng=-121.75&radius=1500&cuisine=Indian&budget=20", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result recommend.GroceryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, recommend.Store{Name: "Budget Foods", Address: "1 Main St", PriceLevel: 1}, result.Store)
	assert.Equal(t, []string{"Chana masala", "Dal tadka", "Aloo gobi"}, result.Dishes)
}

func TestGroceriesErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
	}{
		{name: "no stores", query: "lat=38.54&lng=-121.75&radius=1500&cuisine=Indian&budget=20", status: http.StatusNotFound},
		{name: "missing lat", query: "lng=-121.75&radius=1500&cuisine=Indian&budget=20", status: http.StatusBadRequest},
		{name: "bad radius", query: "lat=38.54&lng=-121.75&radius=far&cuisine=Indian&budget=20", status: http.StatusBadRequest},
		{name: "zero radius", query: "lat=38.54&lng=-121.75&radius=0&cuisine=Indian&budget=20", status: http.StatusBadRequest},
		{name: "missing cuisine", query: "lat=38.54&lng=-121.75&radius=1500&budget=20", status: http.StatusBadRequest},
		{name: "out of range", query: "lat=138.54&lng=-121.75&radius=1500&cuisine=Indian&budget=20", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			w := f.do(t, http.MethodGet, "/groceries?"+tt.query, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Zero(t, f.genCalls)
		})
	}
}

func TestRecipe(t *testing.T) {
	f := newFixture()
	f.text = "Chana masala\n- 1 can chickpeas ($1.29)"

	w := f.do(t, http.MethodGet, "/recipes?dish=Chana%20masala&store=Budget%20Foods&address=1%20Main%20St&budget=20", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, f.text, body.Recipe)

	w = f.do(t, http.MethodGet, "/recipes?store=Budget%20Foods", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamRecommendations(t *testing.T) {
	f := newFixture()
	srv := httptest.NewServer(f.router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/recs/ws?location=37.4,-122.1&maxDistance=2&cuisine=Mexican&cals=600&budget=12"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var stages []string
	var final struct {
		Type string                        `json:"type"`
		Data []models.RecommendationRecord `json:"data"`
	}
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg WebSocketsMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type != MessageStage {
			require.NoError(t, json.Unmarshal(data, &final))
			break
		}
		stages = append(stages, msg.Data.(string))
	}

	assert.Equal(t, []string{"received", "searching", "prompt_building", "generating", "parsing", "responding"}, stages)
	assert.Equal(t, MessageRecommendations, final.Type)
	assert.Len(t, final.Data, 3)
	assert.Len(t, f.publisher.published, 1)
}

func TestStreamRecommendationsError(t *testing.T) {
	f := newFixture()
	f.places.err = apperrors.Upstream("places", errors.New("connection refused"))
	srv := httptest.NewServer(f.router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/recs/ws?location=37.4,-122.1&maxDistance=2"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var last WebSocketsMessage
	for {
		require.NoError(t, conn.ReadJSON(&last))
		if last.Type != MessageStage {
			break
		}
	}

	assert.Equal(t, MessageError, last.Type)
	data, ok := last.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(apperrors.CodeUpstream), data["code"])
}

func TestStreamRecommendationsBadQuery(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodGet, "/recs/ws?location=37.4,-122.1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.CodeInvalidRequest, decodeError(t, w).Code)
}
