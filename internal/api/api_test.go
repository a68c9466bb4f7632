package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/pantrychef/backend/internal/embedding"
	"github.com/pageza/pantrychef/backend/internal/matching"
	"github.com/pageza/pantrychef/backend/internal/service"
	"github.com/pageza/pantrychef/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router    *gin.Engine
	db        *gorm.DB
	history   *testhelpers.MemoryHistoryLog
	generator *testhelpers.MockGenerator
}

func setupTestAPI(t *testing.T, opts RouteOptions) *testAPI {
	t.Helper()
	db := testhelpers.SetupSQLite(t)
	history := &testhelpers.MemoryHistoryLog{}
	generator := new(testhelpers.MockGenerator)

	provider := embedding.WithCache(embedding.NewHashingProvider(0, embedding.MetricCosine), embedding.NewMemoryCache(0))
	engine := matching.NewEngine(service.NewStore(db), provider, matching.Options{})

	router := gin.New()
	RegisterRoutes(router, Handlers{
		Ingredients: NewIngredientHandler(service.NewIngredientService(db)),
		Recipes:     NewRecipeHandler(service.NewRecipeService(db, history, provider)),
		Chat:        NewChatHandler(service.NewChatService(engine, generator, service.ChatOptions{}), 3),
		Health:      NewHealthHandler(db, nil),
	}, opts)

	return &testAPI{router: router, db: db, history: history, generator: generator}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func TestHealth(t *testing.T) {
	a := setupTestAPI(t, RouteOptions{})
	w := a.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, w, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])
	assert.Equal(t, "disabled", body.Checks["redis"])
}

func TestHealthDatabaseDown(t *testing.T) {
	a := setupTestAPI(t, RouteOptions{})
	sqlDB, err := a.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := a.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouteOptionsApplyMiddleware(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	limited := func(c *gin.Context) { c.AbortWithStatus(http.StatusTooManyRequests) }
	a := setupTestAPI(t, RouteOptions{WriteGuard: deny, ChatLimiter: limited})

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/add-ingredient", map[string]interface{}{"name": "egg"}).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/add-recipe", map[string]interface{}{"name": "Toast"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, a.do(t, http.MethodPost, "/chat", map[string]interface{}{"message": "hi"}).Code)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/ingredients", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/recipes", nil).Code)
}

func TestQuantityUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    *float64
		wantErr bool
	}{
		{`2`, ptr(2.0), false},
		{`1.5`, ptr(1.5), false},
		{`"3"`, ptr(3.0), false},
		{`" 0.25 "`, ptr(0.25), false},
		{`null`, nil, false},
		{`""`, nil, false},
		{`"two cups"`, nil, true},
		{`"NaN"`, nil, true},
		{`true`, nil, true},
		{`[1]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var q Quantity
			err := json.Unmarshal([]byte(tt.input), &q)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Value)
		})
	}
}

func TestChatUsesGeneratedReply(t *testing.T) {
	a := setupTestAPI(t, RouteOptions{})
	testhelpers.SeedRecipe(t, a.db, "Pasta", []string{"pasta", "tomato"}, "Boil pasta, add tomato.")
	testhelpers.SeedRecipe(t, a.db, "Salad", []string{"lettuce", "tomato"}, "Chop lettuce and tomato.")
	testhelpers.SeedPantry(t, a.db, map[string]float64{"pasta": 2, "tomato": 0})
	a.generator.On("Generate", mock.Anything, mock.Anything).Return("Try the pasta.", nil)

	w := a.do(t, http.MethodPost, "/chat", map[string]interface{}{"message": "quick pasta dinner"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Reply       string `json:"reply"`
		Suggestions []struct {
			Recipe struct {
				Name string `json:"name"`
			} `json:"recipe"`
			Score    float64  `json:"score"`
			Feasible bool     `json:"feasible"`
			Missing  []string `json:"missing"`
		} `json:"suggested_recipes"`
	}
	decode(t, w, &body)
	assert.Equal(t, "Try the pasta.", body.Reply)
	require.Len(t, body.Suggestions, 2)
	assert.Equal(t, "Pasta", body.Suggestions[0].Recipe.Name)
	assert.False(t, body.Suggestions[0].Feasible)
	assert.Equal(t, []string{"tomato"}, body.Suggestions[0].Missing)
}

func TestChatTopK(t *testing.T) {
	a := setupTestAPI(t, RouteOptions{})
	testhelpers.SeedRecipe(t, a.db, "Pasta", []string{"pasta"}, "Boil.")
	testhelpers.SeedRecipe(t, a.db, "Salad", []string{"lettuce"}, "Chop.")
	a.generator.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)

	w := a.do(t, http.MethodPost, "/chat", map[string]interface{}{"message": "pasta", "top_k": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var body service.ChatResponse
	decode(t, w, &body)
	assert.Len(t, body.Suggestions, 1)

	w = a.do(t, http.MethodPost, "/chat", map[string]interface{}{"message": "pasta", "top_k": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatValidation(t *testing.T) {
	a := setupTestAPI(t, RouteOptions{})

	w := a.do(t, http.MethodPost, "/chat", map[string]interface{}{"message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, errorMessage(t, w))

	w = a.do(t, http.MethodPost, "/chat", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	a.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestChatEmptyCorpus(t *testing.T) {
	a := setupTestAPI(t, RouteOptions{})
	a.generator.On("Generate", mock.Anything, mock.Anything).Return("Add some recipes first.", nil)

	w := a.do(t, http.MethodPost, "/chat", map[string]interface{}{"message": "anything"})
	require.Equal(t, http.StatusOK, w.Code)
	var body service.ChatResponse
	decode(t, w, &body)
	assert.Empty(t, body.Suggestions)
}

func TestChatGeneratorFailure(t *testing.T) {
	a := setupTestAPI(t, RouteOptions{})
	testhelpers.SeedRecipe(t, a.db, "Pasta", []string{"pasta"}, "Boil.")
	a.generator.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("upstream 503"))

	w := a.do(t, http.MethodPost, "/chat", map[string]interface{}{"message": "pasta"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "llm provider failed", errorMessage(t, w))
}

func ptr[T any](v T) *T {
	return &v
}
