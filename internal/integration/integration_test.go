package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/pantrychef/backend/internal/api"
	"github.com/pageza/pantrychef/backend/internal/embedding"
	"github.com/pageza/pantrychef/backend/internal/matching"
	"github.com/pageza/pantrychef/backend/internal/model"
	"github.com/pageza/pantrychef/backend/internal/service"
	"github.com/pageza/pantrychef/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	router      *gin.Engine
	historyPath string
	generator   *testhelpers.MockGenerator
	prompts     []string
}

func newHarness(t *testing.T, db *gorm.DB) *harness {
	t.Helper()
	historyPath := filepath.Join(t.TempDir(), "history", "my_fav_recipes.txt")
	history, err := service.NewFileHistoryLog(historyPath)
	require.NoError(t, err)

	provider := embedding.WithCache(embedding.NewHashingProvider(0, embedding.MetricCosine), embedding.NewMemoryCache(0))
	engine := matching.NewEngine(service.NewStore(db), provider, matching.Options{Workers: 4})

	h := &harness{historyPath: historyPath, generator: new(testhelpers.MockGenerator)}
	h.generator.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { h.prompts = append(h.prompts, args.String(1)) }).
		Return("Here is what I would cook.", nil)

	h.router = gin.New()
	api.RegisterRoutes(h.router, api.Handlers{
		Ingredients: api.NewIngredientHandler(service.NewIngredientService(db)),
		Recipes:     api.NewRecipeHandler(service.NewRecipeService(db, history, provider)),
		Chat:        api.NewChatHandler(service.NewChatService(engine, h.generator, service.ChatOptions{}), 3),
		Health:      api.NewHealthHandler(db, nil),
	}, api.RouteOptions{})
	return h
}

func (h *harness) send(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

type chatResult struct {
	Reply       string `json:"reply"`
	Suggestions []struct {
		Recipe   model.Recipe `json:"recipe"`
		Score    float64      `json:"score"`
		Feasible bool         `json:"feasible"`
		Missing  []string     `json:"missing"`
	} `json:"suggested_recipes"`
}

func (h *harness) chat(t *testing.T, message string, topK int) chatResult {
	t.Helper()
	w := h.send(t, http.MethodPost, "/chat", map[string]interface{}{"message": message, "top_k": topK})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res chatResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func backends() map[string]func(*testing.T) *gorm.DB {
	return map[string]func(*testing.T) *gorm.DB{
		"sqlite":   testhelpers.SetupSQLite,
		"postgres": testhelpers.SetupTestDatabase,
	}
}

func TestKitchenAssistantFlow(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, open(t))

			for _, ing := range []map[string]interface{}{
				{"name": "pasta", "quantity": 2, "unit": "packs"},
				{"name": "tomato", "quantity": "0"},
				{"name": "lettuce", "quantity": "3"},
			} {
				require.Equal(t, http.StatusCreated, h.send(t, http.MethodPost, "/add-ingredient", ing).Code)
			}
			for _, rec := range []map[string]interface{}{
				{"name": "Pasta", "ingredients": []string{"pasta", "tomato"}, "instructions": "Boil pasta, add tomato.", "preparation_time": 20},
				{"name": "Salad", "ingredients": []string{"lettuce", "tomato"}, "instructions": "Chop lettuce and tomato."},
			} {
				require.Equal(t, http.StatusCreated, h.send(t, http.MethodPost, "/add-recipe", rec).Code)
			}

			res := h.chat(t, "quick pasta dinner", 3)
			require.Len(t, res.Suggestions, 2)
			assert.Equal(t, "Pasta", res.Suggestions[0].Recipe.Name)
			assert.GreaterOrEqual(t, res.Suggestions[0].Score, res.Suggestions[1].Score)
			assert.False(t, res.Suggestions[0].Feasible)
			assert.Equal(t, []string{"tomato"}, res.Suggestions[0].Missing)
			assert.Equal(t, "Here is what I would cook.", res.Reply)

			// Restocking makes the top pick feasible without changing the ranking.
			var list []model.Ingredient
			w := h.send(t, http.MethodGet, "/ingredients", nil)
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
			for _, ing := range list {
				if ing.Name == "tomato" {
					w = h.send(t, http.MethodPut, "/update-ingredient/"+ing.ID.String(), map[string]interface{}{"quantity": 5})
					require.Equal(t, http.StatusOK, w.Code)
				}
			}
			again := h.chat(t, "quick pasta dinner", 3)
			require.Len(t, again.Suggestions, 2)
			assert.Equal(t, "Pasta", again.Suggestions[0].Recipe.Name)
			assert.Equal(t, res.Suggestions[0].Score, again.Suggestions[0].Score)
			assert.True(t, again.Suggestions[0].Feasible)
			assert.True(t, again.Suggestions[1].Feasible)

			require.NotEmpty(t, h.prompts)
			assert.Contains(t, h.prompts[len(h.prompts)-1], "Pasta")

			history, err := os.ReadFile(h.historyPath)
			require.NoError(t, err)
			assert.Equal(t, 2, strings.Count(string(history), "Recipe Name: "))
			assert.Contains(t, string(history), "Preparation Time: 20 minutes")
		})
	}
}

func TestRecipeUpdateChangesRanking(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, open(t))

			w := h.send(t, http.MethodPost, "/add-recipe", map[string]interface{}{
				"name": "Mystery Bowl", "ingredients": []string{"rice"}, "instructions": "Steam the rice.",
			})
			require.Equal(t, http.StatusCreated, w.Code)
			var created struct {
				Recipe model.Recipe `json:"recipe"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
			require.Equal(t, http.StatusCreated, h.send(t, http.MethodPost, "/add-recipe", map[string]interface{}{
				"name": "Fried Noodles", "ingredients": []string{"noodles", "soy sauce"}, "instructions": "Fry the noodles with soy sauce.",
			}).Code)

			before := h.chat(t, "noodles with soy sauce", 1)
			require.Len(t, before.Suggestions, 1)
			assert.Equal(t, "Fried Noodles", before.Suggestions[0].Recipe.Name)

			w = h.send(t, http.MethodPut, "/recipes/"+created.Recipe.ID.String(), map[string]interface{}{
				"name":         "Soy Sauce Noodles",
				"ingredients":  []string{"noodles", "soy sauce"},
				"instructions": "Noodles with soy sauce with soy sauce noodles.",
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			after := h.chat(t, "noodles with soy sauce", 2)
			require.Len(t, after.Suggestions, 2)
			names := []string{after.Suggestions[0].Recipe.Name, after.Suggestions[1].Recipe.Name}
			assert.ElementsMatch(t, []string{"Soy Sauce Noodles", "Fried Noodles"}, names)
		})
	}
}

func TestChatOnEmptyCorpus(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, open(t))
			res := h.chat(t, "anything at all", 3)
			assert.Empty(t, res.Suggestions)
		})
	}
}
