package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pageza/pantrychef/backend/config"
	"github.com/pageza/pantrychef/backend/internal/apperr"
	"github.com/pageza/pantrychef/backend/internal/database"
	"github.com/pageza/pantrychef/backend/internal/logging"
	"github.com/pageza/pantrychef/backend/internal/service"
)

// SeedData is the shape of the optional -file input.
type SeedData struct {
	Pantry  []service.CreateIngredientRequest `json:"pantry"`
	Recipes []service.CreateRecipeRequest     `json:"recipes"`
}

func main() {
	file := flag.String("file", "", "JSON file with pantry and recipes to seed instead of the built-in demo set")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})

	data := demoData()
	if *file != "" {
		if data, err = readSeedFile(*file); err != nil {
			logging.Fatal().Err(err).Msg("failed to read seed file")
		}
	}

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	var history service.HistoryLog
	if cfg.HistoryLogPath != "" {
		fileLog, err := service.NewFileHistoryLog(cfg.HistoryLogPath)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to open history log")
		}
		history = fileLog
	}

	ctx := context.Background()
	ingredients := service.NewIngredientService(db)
	recipes := service.NewRecipeService(db, history, nil)

	var added, skipped int
	for i := range data.Pantry {
		req := data.Pantry[i]
		if _, err := ingredients.CreateIngredient(ctx, &req); err != nil {
			if apperr.Is(err, apperr.KindValidation) {
				logging.Warn().Err(err).Str("ingredient", req.Name).Msg("skipping ingredient")
				skipped++
				continue
			}
			logging.Fatal().Err(err).Str("ingredient", req.Name).Msg("failed to seed ingredient")
		}
		added++
	}
	for i := range data.Recipes {
		req := data.Recipes[i]
		if _, err := recipes.CreateRecipe(ctx, &req); err != nil {
			if apperr.Is(err, apperr.KindValidation) {
				logging.Warn().Err(err).Str("recipe", req.Name).Msg("skipping recipe")
				skipped++
				continue
			}
			logging.Fatal().Err(err).Str("recipe", req.Name).Msg("failed to seed recipe")
		}
		added++
	}

	logging.Info().Int("added", added).Int("skipped", skipped).Msg("seeding finished")
}

func readSeedFile(path string) (SeedData, error) {
	var data SeedData
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, err
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return data, nil
}

func demoData() SeedData {
	qty := func(v float64) *float64 { return &v }
	str := func(s string) *string { return &s }
	mins := func(m int) *int { return &m }

	return SeedData{
		Pantry: []service.CreateIngredientRequest{
			{Name: "pasta", Quantity: qty(500), Unit: str("g")},
			{Name: "tomato", Quantity: qty(4)},
			{Name: "garlic", Quantity: qty(6), Unit: str("cloves")},
			{Name: "olive oil", Quantity: qty(1), Unit: str("bottle")},
			{Name: "egg", Quantity: qty(6)},
			{Name: "bread", Quantity: qty(1), Unit: str("loaf")},
			{Name: "lettuce", Quantity: qty(0)},
			{Name: "rice", Quantity: qty(2), Unit: str("kg")},
			{Name: "onion", Quantity: qty(3)},
		},
		Recipes: []service.CreateRecipeRequest{
			{
				Name:            "Spaghetti al Pomodoro",
				Ingredients:     []string{"pasta", "tomato", "garlic", "olive oil"},
				Instructions:    "Boil the pasta. Saute garlic in oil, add chopped tomato and simmer. Toss with the pasta.",
				CuisineType:     str("Italian"),
				Taste:           str("savory"),
				PreparationTime: mins(25),
			},
			{
				Name:            "Garden Salad",
				Ingredients:     []string{"lettuce", "tomato", "olive oil"},
				Instructions:    "Tear the lettuce, slice the tomato, dress with oil.",
				Taste:           str("fresh"),
				PreparationTime: mins(10),
			},
			{
				Name:            "Egg Fried Rice",
				Ingredients:     []string{"rice", "egg", "onion", "garlic"},
				Instructions:    "Fry onion and garlic, add cooked rice, push aside and scramble the eggs, then mix.",
				CuisineType:     str("Chinese"),
				Taste:           str("savory"),
				PreparationTime: mins(20),
			},
			{
				Name:            "Bruschetta",
				Ingredients:     []string{"bread", "tomato", "garlic", "olive oil", "basil"},
				Instructions:    "Toast the bread, rub with garlic, top with diced tomato, basil and oil.",
				CuisineType:     str("Italian"),
				PreparationTime: mins(15),
			},
			{
				Name:            "French Omelette",
				Ingredients:     []string{"egg", "butter"},
				Instructions:    "Beat the eggs, cook gently in butter while stirring, roll onto a plate.",
				CuisineType:     str("French"),
				PreparationTime: mins(5),
			},
		},
	}
}
