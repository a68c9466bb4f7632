package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrychef/backend/internal/model"
)

func TestFormatHistoryEntry(t *testing.T) {
	r := &model.Recipe{
		Name:         "Pasta",
		Ingredients:  model.JSONBStringArray{"pasta", "tomato"},
		Instructions: "Boil pasta, add tomato.",
	}
	assert.Equal(t,
		"Recipe Name: Pasta\nIngredients: pasta, tomato\nInstructions: Boil pasta, add tomato.\n\n",
		FormatHistoryEntry(r))

	r.CuisineType = ptr("Italian")
	r.Taste = ptr("savory")
	r.PreparationTime = ptr(20)
	entry := FormatHistoryEntry(r)
	assert.Contains(t, entry, "Cuisine: Italian\nTaste: savory\nPreparation Time: 20 minutes\n\n")
}

func TestFileHistoryLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "my_fav_recipes.txt")
	log, err := NewFileHistoryLog(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := &model.Recipe{Name: "R" + strings.Repeat("x", i), Ingredients: model.JSONBStringArray{"a"}}
			assert.NoError(t, log.Append(context.Background(), r))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entries := strings.Split(strings.TrimSuffix(string(data), "\n\n"), "\n\n")
	assert.Len(t, entries, 20)
	for _, e := range entries {
		assert.True(t, strings.HasPrefix(e, "Recipe Name: R"), e)
		assert.Equal(t, 3, strings.Count(e, "\n")+1)
	}
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3HistoryLog(t *testing.T) {
	client := &fakeS3{}
	log := newS3HistoryLog(client, "history-bucket")
	r := &model.Recipe{
		ID:          uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		CreatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Name:        "Soup",
		Ingredients: model.JSONBStringArray{"water"},
	}

	require.NoError(t, log.Append(context.Background(), r))

	require.Len(t, client.inputs, 1)
	assert.Equal(t, "history-bucket", aws.ToString(client.inputs[0].Bucket))
	assert.Equal(t, "recipes/20240301T120000.000000000Z-11111111-2222-3333-4444-555555555555.txt", aws.ToString(client.inputs[0].Key))
	assert.Equal(t, FormatHistoryEntry(r), client.bodies[0])

	client.err = errors.New("access denied")
	assert.Error(t, log.Append(context.Background(), r))
}

func TestMultiHistoryLogStopsAtFirstFailure(t *testing.T) {
	failing := &fakeS3{err: errors.New("boom")}
	second := &fakeS3{}
	multi := MultiHistoryLog{newS3HistoryLog(failing, "a"), newS3HistoryLog(second, "b")}

	err := multi.Append(context.Background(), &model.Recipe{Name: "x"})
	assert.Error(t, err)
	assert.Empty(t, second.inputs)
}
