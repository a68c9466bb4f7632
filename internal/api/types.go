package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pageza/pantrychef/backend/internal/service"
)

// Quantity accepts a JSON number or a numeric string ("2", "1.5"). null and
// "" leave it unset.
type Quantity struct {
	Value *float64
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (q *Quantity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		q.Value = nil
		return nil
	}

	// Try to unmarshal as number first
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		q.Value = &num
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("quantity must be a number")
	}
	str = strings.TrimSpace(str)
	if str == "" {
		q.Value = nil
		return nil
	}
	num, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return fmt.Errorf("quantity must be a number, got %q", str)
	}
	q.Value = &num
	return nil
}

// MarshalJSON implements the json.Marshaler interface
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*q.Value)
}

// IngredientRequest is the body of POST /add-ingredient.
type IngredientRequest struct {
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     *string  `json:"unit"`
}

func (r IngredientRequest) toService() *service.CreateIngredientRequest {
	return &service.CreateIngredientRequest{
		Name:     r.Name,
		Quantity: r.Quantity.Value,
		Unit:     r.Unit,
	}
}

// IngredientUpdateRequest is the body of PUT /update-ingredient/:id. Absent
// fields are left unchanged.
type IngredientUpdateRequest struct {
	Name     *string  `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     *string  `json:"unit"`
}

func (r IngredientUpdateRequest) toService() *service.UpdateIngredientRequest {
	return &service.UpdateIngredientRequest{
		Name:     r.Name,
		Quantity: r.Quantity.Value,
		Unit:     r.Unit,
	}
}

// ChatRequest is the body of POST /chat. A missing top_k uses the
// configured default.
type ChatRequest struct {
	Message string `json:"message"`
	TopK    *int   `json:"top_k"`
}

// MessageResponse acknowledges a write and echoes the stored entity.
type MessageResponse struct {
	Message    string      `json:"message"`
	Ingredient interface{} `json:"ingredient,omitempty"`
	Recipe     interface{} `json:"recipe,omitempty"`
}
