package catalogue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchProducts_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/products/search", r.URL.Path)
		assert.Equal(t, "jogurt", r.URL.Query().Get("q"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[
			{"id":"p-1","name":"Jogurt naturalny","brand":"Piątnica",
			 "nutrition":{"calories_per_100g":61,"protein_per_100g":4.3,"fat_per_100g":2,"carbs_per_100g":6.2},
			 "units":[{"label":"kubek","grams":180}]},
			{"id":42,"name":"Jogurt grecki","nutrition":{"calories_per_100g":97}},
			{"id":null,"name":"  "}
		],"total":3}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 0)
	products, err := client.SearchProducts(context.Background(), "jogurt")

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p-1", *products[0].ID)
	assert.Equal(t, "Piątnica", products[0].Brand)
	assert.Equal(t, 61.0, products[0].Nutrition.CaloriesPer100g)
	assert.Equal(t, []domain.UnitInfo{{Label: "kubek", Grams: 180}}, products[0].Units)
	assert.Equal(t, "42", *products[1].ID)
	assert.Equal(t, 0.0, products[1].Nutrition.ProteinPer100g)
}

func TestSearchProducts_ServerError_Retries(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"products":[{"id":"p","name":"Bread"}]}`))
	}))
	defer server.Close()

	client := NewClient("k", server.URL, 0)
	products, err := client.SearchProducts(context.Background(), "bread")

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestSearchProducts_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"bad request", http.StatusBadRequest, "query too short", domain.ErrInvalidRequest},
		{"forbidden", http.StatusForbidden, "nope", domain.ErrCatalogueAPIFailure},
		{"server down", http.StatusServiceUnavailable, "", domain.ErrCatalogueAPIFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			products, err := NewClient("k", server.URL, 0).SearchProducts(context.Background(), "x")
			assert.Nil(t, products)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSearchProducts_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	_, err := NewClient("k", server.URL, 0).SearchProducts(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestGetProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/products/p-1":
			w.Write([]byte(`{"id":"p-1","name":"Banana","nutrition":{"calories_per_100g":89}}`))
		case "/v1/products/barcode/5900512300108":
			w.Write([]byte(`{"id":"p-2","name":"Mleko 2%","barcode":"5900512300108"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient("k", server.URL, 0)
	ctx := context.Background()

	product, err := client.GetProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Banana", product.Name)
	assert.Equal(t, 89.0, product.Nutrition.CaloriesPer100g)

	product, err = client.GetProductByBarcode(ctx, "5900512300108")
	require.NoError(t, err)
	assert.Equal(t, "p-2", *product.ID)
	assert.Equal(t, "5900512300108", product.Barcode)

	product, err = client.GetProduct(ctx, "missing")
	assert.Nil(t, product)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestEnsureProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/products/ensure", r.URL.Path)

		var req domain.EnsureProductRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Pierogi ruskie", req.Name)
		assert.Equal(t, 190.0, req.Nutrition.CaloriesPer100g)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"p-new","created":true}`))
	}))
	defer server.Close()

	id, err := NewClient("k", server.URL, 0).EnsureProduct(context.Background(), &domain.EnsureProductRequest{
		Name:      "Pierogi ruskie",
		Nutrition: domain.ProductNutrition{CaloriesPer100g: 190},
	})
	require.NoError(t, err)
	assert.Equal(t, "p-new", id)
}

func TestEnsureProduct_EmptyID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":""}`))
	}))
	defer server.Close()

	_, err := NewClient("k", server.URL, 0).EnsureProduct(context.Background(), &domain.EnsureProductRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrCatalogueAPIFailure)
}
