package cartclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/plazagoods/storefront-backend/pkg/config"
	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
	"github.com/plazagoods/storefront-backend/pkg/types"
)

func testConfig(baseURL string) config.CartConfig {
	return config.CartConfig{
		APIBaseURL:     baseURL,
		RequestTimeout: 2 * time.Second,
	}
}

func TestFetchDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/cart", r.URL.Path)
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"cart": []types.CartLine{
					{ProductID: "p-1", Quantity: 2, Product: types.ProductSnapshot{ID: "p-1", Price: decimal.RequireFromString("9.50")}},
				},
			},
		})
	}))
	defer server.Close()

	client := New(testConfig(server.URL), "tok-123")
	lines, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "p-1", lines[0].ProductID)
	require.Equal(t, 2, lines[0].Quantity)
	require.True(t, lines[0].Product.Price.Equal(decimal.RequireFromString("9.50")))
}

func TestAddPostsPayload(t *testing.T) {
	var got addRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
	defer server.Close()

	client := New(testConfig(server.URL), "tok")
	err := client.Add(context.Background(), "p-9", 3, types.ProductSnapshot{ID: "p-9"})
	require.NoError(t, err)
	require.Equal(t, "p-9", got.ProductID)
	require.Equal(t, 3, got.Quantity)
}

func TestSetQuantityAndRemoveTargetItemPath(t *testing.T) {
	var paths []string
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		methods = append(methods, r.Method)
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))
	defer server.Close()

	client := New(testConfig(server.URL), "tok")
	require.NoError(t, client.SetQuantity(context.Background(), "p-1", 4))
	require.NoError(t, client.Remove(context.Background(), "p-1"))
	require.NoError(t, client.Clear(context.Background()))

	require.Equal(t, []string{"/api/v1/cart/p-1", "/api/v1/cart/p-1", "/api/v1/cart"}, paths)
	require.Equal(t, []string{http.MethodPatch, http.MethodDelete, http.MethodDelete}, methods)
}

func TestAPIErrorCodeIsPropagated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(types.ErrorEnvelope{
			Error: types.APIError{Code: "NOT_FOUND", Message: "cart entry not found"},
		})
	}))
	defer server.Close()

	client := New(testConfig(server.URL), "tok")
	err := client.SetQuantity(context.Background(), "ghost", 2)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestOpaqueFailureMapsToDependencyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(testConfig(server.URL), "tok")
	err := client.Clear(context.Background())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}
