package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plazagoods/storefront-backend/api/middleware"
	"github.com/plazagoods/storefront-backend/api/responses"
	"github.com/plazagoods/storefront-backend/api/validators"
	cartsvc "github.com/plazagoods/storefront-backend/internal/cart"
	productsvc "github.com/plazagoods/storefront-backend/internal/products"
	"github.com/plazagoods/storefront-backend/pkg/db/models"
	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
	"github.com/plazagoods/storefront-backend/pkg/logger"
	"github.com/plazagoods/storefront-backend/pkg/types"
)

type addItemRequest struct {
	ProductID string                `json:"product_id" validate:"required"`
	Quantity  int                   `json:"quantity" validate:"required,min=1"`
	Product   types.ProductSnapshot `json:"product"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartResponse struct {
	Cart []types.CartLine `json:"cart"`
}

// CartFetch returns every line in the authenticated user's cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r, svc, logg)
		if !ok {
			return
		}

		entries, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(entries))
	}
}

// CartAdd inserts or increments a cart line for the authenticated user. When
// the payload carries no snapshot and the product id is a catalog id, the
// snapshot is captured server-side so clients cannot forge prices.
func CartAdd(svc cartsvc.Service, catalog productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r, svc, logg)
		if !ok {
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot := payload.Product
		if snapshot.ID == "" && catalog != nil {
			if productID, err := uuid.Parse(payload.ProductID); err == nil {
				row, err := catalog.Get(r.Context(), productID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				snapshot = productsvc.Snapshot(row)
			}
		}

		input := cartsvc.AddItemInput{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			Snapshot:  snapshot,
		}
		entries, err := svc.AddItem(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(entries))
	}
}

// CartUpdateQuantity replaces the quantity of one cart line. Non-positive
// quantities remove the line.
func CartUpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r, svc, logg)
		if !ok {
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetQuantity(r.Context(), userID, productID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(entries))
	}
}

// CartRemove deletes one cart line. Removing an absent line succeeds.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r, svc, logg)
		if !ok {
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		if err := svc.RemoveItem(r.Context(), userID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.GetCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(entries))
	}
}

// CartClear deletes every line in the authenticated user's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r, svc, logg)
		if !ok {
			return
		}

		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartResponse{Cart: []types.CartLine{}})
	}
}

func requireUserID(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return uuid.Nil, false
	}

	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
		return uuid.Nil, false
	}

	return userID, true
}

func newCartResponse(entries []models.CartEntry) cartResponse {
	lines := make([]types.CartLine, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, types.CartLine{
			ProductID: entry.ProductID,
			Product:   entry.Product,
			Quantity:  entry.Quantity,
			AddedAt:   entry.AddedAt,
		})
	}
	return cartResponse{Cart: lines}
}
