package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plazagoods/storefront-backend/api/responses"
	"github.com/plazagoods/storefront-backend/api/validators"
	productsvc "github.com/plazagoods/storefront-backend/internal/products"
	"github.com/plazagoods/storefront-backend/pkg/db/models"
	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
	"github.com/plazagoods/storefront-backend/pkg/logger"
)

type productResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discount_percent"`
	ImageURLs       []string        `json:"image_urls"`
	InStock         bool            `json:"in_stock"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProductsList returns a page of catalog rows, optionally filtered by category.
func ProductsList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := productsvc.ListParams{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Limit:    limit,
			Offset:   offset,
		}

		rows, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]productResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newProductResponse(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"products": out})
	}
}

// ProductGet returns a single catalog row by id.
func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "productID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		row, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"product": newProductResponse(row)})
	}
}

func newProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:              p.ID,
		Name:            p.Name,
		Category:        p.Category,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		ImageURLs:       p.ImageURLs,
		InStock:         p.InStock,
		CreatedAt:       p.CreatedAt,
	}
}
