package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/plazagoods/storefront-backend/internal/cartstore"
	"github.com/plazagoods/storefront-backend/pkg/config"
	pkgerrors "github.com/plazagoods/storefront-backend/pkg/errors"
	"github.com/plazagoods/storefront-backend/pkg/types"
)

const cartPath = "/api/v1/cart"

var _ cartstore.RemoteCart = (*Client)(nil)

// Client talks to the remote cart resource on behalf of one authenticated
// session. Every request carries the session's bearer token and a bounded
// timeout so a hung server cannot wedge an optimistic mutation forever.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// New builds a client against cfg.APIBaseURL using the configured request timeout.
func New(cfg config.CartConfig, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type cartEnvelope struct {
	Data struct {
		Cart []types.CartLine `json:"cart"`
	} `json:"data"`
}

type addRequest struct {
	ProductID string                `json:"product_id"`
	Quantity  int                   `json:"quantity"`
	Product   types.ProductSnapshot `json:"product"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// Fetch returns the server-side cart for the bound session.
func (c *Client) Fetch(ctx context.Context) ([]types.CartLine, error) {
	var envelope cartEnvelope
	if err := c.do(ctx, http.MethodGet, cartPath, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data.Cart, nil
}

// Add inserts or increments the product line server-side.
func (c *Client) Add(ctx context.Context, productID string, quantity int, snapshot types.ProductSnapshot) error {
	body := addRequest{ProductID: productID, Quantity: quantity, Product: snapshot}
	return c.do(ctx, http.MethodPost, cartPath, body, nil)
}

// SetQuantity replaces the product line's quantity server-side.
func (c *Client) SetQuantity(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPatch, cartPath+"/"+productID, quantityRequest{Quantity: quantity}, nil)
}

// Remove deletes one product line server-side.
func (c *Client) Remove(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, cartPath+"/"+productID, nil, nil)
}

// Clear deletes every line in the server-side cart.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, cartPath, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling cart api")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding cart api response")
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Code == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("cart api returned status %d", resp.StatusCode))
	}
	return pkgerrors.New(pkgerrors.Code(envelope.Error.Code), envelope.Error.Message)
}
