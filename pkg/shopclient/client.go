package shopclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/minishop/internal/models"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// APIError is a non-2xx answer. Error returns the server's message as is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

type NewItem struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Stock       int             `json:"stock,omitempty"`
}

// ItemUpdate sends only the non-nil fields.
type ItemUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Description *string          `json:"description,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
}

func (c *Client) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := c.do(ctx, http.MethodGet, "/api/items", nil, &items)
	return items, err
}

func (c *Client) GetItem(ctx context.Context, id uuid.UUID) (models.Item, error) {
	var it models.Item
	err := c.do(ctx, http.MethodGet, "/api/items/"+id.String(), nil, &it)
	return it, err
}

func (c *Client) SearchItems(ctx context.Context, q string) ([]models.Item, error) {
	var items []models.Item
	err := c.do(ctx, http.MethodGet, "/api/items/search?q="+url.QueryEscape(q), nil, &items)
	return items, err
}

func (c *Client) CreateItem(ctx context.Context, in NewItem) (models.Item, error) {
	var it models.Item
	err := c.do(ctx, http.MethodPost, "/api/items", in, &it)
	return it, err
}

func (c *Client) UpdateItem(ctx context.Context, id uuid.UUID, upd ItemUpdate) (models.Item, error) {
	var it models.Item
	err := c.do(ctx, http.MethodPut, "/api/items/"+id.String(), upd, &it)
	return it, err
}

func (c *Client) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/items/"+id.String(), nil, nil)
}

func (c *Client) Cart(ctx context.Context) ([]models.DetailedCartLine, error) {
	var lines []models.DetailedCartLine
	err := c.do(ctx, http.MethodGet, "/api/cart", nil, &lines)
	return lines, err
}

// AddToCart adds qty units; qty <= 0 lets the server default to 1.
func (c *Client) AddToCart(ctx context.Context, itemID uuid.UUID, qty int) ([]models.DetailedCartLine, error) {
	body := map[string]any{"itemId": itemID.String()}
	if qty > 0 {
		body["qty"] = qty
	}
	var lines []models.DetailedCartLine
	err := c.do(ctx, http.MethodPost, "/api/cart", body, &lines)
	return lines, err
}

func (c *Client) SetQty(ctx context.Context, lineID uuid.UUID, qty int) ([]models.DetailedCartLine, error) {
	var lines []models.DetailedCartLine
	err := c.do(ctx, http.MethodPut, "/api/cart/"+lineID.String(), map[string]int{"qty": qty}, &lines)
	return lines, err
}

// ChangeQty moves line's quantity by delta. The server only knows absolute
// quantities, so the new value is computed from the line as last seen.
func (c *Client) ChangeQty(ctx context.Context, line models.DetailedCartLine, delta int) ([]models.DetailedCartLine, error) {
	return c.SetQty(ctx, line.ID, line.Qty+delta)
}

func (c *Client) RemoveLine(ctx context.Context, lineID uuid.UUID) ([]models.DetailedCartLine, error) {
	var lines []models.DetailedCartLine
	err := c.do(ctx, http.MethodDelete, "/api/cart/"+lineID.String(), nil, &lines)
	return lines, err
}

// Total sums price*qty over lines whose item still exists.
func Total(lines []models.DetailedCartLine) decimal.Decimal {
	return models.CartTotal(lines)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = fmt.Sprintf("request failed with status: %d", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
