// internal/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"storebot-admin/internal/metrics"
	"storebot-admin/internal/models"
)

const maxResponseBytes = 4 << 20

// Client проксирует вызовы панели в backend API: GET {base}/api/{endpoint}
// для чтения и POST с JSON-телом для записи.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient создает клиента; timeout ограничивает весь вызов, включая чтение тела.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (c *Client) endpointURL(endpoint string) string {
	return c.baseURL + "/api/" + strings.TrimPrefix(endpoint, "/")
}

// Call выполняет запрос к endpoint. payload == nil означает GET, иначе POST
// с JSON. Ответ декодируется в out (если out не nil). Любой отказ
// возвращается как *Error, паники наружу не выходят.
func (c *Client) Call(ctx context.Context, endpoint string, payload any, out any) error {
	return c.do(ctx, endpoint, c.endpointURL(endpoint), payload, out)
}

func (c *Client) do(ctx context.Context, endpoint, url string, payload any, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if kind := KindOf(err); kind != 0 {
			outcome = kind.String()
		}
		metrics.RecordUpstreamCall(endpoint, outcome, time.Since(start))
	}()

	method := http.MethodGet
	var body io.Reader
	if payload != nil {
		jsonData, errMarshal := json.Marshal(payload)
		if errMarshal != nil {
			// Не сетевая ошибка, но до backend запрос так и не дошел.
			return &Error{Kind: KindUnreachable, Endpoint: endpoint, Err: fmt.Errorf("failed to marshal request body: %w", errMarshal)}
		}
		method = http.MethodPost
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &Error{Kind: KindUnreachable, Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Backend API недоступен", "endpoint", endpoint, "method", method, "error", err)
		return &Error{Kind: KindUnreachable, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		slog.WarnContext(ctx, "Ошибка чтения ответа backend API", "endpoint", endpoint, "error", err)
		return &Error{Kind: KindUnreachable, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := gjson.GetBytes(bodyBytes, "error").String()
		slog.WarnContext(ctx, "Backend API вернул ошибку HTTP", "endpoint", endpoint, "status_code", resp.StatusCode, "message", message)
		return &Error{Kind: KindStatus, Endpoint: endpoint, StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		if !json.Valid(bodyBytes) {
			return &Error{Kind: KindMalformed, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("body is not valid JSON")}
		}
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		slog.WarnContext(ctx, "Не удалось декодировать JSON от backend API", "endpoint", endpoint, "status_code", resp.StatusCode, "error", err)
		return &Error{Kind: KindMalformed, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.Call(ctx, "stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var resp models.ProductsResponse
	if err := c.Call(ctx, "products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.List(), nil
}

func (c *Client) Stock(ctx context.Context) ([]models.StockSummary, error) {
	var resp models.StockResponse
	if err := c.Call(ctx, "stock", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Stock, nil
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var resp models.UsersResponse
	if err := c.Call(ctx, "users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var resp models.OrdersResponse
	if err := c.Call(ctx, "orders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// AddProduct пересылает поля формы как есть; проверка данных: забота backend.
func (c *Client) AddProduct(ctx context.Context, fields map[string]any) (*models.WriteResult, error) {
	return c.write(ctx, "add_product", fields)
}

func (c *Client) AddStock(ctx context.Context, fields map[string]any) (*models.WriteResult, error) {
	return c.write(ctx, "add_stock", fields)
}

func (c *Client) write(ctx context.Context, endpoint string, fields map[string]any) (*models.WriteResult, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	var result models.WriteResult
	if err := c.Call(ctx, endpoint, fields, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health опрашивает {base}/health: он живет вне префикса /api.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var health models.Health
	if err := c.do(ctx, "health", c.baseURL+"/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
