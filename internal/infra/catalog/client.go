package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront/internal/domain/model"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// 応答ボディの上限（サンプルカタログは数十KB）
const maxBodyBytes = 8 << 20

// Clientは公開サンプルカタログ（fakestoreapi互換）を読む。
type Client struct {
	url  string
	http *http.Client
}

// DI
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// テストでhttptestのクライアントを差し込む時用
func NewClientWithHTTP(url string, hc *http.Client) *Client {
	return &Client{url: url, http: hc}
}

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog responded %d: %s", e.StatusCode, e.Body)
}

// FetchProductsはカタログ全件を取得する（パラメータなし）
func (c *Client) FetchProducts(ctx context.Context) ([]model.CatalogItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}

	var items []model.CatalogItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return items, nil
}
