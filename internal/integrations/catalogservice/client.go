package catalogservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// Client клиент для работы с CatalogService
//
// Каталог — справочные данные, движок их только читает. Неизвестные
// идентификаторы услуг не являются ошибкой: цена для них разрешается
// через переопределения клиента или fallback-цены
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента CatalogService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetServices получает записи каталога для перечисленных услуг
// Отсутствующие в каталоге идентификаторы просто не попадают в результат
func (c *Client) GetServices(ctx context.Context, serviceIDs []string) (domain.Catalog, error) {
	endpoint := fmt.Sprintf("%s/internal/services?ids=%s",
		c.baseURL, url.QueryEscape(strings.Join(serviceIDs, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var payload servicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	catalog := make(domain.Catalog, len(payload.Services))
	for _, svc := range payload.Services {
		catalog[svc.ID] = domain.ServiceCatalogEntry{
			ID:              svc.ID,
			Name:            svc.Name,
			DurationMinutes: svc.DurationMinutes,
			ListPrice:       svc.ListPrice,
			Category:        svc.Category,
			ClientVisible:   svc.ClientVisible,
		}
	}

	c.log.Info("CatalogService: fetched %d of %d requested services", len(catalog), len(serviceIDs))
	return catalog, nil
}
