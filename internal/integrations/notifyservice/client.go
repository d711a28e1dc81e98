package notifyservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// Client клиент для отправки событий жизненного цикла в NotifyService
//
// События advisory: публикация выполняется после коммита транзакции,
// ошибка доставки только логируется вызывающим кодом и никогда не
// откатывает переход статуса
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента NotifyService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Publish отправляет событие жизненного цикла
func (c *Client) Publish(ctx context.Context, event domain.OutboxEvent) error {
	payload, err := json.Marshal(Event{
		Type:      string(event.Type),
		BookingID: event.BookingID,
		ClientID:  event.ClientID,
		AgentID:   event.AgentID,
		Note:      event.Note,
		CreatedAt: event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to encode event: %v", ErrInternal, err)
	}

	endpoint := fmt.Sprintf("%s/internal/events", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	c.log.Info("NotifyService: published %s for booking id=%d", event.Type, event.BookingID)
	return nil
}
