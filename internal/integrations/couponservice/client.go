package couponservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m04kA/SMC-DispatchService/internal/domain"
)

// Client клиент для работы с CouponService
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента CouponService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetCoupon получает купон по коду
// Несуществующий или истёкший купон — бизнес-ошибка, бронирование с таким
// кодом отклоняется целиком
func (c *Client) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	endpoint := fmt.Sprintf("%s/internal/coupons/%s", c.baseURL, url.PathEscape(code))

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

	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		c.log.Info("CouponService: coupon %q not found", code)
		return nil, ErrCouponNotFound
	case http.StatusGone:
		c.log.Info("CouponService: coupon %q expired", code)
		return nil, ErrCouponExpired
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var coupon Coupon
	if err := json.NewDecoder(resp.Body).Decode(&coupon); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	if coupon.Expired {
		return nil, ErrCouponExpired
	}

	return &domain.Coupon{
		Code:  coupon.Code,
		Type:  domain.DiscountType(coupon.Type),
		Value: coupon.Value,
	}, nil
}
