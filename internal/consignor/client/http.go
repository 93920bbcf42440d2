package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avelore/consignpos-import-service/internal/consignor"
	"github.com/avelore/consignpos-import-service/internal/model"
)

// HTTPDirectory talks to the consignor directory service.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

func NewHTTPDirectory(baseURL string, timeout time.Duration) consignor.Directory {
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDirectory) ListConsignors(ctx context.Context, merchantID string) ([]model.Consignor, error) {
	url := fmt.Sprintf("%s/api/v1/consignors", d.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Merchant-Id", merchantID)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("consignor directory unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("consignor directory returned status %d", resp.StatusCode)
	}

	var payload struct {
		Consignors []model.Consignor `json:"consignors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode consignor directory response: %w", err)
	}
	return payload.Consignors, nil
}
