package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avelore/consignpos-import-service/internal/catalog"
)

// HTTPService is the JSON client for the catalog/inventory service.
type HTTPService struct {
	baseURL string
	client  *http.Client
}

func NewHTTPService(baseURL string, timeout time.Duration) catalog.Service {
	return &HTTPService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPService) CreateItem(ctx context.Context, input *catalog.CreateItemInput) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	err := s.post(ctx, input.MerchantID, "/api/v1/items", input, &result)
	if err != nil {
		return "", err
	}
	return result.ID, nil
}

func (s *HTTPService) BulkAssignConsignor(ctx context.Context, merchantID string, ids []string, consignorID string) (*catalog.BulkAssignResult, error) {
	body := struct {
		IDs         []string `json:"ids"`
		ConsignorID string   `json:"consignor_id"`
	}{IDs: ids, ConsignorID: consignorID}

	var result catalog.BulkAssignResult
	if err := s.post(ctx, merchantID, "/api/v1/pending-imports/bulk-assign", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *HTTPService) ImportVerified(ctx context.Context, merchantID string, ids []string) (*catalog.ImportVerifiedResult, error) {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}

	var result catalog.ImportVerifiedResult
	if err := s.post(ctx, merchantID, "/api/v1/pending-imports/import", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *HTTPService) CreateFromManifest(ctx context.Context, merchantID, manifestID string, autoAssign bool) ([]catalog.ManifestItem, error) {
	body := struct {
		AutoAssign bool `json:"auto_assign"`
	}{AutoAssign: autoAssign}

	var result struct {
		Items []catalog.ManifestItem `json:"items"`
	}
	path := fmt.Sprintf("/api/v1/manifests/%s/pending-imports", manifestID)
	if err := s.post(ctx, merchantID, path, body, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (s *HTTPService) post(ctx context.Context, merchantID, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Merchant-Id", merchantID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("catalog service returned status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
