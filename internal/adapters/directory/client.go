// Package directory resolves buyer and supplier display data from the
// company directory service, fronted by a TTL cache.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"b2b_marketplace_backend/platform/apperr"
	"b2b_marketplace_backend/platform/logger"

	"github.com/google/uuid"
)

// Company is the directory record of a marketplace party.
type Company struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	CountryCode string    `json:"countryCode"`
}

// Client is the HTTP client for the directory service.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	serviceToken string
	log          *logger.Logger
}

// NewClient creates a directory client.
func NewClient(baseURL, serviceToken string, log *logger.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: serviceToken,
		log:          log,
	}
}

// GetCompany fetches one company by id.
func (c *Client) GetCompany(ctx context.Context, id uuid.UUID) (Company, error) {
	reqURL := fmt.Sprintf("%s/api/v1/companies/%s", c.baseURL, url.PathEscape(id.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Company{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Company{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Company{}, apperr.NotFound("company not found")
	default:
		c.log.Error("directory upstream error", "status", resp.StatusCode, "companyId", id)
		return Company{}, fmt.Errorf("upstream error: status %d", resp.StatusCode)
	}

	var company Company
	if err := json.NewDecoder(resp.Body).Decode(&company); err != nil {
		return Company{}, fmt.Errorf("decode response: %w", err)
	}
	if company.ID == uuid.Nil {
		company.ID = id
	}
	return company, nil
}
