// Package redcap fetches enrollment records from the study management
// system. The API is a single form-POST endpoint returning JSON; a failed
// fetch is fatal to the run because group assignment depends on it.
package redcap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tamslo/pharme-study-result-analyses/domain/study"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/errors"
)

// Client talks to the REDCap record export API.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	logger     *internal.Logger
}

// NewClient creates a client for the given endpoint. The timeout is short
// on purpose; enrollment data is small and a hanging fetch should fail the
// run quickly.
func NewClient(apiURL, token string, timeout time.Duration, logger *internal.Logger) *Client {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Client{
		url:        apiURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Enrollments fetches and decodes the enrollment records, dropping the
// known test accounts.
func (c *Client) Enrollments(ctx context.Context) ([]study.EnrollmentRecord, error) {
	form := url.Values{}
	form.Set("token", c.token)
	form.Set("content", "record")
	form.Set("format", "json")

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.ExternalServiceError("redcap", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, errors.ExternalServiceError("redcap", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		return nil, errors.ExternalServiceError("redcap",
			fmt.Errorf("unexpected status %d: %s", response.StatusCode, strings.TrimSpace(string(body))))
	}

	var records []study.EnrollmentRecord
	if err := json.NewDecoder(response.Body).Decode(&records); err != nil {
		return nil, errors.ExternalServiceError("redcap", err)
	}

	kept := records[:0]
	for _, record := range records {
		if record.IsTestAccount() {
			c.logger.Debug("Skipping test account %s", record.StudyID)
			continue
		}
		kept = append(kept, record)
	}
	return kept, nil
}
