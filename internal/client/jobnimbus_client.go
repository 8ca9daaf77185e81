package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const defaultJobNimbusBaseURL = "https://app.jobnimbus.com/api1"

// JobNimbusContact is the slice of the CRM's contact schema this service
// writes. Rollup totals travel in the description since JobNimbus custom
// fields are account-specific.
type JobNimbusContact struct {
	DisplayName    string `json:"display_name"`
	RecordTypeName string `json:"record_type_name,omitempty"`
	StatusName     string `json:"status_name,omitempty"`
	AddressLine1   string `json:"address_line1,omitempty"`
	City           string `json:"city,omitempty"`
	StateText      string `json:"state_text,omitempty"`
	Zip            string `json:"zip,omitempty"`
	Description    string `json:"description,omitempty"`
}

// CRMError carries the remote HTTP status so the sync adapter can classify
// auth failures and 4xx/5xx responses separately.
type CRMError struct {
	StatusCode int
	Body       string
}

func (e *CRMError) Error() string {
	return fmt.Sprintf("jobnimbus returned status %d: %s", e.StatusCode, e.Body)
}

type JobNimbusClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewJobNimbusClient(baseURL, apiKey string) *JobNimbusClient {
	if baseURL == "" {
		baseURL = defaultJobNimbusBaseURL
	}
	return &JobNimbusClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *JobNimbusClient) CreateContact(ctx context.Context, contact JobNimbusContact) (string, error) {
	var created struct {
		JNID string `json:"jnid"`
	}
	if err := c.do(ctx, http.MethodPost, "/contacts", contact, &created); err != nil {
		return "", err
	}
	if created.JNID == "" {
		return "", errors.New("jobnimbus create returned no jnid")
	}
	return created.JNID, nil
}

func (c *JobNimbusClient) UpdateContact(ctx context.Context, jnid string, contact JobNimbusContact) error {
	return c.do(ctx, http.MethodPut, "/contacts/"+jnid, contact, nil)
}

func (c *JobNimbusClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode/100 != 2 {
		return &CRMError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}
