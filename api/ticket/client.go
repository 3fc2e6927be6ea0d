// api/ticket/client.go
package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/argus/api/logging"
)

// Client is the external issue tracker surface the synchronizer depends on.
// Authentication and transport are this package's concern; callers only see
// issue keys and statuses.
type Client interface {
	CreateIssue(ctx context.Context, fields map[string]interface{}) (*Issue, error)
	GetIssue(ctx context.Context, key string) (*Issue, error)
	AddComment(ctx context.Context, key, body string) error
	LinkIssues(ctx context.Context, inwardKey, outwardKey, relationType string) error
	FieldKinds(ctx context.Context) (map[string]FieldKind, error)
}

type jiraClient struct {
	baseURL  string
	username string
	apiToken string
	client   *http.Client
}

// NewJiraClient creates a tracker client against the Jira REST v2 API.
func NewJiraClient(baseURL, username, apiToken string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &jiraClient{
		baseURL:  baseURL,
		username: username,
		apiToken: apiToken,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *jiraClient) CreateIssue(ctx context.Context, fields map[string]interface{}) (*Issue, error) {
	payload := map[string]interface{}{"fields": fields}
	var created Issue
	if err := c.do(ctx, http.MethodPost, "/rest/api/2/issue", payload, &created); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	logger.Info("Created tracker issue", zap.String("issueKey", created.Key))
	return &created, nil
}

func (c *jiraClient) GetIssue(ctx context.Context, key string) (*Issue, error) {
	var raw struct {
		ID     string `json:"id"`
		Key    string `json:"key"`
		Fields struct {
			Status struct {
				Name string `json:"name"`
			} `json:"status"`
		} `json:"fields"`
	}
	path := fmt.Sprintf("/rest/api/2/issue/%s?fields=status", key)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", key, err)
	}
	return &Issue{ID: raw.ID, Key: raw.Key, Status: raw.Fields.Status.Name}, nil
}

func (c *jiraClient) AddComment(ctx context.Context, key, body string) error {
	path := fmt.Sprintf("/rest/api/2/issue/%s/comment", key)
	payload := map[string]interface{}{"body": body}
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("failed to comment on issue %s: %w", key, err)
	}
	return nil
}

func (c *jiraClient) LinkIssues(ctx context.Context, inwardKey, outwardKey, relationType string) error {
	payload := map[string]interface{}{
		"type":         map[string]interface{}{"name": relationType},
		"inwardIssue":  map[string]interface{}{"key": inwardKey},
		"outwardIssue": map[string]interface{}{"key": outwardKey},
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/2/issueLink", payload, nil); err != nil {
		return fmt.Errorf("failed to link issues %s -> %s: %w", inwardKey, outwardKey, err)
	}
	return nil
}

// FieldKinds fetches the tracker's field schema and maps each field id to the
// tagged kind used by the custom-field transform.
func (c *jiraClient) FieldKinds(ctx context.Context) (map[string]FieldKind, error) {
	var fields []struct {
		ID     string `json:"id"`
		Schema struct {
			Type  string `json:"type"`
			Items string `json:"items"`
		} `json:"schema"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/field", nil, &fields); err != nil {
		return nil, fmt.Errorf("failed to fetch field schema: %w", err)
	}

	kinds := make(map[string]FieldKind, len(fields))
	for _, f := range fields {
		switch f.Schema.Type {
		case "option":
			kinds[f.ID] = FieldOption
		case "array":
			if f.Schema.Items == "option" {
				kinds[f.ID] = FieldMultiOption
			}
		case "user":
			kinds[f.ID] = FieldUser
		case "number":
			kinds[f.ID] = FieldNumber
		case "date", "datetime":
			kinds[f.ID] = FieldDate
		case "string":
			kinds[f.ID] = FieldText
		}
	}
	return kinds, nil
}

func (c *jiraClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("tracker returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode tracker response: %w", err)
		}
	}
	return nil
}
