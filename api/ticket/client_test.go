// api/ticket/client_test.go
package ticket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dev-mohitbeniwal/argus/api/ticket"
)

func TestJiraClientCreateIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/2/issue", r.URL.Path)

		username, token, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bot", username)
		assert.Equal(t, "secret", token)

		var payload struct {
			Fields map[string]interface{} `json:"fields"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Access review: payments", payload.Fields["summary"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "10001", "key": "AUD-1"})
	}))
	defer server.Close()

	client := ticket.NewJiraClient(server.URL, "bot", "secret", 5*time.Second)

	issue, err := client.CreateIssue(context.Background(), map[string]interface{}{
		"summary": "Access review: payments",
	})
	assert.NoError(t, err)
	assert.Equal(t, "AUD-1", issue.Key)
}

func TestJiraClientGetIssueExtractsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/issue/AUD-1", r.URL.Path)
		assert.Equal(t, "status", r.URL.Query().Get("fields"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":  "10001",
			"key": "AUD-1",
			"fields": map[string]interface{}{
				"status": map[string]string{"name": "In Progress"},
			},
		})
	}))
	defer server.Close()

	client := ticket.NewJiraClient(server.URL, "bot", "secret", 5*time.Second)

	issue, err := client.GetIssue(context.Background(), "AUD-1")
	assert.NoError(t, err)
	assert.Equal(t, "In Progress", issue.Status)
}

func TestJiraClientSurfacesTrackerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessages":["project is required"]}`))
	}))
	defer server.Close()

	client := ticket.NewJiraClient(server.URL, "bot", "secret", 5*time.Second)

	_, err := client.CreateIssue(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestJiraClientFieldKinds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/field", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "customfield_10100", "schema": map[string]string{"type": "option"}},
			{"id": "customfield_10101", "schema": map[string]string{"type": "array", "items": "option"}},
			{"id": "customfield_10102", "schema": map[string]string{"type": "user"}},
			{"id": "customfield_10103", "schema": map[string]string{"type": "number"}},
			{"id": "customfield_10104", "schema": map[string]string{"type": "date"}},
			{"id": "summary", "schema": map[string]string{"type": "string"}},
			{"id": "attachments", "schema": map[string]string{"type": "array", "items": "attachment"}},
		})
	}))
	defer server.Close()

	client := ticket.NewJiraClient(server.URL, "bot", "secret", 5*time.Second)

	kinds, err := client.FieldKinds(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, ticket.FieldOption, kinds["customfield_10100"])
	assert.Equal(t, ticket.FieldMultiOption, kinds["customfield_10101"])
	assert.Equal(t, ticket.FieldUser, kinds["customfield_10102"])
	assert.Equal(t, ticket.FieldNumber, kinds["customfield_10103"])
	assert.Equal(t, ticket.FieldDate, kinds["customfield_10104"])
	assert.Equal(t, ticket.FieldText, kinds["summary"])
	// Arrays of anything but options carry no kind.
	_, ok := kinds["attachments"]
	assert.False(t, ok)
}
