// api/source/http_adapter_test.go
package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/source"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "argus-test-logs")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestFetchSnapshotClassifiesEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/snapshot", r.URL.Path)
		assert.Equal(t, "payments", r.URL.Query().Get("application"))
		assert.Equal(t, "quarterly", r.URL.Query().Get("frequency"))
		assert.Equal(t, "2026-Q2", r.URL.Query().Get("period"))

		w.Write([]byte(`[
			{"account_id": "alice", "role": "maintainer", "manager": "mgr1"},
			{"service_account_id": "svc-deploy", "role": "admin", "delegate": "alice"},
			{"role": "orphan-row-without-identifier"}
		]`))
	}))
	defer server.Close()

	adapter := source.NewCodeHostAdapter(server.URL)
	assert.Equal(t, model.SourceCodeHost, adapter.Name())

	records, err := adapter.FetchSnapshot(context.Background(), "payments", "quarterly", "2026-Q2")
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	assert.Equal(t, "alice", records[0].AccountID)
	assert.Equal(t, model.KindGroupAccess, records[0].Kind)
	assert.Equal(t, "mgr1", records[0].Manager)
	assert.False(t, records[0].FetchedAt.IsZero())

	assert.Equal(t, "svc-deploy", records[1].AccountID)
	assert.Equal(t, model.KindServiceAccount, records[1].Kind)
	assert.Equal(t, "alice", records[1].Delegate)
}

func TestFetchSnapshotPropagatesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := source.NewDirectoryGroupAdapter(server.URL)

	_, err := adapter.FetchSnapshot(context.Background(), "payments", "quarterly", "2026-Q2")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClassifyPrefersServiceAccountIdentifier(t *testing.T) {
	record := source.Classify(source.Entry{
		AccountID:        "alice",
		ServiceAccountID: "svc-ci",
		Role:             "admin",
	}, model.SourceDirectoryService, "payments", "quarterly", "2026-Q2")

	assert.NotNil(t, record)
	assert.Equal(t, model.KindServiceAccount, record.Kind)
	assert.Equal(t, "svc-ci", record.AccountID)
}

func TestClassifyDropsEmptyEntries(t *testing.T) {
	record := source.Classify(source.Entry{Role: "dev"}, model.SourceDirectoryGroup, "payments", "quarterly", "2026-Q2")
	assert.Nil(t, record)
}
