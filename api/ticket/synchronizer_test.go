// api/ticket/synchronizer_test.go
package ticket_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	argus_errors "github.com/dev-mohitbeniwal/argus/api/errors"
	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/model"
	"github.com/dev-mohitbeniwal/argus/api/test/mock"
	"github.com/dev-mohitbeniwal/argus/api/ticket"
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

var syncKey = model.AuditKey{Application: "payments", Frequency: "quarterly", Period: "2026-Q2"}

func newSynchronizer(client ticket.Client, auditStore *mock.MockAuditDAO, recordStore *mock.MockRecordDAO) *ticket.Synchronizer {
	return ticket.NewSynchronizer(client, auditStore, recordStore, nil, ticket.Options{
		DefaultProject: "AUDIT",
		IssueType:      "Task",
	})
}

func TestCreateAuditTicketStampsSentinelOnFailure(t *testing.T) {
	client := new(mock.MockTicketClient)
	auditStore := new(mock.MockAuditDAO)
	recordStore := new(mock.MockRecordDAO)

	client.On("CreateIssue", tmock.Anything, tmock.Anything).Return(nil, assert.AnError)
	auditStore.On("UpdateAuditTicket", tmock.Anything, syncKey, model.TicketNotAvailable, model.TicketNotAvailable).Return(nil)

	s := newSynchronizer(client, auditStore, recordStore)
	audit := &model.Audit{
		Application: syncKey.Application,
		Frequency:   syncKey.Frequency,
		Period:      syncKey.Period,
		InitiatedBy: "owner1",
	}

	_, err := s.CreateAuditTicket(context.Background(), audit)
	assert.ErrorIs(t, err, argus_errors.ErrTicketUnavailable)
	assert.Equal(t, model.TicketNotAvailable, audit.TicketKey)
	assert.Equal(t, model.TicketNotAvailable, audit.TicketStatus)
	auditStore.AssertExpectations(t)
}

func TestCreateRecordTicketIsIdempotent(t *testing.T) {
	client := new(mock.MockTicketClient)
	auditStore := new(mock.MockAuditDAO)
	recordStore := new(mock.MockRecordDAO)

	s := newSynchronizer(client, auditStore, recordStore)
	record := &model.AccessRecord{
		Application: syncKey.Application,
		Frequency:   syncKey.Frequency,
		Period:      syncKey.Period,
		Source:      model.SourceCodeHost,
		AccountID:   "alice",
		TicketKey:   "AUD-55",
	}

	key, err := s.CreateRecordTicket(context.Background(), record, "AUD-1")
	assert.NoError(t, err)
	assert.Equal(t, "AUD-55", key)
	client.AssertNotCalled(t, "CreateIssue", tmock.Anything, tmock.Anything)
}

func TestCreateRecordTicketLinksAndComments(t *testing.T) {
	client := new(mock.MockTicketClient)
	auditStore := new(mock.MockAuditDAO)
	recordStore := new(mock.MockRecordDAO)

	client.On("CreateIssue", tmock.Anything, tmock.MatchedBy(func(fields map[string]interface{}) bool {
		project := fields["project"].(map[string]interface{})
		return project["key"] == "AUDIT"
	})).Return(&ticket.Issue{ID: "1", Key: "AUD-56"}, nil)
	client.On("LinkIssues", tmock.Anything, "AUD-56", "AUD-1", ticket.DependsOnLink).Return(nil)
	client.On("AddComment", tmock.Anything, "AUD-56", "left the team").Return(nil)
	recordStore.On("UpdateRecordTicket", tmock.Anything, tmock.Anything, "AUD-56", "Open").Return(nil)

	s := newSynchronizer(client, auditStore, recordStore)
	record := &model.AccessRecord{
		Application: syncKey.Application,
		Frequency:   syncKey.Frequency,
		Period:      syncKey.Period,
		Source:      model.SourceCodeHost,
		AccountID:   "alice",
		Role:        "maintainer",
		SignOff:     model.SignOffRejected,
		Comment:     "left the team",
	}

	key, err := s.CreateRecordTicket(context.Background(), record, "AUD-1")
	assert.NoError(t, err)
	assert.Equal(t, "AUD-56", key)
	assert.Equal(t, "Open", record.TicketStatus)

	client.AssertExpectations(t)
	recordStore.AssertExpectations(t)
}

func TestCreateRecordTicketStampsSentinelOnFailure(t *testing.T) {
	client := new(mock.MockTicketClient)
	auditStore := new(mock.MockAuditDAO)
	recordStore := new(mock.MockRecordDAO)

	client.On("CreateIssue", tmock.Anything, tmock.Anything).Return(nil, assert.AnError)
	recordStore.On("UpdateRecordTicket", tmock.Anything, tmock.Anything, model.TicketNotAvailable, model.TicketNotAvailable).Return(nil)

	s := newSynchronizer(client, auditStore, recordStore)
	record := &model.AccessRecord{
		Application: syncKey.Application,
		Frequency:   syncKey.Frequency,
		Period:      syncKey.Period,
		Source:      model.SourceCodeHost,
		AccountID:   "alice",
	}

	_, err := s.CreateRecordTicket(context.Background(), record, "AUD-1")
	assert.ErrorIs(t, err, argus_errors.ErrTicketUnavailable)
	assert.Equal(t, model.TicketNotAvailable, record.TicketKey)
	recordStore.AssertExpectations(t)
}

func TestCreateRecordTicketRetriesAfterSentinel(t *testing.T) {
	client := new(mock.MockTicketClient)
	auditStore := new(mock.MockAuditDAO)
	recordStore := new(mock.MockRecordDAO)

	client.On("CreateIssue", tmock.Anything, tmock.Anything).Return(&ticket.Issue{ID: "1", Key: "AUD-57"}, nil)
	recordStore.On("UpdateRecordTicket", tmock.Anything, tmock.Anything, "AUD-57", "Open").Return(nil)

	s := newSynchronizer(client, auditStore, recordStore)
	record := &model.AccessRecord{
		Application: syncKey.Application,
		Frequency:   syncKey.Frequency,
		Period:      syncKey.Period,
		Source:      model.SourceManual,
		AccountID:   "bob",
		TicketKey:   model.TicketNotAvailable,
	}

	key, err := s.CreateRecordTicket(context.Background(), record, "")
	assert.NoError(t, err)
	assert.Equal(t, "AUD-57", key)
	client.AssertNotCalled(t, "LinkIssues", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything)
}

func TestPollStatusesFetchesEachTicketOnce(t *testing.T) {
	client := new(mock.MockTicketClient)
	auditStore := new(mock.MockAuditDAO)
	recordStore := new(mock.MockRecordDAO)

	shared := func(account string) model.AccessRecord {
		return model.AccessRecord{
			Application:  syncKey.Application,
			Frequency:    syncKey.Frequency,
			Period:       syncKey.Period,
			Source:       model.SourceDirectoryGroup,
			AccountID:    account,
			TicketKey:    "AUD-60",
			TicketStatus: "Open",
		}
	}
	done := model.AccessRecord{
		Application:  syncKey.Application,
		Frequency:    syncKey.Frequency,
		Period:       syncKey.Period,
		Source:       model.SourceDirectoryGroup,
		AccountID:    "carol",
		TicketKey:    "AUD-61",
		TicketStatus: "Done",
	}

	recordStore.On("ListTicketedRecords", tmock.Anything, syncKey).
		Return([]model.AccessRecord{shared("alice"), shared("bob"), done}, nil)
	client.On("GetIssue", tmock.Anything, "AUD-60").Return(&ticket.Issue{Key: "AUD-60", Status: "In Progress"}, nil).Once()
	recordStore.On("UpdateRecordTicket", tmock.Anything, tmock.Anything, "AUD-60", "In Progress").Return(nil).Twice()

	s := newSynchronizer(client, auditStore, recordStore)

	err := s.PollStatuses(context.Background(), syncKey)
	assert.NoError(t, err)

	// One live fetch for the shared ticket, none for the terminal one.
	client.AssertNumberOfCalls(t, "GetIssue", 1)
	recordStore.AssertExpectations(t)
}

func TestPollStatusesSkipsUnchangedStatuses(t *testing.T) {
	client := new(mock.MockTicketClient)
	auditStore := new(mock.MockAuditDAO)
	recordStore := new(mock.MockRecordDAO)

	recordStore.On("ListTicketedRecords", tmock.Anything, syncKey).
		Return([]model.AccessRecord{{
			Application:  syncKey.Application,
			Frequency:    syncKey.Frequency,
			Period:       syncKey.Period,
			Source:       model.SourceDirectoryGroup,
			AccountID:    "alice",
			TicketKey:    "AUD-62",
			TicketStatus: "Open",
		}}, nil)
	client.On("GetIssue", tmock.Anything, "AUD-62").Return(&ticket.Issue{Key: "AUD-62", Status: "Open"}, nil)

	s := newSynchronizer(client, auditStore, recordStore)

	err := s.PollStatuses(context.Background(), syncKey)
	assert.NoError(t, err)
	recordStore.AssertNotCalled(t, "UpdateRecordTicket", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything)
}
