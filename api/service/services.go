// api/service/services.go
package service

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dev-mohitbeniwal/argus/api/activity"
	"github.com/dev-mohitbeniwal/argus/api/dao"
	"github.com/dev-mohitbeniwal/argus/api/source"
	"github.com/dev-mohitbeniwal/argus/api/ticket"
	"github.com/dev-mohitbeniwal/argus/api/util"
)

type Services struct {
	Audit          IAuditService
	Reconciliation IReconciliationService
	RBAC           IRBACService
	Activity       activity.Service
}

func InitializeServices(
	driver neo4j.Driver,
	activitySvc activity.Service,
	ticketClient ticket.Client,
	ticketOpts ticket.Options,
	adapters []source.Adapter,
	reconciliationCfg ReconciliationConfig,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) (*Services, error) {
	auditDAO := dao.NewAuditDAO(driver)
	recordDAO := dao.NewRecordDAO(driver)
	roleDAO := dao.NewRoleDAO(driver)

	// The manual source reads from the staging table, so it joins the adapter
	// fan-out like any remote source.
	adapters = append(adapters, source.NewManualAdapter(recordDAO))

	synchronizer := ticket.NewSynchronizer(ticketClient, auditDAO, recordDAO, cacheService, ticketOpts)
	reconciliationSvc := NewReconciliationService(auditDAO, recordDAO, adapters, activitySvc, reconciliationCfg)

	services := &Services{
		Audit: NewAuditService(
			auditDAO,
			recordDAO,
			reconciliationSvc,
			synchronizer,
			activitySvc,
			cacheService,
			notificationSvc,
			validationUtil,
			eventBus,
		),
		Reconciliation: reconciliationSvc,
		RBAC:           NewRBACService(roleDAO, activitySvc),
		Activity:       activitySvc,
	}

	return services, nil
}
