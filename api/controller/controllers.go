// api/controller/controllers.go
package controller

import "github.com/dev-mohitbeniwal/argus/api/service"

type Controllers struct {
	Audit    *AuditController
	RBAC     *RBACController
	Activity *ActivityController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Audit:    NewAuditController(services.Audit, services.Reconciliation, services.RBAC),
		RBAC:     NewRBACController(services.RBAC),
		Activity: NewActivityController(services.Activity, services.RBAC),
	}
}
