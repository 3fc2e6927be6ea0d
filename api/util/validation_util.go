// api/util/validation_util.go

package util

import (
	"fmt"
	"strings"

	"github.com/dev-mohitbeniwal/argus/api/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateAuditKey(key model.AuditKey) error {
	if key.Application == "" {
		return fmt.Errorf("application cannot be empty")
	}
	if key.Frequency == "" {
		return fmt.Errorf("frequency cannot be empty")
	}
	if key.Period == "" {
		return fmt.Errorf("period cannot be empty")
	}
	// The pipe delimits key segments in storage and cache keys.
	if strings.ContainsAny(key.Application+key.Frequency+key.Period, "|") {
		return fmt.Errorf("audit key segments cannot contain '|'")
	}
	return nil
}

func (v *ValidationUtil) ValidateRecordKey(key model.RecordKey) error {
	if err := v.ValidateAuditKey(key.AuditKey); err != nil {
		return err
	}
	if key.Source == "" {
		return fmt.Errorf("source cannot be empty")
	}
	if key.AccountID == "" {
		return fmt.Errorf("account id cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateDecision(status model.SignOffStatus) error {
	if status != model.SignOffApproved && status != model.SignOffRejected {
		return fmt.Errorf("decision must be either 'approved' or 'rejected'")
	}
	return nil
}

func (v *ValidationUtil) ValidateActor(actor string) error {
	if actor == "" {
		return fmt.Errorf("acting username cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateRoleAssignment(assignment model.RoleAssignment) error {
	if assignment.Application == "" {
		return fmt.Errorf("application cannot be empty")
	}
	if assignment.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if _, err := model.ParseRole(string(assignment.Role)); err != nil {
		return err
	}
	return nil
}
