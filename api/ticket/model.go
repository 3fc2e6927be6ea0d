// api/ticket/model.go
package ticket

// Issue is the tracker's view of a ticket.
type Issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Status string `json:"status,omitempty"`
}

// FieldKind tags the tracker's typed custom-field shapes.
type FieldKind string

const (
	FieldOption      FieldKind = "option"
	FieldMultiOption FieldKind = "multi_option"
	FieldUser        FieldKind = "user"
	FieldNumber      FieldKind = "number"
	FieldDate        FieldKind = "date"
	FieldText        FieldKind = "text"
)

// terminalStatuses are ticket states that never change again; records whose
// cached status is terminal are skipped by PollStatuses.
var terminalStatuses = map[string]bool{
	"Completed": true,
	"Closed":    true,
	"Done":      true,
	"Resolved":  true,
}

// IsTerminalStatus reports whether a cached ticket status needs no refresh.
func IsTerminalStatus(status string) bool {
	return terminalStatuses[status]
}

// Options configures project routing and per-application custom fields.
type Options struct {
	DefaultProject string
	// Projects maps an application name to its owning tracker project key.
	Projects map[string]string
	// CustomFields holds per-application custom field values as raw strings;
	// they are transformed into typed field shapes at creation time.
	CustomFields map[string]map[string]string
	IssueType    string
}

// ProjectFor resolves the owning project key for an application.
func (o Options) ProjectFor(app string) string {
	if key, ok := o.Projects[app]; ok {
		return key
	}
	return o.DefaultProject
}

// RawFieldsFor returns the configured raw custom-field values for an application.
func (o Options) RawFieldsFor(app string) map[string]string {
	return o.CustomFields[app]
}
