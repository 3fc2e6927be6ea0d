// api/ticket/fields_test.go
package ticket_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dev-mohitbeniwal/argus/api/ticket"
)

func TestTransformFieldsUsesSchemaKinds(t *testing.T) {
	raw := map[string]string{
		"customfield_10100": "Quarterly",
		"customfield_10101": "payments, billing",
		"customfield_10102": "owner1",
		"customfield_10103": "42",
		"customfield_10104": "2026-06-30",
	}
	kinds := map[string]ticket.FieldKind{
		"customfield_10100": ticket.FieldOption,
		"customfield_10101": ticket.FieldMultiOption,
		"customfield_10102": ticket.FieldUser,
		"customfield_10103": ticket.FieldNumber,
		"customfield_10104": ticket.FieldDate,
	}

	fields := ticket.TransformFields(raw, kinds)

	assert.Equal(t, map[string]interface{}{"value": "Quarterly"}, fields["customfield_10100"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"value": "payments"},
		map[string]interface{}{"value": "billing"},
	}, fields["customfield_10101"])
	assert.Equal(t, map[string]interface{}{"name": "owner1"}, fields["customfield_10102"])
	assert.Equal(t, 42.0, fields["customfield_10103"])
	assert.Equal(t, "2026-06-30", fields["customfield_10104"])
}

func TestTransformFieldsGuessesFromIdentifier(t *testing.T) {
	raw := map[string]string{
		"review_type_select": "Quarterly",
		"teams_multi":        "payments,billing",
		"reviewer_user":      "owner1",
		"due_date":           "2026-06-30",
		"record_count":       "17",
		"notes":              "manual follow up",
	}

	fields := ticket.TransformFields(raw, nil)

	assert.Equal(t, map[string]interface{}{"value": "Quarterly"}, fields["review_type_select"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"value": "payments"},
		map[string]interface{}{"value": "billing"},
	}, fields["teams_multi"])
	assert.Equal(t, map[string]interface{}{"name": "owner1"}, fields["reviewer_user"])
	assert.Equal(t, "2026-06-30", fields["due_date"])
	assert.Equal(t, 17.0, fields["record_count"])
	assert.Equal(t, "manual follow up", fields["notes"])
}

func TestTransformFieldsPassesThroughUnparseableValues(t *testing.T) {
	fields := ticket.TransformFields(map[string]string{"deadline_date": "next sprint"}, nil)
	assert.Equal(t, "next sprint", fields["deadline_date"])
}

func TestTransformFieldsEmptyInput(t *testing.T) {
	assert.Nil(t, ticket.TransformFields(nil, nil))
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, ticket.IsTerminalStatus("Done"))
	assert.True(t, ticket.IsTerminalStatus("Closed"))
	assert.False(t, ticket.IsTerminalStatus("Open"))
	assert.False(t, ticket.IsTerminalStatus(""))
}
