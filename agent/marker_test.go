package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkers(t *testing.T) {
	assert.Equal(t, "[APPROVAL_BUTTONS:c1]", ApprovalMarker("c1"))
	assert.Equal(t, "[GROUP_APPROVAL_BUTTONS:g1:c1,c2]", GroupApprovalMarker("g1", []string{"c1", "c2"}))
}

func TestParseMarkers(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Marker
	}{
		{"none", "plain text", nil},
		{"single", "Running.\n\n[APPROVAL_BUTTONS:c1]", []Marker{{CallIDs: []string{"c1"}}}},
		{
			"group and single",
			"[GROUP_APPROVAL_BUTTONS:g-1:a,b,c]\n\ntext\n\n[APPROVAL_BUTTONS:d]",
			[]Marker{{GroupID: "g-1", CallIDs: []string{"a", "b", "c"}}, {CallIDs: []string{"d"}}},
		},
		{"malformed group", "[GROUP_APPROVAL_BUTTONS:onlygroup]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMarkers(tt.content)
			assert.Equal(t, tt.want, got)
			for _, m := range got {
				assert.Contains(t, tt.content, m.String())
			}
		})
	}
}
