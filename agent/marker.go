package agent

import (
	"regexp"
	"strings"
)

// The marker text is parsed by the chat renderer to draw approval buttons
// and must not change.
const (
	approvalMarkerPrefix      = "[APPROVAL_BUTTONS:"
	groupApprovalMarkerPrefix = "[GROUP_APPROVAL_BUTTONS:"
)

var markerPattern = regexp.MustCompile(`\[(APPROVAL_BUTTONS|GROUP_APPROVAL_BUTTONS):([^\]]+)\]`)

// ApprovalMarker returns the marker asking the user to approve one call.
func ApprovalMarker(callID string) string {
	return approvalMarkerPrefix + callID + "]"
}

// GroupApprovalMarker returns the marker asking the user to approve a group
// of calls, listed in dispatch order.
func GroupApprovalMarker(groupID string, callIDs []string) string {
	return groupApprovalMarkerPrefix + groupID + ":" + strings.Join(callIDs, ",") + "]"
}

// Marker is an approval marker found in message text.
type Marker struct {
	GroupID string // empty for single-call markers
	CallIDs []string
}

// String renders m back into marker text.
func (m Marker) String() string {
	if m.GroupID == "" && len(m.CallIDs) == 1 {
		return ApprovalMarker(m.CallIDs[0])
	}
	return GroupApprovalMarker(m.GroupID, m.CallIDs)
}

// ParseMarkers returns the approval markers in content, in order.
// Malformed group markers are skipped.
func ParseMarkers(content string) []Marker {
	var out []Marker
	for _, m := range markerPattern.FindAllStringSubmatch(content, -1) {
		if m[1] == "APPROVAL_BUTTONS" {
			out = append(out, Marker{CallIDs: []string{m[2]}})
			continue
		}
		groupID, ids, ok := strings.Cut(m[2], ":")
		if !ok || groupID == "" || ids == "" {
			continue
		}
		out = append(out, Marker{GroupID: groupID, CallIDs: strings.Split(ids, ",")})
	}
	return out
}
