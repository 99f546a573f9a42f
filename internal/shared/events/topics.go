package events

import "strings"

const (
	EntitySnapshot    = "snapshot"
	EntityTransaction = "transaction"
	EntityDevnode     = "devnode"
	SystemEntity      = "system"

	ActionDecoded         = "decoded"
	ActionSkipped         = "skipped"
	ActionSubmitted       = "submitted"
	ActionFailed          = "failed"
	ActionUpdateAccepted  = "update.accepted"
	ActionSnapshotCreated = "snapshot.created"
	ActionConnected       = "connected"

	TopicSystemConnected = SystemEntity + "." + ActionConnected
)

// Topic returns the canonical "<entity>.<action>" topic, or "" when either part is blank.
func Topic(entity, action string) string {
	cleanEntity := strings.TrimSpace(entity)
	cleanAction := strings.TrimSpace(action)
	if cleanEntity == "" || cleanAction == "" {
		return ""
	}
	return cleanEntity + "." + cleanAction
}
