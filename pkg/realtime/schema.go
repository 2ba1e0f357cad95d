package realtime

import "fmt"

// Redis naming helpers
//
// Channel pattern: beacon:{instance_name}:updates
// Fallback key pattern: beacon:{instance_name}:broadcast

// UpdatesChannel returns the Pub/Sub channel name carrying change events.
// Pattern: beacon:{instance_name}:updates
func UpdatesChannel(instanceName string) string {
	return fmt.Sprintf("beacon:%s:updates", instanceName)
}

// BroadcastKey returns the key the polling fallback transport writes to.
// Pattern: beacon:{instance_name}:broadcast
func BroadcastKey(instanceName string) string {
	return fmt.Sprintf("beacon:%s:broadcast", instanceName)
}

// Well-known event types published by the store and consumed by coordinators.
// Collection events carry the full refreshed collection as payload.
const (
	EventStoreChanged    = "store_changed"
	EventMentorsChanged  = "mentors_changed"
	EventProjectsChanged = "projects_changed"
	EventDesafiosChanged = "desafios_changed"
	EventFinanceChanged  = "finance_changed"
	EventUsersChanged    = "users_changed"
)
