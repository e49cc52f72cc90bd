// Package audit captures key account and marketplace actions. Domain
// services emit events through a Publisher; sinks range from an in-process
// store to a Kafka topic, so the emitting code never knows the transport.
package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	OccurredAt time.Time `json:"occurred_at"`
	AccountID  string    `json:"account_id,omitempty"`
	Action     string    `json:"action"`
	ClientIP   string    `json:"client_ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

const (
	EventCustomerRegistered  = "customer.registered"
	EventSellerRegistered    = "seller.registered"
	EventCustomerDeleted     = "customer.deleted"
	EventSellerDeleted       = "seller.deleted"
	EventProfileUpdated      = "profile.updated"
	EventSellerStatusChanged = "seller.status_changed"
	EventLoginSucceeded      = "login.succeeded"
	EventLoginFailed         = "login.failed"
	EventLogout              = "logout"
	EventPasswordChanged     = "password.changed"
	EventPropertyCreated     = "property.created"
	EventPropertyDeleted     = "property.deleted"
)
