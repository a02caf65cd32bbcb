package amqp

import (
	"encoding/json"
	"time"
)

// PlanChangedMessage tells the worker the plan's source data changed
// and the exported schedule is stale. The worker re-reads everything
// from storage, so the message only says what kind of change happened.
type PlanChangedMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Entities a change message can refer to.
const (
	EntityDebt             = "debt"
	EntitySettings         = "settings"
	EntityScheduleOverride = "schedule_override"
	EntityPaymentOverride  = "payment_override"
)

// Actions a change message can carry.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionReordered = "reordered"
)

func NewPlanChangedMessage(entity, action string) *PlanChangedMessage {
	return &PlanChangedMessage{
		Entity:    entity,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *PlanChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PlanChangedMessageFromJSON(data []byte) (*PlanChangedMessage, error) {
	var msg PlanChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
