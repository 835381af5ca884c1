package amqp

import (
	"encoding/json"
	"time"
)

// CommandApplied announces a mutation applied to a household. It carries
// identifiers only; consumers that need the entity ask the household.
type CommandApplied struct {
	Household string    `json:"household"`
	Kind      string    `json:"kind"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCommandApplied(household, kind, entityID string) *CommandApplied {
	return &CommandApplied{
		Household: household,
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

func (m *CommandApplied) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CommandAppliedFromJSON decodes a message body.
func CommandAppliedFromJSON(data []byte) (*CommandApplied, error) {
	var msg CommandApplied
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
