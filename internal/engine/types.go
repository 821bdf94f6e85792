package engine

// PlayerActionType enumerates the player inputs the pressure core reacts to.
type PlayerActionType string

const (
	PlayerInteractAgent  PlayerActionType = "INTERACT_AGENT"
	PlayerPickupItem     PlayerActionType = "PICKUP_ITEM"
	PlayerDiscoverRecord PlayerActionType = "DISCOVER_RECORD"
	PlayerEnterRegion    PlayerActionType = "ENTER_REGION"
)

// PlayerAction is one discrete player input for a tick.
type PlayerAction struct {
	Type           PlayerActionType `json:"type"`
	RegionID       string           `json:"region_id"`
	TargetAgentID  string           `json:"target_agent_id,omitempty"`
	TargetEntityID string           `json:"target_entity_id,omitempty"`
}

// AgentEventType enumerates autonomous-agent occurrences fed into a tick.
type AgentEventType string

const (
	AgentInteraction   AgentEventType = "INTERACTION"
	AgentElevated      AgentEventType = "ELEVATED"
	AgentContradiction AgentEventType = "CONTRADICTION"
)

// AgentEvent is one discrete agent occurrence for a tick.
type AgentEvent struct {
	Type        AgentEventType `json:"type"`
	AgentID     string         `json:"agent_id"`
	OtherID     string         `json:"other_id,omitempty"`
	RegionID    string         `json:"region_id"`
	Adversarial bool           `json:"adversarial,omitempty"`
}
