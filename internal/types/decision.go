package types

// Plan adjustment directives chosen by the adaptation policy.
const (
	AdjustKeep              = "keep"
	AdjustReduceScope       = "reduce_scope"
	AdjustRepeatConcepts    = "repeat_concepts"
	AdjustIncreaseChallenge = "increase_challenge"
)

// Signals carries the three computed scores plus the classified status.
type Signals struct {
	Adherence float64 `json:"adherence"`
	Knowledge float64 `json:"knowledge"`
	Retention float64 `json:"retention"`
	Status    string  `json:"status"`
}

// NextTask is a single suggested task in a decision payload.
type NextTask struct {
	Task       string `json:"task"`
	TimeboxMin int    `json:"timebox_min"`
	Type       string `json:"type"`
	Priority   *int   `json:"priority,omitempty"`
}

// ResourceUsed is a citation for material consulted while deciding.
type ResourceUsed struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Relevance float64 `json:"relevance"`
}

// Action is the adaptation the engine decided on.
type Action struct {
	PlanAdjustment string   `json:"plan_adjustment"`
	RiskMitigation []string `json:"risk_mitigation"`
}

// Decision is the full structured output of a check-in or plan cycle.
// It is persisted on the check-in record and returned to the client.
type Decision struct {
	Reason        string         `json:"reason"`
	Advice        string         `json:"advice,omitempty"`
	Signals       Signals        `json:"signals"`
	Action        Action         `json:"action"`
	NextTasks     []NextTask     `json:"next_tasks"`
	ResourcesUsed []ResourceUsed `json:"resources_used"`
}
