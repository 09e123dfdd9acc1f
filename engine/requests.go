package engine

// ContextRequest asks the engine to create a root context. Geometry is the
// encoded geometry string, sent verbatim.
type ContextRequest struct {
	Geometry      string   `json:"geometry"`
	ContextType   string   `json:"contextType"`
	URN           string   `json:"urn,omitempty"`
	Observables   []string `json:"observables"`
	Scenarios     []string `json:"scenarios"`
	Estimate      bool     `json:"estimate"`
	EstimatedCost int64    `json:"estimatedCost"`
}

// ObservationRequest asks the engine to observe URN within ContextID.
// States carries injected values keyed by observable; injected objects are
// encoded geometries.
type ObservationRequest struct {
	URN             string            `json:"urn"`
	ContextID       string            `json:"contextId"`
	SearchContextID string            `json:"searchContextId,omitempty"`
	Estimate        bool              `json:"estimate"`
	EstimatedCost   int64             `json:"estimatedCost"`
	Scenarios       []string          `json:"scenarios"`
	States          map[string]string `json:"states"`
}

func newContextRequest() *ContextRequest {
	return &ContextRequest{Observables: []string{}, Scenarios: []string{}, EstimatedCost: -1}
}

func newObservationRequest(contextID, urn string) *ObservationRequest {
	return &ObservationRequest{
		URN:           urn,
		ContextID:     contextID,
		EstimatedCost: -1,
		Scenarios:     []string{},
		States:        map[string]string{},
	}
}
