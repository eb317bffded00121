package domain

// State is a workflow label that tasks reference through StateID.
type State struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// StateInput is the body of state create and update requests.
type StateInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
