package branches

// BranchInput is the create/update payload for a branch office.
type BranchInput struct {
	Name       string  `json:"name" validate:"required"`
	Street     string  `json:"street" validate:"required"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}
