package domain

import "time"

// ContractType is reference data mapping a selectable contract kind to its
// billing modality. Loaded once per form session and treated as immutable.
type ContractType struct {
	ID        string
	Name      string
	Modality  Modality
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
