package domain

// SubjectType tells which principal population a credential belongs to.
// End users and staff live in separate tables with separate login flows.
type SubjectType string

const (
	SubjectTypeUser  SubjectType = "USER"
	SubjectTypeStaff SubjectType = "STAFF"
)
