package domain

// SubjectType differentiates citizen vs officer tokens.
type SubjectType string

const (
	SubjectTypeCitizen SubjectType = "CITIZEN"
	SubjectTypeOfficer SubjectType = "OFFICER"
)
