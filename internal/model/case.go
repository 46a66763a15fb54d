package model

import "time"

// CaseStatus is the lifecycle state of a missing-person case.
type CaseStatus string

// Case statuses. Active is the initial state; found and closed are terminal.
const (
	CaseActive CaseStatus = "active"
	CaseFound  CaseStatus = "found"
	CaseClosed CaseStatus = "closed"
)

// Terminal reports whether no further transitions are possible.
func (s CaseStatus) Terminal() bool {
	return s == CaseFound || s == CaseClosed
}

// Priority is informational and never gates an action.
type Priority string

// Priorities.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Location is a place in the city/sub-city/woreda hierarchy.
type Location struct {
	City             string `json:"city"`
	Subcity          string `json:"subcity,omitempty"`
	Woreda           string `json:"woreda,omitempty"`
	SpecificLocation string `json:"specificLocation"`
}

// PersonalInfo identifies the missing person.
type PersonalInfo struct {
	FirstName   string `json:"firstName" validate:"required"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	Age         int    `json:"age" validate:"min=0"`
	Gender      string `json:"gender,omitempty"`
	Photo       string `json:"photo,omitempty"`
	DateOfBirth *Date  `json:"dateOfBirth,omitempty"`
}

// FullName returns the first, middle and last name joined by spaces.
func (p PersonalInfo) FullName() string {
	name := p.FirstName
	for _, part := range []string{p.MiddleName, p.LastName} {
		if part != "" {
			name += " " + part
		}
	}
	return name
}

// PhysicalDescription holds optional appearance details.
type PhysicalDescription struct {
	Height                 int    `json:"height,omitempty" validate:"min=0"`
	Weight                 int    `json:"weight,omitempty" validate:"min=0"`
	SkinTone               string `json:"skinTone,omitempty"`
	HairColor              string `json:"hairColor,omitempty"`
	EyeColor               string `json:"eyeColor,omitempty"`
	DistinguishingFeatures string `json:"distinguishingFeatures,omitempty"`
	Clothing               string `json:"clothing,omitempty"`
}

// LastSeenInfo describes when and where the person was last seen.
type LastSeenInfo struct {
	Date          *Date    `json:"date,omitempty"`
	Time          string   `json:"time,omitempty"`
	Location      Location `json:"location"`
	Circumstances string   `json:"circumstances,omitempty"`
}

// Contact is a person to call about the case.
type Contact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
}

// ContactInfo holds the case contacts.
type ContactInfo struct {
	PrimaryContact Contact `json:"primaryContact"`
}

// MedicalInfo lists known medical details.
type MedicalInfo struct {
	Conditions  []string `json:"conditions,omitempty"`
	Medications []string `json:"medications,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
}

// Empty reports whether no medical details are known.
func (m *MedicalInfo) Empty() bool {
	return m == nil || len(m.Conditions)+len(m.Medications)+len(m.Allergies) == 0
}

// Case is a missing-person report as returned by the API.
type Case struct {
	ID                  string               `json:"_id" validate:"required"`
	CaseNumber          string               `json:"caseNumber" validate:"required"`
	Status              CaseStatus           `json:"status" validate:"required,oneof=active found closed"`
	IsVerified          bool                 `json:"isVerified"`
	Priority            Priority             `json:"priority" validate:"required,oneof=low medium high critical"`
	ReportedBy          *UserRef             `json:"reportedBy,omitempty"`
	Views               int                  `json:"views" validate:"min=0"`
	SightingsCount      int                  `json:"sightingsCount" validate:"min=0"`
	PersonalInfo        PersonalInfo         `json:"personalInfo"`
	PhysicalDescription *PhysicalDescription `json:"physicalDescription,omitempty"`
	LastSeenInfo        LastSeenInfo         `json:"lastSeenInfo"`
	ContactInfo         ContactInfo          `json:"contactInfo"`
	MedicalInfo         *MedicalInfo         `json:"medicalInfo,omitempty"`
	CreatedAt           time.Time            `json:"createdAt"`
}

// CaseDetail is a case together with its sightings, as loaded by the detail view.
type CaseDetail struct {
	Case      Case
	Sightings []Sighting `validate:"dive"`
}

// FoundReport is the body of a mark-as-found request.
type FoundReport struct {
	FoundLocation string `json:"foundLocation"`
	Notes         string `json:"notes,omitempty"`
}

// CaseInput is the body used to create or edit a case.
type CaseInput struct {
	PersonalInfo        PersonalInfo         `json:"personalInfo"`
	PhysicalDescription *PhysicalDescription `json:"physicalDescription,omitempty"`
	LastSeenInfo        LastSeenInfo         `json:"lastSeenInfo"`
	ContactInfo         ContactInfo          `json:"contactInfo"`
}

// CaseFilter narrows a case listing.
type CaseFilter struct {
	Status CaseStatus
	Search string
	Limit  int
}
