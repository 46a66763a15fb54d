package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SightingStatus is controlled by moderators on the API side.
type SightingStatus string

// Sighting statuses. New sightings start out unverified.
const (
	SightingPending       SightingStatus = "pending"
	SightingUnverified    SightingStatus = "unverified"
	SightingInvestigating SightingStatus = "investigating"
	SightingVerified      SightingStatus = "verified"
)

// Condition is how the person appeared at the time of the sighting.
type Condition string

// Conditions.
const (
	ConditionWell       Condition = "appeared_well"
	ConditionDistressed Condition = "appeared_distressed"
	ConditionInjured    Condition = "appeared_injured"
	ConditionConfused   Condition = "appeared_confused"
	ConditionUnknown    Condition = "unknown"
)

// Conditions lists every condition in display order.
var Conditions = []Condition{
	ConditionWell,
	ConditionDistressed,
	ConditionInjured,
	ConditionConfused,
	ConditionUnknown,
}

// ParseCondition converts a form value into a Condition.
func ParseCondition(s string) (Condition, error) {
	for _, c := range Conditions {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown condition %q", s)
}

// Label returns the human-readable condition.
func (c Condition) Label() string {
	switch c {
	case ConditionWell:
		return "Appeared Well"
	case ConditionDistressed:
		return "Appeared Distressed"
	case ConditionInjured:
		return "Appeared Injured"
	case ConditionConfused:
		return "Appeared Confused"
	case ConditionUnknown, "":
		return "Unknown"
	}
	return string(c)
}

// Companionship records whether the person was seen alone.
// It is either Alone or WithOthers.
type Companionship interface {
	companionship()
}

// Alone means the person was seen without companions.
type Alone struct{}

// WithOthers means the person was seen with companions matching Description.
type WithOthers struct {
	Description string
}

func (Alone) companionship()      {}
func (WithOthers) companionship() {}

// ContactAttempt records whether the reporter tried to talk to the person.
// It is either NoContactAttempt or ContactAttempted.
type ContactAttempt interface {
	contactAttempt()
}

// NoContactAttempt means the reporter did not approach the person.
type NoContactAttempt struct{}

// ContactAttempted means the reporter approached the person, with Result as the outcome.
type ContactAttempted struct {
	Result string
}

func (NoContactAttempt) contactAttempt() {}
func (ContactAttempted) contactAttempt() {}

// SightingInfo describes when, where and how the person was seen.
type SightingInfo struct {
	Date            Date          `json:"date"`
	Time            string        `json:"time"`
	Location        Location      `json:"location"`
	Description     string        `json:"description"`
	PersonCondition Condition     `json:"personCondition,omitempty" validate:"omitempty,oneof=appeared_well appeared_distressed appeared_injured appeared_confused unknown"`
	Companions      Companionship `json:"-"`
}

// WasAlone reports whether the person was seen alone.
func (si SightingInfo) WasAlone() bool {
	_, withOthers := si.Companions.(WithOthers)
	return !withOthers
}

// MarshalJSON flattens the companionship variant into the API's wasAlone/companionDescription pair.
func (si SightingInfo) MarshalJSON() ([]byte, error) {
	type alias SightingInfo
	wire := struct {
		alias
		WasAlone             bool   `json:"wasAlone"`
		CompanionDescription string `json:"companionDescription"`
	}{alias: alias(si), WasAlone: true}
	if others, ok := si.Companions.(WithOthers); ok {
		wire.WasAlone = false
		wire.CompanionDescription = others.Description
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (si *SightingInfo) UnmarshalJSON(data []byte) error {
	type alias SightingInfo
	wire := struct {
		*alias
		WasAlone             *bool  `json:"wasAlone"`
		CompanionDescription string `json:"companionDescription"`
	}{alias: (*alias)(si)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	si.Companions = Alone{}
	if wire.WasAlone != nil && !*wire.WasAlone {
		si.Companions = WithOthers{Description: wire.CompanionDescription}
	}
	return nil
}

type contactAttemptWire struct {
	DidAttemptContact bool   `json:"didAttemptContact"`
	ContactResult     string `json:"contactResult"`
}

func contactToWire(c ContactAttempt) contactAttemptWire {
	if attempted, ok := c.(ContactAttempted); ok {
		return contactAttemptWire{DidAttemptContact: true, ContactResult: attempted.Result}
	}
	return contactAttemptWire{}
}

func (w *contactAttemptWire) variant() ContactAttempt {
	if w == nil || !w.DidAttemptContact {
		return NoContactAttempt{}
	}
	return ContactAttempted{Result: w.ContactResult}
}

// Evidence holds links supplied by the reporter.
type Evidence struct {
	Photos []string `json:"photos"`
}

// Sighting is a reported sighting as returned by the API.
type Sighting struct {
	ID            string         `json:"_id" validate:"required"`
	MissingPerson ObjectID       `json:"missingPerson"`
	Status        SightingStatus `json:"status" validate:"required,oneof=pending unverified investigating verified"`
	SightingInfo  SightingInfo   `json:"sightingInfo"`
	Evidence      Evidence       `json:"evidence"`
	Contact       ContactAttempt `json:"-"`
	IsAnonymous   bool           `json:"isAnonymous"`
	ReportedBy    *UserRef       `json:"reportedBy,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sighting) UnmarshalJSON(data []byte) error {
	type alias Sighting
	wire := struct {
		*alias
		ContactAttempt *contactAttemptWire `json:"contactAttempt"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.Contact = wire.ContactAttempt.variant()
	return nil
}

// ReporterName returns the name shown next to the sighting, or "" when the
// reporter asked to stay anonymous.
func (s Sighting) ReporterName() string {
	if s.IsAnonymous {
		return ""
	}
	return s.ReportedBy.FullName()
}

// NumberedSighting is a sighting with its 1-based display position.
type NumberedSighting struct {
	Index int
	Sighting
}

// Chronological orders sightings oldest-first and numbers them from 1.
func Chronological(sightings []Sighting) []NumberedSighting {
	sorted := make([]Sighting, len(sightings))
	copy(sorted, sightings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	out := make([]NumberedSighting, len(sorted))
	for i, s := range sorted {
		out[i] = NumberedSighting{Index: i + 1, Sighting: s}
	}
	return out
}

// NewSighting is the body of POST /sightings.
type NewSighting struct {
	MissingPerson string         `json:"missingPerson"`
	SightingInfo  SightingInfo   `json:"sightingInfo"`
	Evidence      Evidence       `json:"evidence"`
	Contact       ContactAttempt `json:"-"`
	IsAnonymous   bool           `json:"isAnonymous"`
}

// MarshalJSON flattens the contact variant into the API's contactAttempt object.
func (n NewSighting) MarshalJSON() ([]byte, error) {
	type alias NewSighting
	photos := n.Evidence.Photos
	if photos == nil {
		photos = []string{}
	}
	a := alias(n)
	a.Evidence.Photos = photos
	return json.Marshal(struct {
		alias
		ContactAttempt contactAttemptWire `json:"contactAttempt"`
	}{alias: a, ContactAttempt: contactToWire(n.Contact)})
}
