package model

import (
	"encoding/json"
	"testing"
)

const validCase = `{
	"_id": "c1",
	"caseNumber": "MP-2024-0001",
	"status": "active",
	"isVerified": false,
	"priority": "high",
	"reportedBy": {"_id": "u1", "firstName": "Hana", "lastName": "Girma"},
	"views": 12,
	"sightingsCount": 2,
	"personalInfo": {"firstName": "Dawit", "lastName": "Alemu", "age": 14, "gender": "Male", "dateOfBirth": "2010-03-04T00:00:00.000Z"},
	"lastSeenInfo": {"date": "2024-01-01", "location": {"city": "Addis Ababa", "specificLocation": "Piassa"}},
	"contactInfo": {"primaryContact": {"name": "Hana", "phone": "+251911000000"}},
	"createdAt": "2024-01-02T09:30:00.000Z"
}`

func TestCaseValidate(t *testing.T) {
	var c Case
	if err := json.Unmarshal([]byte(validCase), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid case, got %v", err)
	}
	if c.LastSeenInfo.Date.String() != "2024-01-01" {
		t.Errorf("expected last seen date 2024-01-01, got %q", c.LastSeenInfo.Date.String())
	}
	if c.PersonalInfo.DateOfBirth.String() != "2010-03-04" {
		t.Errorf("expected date of birth 2010-03-04, got %q", c.PersonalInfo.DateOfBirth.String())
	}
}

func TestCaseValidateRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Case)
	}{
		{"missing id", func(c *Case) { c.ID = "" }},
		{"missing case number", func(c *Case) { c.CaseNumber = "" }},
		{"unknown status", func(c *Case) { c.Status = "archived" }},
		{"unknown priority", func(c *Case) { c.Priority = "urgent" }},
		{"negative views", func(c *Case) { c.Views = -1 }},
		{"reporter without id", func(c *Case) { c.ReportedBy = &UserRef{FirstName: "x"} }},
	}

	for _, tt := range tests {
		var c Case
		if err := json.Unmarshal([]byte(validCase), &c); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		tt.mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestCaseDetailValidateDivesIntoSightings(t *testing.T) {
	var c Case
	if err := json.Unmarshal([]byte(validCase), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	d := CaseDetail{Case: c, Sightings: []Sighting{{ID: "s1", Status: "bogus"}}}
	if err := d.Validate(); err == nil {
		t.Error("expected error for sighting with unknown status")
	}

	d.Sightings[0].Status = SightingVerified
	if err := d.Validate(); err != nil {
		t.Errorf("expected valid detail, got %v", err)
	}
}

func TestIsWebURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com/photo.jpg", true},
		{"http://example.com", true},
		{"ftp://example.com/file", false},
		{"not a url", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsWebURL(tt.in); got != tt.want {
			t.Errorf("IsWebURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
