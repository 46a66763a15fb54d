package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/afalagi/internal/model"
)

func validCaseForm() caseForm {
	return caseForm{
		FirstName:        "Dawit",
		LastName:         "Alemu",
		Age:              "9",
		Gender:           "Male",
		LastSeenDate:     "2026-03-08",
		LastSeenCity:     "Addis Ababa",
		LastSeenLocation: "Piassa",
		ContactName:      "Alemu Bekele",
		ContactPhone:     "+251911111111",
	}
}

func TestCaseFormValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*caseForm)
		field  string
		want   string
	}{
		{"missing first name", func(f *caseForm) { f.FirstName = "" }, "firstName", "First name is required"},
		{"age not a number", func(f *caseForm) { f.Age = "nine" }, "age", "Age must be a whole number"},
		{"age too high", func(f *caseForm) { f.Age = "151" }, "age", "Age must be 150 or less"},
		{"unknown gender", func(f *caseForm) { f.Gender = "Other" }, "gender", "Choose a valid gender"},
		{"photo not a link", func(f *caseForm) { f.Photo = "photo.jpg" }, "photo", "Enter a valid http or https link"},
		{"photo wrong scheme", func(f *caseForm) { f.Photo = "ftp://example.com/p.jpg" }, "photo", "Enter a valid http or https link"},
		{"bad date", func(f *caseForm) { f.LastSeenDate = "08/03/2026" }, "lastSeenDate", "Enter a valid date"},
		{"future date", func(f *caseForm) { f.LastSeenDate = "2026-03-11" }, "lastSeenDate", "Last seen date cannot be in the future"},
		{"short phone", func(f *caseForm) { f.ContactPhone = "123" }, "primaryContactPhone", "Contact phone is too short"},
		{"height not a number", func(f *caseForm) { f.Height = "tall" }, "height", "Height must be a whole number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validCaseForm()
			tt.modify(&f)
			errs := f.validate(testNow, time.UTC)
			require.Contains(t, errs, tt.field)
			assert.Equal(t, tt.want, errs[tt.field])
		})
	}

	assert.Nil(t, validCaseForm().validate(testNow, time.UTC))
}

func TestCaseFormInput(t *testing.T) {
	f := validCaseForm()
	f.Height = "130"
	in := f.input()

	assert.Equal(t, "Dawit", in.PersonalInfo.FirstName)
	assert.Equal(t, 9, in.PersonalInfo.Age)
	require.NotNil(t, in.LastSeenInfo.Date)
	assert.Equal(t, "2026-03-08", in.LastSeenInfo.Date.String())
	require.NotNil(t, in.PhysicalDescription)
	assert.Equal(t, 130, in.PhysicalDescription.Height)
	assert.Equal(t, "+251911111111", in.ContactInfo.PrimaryContact.Phone)

	assert.Nil(t, validCaseForm().input().PhysicalDescription)
}

func TestCaseFormRoundTripsExistingCase(t *testing.T) {
	d, err := model.ParseDate("2026-03-01")
	require.NoError(t, err)
	c := &model.Case{
		PersonalInfo:        model.PersonalInfo{FirstName: "Sara", LastName: "Tesfaye", Age: 14, Gender: "Female"},
		PhysicalDescription: &model.PhysicalDescription{Weight: 40},
		LastSeenInfo: model.LastSeenInfo{
			Date:     &d,
			Location: model.Location{City: "Addis Ababa", SpecificLocation: "Merkato"},
		},
		ContactInfo: model.ContactInfo{PrimaryContact: model.Contact{Name: "Abebe", Phone: "+251911000000"}},
	}

	f := caseFormFrom(c)
	assert.Equal(t, "14", f.Age)
	assert.Equal(t, "", f.Height)
	assert.Equal(t, "40", f.Weight)
	assert.Equal(t, "2026-03-01", f.LastSeenDate)
	assert.Nil(t, f.validate(testNow, time.UTC))
}
