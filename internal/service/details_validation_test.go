package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/Leganyst/nurse-connect/internal/model"
)

func TestParseDetailsVariant(t *testing.T) {
	cases := []struct {
		in      string
		want    DetailsVariant
		wantErr bool
	}{
		{"", VariantBasic, false},
		{"basic", VariantBasic, false},
		{" Patient ", VariantPatient, false},
		{"full", "", true},
	}
	for _, tc := range cases {
		got, err := ParseDetailsVariant(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("ParseDetailsVariant(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestDetailsValidator_Basic(t *testing.T) {
	v := NewDetailsValidator(VariantBasic)

	cases := []struct {
		name      string
		details   ContactDetails
		badFields []string
	}{
		{"valid", janeDetails, nil},
		{"short name", ContactDetails{CustomerName: "J", CustomerEmail: "j@example.com", CustomerPhone: "5551234567"}, []string{"customerName"}},
		{"blank name", ContactDetails{CustomerName: "   ", CustomerEmail: "j@example.com", CustomerPhone: "5551234567"}, []string{"customerName"}},
		{"bad email", ContactDetails{CustomerName: "Jane", CustomerEmail: "jane", CustomerPhone: "5551234567"}, []string{"customerEmail"}},
		{"short phone", ContactDetails{CustomerName: "Jane", CustomerEmail: "j@example.com", CustomerPhone: "555"}, []string{"customerPhone"}},
		{"empty", ContactDetails{}, []string{"customerName", "customerEmail", "customerPhone"}},
		{"dob not required", ContactDetails{CustomerName: "Jane", CustomerEmail: "j@example.com", CustomerPhone: "5551234567", DateOfBirth: "garbage"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.details)
			if len(tc.badFields) == 0 {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if len(ve.Fields) != len(tc.badFields) {
				t.Fatalf("fields = %+v, want %v", ve.Fields, tc.badFields)
			}
			for _, f := range tc.badFields {
				if ve.Fields[f] == "" {
					t.Fatalf("missing error for %s: %+v", f, ve.Fields)
				}
			}
		})
	}
}

func TestDetailsValidator_Patient(t *testing.T) {
	v := NewDetailsValidator(VariantPatient)

	d := janeDetails
	err := v.Validate(d)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["dateOfBirth"] != "Date of birth is required." {
		t.Fatalf("missing dob: err = %v", err)
	}

	d.DateOfBirth = "05/01/1990"
	if err := v.Validate(d); !errors.As(err, &ve) || !strings.Contains(ve.Fields["dateOfBirth"], "YYYY-MM-DD") {
		t.Fatalf("bad dob format: err = %v", err)
	}

	d.DateOfBirth = "1990-05-01"
	if err := v.Validate(d); err != nil {
		t.Fatalf("valid patient details: %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"customerPhone": "bad phone",
		"customerEmail": "bad email",
	}}
	want := "invalid details: customerEmail: bad email; customerPhone: bad phone"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDetailsValidator_ApplyByVariant(t *testing.T) {
	isNew := true
	in := ContactDetails{
		CustomerName:  " Jane ",
		CustomerEmail: "jane@example.com",
		DateOfBirth:   "1990-05-01",
		IsNewPatient:  &isNew,
		Notes:         "allergic to latex",
	}

	var basic model.BookingDetails
	NewDetailsValidator(VariantBasic).Apply(&basic, in)
	if basic.CustomerName != "Jane" || basic.Notes != "allergic to latex" {
		t.Fatalf("basic draft = %+v", basic)
	}
	if basic.DateOfBirth != "" || basic.IsNewPatient != nil {
		t.Fatalf("basic draft kept patient fields: %+v", basic)
	}

	var patient model.BookingDetails
	NewDetailsValidator(VariantPatient).Apply(&patient, in)
	if patient.DateOfBirth != "1990-05-01" || patient.IsNewPatient == nil || !*patient.IsNewPatient {
		t.Fatalf("patient draft = %+v", patient)
	}
	isNew = false
	if !*patient.IsNewPatient {
		t.Fatalf("draft shares flag with input")
	}
}
