package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Leganyst/nurse-connect/internal/model"
)

// DetailsVariant выбирает набор полей контактной формы.
type DetailsVariant string

const (
	// Имя, email, телефон и заметки.
	VariantBasic DetailsVariant = "basic"
	// Дополнительно дата рождения (обязательна) и признак нового пациента.
	VariantPatient DetailsVariant = "patient"
)

func ParseDetailsVariant(s string) (DetailsVariant, error) {
	switch v := DetailsVariant(strings.ToLower(strings.TrimSpace(s))); v {
	case "", VariantBasic:
		return VariantBasic, nil
	case VariantPatient:
		return VariantPatient, nil
	default:
		return "", fmt.Errorf("unknown details variant %q", s)
	}
}

// ContactDetails — то, что пользователь вводит на шаге details.
type ContactDetails struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	DateOfBirth   string
	IsNewPatient  *bool
	Notes         string
}

func contactOf(b model.BookingDetails) ContactDetails {
	return ContactDetails{
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		DateOfBirth:   b.DateOfBirth,
		IsNewPatient:  b.IsNewPatient,
		Notes:         b.Notes,
	}
}

type basicForm struct {
	CustomerName  string `json:"customerName" validate:"min=2"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	CustomerPhone string `json:"customerPhone" validate:"min=10"`
}

type patientForm struct {
	basicForm
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
}

// DetailsValidator проверяет контактные данные для выбранного варианта формы.
type DetailsValidator struct {
	v       *validator.Validate
	variant DetailsVariant
}

func NewDetailsValidator(variant DetailsVariant) *DetailsValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if variant == "" {
		variant = VariantBasic
	}
	return &DetailsValidator{v: v, variant: variant}
}

func (dv *DetailsValidator) Variant() DetailsVariant {
	return dv.variant
}

// Validate возвращает *ValidationError со всеми ошибками по полям или nil.
func (dv *DetailsValidator) Validate(d ContactDetails) error {
	basic := basicForm{
		CustomerName:  strings.TrimSpace(d.CustomerName),
		CustomerEmail: strings.TrimSpace(d.CustomerEmail),
		CustomerPhone: strings.TrimSpace(d.CustomerPhone),
	}

	var form any = basic
	if dv.variant == VariantPatient {
		form = patientForm{basicForm: basic, DateOfBirth: strings.TrimSpace(d.DateOfBirth)}
	}

	err := dv.v.Struct(form)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	return &ValidationError{Fields: fields}
}

// Apply переносит поля формы в черновик. Поля чужого варианта сбрасываются.
func (dv *DetailsValidator) Apply(draft *model.BookingDetails, d ContactDetails) {
	draft.CustomerName = strings.TrimSpace(d.CustomerName)
	draft.CustomerEmail = strings.TrimSpace(d.CustomerEmail)
	draft.CustomerPhone = strings.TrimSpace(d.CustomerPhone)
	draft.Notes = d.Notes

	if dv.variant != VariantPatient {
		draft.DateOfBirth = ""
		draft.IsNewPatient = nil
		return
	}
	draft.DateOfBirth = strings.TrimSpace(d.DateOfBirth)
	if d.IsNewPatient != nil {
		v := *d.IsNewPatient
		draft.IsNewPatient = &v
	} else {
		draft.IsNewPatient = nil
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "customerName":
		return "Name must be at least 2 characters."
	case "customerEmail":
		return "Please enter a valid email address."
	case "customerPhone":
		return "Please enter a valid phone number."
	case "dateOfBirth":
		if fe.Tag() == "required" {
			return "Date of birth is required."
		}
		return "Date of birth must be in YYYY-MM-DD format."
	default:
		return fmt.Sprintf("%s failed validation (%s)", fe.Field(), fe.Tag())
	}
}
