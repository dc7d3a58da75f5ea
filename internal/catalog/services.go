package catalog

import "github.com/Leganyst/nurse-connect/internal/model"

// DefaultServices — справочник услуг по умолчанию.
func DefaultServices() []model.Service {
	return []model.Service{
		{
			ID:          "1",
			Name:        "Initial Consultation",
			Description: "First visit with a registered nurse to review your health history",
			Duration:    30,
			Price:       75,
			Category:    "Consultations",
		},
		{
			ID:          "2",
			Name:        "Follow-up Visit",
			Description: "Check on progress after a previous appointment",
			Duration:    30,
			Price:       50,
			Category:    "Consultations",
		},
		{
			ID:          "3",
			Name:        "Annual Physical",
			Description: "Comprehensive yearly examination and vitals",
			Duration:    60,
			Price:       120,
			Category:    "Consultations",
		},
		{
			ID:          "4",
			Name:        "Vaccination",
			Description: "Routine and travel immunizations",
			Duration:    15,
			Price:       35,
			Category:    "Preventive Care",
		},
		{
			ID:          "5",
			Name:        "Health Screening",
			Description: "Blood pressure, glucose and cholesterol screening",
			Duration:    45,
			Price:       60,
			Category:    "Preventive Care",
		},
		{
			ID:          "6",
			Name:        "Wound Care",
			Description: "Cleaning, dressing and assessment of wounds",
			Duration:    30,
			Price:       55,
			Category:    "Treatments",
		},
		{
			ID:          "7",
			Name:        "IV Therapy",
			Description: "Intravenous hydration and vitamin therapy",
			Duration:    60,
			Price:       140,
			Category:    "Treatments",
		},
	}
}
