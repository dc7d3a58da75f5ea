package model

// BookingStep — шаг мастера записи.
type BookingStep uint8

const (
	StepService BookingStep = iota
	StepDateTime
	StepDetails
	StepConfirmation
	StepHistory
)

var stepNames = [...]string{
	StepService:      "service",
	StepDateTime:     "datetime",
	StepDetails:      "details",
	StepConfirmation: "confirmation",
	StepHistory:      "history",
}

func (s BookingStep) String() string {
	if s.Valid() {
		return stepNames[s]
	}
	return "unknown"
}

func (s BookingStep) Valid() bool {
	return int(s) < len(stepNames)
}
