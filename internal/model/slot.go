package model

// TimeSlotLayout — формат времени начала/конца слота (локальное "HH:MM").
const TimeSlotLayout = "15:04"

// TimeSlot — слот на конкретную дату. Не хранится отдельно, генерируется
// на каждый запрос даты.
type TimeSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
}
