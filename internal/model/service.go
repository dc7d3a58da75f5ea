package model

// Service — услуга из каталога. Справочные данные, не меняются после загрузки.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Длительность в минутах.
	Duration int `json:"duration"`

	Price float64 `json:"price"`

	// Произвольная метка без иерархии.
	Category string `json:"category"`
}
