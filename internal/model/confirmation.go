package model

// Confirmation запись о подтверждении выбора. Отсутствие записи = не подтверждено.
type Confirmation struct {
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
}
