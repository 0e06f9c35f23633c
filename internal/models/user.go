package models

// RoleRef - вложенный объект роли в ответе бэкенда.
type RoleRef struct {
	RoleName string `json:"roleName"`
}

// User - сотрудник или пациент, как его видит бэкенд.
// User is a backend user record, looked up by Telegram id or internal id.
type User struct {
	UserID     int64   `json:"user_id"`
	TelegramID int64   `json:"telegram_id"`
	FullName   string  `json:"full_name"`
	Role       RoleRef `json:"role"`
}
