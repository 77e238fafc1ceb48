package models

import "time"

// User - минимальная запись о пользователе, на которую ссылаются заказы
// и предложения. Аутентификация живет вне этого сервиса.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRequest - тело запроса на создание пользователя.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
