package models

import "time"

type GigStatus string // Статус заказа

const (
	OpenGig     GigStatus = "open"     // Заказ принимает предложения
	AssignedGig GigStatus = "assigned" // Исполнитель нанят, статус финальный
)

// Gig описывает опубликованный заказ.
type Gig struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"ownerName,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget"`
	Status      GigStatus `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GigRequest - тело запроса на создание или изменение заказа.
type GigRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Budget      float64 `json:"budget"`
	OwnerID     string  `json:"ownerId"`
}

// GigSummary - краткая информация о заказе, прикрепляемая к предложениям.
type GigSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget"`
	Status      GigStatus `json:"status"`
}
