package models

import "time"

type BidStatus string // Статус предложения

const (
	PendingBid  BidStatus = "pending"  // Предложение ожидает решения владельца
	HiredBid    BidStatus = "hired"    // Предложение выиграло заказ, статус финальный
	RejectedBid BidStatus = "rejected" // Предложение отклонено, статус финальный
)

// Bid описывает предложение фрилансера по заказу.
type Bid struct {
	ID             string      `json:"id"`
	GigID          string      `json:"gigId"`
	FreelancerID   string      `json:"freelancerId"`
	FreelancerName string      `json:"freelancerName,omitempty"`
	Message        string      `json:"message"`
	Price          float64     `json:"price"`
	Status         BidStatus   `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	Gig            *GigSummary `json:"gig,omitempty"`
}

// BidRequest - тело запроса на создание предложения.
type BidRequest struct {
	GigID        string  `json:"gigId"`
	FreelancerID string  `json:"freelancerId"`
	Message      string  `json:"message"`
	Price        float64 `json:"price"`
}
