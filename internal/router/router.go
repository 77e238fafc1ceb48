package router

import (
	"net/http"

	"github.com/senyabanana/gig-market/internal/handlers"
)

func InitRoutes(gigHandler *handlers.GigHandler, bidHandler *handlers.BidHandler, userHandler *handlers.UserHandler, eventsHandler *handlers.EventsHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", handlers.PingHandler)
	mux.HandleFunc("/api/users/new", userHandler.CreateUser)

	mux.HandleFunc("/api/gigs", gigHandler.GetGigs)
	mux.HandleFunc("/api/gigs/new", gigHandler.CreateGig)
	mux.HandleFunc("GET /api/gigs/{gigId}", gigHandler.GetGigByID)
	mux.HandleFunc("/api/gigs/{gigId}/edit", gigHandler.EditGig)
	mux.HandleFunc("DELETE /api/gigs/{gigId}", gigHandler.DeleteGig)

	mux.HandleFunc("/api/bids/new", bidHandler.CreateBid)
	mux.HandleFunc("/api/bids/my", bidHandler.GetUserBids)
	mux.HandleFunc("/api/bids/{gigId}/list", bidHandler.GetGigBids)
	mux.HandleFunc("/api/bids/{bidId}/hire", bidHandler.HireBid)
	mux.HandleFunc("/api/bids/{bidId}/reject", bidHandler.RejectBid)

	mux.HandleFunc("/api/events", eventsHandler.Stream)

	return mux
}
