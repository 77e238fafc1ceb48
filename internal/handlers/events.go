package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/senyabanana/gig-market/internal/notify"
	"github.com/senyabanana/gig-market/internal/utils"
)

// EventsHandler отдает уведомления подключенному пользователю через
// server-sent events. Канал доставки живет ровно столько, сколько
// соединение: регистрируется при открытии, снимается при разрыве.
// События без открытого стрима отбрасываются, очереди нет.
type EventsHandler struct {
	Directory *notify.ChannelDirectory
	Logger    *log.Logger
}

// NewEventsHandler создает новый экземпляр EventsHandler.
func NewEventsHandler(directory *notify.ChannelDirectory, logger *log.Logger) *EventsHandler {
	return &EventsHandler{
		Directory: directory,
		Logger:    logger,
	}
}

// Stream обрабатывает GET запрос к /api/events.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	userId := r.URL.Query().Get("userId")
	if userId == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "missing required parameter: userId")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.SendErrorResponse(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	events, unregister := h.Directory.Register(userId)
	defer unregister()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-events:
			payload, err := json.Marshal(event)
			if err != nil {
				h.Logger.Println(err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload); err != nil {
				h.Logger.Println(err)
				return
			}
			flusher.Flush()
		}
	}
}
