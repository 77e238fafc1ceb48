package notify

import (
	"log"
	"sync"
)

type EventKind string // Тип уведомления

const (
	HiredEvent       EventKind = "hired"        // Предложение получателя выиграло заказ
	BidRejectedEvent EventKind = "bid-rejected" // Предложение получателя отклонено
)

// Event - полезная нагрузка, доставляемая в канал получателя.
type Event struct {
	Kind     EventKind `json:"kind"`
	Message  string    `json:"message"`
	GigTitle string    `json:"gigTitle"`
	GigID    string    `json:"gigId"`
	BidID    string    `json:"bidId"`
}

// Dispatcher доставляет события пользователям. Доставка не более одного
// раза: получатель не в сети просто пропускает событие.
type Dispatcher interface {
	Notify(recipientID string, event Event)
}

// ChannelDirectory - реализация Dispatcher на каналах по пользователям.
// Канал регистрируется, пока у пользователя открыт стрим событий, и
// снимается при его закрытии.
type ChannelDirectory struct {
	mu       sync.RWMutex
	channels map[string]chan Event
	logger   *log.Logger
}

// NewChannelDirectory создает пустой справочник каналов.
func NewChannelDirectory(logger *log.Logger) *ChannelDirectory {
	return &ChannelDirectory{
		channels: make(map[string]chan Event),
		logger:   logger,
	}
}

// Register создает канал доставки для пользователя и возвращает его вместе
// с функцией отмены регистрации. Повторная регистрация заменяет прежний
// канал, старый стрим перестает получать события.
func (d *ChannelDirectory) Register(userID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	d.mu.Lock()
	d.channels[userID] = ch
	d.mu.Unlock()

	unregister := func() {
		d.mu.Lock()
		if d.channels[userID] == ch {
			delete(d.channels, userID)
		}
		d.mu.Unlock()
	}
	return ch, unregister
}

// Notify доставляет событие в канал получателя, если он зарегистрирован.
// Никогда не блокирует: без получателя или при полном канале событие
// отбрасывается.
func (d *ChannelDirectory) Notify(recipientID string, event Event) {
	d.mu.RLock()
	ch, ok := d.channels[recipientID]
	d.mu.RUnlock()

	if !ok {
		d.logger.Printf("no active channel for user %s, dropping %s event", recipientID, event.Kind)
		return
	}

	select {
	case ch <- event:
	default:
		d.logger.Printf("channel full for user %s, dropping %s event", recipientID, event.Kind)
	}
}
