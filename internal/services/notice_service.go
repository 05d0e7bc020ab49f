// internal/services/notice_service.go
package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type NoticeLevel string

const (
	NoticeLevelSuccess NoticeLevel = "success"
	NoticeLevelError   NoticeLevel = "error"
	NoticeLevelInfo    NoticeLevel = "info"
)

// Notice is one toast-style message pushed to connected clients.
type Notice struct {
	Level     NoticeLevel `json:"level"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
}

// NoticeService is an explicit pub/sub bus for user-facing notifications.
// It is constructed once at router wiring time and passed to the layers
// that publish; its lifecycle ends with Close on shutdown.
type NoticeService struct {
	mu     sync.Mutex
	subs   map[int]chan Notice
	nextID int
	closed bool
}

func NewNoticeService() *NoticeService {
	return &NoticeService{subs: make(map[int]chan Notice)}
}

// Subscribe registers a listener. The returned id releases it via
// Unsubscribe.
func (s *NoticeService) Subscribe() (int, <-chan Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Notice, 16)
	if s.closed {
		close(ch)
		return id, ch
	}
	s.subs[id] = ch
	return id, ch
}

func (s *NoticeService) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// Publish fans the notice out to all subscribers. Slow subscribers drop
// messages rather than block the publisher.
func (s *NoticeService) Publish(level NoticeLevel, message string) {
	notice := Notice{Level: level, Message: message, CreatedAt: time.Now()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	for id, ch := range s.subs {
		select {
		case ch <- notice:
		default:
			logrus.WithField("subscriber", id).Warn("Notice dropped for slow subscriber")
		}
	}
}

func (s *NoticeService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
