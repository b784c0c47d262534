package domain

import (
	"sync"
	"time"
)

const HistoryLimit = 10

type HistoryItem struct {
	Timestamp string `json:"timestamp"`
	Filename  string `json:"filename"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
}

// Session owns one user's history. The history is most-recent-first and
// never holds more than HistoryLimit items.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	history []HistoryItem
}

func NewSession(id string, createdAt time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: createdAt,
		history:   make([]HistoryItem, 0, HistoryLimit),
	}
}

func (s *Session) Record(filename, summary, content string, at time.Time) HistoryItem {
	item := HistoryItem{
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		Filename:  filename,
		Summary:   summary,
		Content:   content,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]HistoryItem, 0, HistoryLimit)
	next = append(next, item)
	next = append(next, s.history...)
	if len(next) > HistoryLimit {
		next = next[:HistoryLimit]
	}
	s.history = next
	return item
}

func (s *Session) History() []HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]HistoryItem, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = s.history[:0]
}
