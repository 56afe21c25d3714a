package console

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AlertTTL is how long an alert stays visible unless dismissed.
const AlertTTL = 5 * time.Second

type AlertType string

const (
	AlertDanger  AlertType = "danger"
	AlertSuccess AlertType = "success"
)

type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a Alert) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// AlertBoard holds the visible alerts, newest first.
type AlertBoard struct {
	ttl    time.Duration
	now    func() time.Time
	mutex  sync.Mutex
	alerts []Alert
}

func NewAlertBoard(ttl time.Duration) *AlertBoard {
	if ttl <= 0 {
		ttl = AlertTTL
	}
	return &AlertBoard{ttl: ttl, now: time.Now}
}

func (b *AlertBoard) Add(alertType AlertType, message string) Alert {
	now := b.now()
	alert := Alert{
		ID:        uuid.New().String(),
		Type:      alertType,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(b.ttl),
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.alerts = append([]Alert{alert}, b.pruneLocked(now)...)
	return alert
}

// Dismiss removes an alert early. It reports whether the alert was visible.
func (b *AlertBoard) Dismiss(id string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for i, alert := range b.alerts {
		if alert.ID == id {
			b.alerts = append(b.alerts[:i:i], b.alerts[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the alerts that have not expired.
func (b *AlertBoard) Active() []Alert {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.alerts = b.pruneLocked(b.now())
	return append([]Alert(nil), b.alerts...)
}

func (b *AlertBoard) pruneLocked(now time.Time) []Alert {
	kept := b.alerts[:0:0]
	for _, alert := range b.alerts {
		if !alert.Expired(now) {
			kept = append(kept, alert)
		}
	}
	return kept
}
