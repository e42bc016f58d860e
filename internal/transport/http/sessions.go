package httptransport

import (
	"context"
	"sync"

	"timeclock/internal/attendance"
	"timeclock/internal/domain"
	"timeclock/internal/geo"
)

// terminalDevice adapts the client-reported device facts to the flow's
// Locator and Camera ports. The browser posts its position fix (or failure
// reason) alongside store selection; Locate hands the flow whatever the
// terminal last reported.
type terminalDevice struct {
	mu     sync.Mutex
	pos    *domain.Position
	reason geo.ErrorReason
}

// SetFix records the terminal's reported position, or the reason it could not
// produce one.
func (d *terminalDevice) SetFix(pos *domain.Position, reason geo.ErrorReason) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = pos
	d.reason = reason
}

func (d *terminalDevice) Locate(context.Context) (domain.Position, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pos == nil {
		reason := d.reason
		if reason == "" {
			reason = geo.ReasonPositionUnavailable
		}
		return domain.Position{}, &attendance.PositionError{Reason: reason}
	}
	return *d.pos, nil
}

// Acquire models the client camera: the server side only tracks the handle
// lifecycle so the flow's release guarantees are observable.
func (d *terminalDevice) Acquire(context.Context) (attendance.CameraHandle, error) {
	return noopHandle{}, nil
}

type noopHandle struct{}

func (noopHandle) Release() {}

// terminalSession pairs one flow instance with its device adapter.
type terminalSession struct {
	flow   *attendance.Flow
	device *terminalDevice
}

// SessionManager holds one attendance session per terminal id.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*terminalSession
	newFlow  func(*terminalDevice) *attendance.Flow
}

func NewSessionManager(newFlow func(locator attendance.Locator, camera attendance.Camera) *attendance.Flow) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*terminalSession),
		newFlow: func(d *terminalDevice) *attendance.Flow {
			return newFlow(d, d)
		},
	}
}

// Session returns the terminal's session, creating it on first use.
func (m *SessionManager) Session(terminalID string) *terminalSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[terminalID]; ok {
		return s
	}
	device := &terminalDevice{}
	s := &terminalSession{flow: m.newFlow(device), device: device}
	m.sessions[terminalID] = s
	return s
}
