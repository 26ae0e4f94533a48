package toast

import (
	"fmt"
	"time"
)

// Severity classifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps a name to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(s); sev {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return sev, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Action is an optional user action attached to a notification.
type Action struct {
	Label string
	Do    func()
}

// Notification is a transient, single-slot message.
type Notification struct {
	Message  string
	Severity Severity
	Action   *Action
	// Duration before auto-dismiss. Zero means the State's default.
	Duration time.Duration
}

// HasAction reports whether the notification carries a usable action.
func (n Notification) HasAction() bool {
	return n.Action != nil && n.Action.Label != "" && n.Action.Do != nil
}

// Option customizes a notification built by the severity constructors.
type Option func(*Notification)

// WithAction attaches an action. Running it does not dismiss the notification.
func WithAction(label string, do func()) Option {
	return func(n *Notification) {
		n.Action = &Action{Label: label, Do: do}
	}
}

// WithDuration overrides the auto-dismiss delay.
func WithDuration(d time.Duration) Option {
	return func(n *Notification) {
		n.Duration = d
	}
}

func build(sev Severity, msg string, opts []Option) Notification {
	n := Notification{Message: msg, Severity: sev}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// Success builds a success notification.
func Success(msg string, opts ...Option) Notification { return build(SeveritySuccess, msg, opts) }

// Error builds an error notification.
func Error(msg string, opts ...Option) Notification { return build(SeverityError, msg, opts) }

// Warning builds a warning notification.
func Warning(msg string, opts ...Option) Notification { return build(SeverityWarning, msg, opts) }

// Info builds an informational notification.
func Info(msg string, opts ...Option) Notification { return build(SeverityInfo, msg, opts) }
