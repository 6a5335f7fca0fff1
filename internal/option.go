package internal

import "github.com/Voelzke/notehub/internal/reminder"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	notifier reminder.Notifier
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithNotifier sets the reminder delivery channel. When unset, reminders are
// only logged.
func WithNotifier(n reminder.Notifier) Option {
	return func(a *application) {
		a.notifier = n
	}
}
