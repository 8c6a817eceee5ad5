package tui

import "github.com/goliatone/go-predictform/internal/logging"

// Theme captures optional prefixes applied to printed messages.
type Theme struct {
	InfoPrefix    string
	ErrorPrefix   string
	ResultPrefix  string
	LoadingPrefix string
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithLogger sets the session logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Session) {
		s.logger = logging.OrNop(logger)
	}
}
