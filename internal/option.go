package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// ask command
	query       string
	interactive bool
	listOnly    bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithIO replaces the process stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(a *application) {
		a.stdin = in
		a.stdout = out
		a.stderr = errOut
	}
}

// WithQuery sets the one-shot request answered by Ask.
func WithQuery(q string) Option {
	return func(a *application) {
		a.query = q
	}
}

// WithInteractive makes Ask read transcripts from stdin.
func WithInteractive() Option {
	return func(a *application) {
		a.interactive = true
	}
}

// WithListRecipes makes Ask print the offline catalog instead of resolving.
func WithListRecipes() Option {
	return func(a *application) {
		a.listOnly = true
	}
}
