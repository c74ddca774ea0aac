package qbittorrent

import "time"

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	timeout        time.Duration
	verifyCert     bool
	basicUser      string
	basicPass      string
	commentWorkers int
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:        30 * time.Second,
		verifyCert:     true,
		commentWorkers: 8,
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithInsecureSkipVerify disables certificate verification.
// Use with caution and only for development/testing.
func WithInsecureSkipVerify() Option {
	return func(o *clientOptions) {
		o.verifyCert = false
	}
}

// WithBasicAuth sets HTTP basic auth credentials for a WebUI behind a proxy.
func WithBasicAuth(user, pass string) Option {
	return func(o *clientOptions) {
		o.basicUser = user
		o.basicPass = pass
	}
}

// WithCommentWorkers limits concurrent torrent property requests.
func WithCommentWorkers(workers int) Option {
	return func(o *clientOptions) {
		if workers > 0 {
			o.commentWorkers = workers
		}
	}
}
