package qbittorrent

import "errors"

// Common errors returned by the qBittorrent client.
var (
	// ErrConnectionFailed is returned when login to qBittorrent fails.
	ErrConnectionFailed = errors.New("connection to qBittorrent failed")

	// ErrCategoriesFailed is returned when the category list cannot be read.
	ErrCategoriesFailed = errors.New("failed to list qBittorrent categories")
)
