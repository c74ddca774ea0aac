package qbittorrent

import "time"

// Uncategorized is reported for torrents without a category
const Uncategorized = "Uncategorized"

// TorrentInfo contains information about a torrent
type TorrentInfo struct {
	Hash        string    `json:"hash"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	State       string    `json:"state"`
	Progress    float64   `json:"progress"`
	Ratio       float64   `json:"ratio"`
	Size        int64     `json:"size"`
	SavePath    string    `json:"save_path"`
	ContentPath string    `json:"content_path"`
	Comment     string    `json:"comment"`
	Seeds       int64     `json:"num_seeds"`
	Leechs      int64     `json:"num_leechs"`
	AddedOn     time.Time `json:"added_on"`
	Tags        []string  `json:"tags"`
}

// IsActivelySeeding checks if the torrent is actively seeding
func (t *TorrentInfo) IsActivelySeeding() bool {
	return t.State == "uploading" || t.State == "stalledUP" || t.State == "queuedUP" || t.State == "forcedUP"
}

// HasComment reports whether the torrent carries a comment
func (t *TorrentInfo) HasComment() bool {
	return t.Comment != ""
}

// GetFullPath returns the full path to the torrent content
func (t *TorrentInfo) GetFullPath() string {
	if t.ContentPath != "" {
		return t.ContentPath
	}
	return t.SavePath + "/" + t.Name
}
