package qbittorrent

import (
	"slices"
	"time"
)

var seedingStates = []string{"uploading", "stalledUP", "queuedUP", "forcedUP"}

// TorrentInfo contains information about a torrent
type TorrentInfo struct {
	Hash        string
	Name        string
	SavePath    string
	ContentPath string
	State       string
	Size        int64
	Progress    float64
	Ratio       float64
	AddedOn     time.Time
	Category    string
	Tags        []string
	IsSeeding   bool
}

// IsActivelySeeding checks if the torrent is actively seeding
func (t *TorrentInfo) IsActivelySeeding() bool {
	return slices.Contains(seedingStates, t.State)
}

// IsComplete reports whether the torrent finished downloading
func (t *TorrentInfo) IsComplete() bool {
	return t.Progress >= 1
}

// GetFullPath returns the full path to the torrent content
func (t *TorrentInfo) GetFullPath() string {
	if t.ContentPath != "" {
		return t.ContentPath
	}
	return t.SavePath + "/" + t.Name
}

// TorrentMatch is a torrent that plausibly contains a given movie
type TorrentMatch struct {
	Torrent     *TorrentInfo
	Score       float64
	TitleMatch  float64
	YearMatched bool
}
