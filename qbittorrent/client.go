package qbittorrent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
)

// torrentLister is the part of the qBittorrent API the client reads from
type torrentLister interface {
	GetTorrents(opts qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error)
}

// Client wraps the qBittorrent API client
type Client struct {
	client     torrentLister
	logger     zerolog.Logger
	maxMatches int
}

// NewClient creates a new qBittorrent client and logs in
func NewClient(url, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:          url,
		Username:      username,
		Password:      password,
		TLSSkipVerify: options.skipVerify,
		Timeout:       int(options.timeout / time.Second),
	})

	if err := client.Login(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Client{
		client:     client,
		logger:     logger,
		maxMatches: options.maxMatches,
	}, nil
}

// GetAllTorrents retrieves all torrents from qBittorrent
func (c *Client) GetAllTorrents(ctx context.Context) ([]*TorrentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	torrents, err := c.client.GetTorrents(qbittorrent.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d torrents from qBittorrent", len(torrents))

	results := make([]*TorrentInfo, 0, len(torrents))
	for _, t := range torrents {
		info := &TorrentInfo{
			Hash:        t.Hash,
			Name:        t.Name,
			SavePath:    t.SavePath,
			ContentPath: t.ContentPath,
			State:       string(t.State),
			Size:        t.Size,
			Progress:    t.Progress,
			Ratio:       t.Ratio,
			AddedOn:     time.Unix(t.AddedOn, 0),
			Category:    t.Category,
			Tags:        splitTags(t.Tags),
		}
		info.IsSeeding = info.IsActivelySeeding()

		results = append(results, info)
	}

	return results, nil
}

func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
