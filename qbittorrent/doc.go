// Package qbittorrent finds torrents in a qBittorrent instance that contain a
// given movie.
//
// It wraps the autobrr/go-qbittorrent library. Torrent names are tokenized and
// compared against the movie title; a torrent naming a different release year
// is rejected outright. Candidates are ranked by title overlap with small
// bonuses for a matching year, a finished download, and active seeding.
//
// # Usage
//
//	client, err := qbittorrent.NewClient(url, username, password, logger)
//	if err != nil {
//	    return err
//	}
//
//	matches, err := client.FindTorrents(ctx, movie)
//	for _, m := range matches {
//	    fmt.Println(m.Torrent.Name, m.Score)
//	}
package qbittorrent
