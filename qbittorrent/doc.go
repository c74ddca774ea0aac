// Package qbittorrent provides a client for interacting with the qBittorrent Web API.
//
// This package wraps the autobrr/go-qbittorrent library to provide the torrent
// and comment data web modes are resolved from.
//
// # Features
//
//   - Connection management with authentication
//   - Torrent retrieval for all or selected categories, deduplicated by hash
//   - Comment lookup through torrent properties, bounded by WithCommentWorkers
//   - Category listing
//
// # Usage
//
//	client, err := qbittorrent.NewClient(ctx, url, username, password, logger,
//	    qbittorrent.WithInsecureSkipVerify())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	torrents, err := client.ListTorrents(ctx, []string{"movies"})
//	for _, t := range torrents {
//	    res, err := resolver.Resolve(t.Comment)
//	    // ...
//	}
package qbittorrent
