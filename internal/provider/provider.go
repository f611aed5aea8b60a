// Package provider contains metadata provider implementations (Deezer,
// iTunes, MusicBrainz).
//
// The Provider interface is defined in internal/metadata (metadata.Provider),
// following the Go convention of defining interfaces where they are consumed.
// Each sub-package here implements that interface for a specific service.
package provider

import (
	"tunegrab/internal/metadata"
	"tunegrab/internal/provider/deezer"
	"tunegrab/internal/provider/itunes"
	"tunegrab/internal/provider/musicbrainz"
)

// Clients instantiates the named provider clients in order. Unknown names
// are skipped; config validation rejects them before this point.
func Clients(names []string) []metadata.Provider {
	var clients []metadata.Provider
	for _, name := range names {
		switch name {
		case "deezer":
			clients = append(clients, deezer.New())
		case "itunes":
			clients = append(clients, itunes.New())
		case "musicbrainz":
			clients = append(clients, musicbrainz.New())
		}
	}
	return clients
}
