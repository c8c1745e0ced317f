package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-moodtunes/internal/songs"
)

const trackURL = "https://open.spotify.com/track/"

// Search returns up to limit tracks matching query as songs.Video values.
// Returns an empty slice (not nil) when nothing matches.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]songs.Video, error) {
	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	videos := []songs.Video{}
	if result.Tracks == nil {
		return videos, nil
	}

	for _, track := range result.Tracks.Tracks {
		if track.ID == "" {
			continue
		}
		videos = append(videos, convertTrack(track))
	}
	return videos, nil
}

// convertTrack converts a Spotify FullTrack to songs.Video.
func convertTrack(track spotify.FullTrack) songs.Video {
	artists := make([]string, len(track.Artists))
	for i, a := range track.Artists {
		artists[i] = a.Name
	}

	title := track.Name
	if len(artists) > 0 {
		title = track.Name + " - " + strings.Join(artists, ", ")
	}

	// Images are ordered widest first.
	var thumb string
	if n := len(track.Album.Images); n > 0 {
		thumb = track.Album.Images[n-1].URL
	}

	return songs.Video{
		Title:     title,
		VideoID:   track.ID.String(),
		Thumbnail: thumb,
		URL:       trackURL + track.ID.String(),
	}
}
