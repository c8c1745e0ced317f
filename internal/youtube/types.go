package youtube

// thumbnail is one rendition of a video thumbnail.
type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// searchItem is one entry of a search.list response.
type searchItem struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string               `json:"title"`
		ChannelTitle string               `json:"channelTitle"`
		Thumbnails   map[string]thumbnail `json:"thumbnails"`
	} `json:"snippet"`
}

// searchResponse is the JSON response for search.list.
type searchResponse struct {
	Items []searchItem `json:"items"`
}

// apiError represents a YouTube API error response.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Domain  string `json:"domain"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}
