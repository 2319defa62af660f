package genius

// Song is a search hit that points at a lyrics page.
type Song struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	LyricsState   string `json:"lyrics_state"`
	PrimaryArtist struct {
		Name string `json:"name"`
	} `json:"primary_artist"`
}

// searchResponse is the JSON response for GET /search.
type searchResponse struct {
	Meta struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"meta"`
	Response struct {
		Hits []struct {
			Type   string `json:"type"`
			Result Song   `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}
