package instagram

// PostResponse is the GraphQL envelope returned for a shortcode lookup.
// Newer responses use xdt_shortcode_media, older ones shortcode_media.
type PostResponse struct {
	Data            PostData `json:"data"`
	Status          string   `json:"status"`
	Message         string   `json:"message"`
	RequiresToLogin bool     `json:"require_login"`
}

// PostData wraps the media node
type PostData struct {
	XDTShortcodeMedia *Media `json:"xdt_shortcode_media"`
	ShortcodeMedia    *Media `json:"shortcode_media"`
}

// Media returns whichever media field the response populated
func (d PostData) Media() *Media {
	if d.XDTShortcodeMedia != nil {
		return d.XDTShortcodeMedia
	}
	return d.ShortcodeMedia
}

// Media represents a single post
type Media struct {
	ID                 string       `json:"id"`
	Shortcode          string       `json:"shortcode"`
	TypeName           string       `json:"__typename"`
	IsVideo            bool         `json:"is_video"`
	VideoURL           string       `json:"video_url"`
	DisplayURL         string       `json:"display_url"`
	Owner              Owner        `json:"owner"`
	EdgeMediaToCaption CaptionEdges `json:"edge_media_to_caption"`
}

// Owner identifies the account that published a post
type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// CaptionEdges holds the caption text nodes
type CaptionEdges struct {
	Edges []CaptionEdge `json:"edges"`
}

// CaptionEdge wraps a caption node
type CaptionEdge struct {
	Node struct {
		Text string `json:"text"`
	} `json:"node"`
}

// Caption returns the first caption text, or "" when there is none
func (m *Media) Caption() string {
	if len(m.EdgeMediaToCaption.Edges) == 0 {
		return ""
	}
	return m.EdgeMediaToCaption.Edges[0].Node.Text
}

// HasVideo reports whether the post carries a playable video
func (m *Media) HasVideo() bool {
	return m.IsVideo && m.VideoURL != ""
}

// loginResponse is the body of the ajax login endpoint
type loginResponse struct {
	Authenticated     bool   `json:"authenticated"`
	User              bool   `json:"user"`
	UserID            string `json:"userId"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	CheckpointURL     string `json:"checkpoint_url"`
}
