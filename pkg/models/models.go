package models

// Country is a uniquely named record stored in the country table
type Country struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Video is the public result of resolving an Instagram video post
type Video struct {
	VideoURL string `json:"video_url"`
	Caption  string `json:"caption"`
	Author   string `json:"author"`
}
