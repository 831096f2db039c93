package models

import "time"

type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Owner       string    `json:"owner"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnerSummary is the public projection of a video's owner.
type OwnerSummary struct {
	UserName string `json:"username"`
	FullName string `json:"fullname"`
	Avatar   string `json:"avatar"`
}

// VideoDetails is a video joined with its owner and like count. Its Owner
// field shadows Video.Owner, so it serializes as an object.
type VideoDetails struct {
	Video
	Owner *OwnerSummary `json:"owner"`
	Likes int64         `json:"likes"`
}
