package models

import "time"

type Like struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video"`
	LikedBy   string    `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}
