package models

import "time"

// Article is an owned resource. Owner holds the canonical string id of the
// user that created it.
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `gorm:"size:512;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	ImageURL  string    `gorm:"size:2048;not null" json:"image_url"`
	ImageText string    `gorm:"size:1024;not null" json:"image_text"`
	Owner     string    `gorm:"size:64;index;not null" json:"owner"`
}
