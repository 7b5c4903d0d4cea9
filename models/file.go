package models

import "time"

// File is the metadata record for an uploaded file. StorePath and ThumbPath
// are names relative to the upload base directory. Missing is flipped by the
// upload watcher when the backing file disappears from disk.
type File struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	StorePath   string    `gorm:"column:store_path;size:512;not null;index" json:"store_path"`
	ThumbPath   string    `gorm:"column:thumb_path;size:512" json:"thumb_path,omitempty"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	Size        int64     `json:"size"`
	Description string    `gorm:"size:1024;not null" json:"description"`
	Owner       string    `gorm:"size:64;index;not null" json:"owner"`
	Missing     bool      `gorm:"default:false;index" json:"missing"`
}
