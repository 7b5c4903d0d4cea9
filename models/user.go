package models

import (
	"strconv"
	"time"
)

// User is a credential record. The passphrase hash is write-only: it is set
// once at registration and never serialized outward.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Username   string    `gorm:"size:256;not null;uniqueIndex" json:"username"`
	Passphrase []byte    `gorm:"not null" json:"-"`
	FirstName  string    `gorm:"size:256;not null" json:"first_name"`
	LastName   string    `gorm:"size:256;not null" json:"last_name"`
	Email      string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
}

// Sub returns the canonical string form of the user id. Token subjects and
// resource owner columns both carry this form, so ownership checks stay a
// plain string comparison.
func (u *User) Sub() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}
