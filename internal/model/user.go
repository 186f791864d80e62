package model

import "time"

type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"size:50;unique;not null"`
	PasswordHash string `gorm:"not null"`
	// age X25519 identity every file owned by the user is encrypted to
	PrivateKey string    `gorm:"not null"`
	CreateDate time.Time `gorm:"not null"`

	Stats Stats `gorm:"foreignKey:UserID"`
}
