package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every relational table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Community{},
		&CommunityMember{},
		&Post{},
		&Like{},
		&Save{},
		&Repost{},
		&Follow{},
		&Notification{},
		&Collection{},
		&NFTMint{},
		&UserStreak{},
	)
}
