package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/linkup-app/backend/internal/database"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := logger.Initialize("warn", "/dev/null"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database connection
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("Verifying seed data...")
	fmt.Println()

	// Count records
	var userCount, postCount, commentCount, storyCount, followCount, notificationCount int64

	database.DB.Model(&models.User{}).Where("deleted_at IS NULL").Count(&userCount)
	database.DB.Model(&models.Post{}).Where("deleted_at IS NULL").Count(&postCount)
	database.DB.Model(&models.Comment{}).Where("deleted_at IS NULL AND is_deleted = false").Count(&commentCount)
	database.DB.Model(&models.Story{}).Where("deleted_at IS NULL").Count(&storyCount)
	database.DB.Model(&models.Follow{}).Count(&followCount)
	database.DB.Model(&models.Notification{}).Count(&notificationCount)

	fmt.Println("Record Counts:")
	fmt.Printf("  Users:         %d\n", userCount)
	fmt.Printf("  Posts:         %d\n", postCount)
	fmt.Printf("  Comments:      %d\n", commentCount)
	fmt.Printf("  Stories:       %d\n", storyCount)
	fmt.Printf("  Follows:       %d\n", followCount)
	fmt.Printf("  Notifications: %d\n", notificationCount)
	fmt.Println()

	// Sample users
	var users []models.User
	database.DB.Where("deleted_at IS NULL").Limit(3).Find(&users)
	fmt.Println("Sample Users:")
	for _, u := range users {
		fmt.Printf("  - %s (@%s) - %d posts, %d followers\n",
			u.DisplayName, u.Username, u.PostCount, u.FollowerCount)
	}
	fmt.Println()

	// Sample posts
	var posts []models.Post
	database.DB.Preload("User").Where("deleted_at IS NULL").
		Order("like_count DESC").Limit(3).Find(&posts)
	fmt.Println("Top Posts:")
	for _, p := range posts {
		fmt.Printf("  - %q by @%s - %d likes, %d comments\n",
			p.Title, p.User.Username, p.LikeCount, p.CommentCount)
	}
}
