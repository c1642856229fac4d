package router

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/anonto42/mintfeed/backend/internal/handlers"
	"github.com/anonto42/mintfeed/backend/internal/middleware"
	"github.com/anonto42/mintfeed/backend/internal/readmodel"
	"github.com/anonto42/mintfeed/backend/internal/repositories"
	"github.com/anonto42/mintfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Dependencies are the connections and settings the routes are built from.
type Dependencies struct {
	Postgres *gorm.DB
	Mongo    *mongo.Database
	// Redis and Firebase are optional.
	Redis         *redis.Client
	Firebase      services.IDTokenVerifier
	JWTSecret     string
	JWTTTL        time.Duration
	UserCacheSize int
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) error {
	e.HTTPErrorHandler = handlers.ErrorHandler

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck(deps.Postgres))
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "mintfeed api"})
	})

	// --- Initialize Repositories ---
	pgdb := deps.Postgres
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewPostgresPostRepository(pgdb)
	communityRepo := repositories.NewPostgresCommunityRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	nftRepo := repositories.NewPostgresNFTRepository(pgdb)
	messageRepo := repositories.NewMongoMessageRepository(deps.Mongo)

	var locker services.Locker
	if deps.Redis != nil {
		locker = repositories.NewRedisLocker(deps.Redis, "mintfeed:streak:")
	}

	directory, err := services.NewUserDirectory(userRepo, deps.UserCacheSize)
	if err != nil {
		return fmt.Errorf("user directory: %w", err)
	}
	views := readmodel.NewBuilder(pgdb)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo, deps.Firebase, deps.JWTSecret, deps.JWTTTL)
	feedService := services.NewFeedService(views, userRepo, postRepo, communityRepo)
	postService := services.NewPostService(pgdb, postRepo, communityRepo, views)
	reactionService := services.NewReactionService(pgdb, postRepo, communityRepo)
	nftService := services.NewNFTService(pgdb, nftRepo)
	communityService := services.NewCommunityService(communityRepo, directory)
	userService := services.NewUserService(pgdb, directory)
	notificationService := services.NewNotificationService(notificationRepo, directory)
	messageService := services.NewMessageService(messageRepo, directory)
	streakService := services.NewStreakService(pgdb, locker, directory)

	// --- Procedures: GET for queries, POST for mutations ---
	rpc := e.Group("/api/v1/rpc")
	rpc.Use(middleware.JWTAuthMiddleware(authService, authService))
	log.Println("JWT authentication middleware applied to /api/v1/rpc group.")

	handlers.NewAuthHandler(authService).RegisterAuthRoutes(rpc)
	log.Println("Auth procedures configured.")

	handlers.NewFeedHandler(feedService).RegisterFeedRoutes(rpc)
	log.Println("Feed procedures configured.")

	handlers.NewPostHandler(postService, reactionService).RegisterPostRoutes(rpc)
	log.Println("Post procedures configured.")

	handlers.NewNFTHandler(nftService).RegisterNFTRoutes(rpc)
	log.Println("NFT procedures configured.")

	handlers.NewCommunityHandler(communityService).RegisterCommunityRoutes(rpc)
	log.Println("Community procedures configured.")

	handlers.NewUserHandler(userService).RegisterProfileRoutes(rpc)
	handlers.NewFollowHandler(userService).RegisterFollowRoutes(rpc)
	log.Println("User procedures configured.")

	handlers.NewNotificationHandler(notificationService).RegisterNotificationRoutes(rpc)
	log.Println("Notification procedures configured.")

	handlers.NewMessageHandler(messageService).RegisterMessageRoutes(rpc)
	log.Println("Message procedures configured.")

	handlers.NewStreakHandler(streakService).RegisterStreakRoutes(rpc)
	log.Println("Streak procedures configured.")

	log.Println("All routes configured.")
	return nil
}
