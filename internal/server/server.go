package server

import (
	"backend-purewaters/internal/auth"
	"backend-purewaters/internal/config"
	"backend-purewaters/internal/event"
	"backend-purewaters/internal/location"
	"backend-purewaters/internal/notification"
	"backend-purewaters/internal/post"
	"backend-purewaters/internal/rating"
	"backend-purewaters/internal/storage"
	"backend-purewaters/internal/stream"
	"backend-purewaters/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Blobs  storage.BlobStore
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, blobs storage.BlobStore) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Blobs:  blobs,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	adminMiddleware := auth.AdminMiddleware()

	notifications := notification.NewService(s.DB, s.Stream)
	ratings := rating.NewService(s.DB, notifications)
	events := event.NewService(s.DB, notifications)
	posts := post.NewService(s.DB, s.Blobs, ratings, notifications)
	locations := location.NewService(s.DB, s.Blobs, events)
	users := user.NewService(s.DB, s.Blobs)

	userGroup := s.App.Group("/api/user")
	auth.RegisterRoutes(userGroup, auth.NewService(s.Cfg.JWTSecret, s.DB))
	notification.RegisterRoutes(userGroup.Group("/notifications"), notifications, jwtMiddleware)
	user.RegisterRoutes(userGroup, users, jwtMiddleware, adminMiddleware)

	post.RegisterRoutes(s.App.Group("/api/post"), posts, jwtMiddleware, adminMiddleware)
	location.RegisterRoutes(s.App.Group("/api/locations"), locations, jwtMiddleware, adminMiddleware)
	event.RegisterRoutes(s.App.Group("/api/event"), events, jwtMiddleware, adminMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
