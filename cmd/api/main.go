// @title Mental Math API
// @version 1.0
// @description Adaptive mental-math practice sessions driven by a next-question agent.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"mentalmath/internal/adapter"
	agentclient "mentalmath/internal/adapter/agent"
	"mentalmath/internal/cache"
	"mentalmath/internal/catalog"
	"mentalmath/internal/config"
	"mentalmath/internal/database"
	"mentalmath/internal/domain"
	"mentalmath/internal/handler"
	"mentalmath/internal/logger"
	"mentalmath/internal/middleware"
	"mentalmath/internal/repository"
	"mentalmath/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Connect to the session store
	db, err := database.NewSQLXPostgresDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Connect to the question/topic catalog
	mongoClient, err := catalog.Connect(context.Background(), &cfg.Mongo)
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	// Initialize repositories and catalogs
	userRepository := repository.NewSQLXUserRepository(db)
	sessionRepository := repository.NewSQLXSessionRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)
	questionCatalog := catalog.NewMongoQuestionCatalog(mongoClient, cfg.Mongo.Database)
	topicCatalog := catalog.NewMongoTopicCatalog(mongoClient, cfg.Mongo.Database)

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	// Initialize the next-question agent client
	agentClient := agentclient.NewHTTPClient(&cfg.Agent)
	appLogger.Info("Agent client initialized", zap.String("base_url", cfg.Agent.BaseURL))

	// Initialize services
	authService, err := service.NewAuthService(userRepository, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	userService := service.NewUserService(userRepository, authService)
	sessionService := service.NewSessionService(
		sessionRepository,
		userRepository,
		questionCatalog,
		topicCatalog,
		agentClient,
		txManager,
		cacheAdapter,
	)
	topicService := service.NewTopicService(topicCatalog)
	questionService := service.NewQuestionService(questionCatalog, topicCatalog)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService, authService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	topicHandler := handler.NewTopicHandler(topicService)
	questionHandler := handler.NewQuestionHandler(questionService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PATCH,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	// Swagger handler
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API group
	apiGroup := app.Group("/api")

	// User and auth routes
	userGroup := apiGroup.Group("/users")
	userGroup.Post("/register", userHandler.Register)
	userGroup.Post("/login", userHandler.Login)
	userGroup.Post("/refresh", userHandler.Refresh)
	userGroup.Get("/me", middleware.Protected(authService), userHandler.GetMyProfile)
	userGroup.Patch("/me", middleware.Protected(authService), userHandler.UpdateMyProfile)
	userGroup.Delete("/:id", middleware.Protected(authService), middleware.MinimumRole(domain.RoleAdmin), userHandler.DeleteUser)

	// Session routes (all protected)
	sessionGroup := apiGroup.Group("/sessions", middleware.Protected(authService))
	sessionGroup.Post("/", sessionHandler.CreateSession)
	sessionGroup.Get("/", sessionHandler.GetMySessions)
	sessionGroup.Get("/dashboard", sessionHandler.Dashboard)
	sessionGroup.Get("/current-session-question/:id", sessionHandler.GetCurrentQuestion)
	sessionGroup.Post("/answer-current-session-question", sessionHandler.AnswerCurrentQuestion)
	sessionGroup.Get("/:id", sessionHandler.GetSession)
	sessionGroup.Patch("/:id", sessionHandler.UpdateSession)
	sessionGroup.Delete("/:id", sessionHandler.DeleteSession)

	// Catalog routes
	apiGroup.Get("/topics", topicHandler.ListTopics)
	apiGroup.Get("/topics/:slug", topicHandler.GetTopic)
	apiGroup.Post("/topics", middleware.Protected(authService), middleware.MinimumRole(domain.RoleTeacher), topicHandler.CreateTopic)
	apiGroup.Get("/questions", questionHandler.ListQuestions)
	apiGroup.Get("/questions/random", questionHandler.GetRandomQuestion)
	apiGroup.Get("/questions/:id", questionHandler.GetQuestion)
	apiGroup.Post("/questions", middleware.Protected(authService), middleware.MinimumRole(domain.RoleTeacher), questionHandler.CreateQuestion)

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
