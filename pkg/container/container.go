package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"jamin-backend/internal/config"
	"jamin-backend/internal/infrastructure/audio"
	infraCache "jamin-backend/internal/infrastructure/cache"
	"jamin-backend/internal/infrastructure/database"
	"jamin-backend/internal/infrastructure/queue"
	"jamin-backend/internal/infrastructure/storage"
	"jamin-backend/pkg/cache"
	"jamin-backend/pkg/jwt"

	collabHandler "jamin-backend/internal/domains/collaboration/handler"
	collabRepo "jamin-backend/internal/domains/collaboration/repository"
	collabService "jamin-backend/internal/domains/collaboration/service"
	memberHandler "jamin-backend/internal/domains/member/handler"
	memberRepo "jamin-backend/internal/domains/member/repository"
	memberService "jamin-backend/internal/domains/member/service"
	themeHandler "jamin-backend/internal/domains/theme/handler"
	themeRepo "jamin-backend/internal/domains/theme/repository"
	themeService "jamin-backend/internal/domains/theme/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa toàn bộ dependencies của application.
// Root của dependency graph; mọi field là singleton trong app lifetime.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================

	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	Storage     *storage.MinIOStorage
	JWTManager  *jwt.Manager
	QueueClient *queue.Client
	Mixer       *audio.Mixer

	// ========================================
	// REPOSITORY LAYER (DATA ACCESS)
	// ========================================

	MemberRepo memberRepo.MemberRepository
	ThemeRepo  themeRepo.ThemeRepository
	CollabRepo collabRepo.CollaborationRepository

	// ========================================
	// SERVICE LAYER (BUSINESS LOGIC)
	// ========================================

	MemberService memberService.MemberService
	ThemeService  themeService.ThemeService
	CollabService collabService.CollaborationService

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================

	MemberHandler *memberHandler.MemberHandler
	ThemeHandler  *themeHandler.ThemeHandler
	CollabHandler *collabHandler.CollaborationHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph.
// Thứ tự initialization quan trọng:
// 1. Config (không phụ thuộc gì)
// 2. Infrastructure (DB, Cache, Storage, Queue) - phụ thuộc Config
// 3. Repositories - phụ thuộc Infrastructure
// 4. Services - phụ thuộc Repositories
// 5. Handlers - phụ thuộc Services
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	log.Println("🗄️  Connecting to PostgreSQL...")

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	log.Println("🔴 Connecting to Redis...")

	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			// Redis failure không critical - log warning và continue
			log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
		} else {
			log.Println("✅ Redis connected")
		}
	}
	c.Cache = redisCache

	// ========================================
	// STEP 4: INITIALIZE OBJECT STORAGE
	// ========================================
	log.Println("📦 Connecting to MinIO...")

	store, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Storage = store
	log.Println("✅ Object storage ready")

	// ========================================
	// STEP 5: QUEUE CLIENT, JWT, MIXER
	// ========================================
	c.QueueClient = queue.NewClient(cfg.Redis.Host)
	c.JWTManager = jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	c.Mixer = audio.NewMixer(cfg.Mixer, store)

	// ========================================
	// STEP 6: REPOSITORIES / SERVICES / HANDLERS
	// ========================================
	log.Println("⚙️  Initializing domains...")

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.MemberRepo = memberRepo.NewPostgresRepository(pool, c.Cache)
	c.ThemeRepo = themeRepo.NewPostgresRepository(pool, c.Cache)
	c.CollabRepo = collabRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	c.MemberService = memberService.NewMemberService(
		c.MemberRepo,
		c.JWTManager,
		c.Storage,
		storage.NewAvatarProcessor(),
	)
	c.ThemeService = themeService.NewThemeService(
		c.ThemeRepo,
		c.Storage,
		c.Cache,
		c.QueueClient,
	)
	c.CollabService = collabService.NewCollaborationService(
		c.CollabRepo,
		c.Cache,
	)
}

func (c *Container) initHandlers() {
	c.MemberHandler = memberHandler.NewMemberHandler(c.MemberService)
	c.ThemeHandler = themeHandler.NewThemeHandler(c.ThemeService)
	c.CollabHandler = collabHandler.NewCollaborationHandler(c.CollabService)
}

// ========================================
// HELPER METHODS
// ========================================

// Cleanup dọn dẹp resources khi shutdown.
// Gọi trong graceful shutdown của server.
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close queue client: %v", err)
		}
	}

	if c.DB != nil && c.DB.Pool != nil {
		c.DB.Pool.Close()
		log.Println("✅ Database connections closed")
	}

	if c.Cache != nil {
		if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
			if err := rc.Close(); err != nil {
				log.Printf("⚠️  Failed to close Redis: %v", err)
			} else {
				log.Println("✅ Redis connections closed")
			}
		}
	}

	log.Println("✅ Container cleanup completed")
}
