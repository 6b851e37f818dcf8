package router

import (
	"fmt"

	"chat-gateway/internal/config"
	"chat-gateway/internal/handler"
	"chat-gateway/internal/middleware"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/service"
	"chat-gateway/internal/utils"
	"chat-gateway/pkg/metrics"
	"chat-gateway/pkg/model_caller"
	"chat-gateway/pkg/redis_limiter"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRouter 设置路由，redisClient 为 nil 时不启用跨进程并发限制
func SetupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) (*gin.Engine, error) {
	// 设置Gin模式
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.Locale())
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(&cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Middleware())
		if cfg.Metrics.Port == 0 {
			r.GET(cfg.Metrics.Path, metrics.Handler())
		}
	}

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	usageRepo := repository.NewUsageLogRepository(db)
	dialogRepo := repository.NewDialogRepository(db)
	metaRepo := repository.NewModelMetaRepository(db)
	promptRepo := repository.NewSystemPromptRepository(db)
	limitRepo := repository.NewTestLimitRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 上游客户端
	caller := model_caller.NewModelCaller(model_caller.Options{
		BaseURLs:     cfg.Upstream.BaseURLs,
		APIKey:       cfg.Upstream.APIKey,
		ChatTimeout:  cfg.Upstream.GetChatTimeout(),
		ImageTimeout: cfg.Upstream.GetImageTimeout(),
		ListTimeout:  cfg.Upstream.GetListTimeout(),
	})

	// 初始化Service
	authService := service.NewAuthService(userRepo, cfg, logger)
	userService := service.NewUserService(userRepo, logger)
	catalogService := service.NewCatalogService(caller, metaRepo, cfg.Catalog, logger)
	historyService := service.NewHistoryService(usageRepo, dialogRepo, cfg.History, logger)
	limitService := service.NewLimitService(limitRepo, cfg.TestUser, logger)
	promptService := service.NewPromptService(promptRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	fileService, err := service.NewFileService(cfg.Upload, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化上传目录失败: %w", err)
	}
	chatService := service.NewChatService(
		caller,
		catalogService,
		historyService,
		fileService,
		newSlotLimiter(cfg, redisClient, logger),
		cfg.Upstream,
		logger,
	)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService)
	modelHandler := handler.NewModelHandler(catalogService, promptService)
	chatHandler := handler.NewChatHandler(chatService, logger)
	dialogHandler := handler.NewDialogHandler(historyService)
	fileHandler := handler.NewFileHandler(fileService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	adminHandler := handler.NewAdminHandler(catalogService, promptService, limitService, userService, notificationService)

	loginLimiter := middleware.NewIPRateLimiter(&cfg.LoginProtection, logger)
	gate := middleware.AuthGate(authService, "")

	// 签名文件链接
	r.GET("/uploads/:name", fileHandler.Serve)

	api := r.Group("/api")
	{
		// 公开路由
		getPost(api, "/health", authHandler.Health)
		api.GET("/notifications/active", notificationHandler.Active)
		api.POST("/login", middleware.LoginProtection(loginLimiter), authHandler.Login)
		api.POST("/password", middleware.LoginProtection(loginLimiter), gate, authHandler.ChangePassword)

		// 流式对话的认证和限次错误也以 SSE 终止帧返回
		api.POST("/chat/stream",
			middleware.WithAbortWriter(chatHandler.StreamAbort),
			gate,
			middleware.TestLimit(limitService),
			chatHandler.Stream,
		)

		// 认证路由，每个请求都携带 user/password
		authorized := api.Group("")
		authorized.Use(gate)
		{
			getPost(authorized, "/models", modelHandler.GetModels)
			getPost(authorized, "/models/grouped", modelHandler.GetGroupedModels)
			getPost(authorized, "/system_prompts", modelHandler.GetSystemPrompts)
			authorized.POST("/upload", fileHandler.Upload)

			// 对话接口，测试账号按IP限次
			chat := authorized.Group("")
			chat.Use(middleware.TestLimit(limitService))
			{
				chat.POST("/chat", chatHandler.Chat)
				chat.POST("/image", chatHandler.Image)
			}

			// 历史对话
			authorized.POST("/dialogs/list", dialogHandler.List)
			authorized.POST("/dialogs/get", dialogHandler.Get)
			authorized.POST("/dialogs/rename", dialogHandler.Rename)
			authorized.POST("/dialogs/delete", dialogHandler.Delete)
			authorized.POST("/usage", dialogHandler.Usage)
		}

		// 管理员接口
		adminGroup := api.Group("/admin")
		adminGroup.Use(middleware.AdminGate(authService))
		{
			registerCRUD(adminGroup, "/model_meta", crudHandlers{
				list:   adminHandler.ListModelMeta,
				get:    adminHandler.GetModelMeta,
				create: adminHandler.CreateModelMeta,
				update: adminHandler.UpdateModelMeta,
				delete: adminHandler.DeleteModelMeta,
			})
			adminGroup.POST("/model_meta/sync", adminHandler.SyncModelMeta)

			registerCRUD(adminGroup, "/system_prompt", crudHandlers{
				list:   adminHandler.ListSystemPrompts,
				get:    adminHandler.GetSystemPrompt,
				create: adminHandler.CreateSystemPrompt,
				update: adminHandler.UpdateSystemPrompt,
				delete: adminHandler.DeleteSystemPrompt,
			})

			registerCRUD(adminGroup, "/test_limit", crudHandlers{
				list:   adminHandler.ListTestLimits,
				get:    adminHandler.GetTestLimit,
				create: adminHandler.CreateTestLimit,
				update: adminHandler.UpdateTestLimit,
				delete: adminHandler.DeleteTestLimit,
			})
			adminGroup.POST("/test_limit/reset", handler.WithParams(adminHandler.ResetTestLimits))

			registerCRUD(adminGroup, "/user", crudHandlers{
				list:   adminHandler.ListUsers,
				get:    adminHandler.GetUser,
				create: adminHandler.CreateUser,
				update: adminHandler.UpdateUser,
				delete: adminHandler.DeleteUser,
			})

			registerCRUD(adminGroup, "/notification", crudHandlers{
				list:   adminHandler.ListNotifications,
				get:    adminHandler.GetNotification,
				create: adminHandler.CreateNotification,
				update: adminHandler.UpdateNotification,
				delete: adminHandler.DeleteNotification,
			})
		}
	}

	return r, nil
}

type paramHandler = func(c *gin.Context, p *utils.RequestParams) error

type crudHandlers struct {
	list, get, create, update, delete paramHandler
}

// registerCRUD 每张表统一的 list/get/create/update/delete 路由
func registerCRUD(g *gin.RouterGroup, prefix string, h crudHandlers) {
	getPost(g, prefix+"/list", handler.WithParams(h.list))
	getPost(g, prefix+"/get/:id", handler.WithParams(h.get))
	g.POST(prefix+"/get", handler.WithParams(h.get))
	g.POST(prefix+"/create", handler.WithParams(h.create))
	g.POST(prefix+"/update", handler.WithParams(h.update))
	g.POST(prefix+"/delete", handler.WithParams(h.delete))
}

func getPost(g *gin.RouterGroup, path string, handlers ...gin.HandlerFunc) {
	g.GET(path, handlers...)
	g.POST(path, handlers...)
}

// newSlotLimiter Redis 可用时按用户限制并发，否则退回进程内限制
func newSlotLimiter(cfg *config.Config, redisClient *redis.Client, logger *logrus.Logger) service.SlotLimiter {
	if redisClient != nil && cfg.Redis.Enabled() {
		return redis_limiter.NewRedisLimiter(
			redisClient,
			cfg.Redis.MaxConcurrentPerUser,
			"chat_slots",
			cfg.Redis.GetSlotTTL(),
			logger,
		)
	}
	if cfg.Upstream.MaxConcurrent > 0 {
		return model_caller.NewConcurrencyLimiter(cfg.Upstream.MaxConcurrent)
	}
	return nil
}
