package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxel-engine/internal/app"
	"github.com/annel0/voxel-engine/internal/auth"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer - админ-консоль движка
type RestServer struct {
	router     *gin.Engine
	engine     *app.Engine
	userRepo   auth.UserRepository
	addr       string
	metrics    *ServerMetrics
	httpServer *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr     string              // адрес для запуска сервера
	Engine   *app.Engine         // движок мира
	UserRepo auth.UserRepository // учётные записи консоли
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Addr == "" {
		config.Addr = ":8088"
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_admin"))

	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("voxel_admin")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:   router,
		engine:   config.Engine,
		userRepo: config.UserRepo,
		addr:     config.Addr,
		metrics:  NewServerMetrics(),
	}

	server.setupRoutes()
	server.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server
}

// Handler возвращает http.Handler консоли
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")

	// Эндпоинт для аутентификации (без JWT защиты)
	api.POST("/auth/login", rs.handleLogin)

	// Защищенные эндпоинты (требуют JWT администратора)
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware(), rs.adminMiddleware())
	{
		protected.GET("/world/seed", rs.handleSeed)
		protected.GET("/world/stats", rs.handleStats)
		protected.GET("/world/block", rs.handleGetBlock)
		protected.POST("/world/block", rs.handleSetBlock)
		protected.DELETE("/world/block", rs.handleBreakBlock)
		protected.POST("/world/save", rs.handleSave)

		protected.GET("/player", rs.handlePlayer)
		protected.POST("/player/teleport", rs.handleTeleport)
		protected.POST("/player/fov", rs.handleFOV)
		protected.POST("/player/selected", rs.handleSelect)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: data})
}

// engineError отвечает на ошибку команды движка
func engineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrStopped):
		fail(c, http.StatusServiceUnavailable, "Движок остановлен")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusGatewayTimeout, "Движок не ответил вовремя")
	default:
		logging.Error("❌ Ошибка команды консоли: %v", err)
		fail(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}

// handleLogin обрабатывает запрос на вход
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	user, err := rs.userRepo.ValidateCredentials(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Неверное имя пользователя или пароль",
		})
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	logging.Info("🔑 Вход в консоль: %s", user.Username)
	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Message: "Успешная авторизация",
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ticks":  rs.engine.Ticks(),
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер и блокируется до остановки
func (rs *RestServer) Start() error {
	logging.Info("🌐 Админ-консоль слушает %s", rs.addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop плавно останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpServer.Shutdown(ctx)
}
