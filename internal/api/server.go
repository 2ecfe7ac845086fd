package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/vendebot/vende/internal/service"
	"github.com/vendebot/vende/internal/storage"
	"github.com/vendebot/vende/internal/ws"
	"github.com/vendebot/vende/pkg/config"
)

// strPtr returns a pointer to a string
func strPtr(s string) *string {
	return &s
}

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	services *service.Services
	hub      *ws.Hub
	storage  *storage.Storage
}

func NewServer(cfg *config.Config, services *service.Services, hub *ws.Hub, store *storage.Storage) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "Vende",
		BodyLimit:             16 * 1024 * 1024, // 16MB max upload
		DisableStartupMessage: false,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
	}))

	// Security Headers (Helmet)
	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
	}))

	// Rate Limiting - 500 requests per minute per IP (skip webhook and websocket)
	app.Use(limiter.New(limiter.Config{
		Max:        500,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "too many requests, please slow down",
			})
		},
		Next: func(c *fiber.Ctx) bool {
			path := c.Path()
			return strings.HasPrefix(path, "/api/webhook") || strings.HasPrefix(path, "/ws")
		},
	}))

	// CORS Configuration
	corsOrigins := "http://localhost:3000,http://localhost:8080"
	if cfg.IsProduction() && len(cfg.CORSOrigins) > 0 {
		corsOrigins = strings.Join(cfg.CORSOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,Upgrade,Connection",
		AllowCredentials: true,
	}))

	server := &Server{
		app:      app,
		cfg:      cfg,
		services: services,
		hub:      hub,
		storage:  store,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now(),
		})
	})

	// API routes
	api := s.app.Group("/api")

	// Meta webhook - MUST stay public, Meta calls it directly
	api.Get("/webhook", s.handleWebhookVerify)
	api.Post("/webhook", s.handleWebhookReceive)

	// Public menu QR for printing/table stickers
	api.Get("/business/:account_id/menu-qr", s.handleMenuQR)

	// Auth routes (no auth required)
	auth := api.Group("/auth")
	auth.Post("/login", s.handleLogin)

	// Protected routes
	protected := api.Group("", s.authMiddleware)

	// User routes
	protected.Get("/me", s.handleGetMe)
	protected.Post("/auth/logout", s.handleLogout)
	protected.Post("/auth/change-password", s.handleChangePassword)

	// Account / billing
	protected.Get("/account", s.handleGetAccount)
	protected.Get("/billing/usage", s.handleGetUsage)
	protected.Post("/billing/plan", s.handleChangePlan)

	// Bot routes
	bots := protected.Group("/bots")
	bots.Get("/", s.handleGetBots)
	bots.Post("/", s.handleCreateBot)
	bots.Get("/:id", s.handleGetBot)
	bots.Put("/:id", s.handleUpdateBot)
	bots.Delete("/:id", s.handleDeleteBot)

	// Client routes
	clients := protected.Group("/clients")
	clients.Get("/", s.handleGetClients)
	clients.Post("/", s.handleCreateClient)
	clients.Get("/:id", s.handleGetClient)
	clients.Put("/:id", s.handleUpdateClient)
	clients.Post("/:id/purchase", s.handleRecordPurchase)
	clients.Delete("/:id", s.handleDeleteClient)

	// Business profile
	protected.Get("/business", s.handleGetBusiness)
	protected.Put("/business", s.handleSaveBusiness)

	// Product routes
	products := protected.Group("/products")
	products.Get("/", s.handleGetProducts)
	products.Post("/", s.handleCreateProduct)
	products.Get("/:id", s.handleGetProduct)
	products.Put("/:id", s.handleUpdateProduct)
	products.Post("/:id/image", s.handleUploadProductImage)
	products.Delete("/:id", s.handleDeleteProduct)

	// Order routes
	orders := protected.Group("/orders")
	orders.Get("/", s.handleGetOrders)
	orders.Post("/", s.handleCreateOrder)
	orders.Get("/:id", s.handleGetOrder)
	orders.Put("/:id", s.handleUpdateOrder)
	orders.Patch("/:id/status", s.handleUpdateOrderStatus)
	orders.Delete("/:id", s.handleDeleteOrder)

	// Reservation routes
	reservations := protected.Group("/reservations")
	reservations.Get("/", s.handleGetReservations)
	reservations.Post("/", s.handleCreateReservation)
	reservations.Patch("/:id/status", s.handleUpdateReservationStatus)
	reservations.Delete("/:id", s.handleDeleteReservation)

	// Promotion routes
	promotions := protected.Group("/promotions")
	promotions.Get("/", s.handleGetPromotions)
	promotions.Post("/", s.handleCreatePromotion)
	promotions.Get("/:id", s.handleGetPromotion)
	promotions.Put("/:id", s.handleUpdatePromotion)
	promotions.Post("/:id/redeem", s.handleRedeemPromotion)
	promotions.Post("/:id/image", s.handleUploadPromotionImage)
	promotions.Delete("/:id", s.handleDeletePromotion)

	// Template routes
	templates := protected.Group("/templates")
	templates.Get("/tokens", s.handleGetTemplateTokens)
	templates.Post("/preview", s.handlePreviewTemplate)

	// Message routes
	messages := protected.Group("/messages")
	messages.Get("/", s.handleGetMessages)
	messages.Post("/send", s.handleSendMessage)

	// WebSocket route
	s.app.Use("/ws", s.wsUpgrade)
	s.app.Get("/ws", websocket.New(s.handleWebSocket))
}

// Auth middleware
func (s *Server) authMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		// Try cookie
		authHeader = c.Cookies("auth-token")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"error":   "Unauthorized",
		})
	}

	claims, err := s.services.Auth.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid token",
		})
	}

	c.Locals("claims", claims)
	c.Locals("user_id", claims.UserID)
	c.Locals("account_id", claims.AccountID)
	return c.Next()
}

// WebSocket upgrade middleware
func (s *Server) wsUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		// Validate token from query param
		token := c.Query("token")
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing token"})
		}

		claims, err := s.services.Auth.ValidateToken(token, s.cfg.JWTSecret)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid token"})
		}

		c.Locals("claims", claims)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// handleWebSocket registers the connection with the hub and starts the pumps
func (s *Server) handleWebSocket(conn *websocket.Conn) {
	claims, ok := conn.Locals("claims").(*service.JWTClaims)
	if !ok {
		conn.Close()
		return
	}

	client := &ws.Client{
		ID:        uuid.New().String(),
		AccountID: claims.AccountID,
		UserID:    claims.UserID,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		Hub:       s.hub,
	}

	s.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}

// --- Auth Handlers ---

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	token, user, err := s.services.Auth.Login(c.Context(), req.Username, req.Password, s.cfg.JWTSecret)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	// Set cookie
	c.Cookie(&fiber.Cookie{
		Name:     "auth-token",
		Value:    token,
		Expires:  time.Now().Add(24 * 7 * time.Hour),
		HTTPOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user": fiber.Map{
			"id":           user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"is_admin":     user.IsAdmin,
			"role":         user.Role,
			"account_id":   user.AccountID,
			"account_name": user.AccountName,
		},
	})
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:    "auth-token",
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
	})
	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleGetMe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)
	user, err := s.services.Auth.GetUser(c.Context(), userID)
	if err != nil || user == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "User not found"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":           user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"is_admin":     user.IsAdmin,
			"role":         user.Role,
			"account_id":   user.AccountID,
			"account_name": user.AccountName,
		},
	})
}

func (s *Server) handleChangePassword(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if err := s.services.Auth.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

// --- Account / Billing Handlers ---

func (s *Server) handleGetAccount(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	account, err := s.services.Account.Get(c.Context(), accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if account == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Account not found"})
	}
	return c.JSON(fiber.Map{"success": true, "account": account})
}

func (s *Server) handleGetUsage(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	usage, err := s.services.Billing.GetUsage(c.Context(), accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "usage": usage})
}

func (s *Server) handleChangePlan(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		Plan string `json:"plan"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if err := s.services.Billing.ChangePlan(c.Context(), accountID, req.Plan); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "plan": req.Plan})
}

// Start begins listening on the given port
func (s *Server) Start(port string) error {
	return s.app.Listen(":" + port)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
