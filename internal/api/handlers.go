package api

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vendebot/vende/internal/domain"
)

// --- Bot Handlers ---

func (s *Server) handleGetBots(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	bots, err := s.services.Bot.List(c.Context(), accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "bots": bots})
}

func (s *Server) handleCreateBot(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		Name            string `json:"name"`
		Platform        string `json:"platform"`
		PhoneNumberID   string `json:"phone_number_id"`
		PageID          string `json:"page_id"`
		AccessToken     string `json:"access_token"`
		WelcomeTemplate string `json:"welcome_template"`
		AwayTemplate    string `json:"away_template"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	bot := &domain.Bot{
		AccountID:   accountID,
		Name:        req.Name,
		Platform:    req.Platform,
		AccessToken: req.AccessToken,
	}
	if req.PhoneNumberID != "" {
		bot.PhoneNumberID = strPtr(req.PhoneNumberID)
	}
	if req.PageID != "" {
		bot.PageID = strPtr(req.PageID)
	}
	if req.WelcomeTemplate != "" {
		bot.WelcomeTemplate = strPtr(req.WelcomeTemplate)
	}
	if req.AwayTemplate != "" {
		bot.AwayTemplate = strPtr(req.AwayTemplate)
	}

	if err := s.services.Bot.Create(c.Context(), bot); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "bot": bot})
}

func (s *Server) handleGetBot(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	botID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid bot ID"})
	}

	bot, err := s.services.Bot.Get(c.Context(), accountID, botID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if bot == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Bot not found"})
	}

	return c.JSON(fiber.Map{"success": true, "bot": bot})
}

func (s *Server) handleUpdateBot(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	botID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid bot ID"})
	}

	bot, err := s.services.Bot.Get(c.Context(), accountID, botID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if bot == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Bot not found"})
	}

	var req struct {
		Name            *string `json:"name"`
		AccessToken     *string `json:"access_token"`
		WelcomeTemplate *string `json:"welcome_template"`
		AwayTemplate    *string `json:"away_template"`
		IsActive        *bool   `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if req.Name != nil {
		bot.Name = *req.Name
	}
	if req.AccessToken != nil {
		bot.AccessToken = *req.AccessToken
	}
	if req.WelcomeTemplate != nil {
		bot.WelcomeTemplate = req.WelcomeTemplate
	}
	if req.AwayTemplate != nil {
		bot.AwayTemplate = req.AwayTemplate
	}
	if req.IsActive != nil {
		bot.IsActive = *req.IsActive
	}

	if err := s.services.Bot.Update(c.Context(), accountID, bot); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "bot": bot})
}

func (s *Server) handleDeleteBot(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	botID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid bot ID"})
	}

	if err := s.services.Bot.Delete(c.Context(), accountID, botID); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Bot deleted"})
}

// --- Client Handlers ---

func (s *Server) handleGetClients(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	filter := domain.ClientFilter{
		Search: c.Query("search", ""),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}

	clients, total, err := s.services.Client.List(c.Context(), accountID, filter)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"clients": clients,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func (s *Server) handleCreateClient(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Phone           string `json:"phone"`
		InstagramHandle string `json:"instagram_handle"`
		Notes           string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	client := &domain.Client{
		AccountID: accountID,
		Name:      req.Name,
	}
	if req.Email != "" {
		client.Email = strPtr(req.Email)
	}
	if req.Phone != "" {
		client.Phone = strPtr(req.Phone)
	}
	if req.InstagramHandle != "" {
		client.InstagramHandle = strPtr(req.InstagramHandle)
	}
	if req.Notes != "" {
		client.Notes = strPtr(req.Notes)
	}

	if err := s.services.Client.Create(c.Context(), client); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "client": client})
}

func (s *Server) handleGetClient(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	clientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid client ID"})
	}

	client, err := s.services.Client.Get(c.Context(), accountID, clientID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if client == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Client not found"})
	}

	return c.JSON(fiber.Map{"success": true, "client": client})
}

func (s *Server) handleUpdateClient(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	clientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid client ID"})
	}

	client, err := s.services.Client.Get(c.Context(), accountID, clientID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if client == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Client not found"})
	}

	var req struct {
		Name            *string `json:"name"`
		Email           *string `json:"email"`
		Phone           *string `json:"phone"`
		InstagramHandle *string `json:"instagram_handle"`
		LoyaltyPoints   *int    `json:"loyalty_points"`
		Notes           *string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Email != nil {
		client.Email = req.Email
	}
	if req.Phone != nil {
		client.Phone = req.Phone
	}
	if req.InstagramHandle != nil {
		client.InstagramHandle = req.InstagramHandle
	}
	if req.LoyaltyPoints != nil {
		client.LoyaltyPoints = *req.LoyaltyPoints
	}
	if req.Notes != nil {
		client.Notes = req.Notes
	}

	if err := s.services.Client.Update(c.Context(), accountID, client); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "client": client})
}

func (s *Server) handleRecordPurchase(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	clientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid client ID"})
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if err := s.services.Client.RecordPurchase(c.Context(), accountID, clientID, req.Amount); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleDeleteClient(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	clientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid client ID"})
	}

	if err := s.services.Client.Delete(c.Context(), accountID, clientID); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Client deleted"})
}

// --- Business Profile Handlers ---

func (s *Server) handleGetBusiness(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	profile, err := s.services.Business.Get(c.Context(), accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if profile == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Business profile not set"})
	}
	return c.JSON(fiber.Map{"success": true, "business": profile})
}

func (s *Server) handleSaveBusiness(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
		Location    string `json:"location"`
		MenuURL     string `json:"menu_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	profile := &domain.BusinessProfile{
		AccountID:   accountID,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Location:    req.Location,
		MenuURL:     req.MenuURL,
	}

	if err := s.services.Business.Save(c.Context(), profile); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "business": profile})
}

// --- Product Handlers ---

func (s *Server) handleGetProducts(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	products, err := s.services.Product.List(c.Context(), accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "products": products})
}

func (s *Server) handleCreateProduct(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Stock       int     `json:"stock"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	product := &domain.Product{
		AccountID: accountID,
		Name:      req.Name,
		Price:     req.Price,
		Stock:     req.Stock,
	}
	if req.Description != "" {
		product.Description = strPtr(req.Description)
	}

	if err := s.services.Product.Create(c.Context(), product); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "product": product})
}

func (s *Server) handleGetProduct(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid product ID"})
	}

	product, err := s.services.Product.Get(c.Context(), accountID, productID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if product == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Product not found"})
	}

	return c.JSON(fiber.Map{"success": true, "product": product})
}

func (s *Server) handleUpdateProduct(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid product ID"})
	}

	product, err := s.services.Product.Get(c.Context(), accountID, productID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if product == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Product not found"})
	}

	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Stock       *int     `json:"stock"`
		IsActive    *bool    `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.services.Product.Update(c.Context(), accountID, product); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "product": product})
}

func (s *Server) handleUploadProductImage(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid product ID"})
	}

	data, extension, contentType, err := readImageUpload(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	url, err := s.services.Product.AttachImage(c.Context(), accountID, productID, data, extension, contentType)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "image_url": url})
}

func (s *Server) handleDeleteProduct(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid product ID"})
	}

	if err := s.services.Product.Delete(c.Context(), accountID, productID); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Product deleted"})
}

// readImageUpload validates and reads an image from the multipart form.
func readImageUpload(c *fiber.Ctx) ([]byte, string, string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, "", "", fmt.Errorf("no file provided")
	}
	if file.Size > 10*1024*1024 {
		return nil, "", "", fmt.Errorf("file too large (max 10MB)")
	}

	extension := strings.ToLower(filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")
	switch extension {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	default:
		return nil, "", "", fmt.Errorf("unsupported image type %s", extension)
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read file")
	}
	return data, extension, contentType, nil
}

// --- Order Handlers ---

func (s *Server) handleGetOrders(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	filter := domain.OrderFilter{
		Status: c.Query("status", ""),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("client_id"); raw != "" {
		if cid, err := uuid.Parse(raw); err == nil {
			filter.ClientID = &cid
		}
	}

	orders, total, err := s.services.Order.List(c.Context(), accountID, filter)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func (s *Server) handleCreateOrder(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		ClientID          string  `json:"client_id"`
		Total             float64 `json:"total"`
		Status            string  `json:"status"`
		EstimatedDelivery string  `json:"estimated_delivery"`
		Notes             string  `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	order := &domain.Order{
		AccountID: accountID,
		Total:     req.Total,
		Status:    req.Status,
	}
	if req.ClientID != "" {
		cid, err := uuid.Parse(req.ClientID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid client ID"})
		}
		order.ClientID = &cid
	}
	if req.EstimatedDelivery != "" {
		eta, err := time.Parse(time.RFC3339, req.EstimatedDelivery)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "estimated_delivery must be RFC3339"})
		}
		order.EstimatedDelivery = &eta
	}
	if req.Notes != "" {
		order.Notes = strPtr(req.Notes)
	}

	if err := s.services.Order.Create(c.Context(), order); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "order": order})
}

func (s *Server) handleGetOrder(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid order ID"})
	}

	order, err := s.services.Order.Get(c.Context(), accountID, orderID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if order == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Order not found"})
	}

	return c.JSON(fiber.Map{"success": true, "order": order})
}

func (s *Server) handleUpdateOrder(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid order ID"})
	}

	order, err := s.services.Order.Get(c.Context(), accountID, orderID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if order == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Order not found"})
	}

	var req struct {
		Total             *float64 `json:"total"`
		Status            *string  `json:"status"`
		EstimatedDelivery *string  `json:"estimated_delivery"`
		Notes             *string  `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if req.Total != nil {
		order.Total = *req.Total
	}
	if req.Status != nil {
		order.Status = *req.Status
	}
	if req.EstimatedDelivery != nil {
		if *req.EstimatedDelivery == "" {
			order.EstimatedDelivery = nil
		} else {
			eta, err := time.Parse(time.RFC3339, *req.EstimatedDelivery)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"success": false, "error": "estimated_delivery must be RFC3339"})
			}
			order.EstimatedDelivery = &eta
		}
	}
	if req.Notes != nil {
		order.Notes = req.Notes
	}

	if err := s.services.Order.Update(c.Context(), accountID, order); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "order": order})
}

func (s *Server) handleUpdateOrderStatus(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid order ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	order, err := s.services.Order.UpdateStatus(c.Context(), accountID, orderID, req.Status)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "order": order})
}

func (s *Server) handleDeleteOrder(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid order ID"})
	}

	if err := s.services.Order.Delete(c.Context(), accountID, orderID); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Order deleted"})
}

// --- Reservation Handlers ---

func (s *Server) handleGetReservations(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	reservations, err := s.services.Reservation.List(c.Context(), accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "reservations": reservations})
}

func (s *Server) handleCreateReservation(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		ClientID   string `json:"client_id"`
		ReservedAt string `json:"reserved_at"`
		PartySize  int    `json:"party_size"`
		Notes      string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	reservedAt, err := time.Parse(time.RFC3339, req.ReservedAt)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "reserved_at must be RFC3339"})
	}

	reservation := &domain.Reservation{
		AccountID:  accountID,
		ReservedAt: reservedAt,
		PartySize:  req.PartySize,
	}
	if req.ClientID != "" {
		cid, err := uuid.Parse(req.ClientID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid client ID"})
		}
		reservation.ClientID = &cid
	}
	if req.Notes != "" {
		reservation.Notes = strPtr(req.Notes)
	}

	if err := s.services.Reservation.Create(c.Context(), reservation); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "reservation": reservation})
}

func (s *Server) handleUpdateReservationStatus(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	reservationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid reservation ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if err := s.services.Reservation.UpdateStatus(c.Context(), accountID, reservationID, req.Status); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleDeleteReservation(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	reservationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid reservation ID"})
	}

	if err := s.services.Reservation.Delete(c.Context(), accountID, reservationID); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Reservation deleted"})
}

// --- Promotion Handlers ---

func (s *Server) handleGetPromotions(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	promotions, err := s.services.Promotion.List(c.Context(), accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "promotions": promotions})
}

func (s *Server) handleCreatePromotion(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		StartsAt    string `json:"starts_at"`
		EndsAt      string `json:"ends_at"`
		MaxUses     *int   `json:"max_uses"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	promotion := &domain.Promotion{
		AccountID: accountID,
		Name:      req.Name,
		MaxUses:   req.MaxUses,
	}
	if req.Description != "" {
		promotion.Description = strPtr(req.Description)
	}
	if req.StartsAt != "" {
		t, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "starts_at must be RFC3339"})
		}
		promotion.StartsAt = &t
	}
	if req.EndsAt != "" {
		t, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "ends_at must be RFC3339"})
		}
		promotion.EndsAt = &t
	}

	if err := s.services.Promotion.Create(c.Context(), promotion); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "promotion": promotion})
}

func (s *Server) handleGetPromotion(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	promotionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid promotion ID"})
	}

	promotion, err := s.services.Promotion.Get(c.Context(), accountID, promotionID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if promotion == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Promotion not found"})
	}

	return c.JSON(fiber.Map{"success": true, "promotion": promotion})
}

func (s *Server) handleUpdatePromotion(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	promotionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid promotion ID"})
	}

	promotion, err := s.services.Promotion.Get(c.Context(), accountID, promotionID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if promotion == nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Promotion not found"})
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		StartsAt    *string `json:"starts_at"`
		EndsAt      *string `json:"ends_at"`
		MaxUses     *int    `json:"max_uses"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if req.Name != nil {
		promotion.Name = *req.Name
	}
	if req.Description != nil {
		promotion.Description = req.Description
	}
	if req.StartsAt != nil {
		if *req.StartsAt == "" {
			promotion.StartsAt = nil
		} else {
			t, err := time.Parse(time.RFC3339, *req.StartsAt)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"success": false, "error": "starts_at must be RFC3339"})
			}
			promotion.StartsAt = &t
		}
	}
	if req.EndsAt != nil {
		if *req.EndsAt == "" {
			promotion.EndsAt = nil
		} else {
			t, err := time.Parse(time.RFC3339, *req.EndsAt)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"success": false, "error": "ends_at must be RFC3339"})
			}
			promotion.EndsAt = &t
		}
	}
	if req.MaxUses != nil {
		promotion.MaxUses = req.MaxUses
	}
	if req.IsActive != nil {
		promotion.IsActive = *req.IsActive
	}

	if err := s.services.Promotion.Update(c.Context(), accountID, promotion); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "promotion": promotion})
}

func (s *Server) handleRedeemPromotion(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	promotionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid promotion ID"})
	}

	if err := s.services.Promotion.Redeem(c.Context(), accountID, promotionID); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (s *Server) handleUploadPromotionImage(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	promotionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid promotion ID"})
	}

	data, extension, contentType, err := readImageUpload(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	url, err := s.services.Promotion.AttachImage(c.Context(), accountID, promotionID, data, extension, contentType)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "image_url": url})
}

func (s *Server) handleDeletePromotion(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	promotionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid promotion ID"})
	}

	if err := s.services.Promotion.Delete(c.Context(), accountID, promotionID); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Promotion deleted"})
}
