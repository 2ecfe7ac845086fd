package api

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"github.com/vendebot/vende/internal/meta"
	"github.com/vendebot/vende/internal/resolver"
	"github.com/vendebot/vende/internal/service"
)

// --- Meta Webhook Handlers ---

// handleWebhookVerify answers Meta's subscription challenge.
func (s *Server) handleWebhookVerify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == s.cfg.MetaVerifyToken {
		log.Printf("[Webhook] Verification succeeded")
		return c.SendString(challenge)
	}

	log.Printf("[Webhook] Verification failed (mode=%s)", mode)
	return c.Status(403).SendString("Forbidden")
}

// handleWebhookReceive accepts inbound message events. Meta expects a fast
// 200; processing happens in the background.
func (s *Server) handleWebhookReceive(c *fiber.Ctx) error {
	var payload meta.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("[Webhook] Invalid payload: %v", err)
		return c.SendStatus(fiber.StatusOK)
	}

	messages := payload.Flatten()
	if len(messages) > 0 {
		go func(msgs []meta.InboundMessage) {
			// Detached from the request: Meta has already been answered
			ctx := context.Background()
			for _, msg := range msgs {
				if err := s.services.Automation.HandleInbound(ctx, msg); err != nil {
					log.Printf("[Webhook] Failed to handle inbound message: %v", err)
				}
			}
		}(messages)
	}

	return c.SendStatus(fiber.StatusOK)
}

// --- Template Handlers ---

func (s *Server) handleGetTemplateTokens(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "tokens": resolver.Vocabulary})
}

func (s *Server) handlePreviewTemplate(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		Template    string `json:"template"`
		ClientID    string `json:"client_id"`
		PromotionID string `json:"promotion_id"`
		OrderID     string `json:"order_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}
	if req.Template == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Template is required"})
	}

	promotionID, orderID, err := parseOptionalIDs(req.PromotionID, req.OrderID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	result, err := s.services.Preview.Preview(c.Context(), accountID, req.Template, req.ClientID, promotionID, orderID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"resolved":   result.Resolved,
		"unresolved": result.Unresolved,
	})
}

// --- Message Handlers ---

func (s *Server) handleGetMessages(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	messages, err := s.services.Automation.MessageHistory(c.Context(), accountID, limit, offset)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "messages": messages})
}

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	accountID := c.Locals("account_id").(uuid.UUID)

	var req struct {
		BotID       string `json:"bot_id"`
		ClientID    string `json:"client_id"`
		Template    string `json:"template"`
		PromotionID string `json:"promotion_id"`
		OrderID     string `json:"order_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	botID, err := uuid.Parse(req.BotID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid bot ID"})
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid client ID"})
	}
	promotionID, orderID, err := parseOptionalIDs(req.PromotionID, req.OrderID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	entry, err := s.services.Automation.SendTemplate(c.Context(), accountID, service.SendRequest{
		BotID:       botID,
		ClientID:    clientID,
		Template:    req.Template,
		PromotionID: promotionID,
		OrderID:     orderID,
	})
	if err != nil {
		status := 400
		if entry != nil {
			// The relay failed after the log was written
			status = 502
		}
		return c.Status(status).JSON(fiber.Map{"success": false, "error": err.Error(), "message": entry})
	}

	return c.JSON(fiber.Map{"success": true, "message": entry})
}

// --- Menu QR Handler ---

// handleMenuQR renders a QR code PNG pointing at the business menu.
func (s *Server) handleMenuQR(c *fiber.Ctx) error {
	accountID, err := uuid.Parse(c.Params("account_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid account ID"})
	}

	profile, err := s.services.Business.Get(c.Context(), accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if profile == nil || profile.MenuURL == "" {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "No menu configured"})
	}

	size := c.QueryInt("size", 256)
	if size < 128 || size > 1024 {
		size = 256
	}

	png, err := qrcode.Encode(profile.MenuURL, qrcode.Medium, size)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to generate QR code"})
	}

	c.Set("Content-Type", "image/png")
	c.Set("Cache-Control", "public, max-age=3600")
	return c.Send(png)
}

func parseOptionalIDs(promotionRaw, orderRaw string) (*uuid.UUID, *uuid.UUID, error) {
	var promotionID, orderID *uuid.UUID
	if promotionRaw != "" {
		id, err := uuid.Parse(promotionRaw)
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid promotion ID")
		}
		promotionID = &id
	}
	if orderRaw != "" {
		id, err := uuid.Parse(orderRaw)
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, "Invalid order ID")
		}
		orderID = &id
	}
	return promotionID, orderID, nil
}
