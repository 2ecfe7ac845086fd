package meta

import (
	"encoding/json"
	"testing"
)

const whatsappPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "1234567890",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "5215512345678", "phone_number_id": "PHONE_ID_1"},
        "contacts": [{"wa_id": "5215598765432", "profile": {"name": "Carlos Pérez"}}],
        "messages": [{
          "id": "wamid.abc123",
          "from": "5215598765432",
          "timestamp": "1730000000",
          "type": "text",
          "text": {"body": "Hola, quiero hacer un pedido"}
        }]
      }
    }]
  }]
}`

const instagramPayload = `{
  "object": "instagram",
  "entry": [{
    "id": "PAGE_ID_9",
    "time": 1730000000,
    "messaging": [{
      "sender": {"id": "IGSID_77"},
      "recipient": {"id": "PAGE_ID_9"},
      "timestamp": 1730000000,
      "message": {"mid": "mid.xyz", "text": "¿Tienen promociones?"}
    }]
  }]
}`

func TestFlattenWhatsApp(t *testing.T) {
	var payload WebhookPayload
	if err := json.Unmarshal([]byte(whatsappPayload), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	msgs := payload.Flatten()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}

	msg := msgs[0]
	if msg.Platform != "whatsapp" {
		t.Errorf("platform = %q, want whatsapp", msg.Platform)
	}
	if msg.BotKey != "PHONE_ID_1" {
		t.Errorf("bot key = %q, want PHONE_ID_1", msg.BotKey)
	}
	if msg.SenderID != "5215598765432" {
		t.Errorf("sender = %q", msg.SenderID)
	}
	if msg.SenderName != "Carlos Pérez" {
		t.Errorf("sender name = %q", msg.SenderName)
	}
	if msg.Text != "Hola, quiero hacer un pedido" {
		t.Errorf("text = %q", msg.Text)
	}
	if msg.ProviderMID != "wamid.abc123" {
		t.Errorf("provider mid = %q", msg.ProviderMID)
	}
}

func TestFlattenInstagram(t *testing.T) {
	var payload WebhookPayload
	if err := json.Unmarshal([]byte(instagramPayload), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	msgs := payload.Flatten()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}

	msg := msgs[0]
	if msg.Platform != "instagram" {
		t.Errorf("platform = %q, want instagram", msg.Platform)
	}
	if msg.BotKey != "PAGE_ID_9" {
		t.Errorf("bot key = %q, want PAGE_ID_9", msg.BotKey)
	}
	if msg.SenderID != "IGSID_77" {
		t.Errorf("sender = %q", msg.SenderID)
	}
	if msg.Text != "¿Tienen promociones?" {
		t.Errorf("text = %q", msg.Text)
	}
}

func TestFlattenSkipsNonText(t *testing.T) {
	raw := `{
	  "object": "whatsapp_business_account",
	  "entry": [{
	    "id": "1",
	    "changes": [{
	      "field": "messages",
	      "value": {
	        "metadata": {"phone_number_id": "P1"},
	        "messages": [{"id": "m1", "from": "52555", "type": "image"}]
	      }
	    }]
	  }]
	}`
	var payload WebhookPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msgs := payload.Flatten(); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}

func TestFlattenIgnoresStatusChanges(t *testing.T) {
	raw := `{
	  "object": "whatsapp_business_account",
	  "entry": [{
	    "id": "1",
	    "changes": [{"field": "message_template_status_update", "value": {}}]
	  }]
	}`
	var payload WebhookPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msgs := payload.Flatten(); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %d", len(msgs))
	}
}
