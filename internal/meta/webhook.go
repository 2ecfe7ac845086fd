package meta

// WebhookPayload is the envelope Meta posts to the webhook endpoint for both
// WhatsApp Cloud ("whatsapp_business_account") and Instagram ("instagram").
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Changes   []WebhookChange  `json:"changes,omitempty"`
	Messaging []InstagramEvent `json:"messaging,omitempty"`
}

// WebhookChange carries WhatsApp Cloud API value objects.
type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         WebhookMetadata   `json:"metadata"`
	Contacts         []WebhookContact  `json:"contacts,omitempty"`
	Messages         []WhatsAppMessage `json:"messages,omitempty"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WhatsAppMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

// InstagramEvent is a single messaging event from an Instagram entry.
type InstagramEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Timestamp int64 `json:"timestamp"`
	Message   *struct {
		MID  string `json:"mid"`
		Text string `json:"text"`
	} `json:"message,omitempty"`
}

// InboundMessage is the platform-neutral form the rest of the system works
// with. BotKey is the phone_number_id for WhatsApp or the page ID for
// Instagram.
type InboundMessage struct {
	Platform    string
	BotKey      string
	SenderID    string
	SenderName  string
	Text        string
	ProviderMID string
}

// Flatten extracts text messages from the payload into platform-neutral
// inbound messages. Non-text events are skipped.
func (p *WebhookPayload) Flatten() []InboundMessage {
	var out []InboundMessage

	for _, entry := range p.Entry {
		// WhatsApp Cloud events arrive under changes[].value
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			names := map[string]string{}
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil {
					continue
				}
				out = append(out, InboundMessage{
					Platform:    "whatsapp",
					BotKey:      change.Value.Metadata.PhoneNumberID,
					SenderID:    msg.From,
					SenderName:  names[msg.From],
					Text:        msg.Text.Body,
					ProviderMID: msg.ID,
				})
			}
		}

		// Instagram events arrive under messaging[]
		for _, event := range entry.Messaging {
			if event.Message == nil || event.Message.Text == "" {
				continue
			}
			out = append(out, InboundMessage{
				Platform:    "instagram",
				BotKey:      entry.ID,
				SenderID:    event.Sender.ID,
				Text:        event.Message.Text,
				ProviderMID: event.Message.MID,
			})
		}
	}

	return out
}
