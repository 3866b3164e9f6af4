package events

// Billing event types emitted through the outbox.
const (
	EventDocumentCreated   = "document.created"
	EventDocumentScheduled = "document.scheduled"
	EventDocumentCancelled = "document.cancelled"
	EventDocumentOverdue   = "document.overdue"
	EventPaymentApplied    = "payment.applied"
	EventSubscriptionRun   = "subscription.run"
)

// DocumentPayload captures the minimal data needed to roll up document events.
type DocumentPayload struct {
	DocumentID string `json:"document_id"`
	Number     string `json:"number,omitempty"`
	Status     string `json:"status"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p DocumentPayload) ToMap() map[string]any {
	payload := map[string]any{
		"document_id": p.DocumentID,
		"status":      p.Status,
	}
	if p.Number != "" {
		payload["number"] = p.Number
	}
	return payload
}

// PaymentPayload captures the minimal data needed to roll up a payment event.
type PaymentPayload struct {
	PaymentID  string `json:"payment_id"`
	DocumentID string `json:"document_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p PaymentPayload) ToMap() map[string]any {
	return map[string]any{
		"payment_id":  p.PaymentID,
		"document_id": p.DocumentID,
		"amount":      p.Amount,
		"currency":    p.Currency,
	}
}

// SubscriptionRunPayload links a subscription run to the bill it produced.
type SubscriptionRunPayload struct {
	TemplateID string `json:"template_id"`
	DocumentID string `json:"document_id"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p SubscriptionRunPayload) ToMap() map[string]any {
	return map[string]any{
		"template_id": p.TemplateID,
		"document_id": p.DocumentID,
	}
}
