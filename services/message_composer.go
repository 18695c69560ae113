package services

import (
	"fmt"
	"net/url"
	"strings"

	"bookstore-backend/models"
)

// ItemDetail is one resolved order line for message composition.
type ItemDetail struct {
	Title     string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}

// MessageComposer formats orders into human-readable messages and clickable
// deep links to the operator's messaging contact. Purely functional: no
// side effects, no I/O.
type MessageComposer struct {
	operatorPhone string
}

func NewMessageComposer(operatorPhone string) *MessageComposer {
	return &MessageComposer{operatorPhone: operatorPhone}
}

// ComposeOrderPlacedMessage builds the operator-facing "new order" message.
func (c *MessageComposer) ComposeOrderPlacedMessage(order *models.Order, items []ItemDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order placed: %s\n", order.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s (%s", order.CustomerName, order.CustomerEmail)
	if order.CustomerPhone != "" {
		fmt.Fprintf(&b, ", %s", order.CustomerPhone)
	}
	b.WriteString(")\n")
	c.writeItems(&b, order, items)
	return b.String()
}

// ComposeOrderCompletedMessage builds the customer-facing completion message.
func (c *MessageComposer) ComposeOrderCompletedMessage(order *models.Order, items []ItemDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, your order %s is complete!\n", order.CustomerName, order.OrderNumber)
	c.writeItems(&b, order, items)
	b.WriteString("Thank you for shopping with us.\n")
	return b.String()
}

func (c *MessageComposer) writeItems(b *strings.Builder, order *models.Order, items []ItemDetail) {
	b.WriteString("Items:\n")
	for _, item := range items {
		fmt.Fprintf(b, "- %s x%d @ %.2f = %.2f\n", item.Title, item.Quantity, item.UnitPrice, item.Subtotal)
	}
	fmt.Fprintf(b, "Total: %.2f\n", order.TotalAmount)
	if order.ShippingAddress != "" {
		fmt.Fprintf(b, "Shipping: %s\n", order.ShippingAddress)
	}
	if order.Notes != "" {
		fmt.Fprintf(b, "Notes: %s\n", order.Notes)
	}
}

// BuildDeepLink percent-encodes the message into the operator's messaging
// deep-link template.
func (c *MessageComposer) BuildDeepLink(message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", c.operatorPhone, url.QueryEscape(message))
}
