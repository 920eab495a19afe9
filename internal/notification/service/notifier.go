package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/infrastructure/mail"
)

const storeName = "capital Furniture"

const whatsappContact = "+201060044708"

type Sender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// MailNotifier turns status changes into customer emails.
type MailNotifier struct {
	sender Sender
	from   string
}

func NewMailNotifier(sender Sender, from string) *MailNotifier {
	return &MailNotifier{sender: sender, from: from}
}

func (n *MailNotifier) Notify(ctx context.Context, change domain.StatusChange) error {
	msg, err := Compose(change, n.from)
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, msg)
}

// Compose builds the email owed to the customer for change.
func Compose(change domain.StatusChange, from string) (mail.Message, error) {
	if change.CustomerEmail == "" {
		return mail.Message{}, fmt.Errorf("order %s has no customer email", change.OrderNumber)
	}

	name := change.CustomerName
	if name == "" {
		name = "Customer"
	}

	msg := mail.Message{From: from, To: change.CustomerEmail}

	var heading string
	var lines []string
	switch change.Kind {
	case domain.NotificationOrderApproved:
		msg.Subject = fmt.Sprintf("Order %s Confirmed - %s", change.OrderNumber, storeName)
		heading = "Payment Confirmed"
		lines = []string{
			fmt.Sprintf("Your order %s has been confirmed and is now being processed.", change.OrderNumber),
			"We will contact you soon with delivery details.",
		}
	case domain.NotificationOrderRejected:
		msg.Subject = fmt.Sprintf("Order %s Update - %s", change.OrderNumber, storeName)
		heading = "Payment Update Required"
		lines = []string{
			fmt.Sprintf("We were unable to verify the payment for order %s.", change.OrderNumber),
		}
		if reason := strings.TrimSpace(change.Reason); reason != "" {
			lines = append(lines, "Reason: "+reason)
		}
	default:
		return mail.Message{}, fmt.Errorf("no email for notification kind %q", change.Kind)
	}
	lines = append(lines, "Questions? Reach us on WhatsApp at "+whatsappContact+".")

	var text, body strings.Builder
	text.WriteString(heading + "\n\nDear " + name + ",\n\n")
	body.WriteString("<h1>" + html.EscapeString(heading) + "</h1>")
	body.WriteString("<p>Dear " + html.EscapeString(name) + ",</p>")
	for _, line := range lines {
		text.WriteString(line + "\n")
		body.WriteString("<p>" + html.EscapeString(line) + "</p>")
	}
	text.WriteString("\n" + storeName + "\n")
	body.WriteString("<p>" + storeName + "</p>")

	msg.Text = text.String()
	msg.HTML = body.String()
	return msg, nil
}
