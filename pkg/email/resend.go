package email

import (
	"fmt"

	"github.com/resendlabs/resend-go"
)

type EmailService struct {
	client *resend.Client
	from   string
}

func NewEmailService(apiKey, from string) *EmailService {
	return &EmailService{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// SendPurchaseReceipt confirms a completed credit purchase. Amount is in
// minor currency units.
func (s *EmailService) SendPurchaseReceipt(to string, credits int, amount int64, currency string) error {
	html := fmt.Sprintf(
		`<h2>Thanks for your purchase!</h2>
<p>We added <strong>%d credits</strong> to your MediaMorph account.</p>
<p>Amount charged: %.2f %s</p>`,
		credits, float64(amount)/100, currency,
	)

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: fmt.Sprintf("Your %d MediaMorph credits", credits),
		Html:    html,
	}

	_, err := s.client.Emails.Send(params)
	return err
}
