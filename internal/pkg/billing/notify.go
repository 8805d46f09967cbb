package billing

import (
	"fmt"
	"log"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/mail"
)

// notifyPaymentFailed sends a best-effort notice mail. Delivery failures
// are logged, never propagated into webhook processing.
func (s *Service) notifyPaymentFailed(user *models.User, inv *InvoiceEvent) {
	subject := "Payment failed for your JobTrackr subscription"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>We could not process your latest subscription payment (invoice %s). "+
			"Please update your payment method to keep your plan active.</p>",
		user.Name, inv.InvoiceID,
	)
	if err := mail.SendMail(user.Email, subject, body); err != nil {
		log.Printf("billing: payment-failed notice to user %d not delivered: %v", user.ID, err)
	}
}
