package models

import "time"

// PaymentHistory is an append-only log of successful charges. Rows are
// created only by the invoice.payment_succeeded webhook handler and are
// never mutated or deleted.
type PaymentHistory struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	StripePaymentID string    `gorm:"type:varchar(191);default:''" json:"stripe_payment_id"`
	StripeInvoiceID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_invoice_id"`
	Amount          int64     `gorm:"not null" json:"amount"` // smallest currency unit
	Currency        string    `gorm:"type:varchar(8);not null;default:'USD'" json:"currency"`
	Status          string    `gorm:"type:varchar(32);not null;default:'succeeded'" json:"status"`
	PaymentMethod   string    `gorm:"type:varchar(32);default:'card'" json:"payment_method"`
	Description     string    `gorm:"type:varchar(255);default:''" json:"description"`
	ReceiptURL      string    `gorm:"type:varchar(500);default:''" json:"receipt_url"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
