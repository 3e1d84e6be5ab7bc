// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Email template names.
const (
	TemplateWelcomeStudent = "welcome_student"
	TemplateWelcomeCoach   = "welcome_coach"
	TemplateExpirySoon     = "expiry_soon"
	TemplateAccessExpired  = "access_expired"
)

// EmailStatusSimulatedSent marks an email recorded in the outbox without delivery.
const EmailStatusSimulatedSent = "simulated_sent"

// OutboxEmail is a rendered email kept in the capped outbox.
type OutboxEmail struct {
	ID       string    `json:"id"`
	SentAt   time.Time `json:"sent_at"`
	To       string    `json:"to"`
	Template string    `json:"template"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	HTMLBody string    `json:"html_body"`
	Status   string    `json:"status"`
}
