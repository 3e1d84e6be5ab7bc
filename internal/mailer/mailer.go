// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer renders the fixed set of account emails and records them in
// a capped outbox instead of delivering them.
package mailer

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/render"
)

//go:embed templates/*.md
var templatesFS embed.FS

// OutboxLimit is the number of most recent emails kept in the outbox.
const OutboxLimit = 50

// ErrUnknownTemplate is returned when a message names a template outside the fixed set.
var ErrUnknownTemplate = errors.New("unknown email template")

// Data is the template input. Credential is the plaintext password or access
// code and is only set by the welcome templates.
type Data struct {
	Name       string
	Email      string
	Credential string
	ExpiresAt  *time.Time
}

// Message is a request to send one templated email.
type Message struct {
	To       string
	Template string
	Data     Data
}

// Outbox stores sent emails. *store.Queries satisfies it.
type Outbox interface {
	InsertEmail(ctx context.Context, e model.OutboxEmail) error
	TrimEmails(ctx context.Context, keep int) (int64, error)
	ListEmails(ctx context.Context, limit int) ([]model.OutboxEmail, error)
}

// Mailer renders and records emails.
type Mailer struct {
	outbox    Outbox
	templates *render.Templates
	markdown  *render.Markdown
	now       func() time.Time
}

// New returns a Mailer writing to outbox.
func New(outbox Outbox) (*Mailer, error) {
	tmpl, err := render.ParseTemplates(templatesFS, "templates", ".md")
	if err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}
	return &Mailer{
		outbox:    outbox,
		templates: tmpl,
		markdown:  render.NewMarkdown(),
		now:       time.Now,
	}, nil
}

// Send renders msg and appends it to the outbox, keeping the newest OutboxLimit entries.
func (m *Mailer) Send(ctx context.Context, msg Message) (model.OutboxEmail, error) {
	if !m.templates.Has(msg.Template) {
		slog.ErrorContext(ctx, "email template not found",
			"category", model.EventCategoryMail,
			"template", msg.Template,
			"to", msg.To,
		)
		return model.OutboxEmail{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, msg.Template)
	}

	subject, err := m.templates.Execute(msg.Template, "subject", msg.Data)
	if err != nil {
		return model.OutboxEmail{}, err
	}
	body, err := m.templates.Execute(msg.Template, "body", msg.Data)
	if err != nil {
		return model.OutboxEmail{}, err
	}
	htmlBody, err := m.markdown.HTML(body)
	if err != nil {
		return model.OutboxEmail{}, err
	}

	email := model.OutboxEmail{
		ID:       uuid.NewString(),
		SentAt:   m.now(),
		To:       msg.To,
		Template: msg.Template,
		Subject:  subject,
		Body:     body,
		HTMLBody: htmlBody,
		Status:   model.EmailStatusSimulatedSent,
	}

	if err := m.outbox.InsertEmail(ctx, email); err != nil {
		return model.OutboxEmail{}, fmt.Errorf("recording email: %w", err)
	}
	if _, err := m.outbox.TrimEmails(ctx, OutboxLimit); err != nil {
		// The email is recorded; an oversized outbox is trimmed on the next send.
		slog.WarnContext(ctx, "trimming email outbox failed", "category", model.EventCategoryMail, "error", err)
	}

	slog.InfoContext(ctx, "email simulated",
		"to", email.To,
		"template", email.Template,
		"subject", email.Subject,
	)

	return email, nil
}

// Recent returns up to limit outbox entries, newest first.
func (m *Mailer) Recent(ctx context.Context, limit int) ([]model.OutboxEmail, error) {
	if limit <= 0 || limit > OutboxLimit {
		limit = OutboxLimit
	}
	emails, err := m.outbox.ListEmails(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing outbox: %w", err)
	}
	return emails, nil
}
