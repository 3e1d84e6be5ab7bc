// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/coursehub/internal/auth"
	"github.com/olegiv/coursehub/internal/model"
)

// seedUser is a development account created on first start.
type seedUser struct {
	name       string
	email      string
	role       model.Role
	credential string
	expiresIn  time.Duration // zero means no expiry
	payment    string
	amount     int64
}

var seedUsers = []seedUser{
	{name: "Camille Laurent", email: "camille@coursehub.local", role: model.RoleSupercoach, credential: "Supercoach2026!"},
	{name: "Hugo Martin", email: "hugo@coursehub.local", role: model.RoleCoach, credential: "Coach2026!"},
	{
		name: "Léa Dubois", email: "lea@coursehub.local", role: model.RoleStudent, credential: "LEA7K2QP",
		expiresIn: 30 * 24 * time.Hour, payment: model.PaymentPaid, amount: 19900,
	},
	// Already past expiry: the first sweep moves this account to expired.
	{
		name: "Noé Bernard", email: "noe@coursehub.local", role: model.RoleStudent, credential: "NOE4M8XZ",
		expiresIn: -24 * time.Hour, payment: model.PaymentPending,
	},
}

type seedModule struct {
	title       string
	description string
	lessons     []seedLesson
}

type seedLesson struct {
	title       string
	description string
	videoURL    string
	duration    string
	text        string
	resources   []model.ResourceLink
}

var seedCourse = []seedModule{
	{
		title:       "Finding your story",
		description: "Choose the memories worth writing down.",
		lessons: []seedLesson{
			{
				title:       "Welcome to the course",
				description: "How the course works and what you will write.",
				videoURL:    "https://player.vimeo.com/video/100000001",
				duration:    "8 min",
				text:        "## Before you start\n\nOpen a new **Google Doc** for your first chapter and keep its link at hand.",
				resources: []model.ResourceLink{
					{Title: "Course workbook", URL: "https://docs.google.com/document/d/coursehub-workbook", Description: "Exercises for every lesson"},
				},
			},
			{
				title:       "Mapping your memories",
				description: "Build a timeline of the moments that shaped you.",
				videoURL:    "https://player.vimeo.com/video/100000002",
				duration:    "14 min",
				text:        "List ten moments. For each, note *where*, *who* and *what changed*.",
				resources: []model.ResourceLink{
					{Title: "Timeline template", URL: "https://docs.google.com/spreadsheets/d/coursehub-timeline"},
				},
			},
		},
	},
	{
		title:       "Writing the chapters",
		description: "Turn memories into scenes.",
		lessons: []seedLesson{
			{
				title:       "Opening scenes",
				description: "Start in the middle of the action.",
				videoURL:    "https://player.vimeo.com/video/100000003",
				duration:    "12 min",
				text:        "Rewrite your first paragraph so it starts with a sound, a smell or a line of dialogue.",
			},
			{
				title:       "Revising with a reader",
				description: "Share a chapter and use the feedback.",
				videoURL:    "https://player.vimeo.com/video/100000004",
				duration:    "10 min",
				text:        "Share your document link with your coach from the **Chapters** page.",
				resources: []model.ResourceLink{
					{Title: "Feedback checklist", URL: "https://docs.google.com/document/d/coursehub-feedback"},
					{Title: "Style guide", URL: "https://docs.google.com/document/d/coursehub-style", Description: "Punctuation and tense"},
				},
			},
		},
	},
}

// Seed fills an empty database with development accounts and a starter
// course. Accounts are created only when no user exists and the course only
// when no module exists.
func Seed(ctx context.Context, db *sql.DB, now time.Time) error {
	queries := New(db)

	userCount, err := queries.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	moduleCount, err := queries.CountModules(ctx)
	if err != nil {
		return fmt.Errorf("counting modules: %w", err)
	}
	if userCount > 0 && moduleCount > 0 {
		slog.Info("users and course already exist, skipping seed")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := queries.WithTx(tx)

	if userCount == 0 {
		if err := insertSeedUsers(ctx, qtx, now); err != nil {
			return err
		}
	}
	if moduleCount == 0 {
		if err := insertSeedCourse(ctx, qtx, now); err != nil {
			return err
		}
		slog.Info("seeded starter course", "modules", len(seedCourse))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}
	return nil
}

func insertSeedUsers(ctx context.Context, qtx *Queries, now time.Time) error {
	for i, su := range seedUsers {
		hash, err := auth.HashCredential(su.credential)
		if err != nil {
			return fmt.Errorf("hashing credential for %s: %w", su.email, err)
		}

		// Stagger creation times so first-match email lookups stay deterministic.
		created := now.Add(time.Duration(i) * time.Second)
		params := CreateUserParams{
			ID:              uuid.NewString(),
			Name:            su.name,
			Email:           su.email,
			Role:            su.role,
			Status:          model.StatusActive,
			PaymentStatus:   su.payment,
			AmountPaidCents: su.amount,
			CreatedAt:       created,
			UpdatedAt:       created,
		}
		if su.role.IsCoach() {
			params.PasswordHash = hash
			params.PasswordChanged = true
		} else {
			params.TempPasswordHash = hash
			params.FirstLogin = true
			expires := now.Add(su.expiresIn)
			params.ExpiresAt = &expires
		}

		user, err := qtx.CreateUser(ctx, params)
		if err != nil {
			return fmt.Errorf("creating user %s: %w", su.email, err)
		}

		slog.Info("created development user",
			"id", user.ID,
			"email", user.Email,
			"role", user.Role,
			"credential", su.credential,
		)
	}
	return nil
}

func insertSeedCourse(ctx context.Context, qtx *Queries, now time.Time) error {
	for mi, sm := range seedCourse {
		module, err := qtx.CreateModule(ctx, ModuleParams{
			Title:       sm.title,
			Description: sm.description,
			OrderIndex:  mi,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("creating module %q: %w", sm.title, err)
		}

		for li, sl := range sm.lessons {
			lesson, err := qtx.CreateLesson(ctx, LessonParams{
				ModuleID:        module.ID,
				Title:           sl.title,
				Description:     sl.description,
				VideoURL:        sl.videoURL,
				Duration:        sl.duration,
				OrderIndex:      li,
				ExplanatoryText: sl.text,
				IsActive:        true,
				CreatedAt:       now,
				UpdatedAt:       now,
			})
			if err != nil {
				return fmt.Errorf("creating lesson %q: %w", sl.title, err)
			}
			if err := qtx.ReplaceResources(ctx, lesson.ID, sl.resources); err != nil {
				return fmt.Errorf("adding resources to %q: %w", sl.title, err)
			}
		}
	}
	return nil
}
