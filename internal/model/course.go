// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Module is an ordered group of lessons.
type Module struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"order_index"`
	IsActive    bool      `json:"is_active"`
	Lessons     []Lesson  `json:"lessons"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Lesson is a single unit of course content inside a module.
type Lesson struct {
	ID              int64          `json:"id"`
	ModuleID        int64          `json:"module_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	VideoURL        string         `json:"video_url"`
	Duration        string         `json:"duration"`
	OrderIndex      int            `json:"order_index"`
	ExplanatoryText string         `json:"explanatory_text"`
	ExplanatoryHTML string         `json:"explanatory_html,omitempty"`
	IsActive        bool           `json:"is_active"`
	Resources       []ResourceLink `json:"resources_links"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ResourceLink is an external resource attached to a lesson.
// Title and URL are required, Description is optional.
type ResourceLink struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Validate returns field errors for a module, or nil.
func (m *Module) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(m.Title) == "" {
		errs["title"] = "Title is required"
	}
	if m.OrderIndex < 0 {
		errs["order_index"] = "Order must not be negative"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Validate returns field errors for a lesson and its resource links, or nil.
func (l *Lesson) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(l.Title) == "" {
		errs["title"] = "Title is required"
	}
	if l.ModuleID == 0 {
		errs["module_id"] = "Module is required"
	}
	if l.OrderIndex < 0 {
		errs["order_index"] = "Order must not be negative"
	}
	if l.VideoURL != "" && !IsHTTPURL(l.VideoURL) {
		errs["video_url"] = "Video URL must be an http or https URL"
	}
	for i, link := range l.Resources {
		if strings.TrimSpace(link.Title) == "" {
			errs[resourceField(i, "title")] = "Resource title is required"
		}
		if !IsHTTPURL(link.URL) {
			errs[resourceField(i, "url")] = "Resource URL must be an http or https URL"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func resourceField(i int, name string) string {
	return "resources_links." + strconv.Itoa(i) + "." + name
}

// IsHTTPURL reports whether s is an absolute http or https URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
