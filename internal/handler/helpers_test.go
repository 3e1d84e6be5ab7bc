// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"

	"github.com/olegiv/coursehub/internal/access"
	"github.com/olegiv/coursehub/internal/cache"
	"github.com/olegiv/coursehub/internal/mailer"
	"github.com/olegiv/coursehub/internal/middleware"
	"github.com/olegiv/coursehub/internal/model"
	"github.com/olegiv/coursehub/internal/scheduler"
	"github.com/olegiv/coursehub/internal/service"
	"github.com/olegiv/coursehub/internal/session"
	"github.com/olegiv/coursehub/internal/store"
	"github.com/olegiv/coursehub/internal/testutil"
	"github.com/olegiv/coursehub/internal/version"
)

// Development accounts created by store.Seed.
const (
	supercoachEmail    = "camille@coursehub.local"
	supercoachPassword = "Supercoach2026!"
	coachEmail         = "hugo@coursehub.local"
	coachPassword      = "Coach2026!"
	studentEmail       = "lea@coursehub.local"
	studentCode        = "LEA7K2QP"
	expiredEmail       = "noe@coursehub.local"
	expiredCode        = "NOE4M8XZ"
)

type testApp struct {
	t       *testing.T
	db      *sql.DB
	manager *access.Manager
	server  *httptest.Server
	jobRuns atomic.Int32
}

type appOption func(*middleware.LoginProtectionConfig)

func withMaxFailedAttempts(n int) appOption {
	return func(cfg *middleware.LoginProtectionConfig) { cfg.MaxFailedAttempts = n }
}

// newTestApp wires the full handler stack over a seeded database.
func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	ctx := context.Background()

	db := testutil.TestDB(t)
	queries := store.New(db)

	mail, err := mailer.New(queries)
	if err != nil {
		t.Fatalf("mailer.New: %v", err)
	}
	mgr := access.NewManager(queries, mail,
		access.WithLogger(testutil.TestLoggerSilent()),
		access.WithSeeder(func(ctx context.Context, now time.Time) error {
			return store.Seed(ctx, db, now)
		}),
	)
	mgr.Initialize(ctx)

	sm := session.New(db, true)
	sess := session.Bind(sm)

	courseCache := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = courseCache.Close() })

	events := service.NewEventService(db)
	content := service.NewContentService(db, courseCache, time.Minute)
	progress := service.NewProgressService(db, content)
	chapters := service.NewChapterService(db, content)
	analytics := service.NewAnalyticsService(db, content)

	lpCfg := middleware.DefaultLoginProtectionConfig()
	lpCfg.IPRateLimit = 1000
	lpCfg.IPBurst = 1000
	for _, opt := range opts {
		opt(&lpCfg)
	}
	lp := middleware.NewLoginProtection(lpCfg)
	t.Cleanup(lp.Stop)

	app := &testApp{t: t, db: db, manager: mgr}

	registry := scheduler.NewRegistry(cron.New(), testutil.TestLoggerSilent())
	if err := registry.Add("noop", "Does nothing", "", func() error {
		app.jobRuns.Add(1)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	hs := Handlers{
		Health:       NewHealthHandler(db, courseCache, mgr, version.Info{Version: "test"}),
		Auth:         NewAuthHandler(mgr, sess, events, lp),
		Learning:     NewLearningHandler(sess, content, progress, chapters),
		Users:        NewUsersHandler(mgr, sess, events),
		Coach:        NewCoachHandler(sess, mgr, progress, chapters, analytics, mail, events),
		Content:      NewContentHandler(sess, content, events),
		Scheduler:    NewSchedulerHandler(sess, registry, events),
		LoginLimiter: lp.Middleware(),
		Events:       events,
	}

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.LoadUser(mgr, sess))
	hs.Register(r)

	app.server = httptest.NewServer(r)
	t.Cleanup(app.server.Close)
	return app
}

// envelope decodes both success and error responses.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Notices []access.Notice `json:"notices"`
	Error   *ErrorDetail    `json:"error"`
}

// client is one browser: its own cookie jar, redirects not followed.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (a *testApp) client() *client {
	a.t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		a.t.Fatal(err)
	}
	return &client{
		t:    a.t,
		base: a.server.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// do sends body as JSON and decodes the envelope when the response is JSON.
func (c *client) do(method, path string, body any) (*http.Response, envelope) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			c.t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return resp, env
}

// expect is do plus a status assertion.
func (c *client) expect(status int, method, path string, body any) envelope {
	c.t.Helper()
	resp, env := c.do(method, path, body)
	if resp.StatusCode != status {
		detail := ""
		if env.Error != nil {
			detail = env.Error.Code + ": " + env.Error.Message
		}
		c.t.Fatalf("%s %s: status %d, want %d %s", method, path, resp.StatusCode, status, detail)
	}
	return env
}

// expectRedirect asserts a 303 to location.
func (c *client) expectRedirect(location, method, path string) {
	c.t.Helper()
	resp, _ := c.do(method, path, nil)
	if resp.StatusCode != http.StatusSeeOther {
		c.t.Fatalf("%s %s: status %d, want 303", method, path, resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		c.t.Fatalf("%s %s: Location %q, want %q", method, path, got, location)
	}
}

func (c *client) login(email, password string) SessionView {
	c.t.Helper()
	env := c.expect(http.StatusOK, http.MethodPost, RouteLogin, LoginRequest{Email: email, Password: password})
	var view SessionView
	decodeData(c.t, env, &view)
	return view
}

// signedInStudent signs in the seeded active student and completes first login.
func (a *testApp) signedInStudent() *client {
	a.t.Helper()
	c := a.client()
	c.login(studentEmail, studentCode)
	c.expect(http.StatusOK, http.MethodPost, RouteFirstLogin, FirstLoginRequest{
		AccessCode:      studentCode,
		Password:        "Student2026",
		ConfirmPassword: "Student2026",
	})
	return c
}

func (a *testApp) signedInCoach() *client {
	a.t.Helper()
	c := a.client()
	c.login(supercoachEmail, supercoachPassword)
	return c
}

func (a *testApp) userByEmail(email string) model.User {
	a.t.Helper()
	u, err := store.New(a.db).GetUserByEmail(context.Background(), email)
	if err != nil {
		a.t.Fatalf("GetUserByEmail(%s): %v", email, err)
	}
	return u
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decoding data %s: %v", env.Data, err)
	}
}

func hasNotice(notices []access.Notice, title string) bool {
	for _, n := range notices {
		if n.Title == title {
			return true
		}
	}
	return false
}
