package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryst/internal/catalog"
	"tryst/internal/dto"
	"tryst/internal/mailer"
	"tryst/internal/model"
	"tryst/internal/repo"
	"tryst/internal/service"
	"tryst/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	adminEmail    = "admin@tryst2025.com"
	adminPassword = "correct-horse"
)

type captureSender struct {
	mu   sync.Mutex
	sent []mailer.SendRequest
	err  error
}

func (c *captureSender) Send(_ context.Context, req mailer.SendRequest) (mailer.SendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, req)
	if c.err != nil {
		return mailer.SendResult{}, c.err
	}
	return mailer.SendResult{MessageID: "test"}, nil
}

func (c *captureSender) mails() []mailer.SendRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mailer.SendRequest(nil), c.sent...)
}

type testApp struct {
	handler http.Handler
	store   repo.Repository
	mail    *captureSender
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := zerolog.Nop()
	ctx := context.Background()

	store, err := repo.NewSQLiteRepository(ctx, ":memory:", &log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	events, err := catalog.Default()
	require.NoError(t, err)

	mail := &captureSender{}
	notifier, err := mailer.NewNotifier(mail, mailer.Branding{Festival: "TRYST 2025"}, events.Title, &log)
	require.NoError(t, err)

	guard, err := session.NewGuard(session.Options{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		HashKey:       []byte("test-session-key-test-session-key"),
	}, &log)
	require.NoError(t, err)

	svc := service.NewService(store, notifier, guard, events, &log)
	return &testApp{
		handler: NewRouters(&Routers{Service: svc, Mode: gin.TestMode}),
		store:   store,
		mail:    mail,
	}
}

func (a *testApp) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/admin/login", dto.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func eventRegistration() map[string]string {
	return map[string]string{
		"name":        "A",
		"email":       "a@x.com",
		"phone":       "9999999999",
		"college":     "C",
		"rollNumber":  "1",
		"event":       "hackathon",
		"teamMembers": "",
	}
}

func generalRegistration(email string) map[string]string {
	return map[string]string{
		"name":       "Priya Sharma",
		"email":      email,
		"phone":      "+919876543210",
		"college":    "IIT Delhi",
		"rollNumber": "2021CS101",
		"year":       "3",
		"course":     "B.Tech",
	}
}

func TestEventRegistrationRejectsSecondIdenticalSubmission(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/event-registration", eventRegistration())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, dto.EventRegistrationSubmitted, decode[dto.MessageResponse](t, w).Message)

	w = app.do(t, http.MethodPost, "/api/event-registration", eventRegistration())
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.AlreadyRegistered, decode[dto.ErrorResponse](t, w).Error)

	regs, err := app.store.ListEventRegistrations(context.Background())
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "hackathon", regs[0].Event)
	assert.Len(t, app.mail.mails(), 1)
}

func TestContactSubmissionStoresRecordWithoutMail(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name":    "Rahul",
		"email":   "rahul@example.com",
		"college": "NSUT",
		"course":  "ECE",
		"message": "When does the hackathon start?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, dto.ContactSubmitted, decode[dto.MessageResponse](t, w).Message)

	// Contact messages carry no uniqueness constraint.
	w = app.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name":    "Rahul",
		"email":   "rahul@example.com",
		"college": "NSUT",
		"course":  "ECE",
		"message": "Following up on my last message.",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	msgs, err := app.store.ListContactMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "When does the hackathon start?", msgs[0].Message)
	assert.False(t, msgs[0].CreatedAt.IsZero())
	assert.NotEmpty(t, msgs[0].ID)
	assert.Empty(t, app.mail.mails())
}

func TestGeneralRegistrationSendsConfirmation(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/normal-registration", generalRegistration("Priya@Example.com "))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, dto.RegistrationSubmitted, decode[dto.MessageResponse](t, w).Message)

	mails := app.mail.mails()
	require.Len(t, mails, 1)
	assert.Equal(t, []string{"priya@example.com"}, mails[0].To)
	assert.Equal(t, "TRYST 2025 Registration Confirmation", mails[0].Subject)
	assert.Contains(t, mails[0].HTML, "Priya Sharma")
	assert.Contains(t, mails[0].HTML, "2021CS101")

	// The stored email is normalised, so case and whitespace variants collide.
	w = app.do(t, http.MethodPost, "/api/normal-registration", generalRegistration("priya@example.com"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, app.mail.mails(), 1)
}

func TestSameEmailAllowedAcrossRegistrationKinds(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/normal-registration", generalRegistration("a@x.com"))
	require.Equal(t, http.StatusCreated, w.Code)
	w = app.do(t, http.MethodPost, "/api/event-registration", eventRegistration())
	require.Equal(t, http.StatusCreated, w.Code)

	mails := app.mail.mails()
	require.Len(t, mails, 2)
	assert.True(t, strings.HasPrefix(mails[1].Subject, "TRYST 2025 Event Registration Confirmation - "))
}

func TestMissingRequiredFieldIsRejectedBeforeWrite(t *testing.T) {
	app := newTestApp(t)

	body := eventRegistration()
	delete(body, "college")
	w := app.do(t, http.MethodPost, "/api/event-registration", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "college", decode[dto.ErrorResponse](t, w).Field)

	gen := generalRegistration("b@x.com")
	gen["college"] = "   "
	w = app.do(t, http.MethodPost, "/api/normal-registration", gen)
	require.Equal(t, http.StatusBadRequest, w.Code)

	stats, err := app.store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEventRegistrations)
	assert.Zero(t, stats.TotalRegistrations)
	assert.Empty(t, app.mail.mails())
}

func TestFieldValidation(t *testing.T) {
	app := newTestApp(t)

	cases := []struct {
		name  string
		path  string
		body  map[string]string
		field string
	}{
		{"bad email", "/api/event-registration", func() map[string]string { b := eventRegistration(); b["email"] = "not-an-email"; return b }(), "email"},
		{"bad phone", "/api/event-registration", func() map[string]string { b := eventRegistration(); b["phone"] = "12ab"; return b }(), "phone"},
		{"unknown event", "/api/event-registration", func() map[string]string { b := eventRegistration(); b["event"] = "quidditch"; return b }(), "event"},
		{"short message", "/api/contact", map[string]string{"name": "R", "email": "r@x.com", "college": "C", "course": "X", "message": "hi"}, "message"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := app.do(t, http.MethodPost, tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tc.field, decode[dto.ErrorResponse](t, w).Field)
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/contact", "/api/normal-registration", "/api/event-registration", "/api/admin/login"} {
		w := app.do(t, http.MethodPost, path, `{"name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, dto.InvalidJSON, decode[dto.ErrorResponse](t, w).Error, path)
	}
}

func TestConcurrentDuplicateRegistrationsWriteOnce(t *testing.T) {
	app := newTestApp(t)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = app.do(t, http.MethodPost, "/api/normal-registration", generalRegistration("race@x.com")).Code
		}(i)
	}
	wg.Wait()

	var created, conflicts int
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)

	regs, err := app.store.ListGeneralRegistrations(context.Background())
	require.NoError(t, err)
	assert.Len(t, regs, 1)
	assert.Len(t, app.mail.mails(), 1)
}

func TestDeliveryFailureKeepsRecord(t *testing.T) {
	app := newTestApp(t)
	app.mail.err = errors.New("535 authentication failed")

	w := app.do(t, http.MethodPost, "/api/event-registration", eventRegistration())
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ConfirmationEmailFailed, decode[dto.ErrorResponse](t, w).Error)

	regs, err := app.store.ListEventRegistrations(context.Background())
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}

func TestAdminEndpointsRequireSession(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/normal-registration", generalRegistration("p@x.com")).Code)

	forged := &http.Cookie{Name: session.CookieName, Value: "authenticated"}
	for _, path := range []string{"/api/contact", "/api/normal-registration", "/api/event-registration", "/api/admin/stats"} {
		for _, cookies := range [][]*http.Cookie{nil, {forged}} {
			w := app.do(t, http.MethodGet, path, nil, cookies...)
			require.Equal(t, http.StatusUnauthorized, w.Code, path)
			resp := decode[dto.AuthResponse](t, w)
			assert.False(t, resp.Authenticated)
			assert.Equal(t, dto.NotAuthenticated, resp.Message)
			assert.NotContains(t, w.Body.String(), "p@x.com")
		}
	}
}

func TestAdminListsRecordsInInsertionOrder(t *testing.T) {
	app := newTestApp(t)
	for _, e := range []string{"one@x.com", "two@x.com", "three@x.com"} {
		require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/normal-registration", generalRegistration(e)).Code)
	}
	cookie := app.login(t)

	w := app.do(t, http.MethodGet, "/api/normal-registration", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	regs := decode[[]model.GeneralRegistration](t, w)
	require.Len(t, regs, 3)
	assert.Equal(t, "one@x.com", regs[0].Email)
	assert.Equal(t, "three@x.com", regs[2].Email)

	w = app.do(t, http.MethodGet, "/api/event-registration", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestLoginCheckLogout(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/admin/check-auth", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookie := app.login(t)

	w = app.do(t, http.MethodGet, "/api/admin/check-auth", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.AuthResponse](t, w).Authenticated)

	w = app.do(t, http.MethodPost, "/api/admin/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)

	// A browser drops the cookie on logout, so the next check carries the cleared value.
	w = app.do(t, http.MethodGet, "/api/admin/check-auth", nil, &http.Cookie{Name: session.CookieName, Value: cleared.Value})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, decode[dto.AuthResponse](t, w).Authenticated)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/admin/login", dto.LoginRequest{Email: adminEmail, Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode[dto.LoginResponse](t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.InvalidCredentials, resp.Message)
	assert.Empty(t, w.Result().Cookies())
}

func TestStats(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "R", "email": "r@x.com", "college": "C", "course": "X", "message": "a long enough message",
	}).Code)
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/event-registration", eventRegistration()).Code)

	w := app.do(t, http.MethodGet, "/api/admin/stats", nil, app.login(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Stats{
		TotalContacts:           1,
		TotalRegistrations:      0,
		TotalEventRegistrations: 1,
		NewContacts:             1,
	}, decode[model.Stats](t, w))
}

func TestEventsCatalogueIsPublic(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cat := decode[catalog.Catalog](t, w)
	assert.Equal(t, "TRYST 2025", cat.Festival)
	assert.NotEmpty(t, cat.Days)
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
