// Package session gates the admin endpoints behind a single shared session.
//
// Every successful login issues the same logical session: a cookie carrying
// the literal flag value, signed so it cannot be forged. Sessions are not
// per-user and cannot be revoked individually; logout only clears the
// caller's cookie, and rotating the signing key ends every session at once.
package session

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthorized = errors.New("invalid email or password")

const (
	CookieName = "admin_session"
	flagValue  = "authenticated"
	MaxAge     = 24 * time.Hour
)

type Guard interface {
	Login(c *ginext.Context, email, password string) error
	Check(c *ginext.Context) bool
	Logout(c *ginext.Context)
}

type Options struct {
	AdminEmail        string
	AdminPassword     string
	AdminPasswordHash string
	// HashKey signs the cookie. When empty a random key is generated and
	// sessions do not survive a restart.
	HashKey []byte
	Secure  bool
}

type cookieGuard struct {
	opts  Options
	codec *securecookie.SecureCookie
	log   *zerolog.Logger
}

func NewGuard(opts Options, log *zerolog.Logger) (Guard, error) {
	if len(opts.HashKey) == 0 {
		opts.HashKey = securecookie.GenerateRandomKey(32)
		if opts.HashKey == nil {
			return nil, fmt.Errorf("generate session key: no entropy")
		}
		log.Warn().Msg("session secret not configured, admin sessions will not survive a restart")
	}
	opts.AdminEmail = normalizeEmail(opts.AdminEmail)
	if opts.AdminEmail == "" {
		log.Warn().Msg("admin email not configured, admin login is disabled")
	}

	codec := securecookie.New(opts.HashKey, nil)
	codec.MaxAge(int(MaxAge.Seconds()))

	return &cookieGuard{opts: opts, codec: codec, log: log}, nil
}

func (g *cookieGuard) Login(c *ginext.Context, email, password string) error {
	if !g.verify(email, password) {
		g.log.Warn().Str("ip", c.ClientIP()).Msg("admin login rejected")
		return ErrUnauthorized
	}

	value, err := g.codec.Encode(CookieName, flagValue)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	g.setCookie(c, value, int(MaxAge.Seconds()))

	g.log.Info().Str("ip", c.ClientIP()).Msg("admin logged in")
	return nil
}

func (g *cookieGuard) Check(c *ginext.Context) bool {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return false
	}
	var value string
	if err := g.codec.Decode(CookieName, raw, &value); err != nil {
		return false
	}
	return value == flagValue
}

func (g *cookieGuard) Logout(c *ginext.Context) {
	g.setCookie(c, "", -1)
}

func (g *cookieGuard) verify(email, password string) bool {
	if g.opts.AdminEmail == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(normalizeEmail(email)), []byte(g.opts.AdminEmail)) == 1

	var passwordOK bool
	switch {
	case g.opts.AdminPasswordHash != "":
		passwordOK = bcrypt.CompareHashAndPassword([]byte(g.opts.AdminPasswordHash), []byte(password)) == nil
	case g.opts.AdminPassword != "":
		passwordOK = subtle.ConstantTimeCompare([]byte(password), []byte(g.opts.AdminPassword)) == 1
	}
	return emailOK && passwordOK
}

// normalizeEmail matches the casing rules applied to submitted form emails.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (g *cookieGuard) setCookie(c *ginext.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   g.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
