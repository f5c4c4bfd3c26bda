package echoweb

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/attendance/storage/sessions"
)

const (
	cookieName    = "attendance_session"
	tokenParam    = "token"
	signingMethod = "HS256"
)

var errInvalidCookie = errors.New("invalid session cookie")

// Claims identify the browser session a cookie belongs to.
type Claims struct {
	jwt.StandardClaims
	SessionID string `json:"sid"`
}

func (s *server) registerAuthRoutes() {
	s.app.GET("/login", s.login)
	s.app.GET("/auth/callback", s.authCallback)
	s.app.POST("/logout", s.logout)
}

// GenerateToken signs the claims of a browser-session cookie.
func GenerateToken(secretKey, appName, sessionID string, expiresAt time.Time) (string, error) {
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    appName,
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
		SessionID: sessionID,
	}
	token := jwt.NewWithClaims(jwt.GetSigningMethod(signingMethod), claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parseToken checks the signature and expiry of a cookie and returns its session ID.
func parseToken(secretKey, signed string) (string, error) {
	token, err := jwt.ParseWithClaims(signed, new(Claims), func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod {
			return nil, errors.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return "", errors.Wrap(errInvalidCookie, err.Error())
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", errInvalidCookie
	}
	return claims.SessionID, nil
}

func (s *server) setSessionCookie(ctx echo.Context, rec sessions.Record) error {
	signed, err := GenerateToken(s.Conf.Server.SecretKey, s.Conf.AppName, rec.ID, rec.ExpiresAt)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    signed,
		Path:     "/",
		Expires:  rec.ExpiresAt,
		HttpOnly: true,
		Secure:   s.Conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *server) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// loginURL is the identity provider's authorization page.
func (s *server) loginURL() string {
	query := url.Values{}
	query.Set("client_id", s.Conf.Identity.ClientID)
	query.Set("redirect_uri", s.Conf.Identity.CallbackURL)
	query.Set("response_type", tokenParam)
	if len(s.Conf.Identity.Scopes) > 0 {
		query.Set("scope", strings.Join(s.Conf.Identity.Scopes, " "))
	}

	sep := "?"
	if strings.Contains(s.Conf.Identity.URL, "?") {
		sep = "&"
	}
	return s.Conf.Identity.URL + sep + query.Encode()
}

// Handlers

func (s *server) login(ctx echo.Context) error {
	if sess := contextSession(ctx); sess != nil {
		return ctx.Redirect(http.StatusSeeOther, "/")
	}
	return ctx.Redirect(http.StatusFound, s.loginURL())
}

// authCallback receives the credential issued by the identity provider and opens a browser session.
func (s *server) authCallback(ctx echo.Context) error {
	token := strings.TrimSpace(ctx.QueryParam(tokenParam))
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing token")
	}

	rec := sessions.NewRecord(token, s.Conf.Server.SessionTTL)
	if err := s.Sessions.Create(ctx.Request().Context(), rec); err != nil {
		return errors.Wrap(err, "creating session")
	}

	// resolve who logged in once, now; every later page reads the settled value
	ws := s.openWorkspace(rec)
	ws.Session.Bootstrap(ctx.Request().Context())
	if sess, _ := ws.Session.Current(); sess == nil {
		s.Workspaces.Drop(rec.ID)
		if err := s.Sessions.Delete(ctx.Request().Context(), rec.ID); err != nil {
			return errors.Wrap(err, "deleting session")
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "the login could not be verified, please try again")
	}

	if err := s.setSessionCookie(ctx, rec); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, "/")
}

func (s *server) logout(ctx echo.Context) error {
	if id := contextSessionID(ctx); id != "" {
		s.Workspaces.Drop(id)
		if err := s.Sessions.Delete(ctx.Request().Context(), id); err != nil {
			return errors.Wrap(err, "deleting session")
		}
	}
	s.clearSessionCookie(ctx)
	return ctx.Redirect(http.StatusSeeOther, "/login")
}
