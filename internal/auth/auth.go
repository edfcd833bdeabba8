package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/yatube/internal/web"
	"golang.org/x/crypto/bcrypt"
)

const (
	UserCtxKey web.ContextKey = "user_data"

	sessionName    = "yatube_session"
	sessionUserKey = "user_id"
)

var (
	NotAuthenticatesUser = xerrors.Message("Not authenticated user")
	ErrInvalidToken      = xerrors.Message("Invalid authentication token")
)

// PasswordCost is the bcrypt work factor used by SetPassword.
var PasswordCost = 12

type Options struct {
	JWTSecret     string
	TokenTTL      time.Duration
	SessionSecret string
	SessionMaxAge time.Duration
	SecureCookies bool
}

// Auth issues and checks bearer tokens and cookie sessions. The identity it
// resolves is handed to the core as an explicit viewer.
type Auth struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	sessions  *sessions.CookieStore
}

func New(opts Options) *Auth {
	store := sessions.NewCookieStore([]byte(opts.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	return &Auth{
		jwtSecret: []byte(opts.JWTSecret),
		tokenTTL:  opts.TokenTTL,
		sessions:  store,
	}
}

func (user *User) SetPassword(plainTextPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), PasswordCost)

	if err != nil {
		return xerrors.New(err)
	}

	user.Password = hashedPassword
	return nil
}

func (user *User) IsPasswordMatch(plainTextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(user.Password, []byte(plainTextPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, xerrors.New(err)
	}

	return true, nil
}

func (auth *Auth) GenerateToken(user *User) (string, error) {
	now := time.Now()
	claim := UserClaim{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(auth.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claim)
	signedString, err := token.SignedString(auth.jwtSecret)
	if err != nil {
		return "", xerrors.New(err)
	}
	return signedString, nil
}

func (auth *Auth) Authenticate(tokenString string) (*UserClaim, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &UserClaim{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, xerrors.New("unexpected signing method")
		}
		return auth.jwtSecret, nil
	})

	if err != nil {
		return nil, xerrors.Newf("%w: %v", ErrInvalidToken, err)
	}

	if !parsedToken.Valid {
		return nil, xerrors.New(ErrInvalidToken)
	}

	if claim, ok := parsedToken.Claims.(*UserClaim); ok {
		return claim, nil
	}
	return nil, xerrors.New("could not parse claims")
}

// StartSession stores the user id in the session cookie.
func (auth *Auth) StartSession(w http.ResponseWriter, r *http.Request, user *User) error {
	// A cookie that fails to decode still yields a fresh session.
	session, _ := auth.sessions.Get(r, sessionName)
	session.Values[sessionUserKey] = user.ID
	if err := session.Save(r, w); err != nil {
		return xerrors.New(err)
	}
	return nil
}

func (auth *Auth) EndSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := auth.sessions.Get(r, sessionName)
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return xerrors.New(err)
	}
	return nil
}

// SessionUserID returns the user id stored in the session cookie, if any.
func (auth *Auth) SessionUserID(r *http.Request) (int64, bool) {
	session, err := auth.sessions.Get(r, sessionName)
	if err != nil {
		return 0, false
	}
	id, ok := session.Values[sessionUserKey].(int64)
	return id, ok
}

func (auth *Auth) GetAuthenticatedUser(r *http.Request) (*User, error) {
	user, ok := web.GetValueFromContext[*User](r, UserCtxKey)
	if !ok {
		return nil, NotAuthenticatesUser
	}

	return user, nil
}

// Viewer returns the authenticated user of the request, or nil for anonymous.
func (auth *Auth) Viewer(r *http.Request) *User {
	user, _ := auth.GetAuthenticatedUser(r)
	return user
}

func (auth *Auth) SetAuthenticatedUser(r *http.Request, user *User) *http.Request {
	return web.AddValueToContext(r, UserCtxKey, user)
}

func (auth *Auth) IsUserAuthenticated(r *http.Request) bool {
	_, err := auth.GetAuthenticatedUser(r)
	return err == nil
}
