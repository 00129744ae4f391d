/*
auth.go - Bearer identity and role checks

PURPOSE:
  Login lives outside this service. It issues an HS256 token whose claims
  carry the caller's identity:

    id_usuario     user id (also the cashier id for drawer sessions)
    rol            recepcionista | admin_local | admin_cadena
    id_hotel       the hotel the user works in
    nombreusuario  display name

  Authenticate validates the token and stores an Identity in the request
  context. Handlers turn it into a frontdesk.Actor with actor().

HOTEL SCOPE:
  recepcionista, admin_local:  always their own hotel
  admin_cadena:                every hotel, or one hotel with ?hotel=ID
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

type Role string

const (
	RoleReceptionist Role = "recepcionista"
	RoleHotelAdmin   Role = "admin_local"
	RoleChainAdmin   Role = "admin_cadena"
)

func (r Role) valid() bool {
	return r == RoleReceptionist || r == RoleHotelAdmin || r == RoleChainAdmin
}

// Claims is the token payload.
type Claims struct {
	UserID   generic.UserID  `json:"id_usuario"`
	Role     Role            `json:"rol"`
	HotelID  generic.HotelID `json:"id_hotel"`
	Username string          `json:"nombreusuario"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	UserID   generic.UserID
	Role     Role
	HotelID  generic.HotelID
	Username string
}

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Authenticator validates and issues tokens with one HMAC secret.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueToken signs a token for id. Used by the demo scenario loader and
// tests; production tokens come from the login service.
func (a *Authenticator) IssueToken(id Identity) (string, error) {
	now := a.now()
	claims := Claims{
		UserID:   id.UserID,
		Role:     id.Role,
		HotelID:  id.HotelID,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(int64(id.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) parse(raw string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return Identity{}, err
	}
	if claims.UserID == 0 || !claims.Role.valid() {
		return Identity{}, errors.New("token is missing identity claims")
	}
	if claims.Role != RoleChainAdmin && claims.HotelID == 0 {
		return Identity{}, errors.New("token is missing the hotel claim")
	}
	return Identity{UserID: claims.UserID, Role: claims.Role, HotelID: claims.HotelID, Username: claims.Username}, nil
}

// Authenticate rejects requests without a valid bearer token.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Missing bearer token"})
			return
		}
		id, err := a.parse(strings.TrimSpace(raw))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

// RequireRole answers 403 unless the caller has one of roles.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identityFrom(r.Context())
			if !ok || !allowed[id.Role] {
				writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actor resolves the engine actor for a request, applying the hotel scope.
func actor(r *http.Request) (frontdesk.Actor, error) {
	id, ok := identityFrom(r.Context())
	if !ok {
		return frontdesk.Actor{}, errUnauthenticated
	}
	a := frontdesk.Actor{UserID: id.UserID, HotelID: id.HotelID}
	if id.Role == RoleChainAdmin {
		a.HotelID = 0
		if v := r.URL.Query().Get("hotel"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				return frontdesk.Actor{}, generic.Invalid("hotel", "must be a positive integer")
			}
			a.HotelID = generic.HotelID(n)
		}
	}
	return a, nil
}

var errUnauthenticated = errors.New("unauthenticated")
