package services

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"storekeep/internal/domain"
	"storekeep/internal/repos"
)

var (
	ErrBadCreds = errors.New("invalid email or password")
	ErrBadToken = errors.New("invalid or expired token")
)

const (
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// Claims is the JWT payload. Subject holds the admin or owner id.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

type AuthService struct {
	Store  *repos.Datastore
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewAuthService(store *repos.Datastore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{Store: store, Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (string, *domain.Admin, error) {
	a, err := s.Store.Repos().Admins.ByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, ErrBadCreds
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}
	tok, err := s.issue(a.ID, RoleAdmin)
	if err != nil {
		return "", nil, err
	}
	return tok, a, nil
}

// LoginOwner authenticates an owner. Deactivated owners are refused the same
// way as a wrong password.
func (s *AuthService) LoginOwner(ctx context.Context, email, password string) (string, *domain.Owner, error) {
	o, err := s.Store.Repos().Owners.ByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, ErrBadCreds
		}
		return "", nil, err
	}
	if !o.Active || bcrypt.CompareHashAndPassword([]byte(o.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}
	tok, err := s.issue(o.ID, RoleOwner)
	if err != nil {
		return "", nil, err
	}
	return tok, o, nil
}

func (s *AuthService) issue(subject, role string) (string, error) {
	now := s.Now()
	claims := &Claims{
		Role: role,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.TTL).Unix(),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	return tok, errors.Wrap(err, "sign token")
}

// ParseToken verifies signature and expiry of an HS256 token.
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !tok.Valid || claims.Subject == "" {
		return nil, ErrBadToken
	}
	return claims, nil
}

// Authorize parses the token and checks it was issued for role. Tokens stop
// working as soon as their admin is deleted or their owner is deactivated or
// deleted.
func (s *AuthService) Authorize(ctx context.Context, raw, role string) (*Claims, error) {
	claims, err := s.ParseToken(raw)
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, errors.Wrapf(domain.ErrForbidden, "%s token used for %s route", claims.Role, role)
	}
	if role == RoleAdmin {
		if _, err := s.Store.Repos().Admins.ByID(ctx, claims.Subject); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrBadToken
			}
			return nil, err
		}
	}
	if role == RoleOwner {
		o, err := s.Store.Repos().Owners.ByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrBadToken
			}
			return nil, err
		}
		if !o.Active {
			return nil, ErrBadToken
		}
	}
	return claims, nil
}

// SeedAdmin creates the configured admin account unless it already exists.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.Store.Repos().Admins.Ensure(ctx, &domain.Admin{
		ID:        uuid.NewString(),
		Email:     normalizeEmail(email),
		Name:      "Administrator",
		Hash:      hash,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}

const (
	pwLower  = "abcdefghijkmnopqrstuvwxyz"
	pwUpper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	pwDigits = "23456789"
	pwSymbol = "!@#$%^&*-_=+"
)

// generatePassword returns a random password with at least one character of
// every class validate.Password asks for.
func generatePassword(n int) (string, error) {
	all := pwLower + pwUpper + pwDigits + pwSymbol
	out := make([]byte, 0, n)
	for _, set := range []string{pwLower, pwUpper, pwDigits, pwSymbol} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < n {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}
	return string(out), nil
}

func pick(set string) (byte, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, errors.Wrap(err, "random")
	}
	return set[i.Int64()], nil
}
