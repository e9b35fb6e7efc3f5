package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"whisperchat/internal/domain"
)

var (
	// ErrBadCredentials is returned for a failed login. Deliberately the same
	// for unknown email and wrong password.
	ErrBadCredentials = errors.New("invalid email or password")

	// ErrChallengeFailed is returned when the bot-detection challenge token
	// does not verify or scores below the configured threshold.
	ErrChallengeFailed = errors.New("challenge verification failed")

	// ErrInvalidToken is returned for a missing, malformed or expired bearer
	// token.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Verifier scores a bot-detection challenge token. The production
// implementation calls the external verification endpoint; tests stub it.
type Verifier interface {
	Verify(ctx context.Context, token string) (score float64, err error)
}

// Service creates accounts and issues bearer tokens.
type Service struct {
	store    domain.AccountStore
	verifier Verifier
	secret   []byte
	expiry   time.Duration
	minScore float64
}

// New returns a Service. secret signs JWTs; minScore is the lowest
// acceptable challenge score for signup.
func New(store domain.AccountStore, verifier Verifier, secret []byte, expiry time.Duration, minScore float64) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		secret:   secret,
		expiry:   expiry,
		minScore: minScore,
	}
}

// Signup verifies the challenge token, creates the account and returns an
// authenticated session for it.
func (s *Service) Signup(ctx context.Context, email, password, challengeToken string) (domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Session{}, fmt.Errorf("%w: malformed email", ErrBadCredentials)
	}
	if len(password) < 8 {
		return domain.Session{}, fmt.Errorf("%w: password too short", ErrBadCredentials)
	}

	score, err := s.verifier.Verify(ctx, challengeToken)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrChallengeFailed, err)
	}
	if score < s.minScore {
		return domain.Session{}, fmt.Errorf("%w: score %.2f below threshold", ErrChallengeFailed, score)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Session{}, err
	}

	acct := domain.Account{
		UID:          domain.UID(uuid.NewString()),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return domain.Session{}, err
	}
	return s.session(acct.UID)
}

// Login authenticates email/password and returns a fresh session.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	acct, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, ErrBadCredentials
		}
		return domain.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return domain.Session{}, ErrBadCredentials
	}
	return s.session(acct.UID)
}

// Resolve maps a bearer token back to the caller's uid.
func (s *Service) Resolve(tokenString string) (domain.UID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return domain.UID(claims.Subject), nil
}

func (s *Service) session(uid domain.UID) (domain.Session, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   uid.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{UID: uid, Token: signed}, nil
}
