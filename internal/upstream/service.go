package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/resolveit/session-client/internal/core/domain"
)

// Service implements registration, login and token verification.
type Service struct {
	repo      Repository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewService(repo Repository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

// Register creates a USER account and signs a token for it.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, *Account, error) {
	return s.create(ctx, name, email, password, domain.RoleUser)
}

func (s *Service) create(ctx context.Context, name, email, password string, role domain.Role) (string, *Account, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return "", nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	acc, err := s.repo.Create(ctx, &Account{
		Email:        email,
		FullName:     name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(acc)
	if err != nil {
		return "", nil, err
	}
	s.log.Info().Str("email", acc.Email).Str("role", string(acc.Role)).Msg("account registered")
	return token, acc, nil
}

// Login checks the password and returns a fresh token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Account, error) {
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	acc, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(acc)
	if err != nil {
		return "", nil, err
	}
	return token, acc, nil
}

// CurrentAccount resolves a bearer token to its account.
func (s *Service) CurrentAccount(ctx context.Context, token string) (*Account, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}

	email, _ := claims.GetSubject()
	if email == "" {
		return nil, ErrInvalidToken
	}
	acc, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return acc, nil
}

func (s *Service) generateToken(acc *Account) (string, error) {
	claims := jwt.MapClaims{
		"sub":  acc.Email,
		"uid":  acc.ID,
		"role": string(acc.Role),
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ── Seeding ──────────────────────────────────────────────────────────────────

// SeedAccount is one pre-provisioned account.
type SeedAccount struct {
	Email    string
	Password string
	Role     domain.Role
	FullName string
}

// ParseSeed reads "email:password:ROLE[:Full Name]" entries separated by commas.
func ParseSeed(entries string) ([]SeedAccount, error) {
	var out []SeedAccount
	for _, entry := range strings.Split(entries, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 4)
		if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("seed entry %q: want email:password:ROLE[:Full Name]", entry)
		}
		role, err := domain.ParseRole(strings.ToUpper(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("seed entry %q: %w", entry, err)
		}
		acc := SeedAccount{Email: parts[0], Password: parts[1], Role: role, FullName: parts[0]}
		if len(parts) == 4 && strings.TrimSpace(parts[3]) != "" {
			acc.FullName = strings.TrimSpace(parts[3])
		}
		out = append(out, acc)
	}
	return out, nil
}

// Seed creates the given accounts, skipping emails that already exist.
func (s *Service) Seed(ctx context.Context, accounts []SeedAccount) error {
	for _, sa := range accounts {
		_, _, err := s.create(ctx, sa.FullName, sa.Email, sa.Password, sa.Role)
		switch {
		case err == nil:
		case errors.Is(err, ErrAccountExists):
			s.log.Debug().Str("email", sa.Email).Msg("seed account already present")
		default:
			return fmt.Errorf("seed %s: %w", sa.Email, err)
		}
	}
	return nil
}
