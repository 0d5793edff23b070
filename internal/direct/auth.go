package direct

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/dealgrid/dealgrid/internal/claims"
	pkgcrypto "github.com/dealgrid/dealgrid/internal/crypto"
	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/token"
)

// userRow is the users table row.
type userRow struct {
	Key       uuid.UUID
	Email     string
	Name      string
	Role      string
	TenantKey uuid.UUID
	PwdHash   []byte
	Salt      []byte
	Active    bool
	CreatedAt time.Time
}

const userColumns = `key, email, name, role, tenant_key, pwd_hash, salt, active, created_at`

// AuthService signs users in against the local users table and issues
// HS256 token pairs, so the session surface matches the hosted API.
type AuthService struct {
	db         *DB
	tokens     *token.Store
	lockout    *Lockout
	signKey    []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        *zap.Logger
}

// Login verifies credentials under the lockout policy, mints a token
// pair and persists it into the scope selected by remember.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*model.User, error) {
	if email == "" || password == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty email or password")
	}
	allowed, retry, err := s.lockout.Allow(ctx, email)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errs.Wrap(http.StatusTooManyRequests, "",
			fmt.Sprintf("too many attempts, retry in %s", retry.Round(time.Second)), errs.ErrRateLimited)
	}

	u, err := s.getByEmail(ctx, email)
	if err != nil || !u.Active || !pkgcrypto.VerifyPassword([]byte(password), u.Salt, u.PwdHash) {
		if blocked, wait, ferr := s.lockout.Failure(ctx, email); ferr == nil && blocked {
			return nil, errs.Wrap(http.StatusTooManyRequests, "",
				fmt.Sprintf("too many attempts, retry in %s", wait.Round(time.Second)), errs.ErrRateLimited)
		}
		// hide whether the account exists
		return nil, errs.Wrap(http.StatusUnauthorized, "", "invalid credentials", errs.ErrUnauthorized)
	}
	_ = s.lockout.Success(ctx, email)

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(pair, remember); err != nil {
		return nil, err
	}
	s.log.Info("signed in", zap.String("email", u.Email), zap.Bool("remember", remember))
	m := u.toModel()
	return &m, nil
}

// Logout drops the local session. There is nothing to revoke server-side.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.tokens.Clear()
}

// Me verifies the stored access token and returns its user.
func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	raw := s.tokens.Access()
	if raw == "" {
		return nil, errs.Wrap(http.StatusUnauthorized, "", "not signed in", errs.ErrUnauthorized)
	}
	c, err := claims.ParseVerified(raw, s.signKey)
	if err != nil {
		return nil, errs.Wrap(http.StatusUnauthorized, "", "session invalid or expired", errs.ErrUnauthorized)
	}
	u, err := s.getByKey(ctx, c.Subject)
	if err != nil {
		return nil, err
	}
	m := u.toModel()
	return &m, nil
}

// CreateUser provisions an account with a fresh salt and Argon2id hash.
func (s *AuthService) CreateUser(ctx context.Context, email, name, password, role string, tenantKey string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty email or password")
	}
	key, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	tenant, err := uuid.FromString(tenantKey)
	if err != nil {
		return nil, errs.New(http.StatusBadRequest, "", "tenant key must be a UUID")
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return nil, err
	}
	hash := pkgcrypto.HashPassword([]byte(password), salt)

	const q = `
INSERT INTO users (key, email, name, role, tenant_key, pwd_hash, salt, active)
VALUES ($1,$2,$3,$4,$5,$6,$7,true)`
	if _, err := s.db.Pool.Exec(ctx, q, key, email, name, role, tenant, hash, salt); err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Wrap(http.StatusConflict, "", "email already registered", errs.ErrAlreadyExists)
		}
		return nil, err
	}
	u := userRow{Key: key, Email: email, Name: name, Role: role, TenantKey: tenant, Active: true, CreatedAt: time.Now()}
	m := u.toModel()
	return &m, nil
}

// issuePair mints the access and refresh tokens for a user. Both are
// HS256 JWTs; the refresh token just lives longer.
func (s *AuthService) issuePair(u *userRow) (token.Pair, error) {
	now := time.Now()
	access, err := s.sign(u, now, s.accessTTL, false)
	if err != nil {
		return token.Pair{}, err
	}
	refresh, err := s.sign(u, now, s.refreshTTL, true)
	if err != nil {
		return token.Pair{}, err
	}
	return token.Pair{Access: access, Refresh: refresh}, nil
}

func (s *AuthService) sign(u *userRow, now time.Time, ttl time.Duration, refresh bool) (string, error) {
	c := claims.Access{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Key.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if !refresh {
		c.Email = u.Email
		c.TenantID = u.TenantKey.String()
		c.Role = u.Role
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.signKey)
}

func (s *AuthService) getByEmail(ctx context.Context, email string) (*userRow, error) {
	const q = `
SELECT ` + userColumns + `
FROM users WHERE email=$1`
	return s.scanUser(s.db.Pool.QueryRow(ctx, q, email))
}

func (s *AuthService) getByKey(ctx context.Context, key string) (*userRow, error) {
	const q = `
SELECT ` + userColumns + `
FROM users WHERE key=$1`
	return s.scanUser(s.db.Pool.QueryRow(ctx, q, key))
}

func (s *AuthService) scanUser(row pgx.Row) (*userRow, error) {
	var u userRow
	if err := row.Scan(&u.Key, &u.Email, &u.Name, &u.Role, &u.TenantKey, &u.PwdHash, &u.Salt, &u.Active, &u.CreatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

func (u *userRow) toModel() model.User {
	return model.User{
		ID:        u.Key.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		TenantID:  u.TenantKey.String(),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// UserService lists tenant accounts straight from the users table.
type UserService struct {
	db *DB
}

func (s *UserService) List(ctx context.Context, q model.ListQuery) ([]model.User, model.Page, error) {
	page, size := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}

	var total int
	if err := s.db.Pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, model.Page{}, err
	}

	const sel = `
SELECT ` + userColumns + `
FROM users ORDER BY email ASC LIMIT $1 OFFSET $2`
	rows, err := s.db.Pool.Query(ctx, sel, size, (page-1)*size)
	if err != nil {
		return nil, model.Page{}, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u userRow
		if err := rows.Scan(&u.Key, &u.Email, &u.Name, &u.Role, &u.TenantKey, &u.PwdHash, &u.Salt, &u.Active, &u.CreatedAt); err != nil {
			return nil, model.Page{}, err
		}
		out = append(out, u.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, model.Page{}, err
	}

	pg := model.Page{Total: total, Page: page, PageSize: size, TotalPages: (total + size - 1) / size}
	if pg.TotalPages == 0 {
		pg.TotalPages = 1
	}
	return out, pg, nil
}
