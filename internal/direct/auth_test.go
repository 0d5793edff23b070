package direct

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dealgrid/dealgrid/internal/claims"
	pkgcrypto "github.com/dealgrid/dealgrid/internal/crypto"
	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/token"
)

var authSignKey = []byte("test-sign-key-test-sign-key-0032")

func newAuthService(t *testing.T) (*AuthService, pgxmock.PgxPoolIface) {
	t.Helper()
	db, mock := newDB(t)
	svc := &AuthService{
		db:         db,
		tokens:     token.NewMemStore(),
		lockout:    NewLockout(db),
		signKey:    authSignKey,
		accessTTL:  15 * time.Minute,
		refreshTTL: 30 * 24 * time.Hour,
		log:        zap.NewNop(),
	}
	return svc, mock
}

func expectAllowClean(mock pgxmock.PgxPoolIface, email string) {
	mock.ExpectQuery(`SELECT blocked_until FROM login_lockout WHERE email=\$1`).
		WithArgs(email).
		WillReturnError(pgx.ErrNoRows)
}

func expectUserByEmail(mock pgxmock.PgxPoolIface, email string, u userRow) {
	mock.ExpectQuery(`SELECT key, email, name, role, tenant_key, pwd_hash, salt, active, created_at\s+FROM users WHERE email=\$1`).
		WithArgs(email).
		WillReturnRows(pgxmock.NewRows([]string{"key", "email", "name", "role", "tenant_key", "pwd_hash", "salt", "active", "created_at"}).
			AddRow(u.Key, u.Email, u.Name, u.Role, u.TenantKey, u.PwdHash, u.Salt, u.Active, u.CreatedAt))
}

func testUser(t *testing.T, password string) userRow {
	t.Helper()
	salt := []byte("0123456789abcdef")
	return userRow{
		Key:       uuid.Must(uuid.NewV4()),
		Email:     "pat@example.com",
		Name:      "Pat",
		Role:      "admin",
		TenantKey: uuid.Must(uuid.NewV4()),
		PwdHash:   pkgcrypto.HashPassword([]byte(password), salt),
		Salt:      salt,
		Active:    true,
		CreatedAt: tsCreated,
	}
}

func TestAuthLogin_OK(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()
	ctx := context.Background()
	u := testUser(t, "hunter2")

	expectAllowClean(mock, u.Email)
	expectUserByEmail(mock, u.Email, u)
	mock.ExpectExec(`INSERT INTO login_lockout \(email, fail_count, blocked_until, updated_at\)\s+VALUES \(\$1,0,'epoch',now\(\)\)\s+ON CONFLICT \(email\)\s+DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now\(\)`).
		WithArgs(u.Email).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	got, err := svc.Login(ctx, u.Email, "hunter2", true)
	require.NoError(t, err)
	require.Equal(t, u.Key.String(), got.ID)
	require.Equal(t, u.Email, got.Email)

	require.True(t, svc.tokens.Has())
	require.Equal(t, token.ScopeDurable, svc.tokens.Scope())

	c, err := claims.ParseVerified(svc.tokens.Access(), authSignKey)
	require.NoError(t, err)
	require.Equal(t, u.Key.String(), c.Subject)
	require.Equal(t, u.Email, c.Email)
	require.Equal(t, u.TenantKey.String(), c.TenantID)

	rc, err := claims.ParseVerified(svc.tokens.Refresh(), authSignKey)
	require.NoError(t, err)
	require.Equal(t, u.Key.String(), rc.Subject)
	require.Empty(t, rc.Email, "refresh tokens carry no profile claims")
	require.True(t, rc.ExpiresAt.After(c.ExpiresAt), "refresh outlives access")
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()
	u := testUser(t, "right-password")

	expectAllowClean(mock, u.Email)
	expectUserByEmail(mock, u.Email, u)
	mock.ExpectQuery(`INSERT INTO login_lockout \(email, fail_count, blocked_until, updated_at\)\s+VALUES \(\$1,1,'epoch',now\(\)\)\s+ON CONFLICT \(email\) DO UPDATE`).
		WithArgs(u.Email, 15*time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(1))

	_, err := svc.Login(context.Background(), u.Email, "wrong-password", false)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.False(t, svc.tokens.Has())
}

func TestAuthLogin_UnknownEmailSameError(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()

	expectAllowClean(mock, "nobody@example.com")
	mock.ExpectQuery(`FROM users WHERE email=\$1`).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO login_lockout`).
		WithArgs("nobody@example.com", 15*time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(1))

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever", false)
	require.ErrorIs(t, err, errs.ErrUnauthorized, "unknown account looks exactly like a bad password")
}

func TestAuthLogin_BlockedImmediately(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT blocked_until FROM login_lockout WHERE email=\$1`).
		WithArgs("pat@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(time.Now().Add(10 * time.Minute)))

	_, err := svc.Login(context.Background(), "pat@example.com", "hunter2", false)
	require.ErrorIs(t, err, errs.ErrRateLimited)
}

func TestAuthLogin_ThresholdPlacesBlock(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()
	u := testUser(t, "right-password")

	expectAllowClean(mock, u.Email)
	expectUserByEmail(mock, u.Email, u)
	mock.ExpectQuery(`INSERT INTO login_lockout`).
		WithArgs(u.Email, 15*time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(5))
	mock.ExpectExec(`UPDATE login_lockout SET blocked_until=\$2 WHERE email=\$1`).
		WithArgs(u.Email, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	_, err := svc.Login(context.Background(), u.Email, "wrong-password", false)
	require.ErrorIs(t, err, errs.ErrRateLimited)
}

func TestAuthLogin_InactiveUserRejected(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()
	u := testUser(t, "hunter2")
	u.Active = false

	expectAllowClean(mock, u.Email)
	expectUserByEmail(mock, u.Email, u)
	mock.ExpectQuery(`INSERT INTO login_lockout`).
		WithArgs(u.Email, 15*time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(1))

	_, err := svc.Login(context.Background(), u.Email, "hunter2", false)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestAuthMe_OK(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()
	u := testUser(t, "hunter2")

	now := time.Now()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims.Access{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Key.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(authSignKey)
	require.NoError(t, err)
	require.NoError(t, svc.tokens.Save(token.Pair{Access: raw, Refresh: raw}, false))

	mock.ExpectQuery(`SELECT key, email, name, role, tenant_key, pwd_hash, salt, active, created_at\s+FROM users WHERE key=\$1`).
		WithArgs(u.Key.String()).
		WillReturnRows(pgxmock.NewRows([]string{"key", "email", "name", "role", "tenant_key", "pwd_hash", "salt", "active", "created_at"}).
			AddRow(u.Key, u.Email, u.Name, u.Role, u.TenantKey, u.PwdHash, u.Salt, u.Active, u.CreatedAt))

	got, err := svc.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, u.Key.String(), got.ID)
	require.Equal(t, u.Email, got.Email)
}

func TestAuthMe_NotSignedIn(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()

	_, err := svc.Me(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestAuthMe_ForeignTokenRejected(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "attacker",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("some-other-key-some-other-key-00"))
	require.NoError(t, err)
	require.NoError(t, svc.tokens.Save(token.Pair{Access: raw, Refresh: raw}, false))

	_, err = svc.Me(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestCreateUser_OK_and_DuplicateEmail(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()
	ctx := context.Background()
	tenant := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`INSERT INTO users \(key, email, name, role, tenant_key, pwd_hash, salt, active\)\s+VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,true\)`).
		WithArgs(pgxmock.AnyArg(), "new@example.com", "New", "member", tenant, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	u, err := svc.CreateUser(ctx, "new@example.com", "New", "secret123", "member", tenant.String())
	require.NoError(t, err)
	require.Equal(t, "new@example.com", u.Email)
	require.True(t, u.Active)
	_, err = uuid.FromString(u.ID)
	require.NoError(t, err, "new accounts get a UUID key")

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "new@example.com", "New", "member", tenant, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = svc.CreateUser(ctx, "new@example.com", "New", "secret123", "member", tenant.String())
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestCreateUser_BadTenantKey(t *testing.T) {
	svc, mock := newAuthService(t)
	defer mock.Close()

	_, err := svc.CreateUser(context.Background(), "new@example.com", "New", "secret123", "member", "not-a-uuid")
	require.Error(t, err)
}

func TestUserService_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	svc := &UserService{db: db}
	u := testUser(t, "pw")

	mock.ExpectQuery(`SELECT count\(\*\) FROM users`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT key, email, name, role, tenant_key, pwd_hash, salt, active, created_at\s+FROM users ORDER BY email ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"key", "email", "name", "role", "tenant_key", "pwd_hash", "salt", "active", "created_at"}).
			AddRow(u.Key, u.Email, u.Name, u.Role, u.TenantKey, u.PwdHash, u.Salt, u.Active, u.CreatedAt))

	users, pg, err := svc.List(context.Background(), model.ListQuery{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, u.Email, users[0].Email)
	require.Equal(t, 1, pg.Total)
	require.Equal(t, 1, pg.TotalPages)
}
