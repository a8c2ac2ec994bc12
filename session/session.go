// Package session owns the authentication token lifecycle: sign-in,
// restore on start-up, proactive background refresh, and sign-out. There
// is exactly one authenticated identity at a time; it lives in an explicit
// Manager owned by the application root, never in package globals.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/crm-nexus/nexus/api"
	"github.com/crm-nexus/nexus/internal/config"
	xerrors "github.com/crm-nexus/nexus/internal/errors"
	"github.com/crm-nexus/nexus/session/store"
	"github.com/crm-nexus/nexus/users"
)

// State tracks where the manager is in its lifecycle.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	StateRefreshPending  State = "refresh_pending"
)

// tokenLeeway is how close to expiry an access token may be before Token()
// refreshes it rather than handing it out.
const tokenLeeway = 30 * time.Second

// Session is the in-memory authenticated state.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Tier         store.Tier
	User         *users.User
}

// AuthAPI is the authentication endpoint surface the manager depends on.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Me(ctx context.Context, accessToken string) (*users.User, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenRefresh, error)
	Logout(ctx context.Context, accessToken string) error
}

// Manager maintains the authenticated identity and keeps its access token
// valid until the refresh token itself expires or is rejected.
type Manager struct {
	api     AuthAPI
	tiers   store.Tiers
	config  config.SessionConfig
	log     zerolog.Logger
	nowTime func() time.Time

	mu      sync.Mutex
	state   State
	session *Session

	// Both the timer tick and a failure-triggered refresh funnel through
	// this group, so overlapping triggers share one network call.
	refreshGroup singleflight.Group
	stopRefresh  context.CancelFunc
}

var _ oauth2.TokenSource = (*Manager)(nil)

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

func NewManager(authAPI AuthAPI, tiers store.Tiers, cfg config.SessionConfig, options ...ManagerOption) (*Manager, error) {
	if authAPI == nil {
		return nil, errors.New("[NewManager] auth API is required")
	}
	if tiers.Persistent == nil || tiers.Ephemeral == nil {
		return nil, errors.New("[NewManager] both storage tiers are required")
	}
	if cfg == nil {
		return nil, errors.New("[NewManager] session config is required")
	}

	m := &Manager{
		api:     authAPI,
		tiers:   tiers,
		config:  cfg,
		log:     zerolog.Nop(),
		nowTime: time.Now,
		state:   StateUnauthenticated,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated || m.state == StateRefreshPending
}

// CurrentUser returns the cached profile, or nil when unauthenticated.
func (m *Manager) CurrentUser() *users.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return m.session.User
}

// Current returns a copy of the live session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	copied := *m.session
	return &copied
}

// Login authenticates and writes the token triple into the tier selected
// by rememberMe. Both tiers are cleared first, so two logins in a row
// never leave stale tokens in the other tier.
func (m *Manager) Login(ctx context.Context, email, password string, rememberMe bool) (*Session, error) {
	m.setState(StateAuthenticating)

	response, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.setState(StateUnauthenticated)
		return nil, err
	}

	tier := store.TierEphemeral
	if rememberMe {
		tier = store.TierPersistent
	}

	record := &store.Record{
		AccessToken:  response.Token,
		RefreshToken: response.RefreshToken,
		ExpiresAt:    m.expiryOf(response.TokenExpires, response.Token),
		Tier:         tier,
	}
	if err := m.tiers.Write(record); err != nil {
		m.setState(StateUnauthenticated)
		return nil, errors.Wrap(err, "[Manager.Login] persist session")
	}

	user := response.User
	m.mu.Lock()
	m.session = &Session{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		ExpiresAt:    record.ExpiresAt,
		Tier:         tier,
		User:         &user,
	}
	m.state = StateAuthenticated
	m.mu.Unlock()

	m.log.Info().Str("email", user.Email).Str("tier", string(tier)).Msg("Logged in")
	return m.Current(), nil
}

// Restore rebuilds the session from storage on process start. An expired
// or rejected access token gets at most one silent refresh; a second
// failure clears all storage. Returns (nil, nil) when nothing is stored.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	record, err := m.tiers.Read()
	if err != nil {
		if errors.Is(err, store.NoSessionErr) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[Manager.Restore] read storage")
	}

	refreshed := false
	if record.Expired(m.nowTime()) {
		record, err = m.refresh(ctx, record)
		if err != nil {
			m.abandon()
			return nil, errors.Wrap(xerrors.ErrRefreshFailed, err.Error())
		}
		refreshed = true
	}

	user, err := m.api.Me(ctx, record.AccessToken)
	if err != nil {
		if !rejected(err) {
			return nil, errors.Wrap(err, "[Manager.Restore] Me")
		}
		if refreshed {
			m.abandon()
			return nil, errors.Wrap(xerrors.ErrInvalidToken, err.Error())
		}
		record, err = m.refresh(ctx, record)
		if err != nil {
			m.abandon()
			return nil, errors.Wrap(xerrors.ErrRefreshFailed, err.Error())
		}
		user, err = m.api.Me(ctx, record.AccessToken)
		if err != nil {
			m.abandon()
			return nil, errors.Wrap(xerrors.ErrInvalidToken, err.Error())
		}
	}

	if err := m.tiers.Write(record); err != nil {
		return nil, errors.Wrap(err, "[Manager.Restore] persist session")
	}

	m.mu.Lock()
	m.session = &Session{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
		ExpiresAt:    record.ExpiresAt,
		Tier:         record.Tier,
		User:         user,
	}
	m.state = StateAuthenticated
	m.mu.Unlock()

	m.log.Info().Str("email", user.Email).Str("tier", string(record.Tier)).Msg("Session restored")
	return m.Current(), nil
}

// Logout invalidates the session server-side on a best-effort basis, then
// unconditionally clears both storage tiers and the in-memory session.
// It never fails client-side.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	accessToken := ""
	if m.session != nil {
		accessToken = m.session.AccessToken
	}
	stop := m.stopRefresh
	m.stopRefresh = nil
	m.mu.Unlock()

	if stop != nil {
		stop()
	}

	if accessToken != "" {
		if err := m.api.Logout(ctx, accessToken); err != nil {
			m.log.Debug().Err(err).Msg("Server-side logout failed, ignoring")
		}
	}

	if err := m.tiers.ClearAll(); err != nil {
		m.log.Warn().Err(err).Msg("Failed to clear session storage")
	}

	m.mu.Lock()
	m.session = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()

	m.log.Info().Msg("Logged out")
}

// StartAutoRefresh runs the recurring token check: every interval tick the
// access token is refreshed when its remaining lifetime drops under the
// configured margin. Errors other than a rejected refresh token are
// swallowed and retried at the next tick.
func (m *Manager) StartAutoRefresh(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	if m.stopRefresh != nil {
		m.stopRefresh()
	}
	m.stopRefresh = cancel
	m.mu.Unlock()

	go m.refreshLoop(loopCtx)
}

func (m *Manager) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(m.config.GetRefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.refreshTick(ctx)
		}
	}
}

func (m *Manager) refreshTick(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateAuthenticated || m.session == nil {
		m.mu.Unlock()
		return
	}
	remaining := m.session.ExpiresAt.Sub(m.nowTime())
	if remaining > m.config.GetRefreshMargin() {
		m.mu.Unlock()
		return
	}
	record := &store.Record{
		AccessToken:  m.session.AccessToken,
		RefreshToken: m.session.RefreshToken,
		ExpiresAt:    m.session.ExpiresAt,
		Tier:         m.session.Tier,
	}
	m.state = StateRefreshPending
	m.mu.Unlock()

	_, err := m.refresh(ctx, record)
	if err != nil {
		if rejected(err) {
			m.log.Warn().Err(err).Msg("Refresh token rejected, logging out")
			m.Logout(ctx)
			return
		}
		m.log.Warn().Err(err).Msg("Scheduled refresh failed, will retry next tick")
	}

	m.mu.Lock()
	if m.state == StateRefreshPending {
		m.state = StateAuthenticated
	}
	m.mu.Unlock()
}

// Token implements oauth2.TokenSource so authenticated API clients pull
// their bearer tokens straight from the manager, refreshing when the
// current one is about to lapse.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return nil, xerrors.ErrUnauthenticated
	}
	session := *m.session
	m.mu.Unlock()

	if m.nowTime().Add(tokenLeeway).Before(session.ExpiresAt) {
		return &oauth2.Token{AccessToken: session.AccessToken, Expiry: session.ExpiresAt}, nil
	}

	record := &store.Record{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
		Tier:         session.Tier,
	}
	refreshedRecord, err := m.refresh(context.Background(), record)
	if err != nil {
		return nil, errors.Wrap(xerrors.ErrRefreshFailed, err.Error())
	}
	return &oauth2.Token{AccessToken: refreshedRecord.AccessToken, Expiry: refreshedRecord.ExpiresAt}, nil
}

// refresh exchanges the refresh token for a new triple, persists it to the
// record's tier, and updates the in-memory session. Concurrent callers
// share a single network call.
func (m *Manager) refresh(ctx context.Context, record *store.Record) (*store.Record, error) {
	result, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		response, err := m.api.Refresh(ctx, record.RefreshToken)
		if err != nil {
			return nil, err
		}

		rotated := &store.Record{
			AccessToken:  response.Token,
			RefreshToken: record.RefreshToken,
			ExpiresAt:    m.expiryOf(response.TokenExpires, response.Token),
			Tier:         record.Tier,
		}
		// The backend may rotate the refresh token
		if response.RefreshToken != "" {
			rotated.RefreshToken = response.RefreshToken
		}

		if err := m.tiers.Write(rotated); err != nil {
			return nil, errors.Wrap(err, "persist refreshed session")
		}

		m.mu.Lock()
		if m.session != nil {
			m.session.AccessToken = rotated.AccessToken
			m.session.RefreshToken = rotated.RefreshToken
			m.session.ExpiresAt = rotated.ExpiresAt
		}
		m.mu.Unlock()

		m.log.Debug().Time("expires_at", rotated.ExpiresAt).Msg("Access token refreshed")
		return rotated, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*store.Record), nil
}

// expiryOf converts the backend's millisecond expiry to a time. When the
// field is absent it falls back to the exp claim of the access token; the
// claim is read without signature verification, the client holds no key.
func (m *Manager) expiryOf(tokenExpires int64, accessToken string) time.Time {
	if tokenExpires > 0 {
		return time.UnixMilli(tokenExpires)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// abandon clears all storage after a failed restore.
func (m *Manager) abandon() {
	if err := m.tiers.ClearAll(); err != nil {
		m.log.Warn().Err(err).Msg("Failed to clear session storage")
	}
	m.setState(StateUnauthenticated)
}

func (m *Manager) setState(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// rejected reports whether the error is the backend refusing the
// credential, as opposed to a transport failure.
func rejected(err error) bool {
	return api.IsStatus(err, 401) || api.IsStatus(err, 403)
}
