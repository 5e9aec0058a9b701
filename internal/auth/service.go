// Platewise | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/platewise/backend/internal/core"
	"github.com/platewise/backend/internal/member"
	"github.com/platewise/backend/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
	ErrAccountDisabled    = errors.New("account disabled")
)

// MemberProvider is the slice of the member service the auth flows need.
type MemberProvider interface {
	FindByID(ctx context.Context, id string) (*member.Member, error)
	FindByEmail(ctx context.Context, email string) (*member.Member, error)
	CreateOwner(
		ctx context.Context,
		params member.OwnerParams,
	) (*member.Member, error)
	UpdatePassword(ctx context.Context, memberID, passwordHash string) error
	BumpTokenVersion(ctx context.Context, memberID string) (int, error)
}

type Service struct {
	repo    Repository
	jwt     *JWTManager
	members MemberProvider
	redis   *redis.Client
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	members MemberProvider,
	redisClient *redis.Client,
) *Service {
	return &Service{
		repo:    repo,
		jwt:     jwt,
		members: members,
		redis:   redisClient,
	}
}

// VerifyAccessToken is the request-path verifier: signature and claims via the
// JWT manager, then the logout blacklist and the member's current token
// version. A redis outage degrades to signature-only verification.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	blacklisted, err := s.IsAccessTokenBlacklisted(ctx, claims.JTI)
	if err == nil && blacklisted {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	if err := s.ValidateTokenVersion(
		ctx,
		claims.MemberID,
		claims.TokenVersion,
	); err != nil {
		return nil, err
	}

	return claims, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	m, err := s.members.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get member: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&m.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if !m.IsActive {
		return nil, ErrAccountDisabled
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.members.UpdatePassword(ctx, m.ID, newHash)
	}

	return s.createAuthResponse(ctx, m, userAgent, ipAddress, "", nil)
}

// Register runs the owner signup: a new establishment plus its first manager,
// created atomically by the member service.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	m, err := s.members.CreateOwner(ctx, member.OwnerParams{
		EstablishmentName: req.EstablishmentName,
		Email:             req.Email,
		PasswordHash:      passwordHash,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create owner: %w", err)
	}

	return s.createAuthResponse(ctx, m, userAgent, ipAddress, "", nil)
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID)
		return nil, ErrTokenReuse
	}

	if !storedToken.IsValid() {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	m, err := s.members.FindByID(ctx, storedToken.MemberID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}

	if !m.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.createAuthResponse(
		ctx,
		m,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

// Logout revokes the refresh token and blacklists the access token that
// authenticated this request, so neither survives the call.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken, memberID string,
	access *middleware.AccessTokenClaims,
) error {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("find token: %w", err)
	}

	if storedToken != nil {
		if storedToken.MemberID != memberID {
			return fmt.Errorf("logout: %w", core.ErrForbidden)
		}

		if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
			!errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("revoke token: %w", err)
		}
	}

	if access != nil {
		if err := s.RevokeAccessToken(
			ctx,
			access.JTI,
			access.ExpiresAt,
		); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) LogoutAll(
	ctx context.Context,
	memberID string,
	access *middleware.AccessTokenClaims,
) error {
	if err := s.repo.RevokeAllForMember(ctx, memberID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	// Bumping the version invalidates every outstanding access token; the
	// blacklist covers the one that authenticated this request immediately.
	if _, err := s.members.BumpTokenVersion(ctx, memberID); err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}

	if access != nil {
		if err := s.RevokeAccessToken(
			ctx,
			access.JTI,
			access.ExpiresAt,
		); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	key := "blacklist:" + jti
	ttl := time.Until(expiresAt)

	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	key := "blacklist:" + jti

	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	memberID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	memberID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.MemberID != memberID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	memberID, currentPassword, newPassword string,
	access *middleware.AccessTokenClaims,
) error {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		m.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.members.UpdatePassword(ctx, memberID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.LogoutAll(ctx, memberID, access); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

func (s *Service) ValidateTokenVersion(
	ctx context.Context,
	memberID string,
	tokenVersion int,
) error {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}

	if tokenVersion < m.TokenVersion {
		return fmt.Errorf("validate token version: %w", core.ErrTokenRevoked)
	}

	return nil
}

func (s *Service) GetCurrentMember(
	ctx context.Context,
	memberID string,
) (*MemberResponse, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	resp := toMemberResponse(m)
	return &resp, nil
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	m *member.Member,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		MemberID:        m.ID,
		Role:            m.Role,
		EstablishmentID: establishmentIDOf(m),
		TokenVersion:    m.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(m.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	refreshTokenEntity := &RefreshToken{
		ID:        newTokenID,
		MemberID:  m.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if err := s.repo.Create(ctx, refreshTokenEntity); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		//nolint:errcheck // best-effort token chain tracking
		_ = s.repo.MarkAsUsed(ctx, *oldTokenID, newTokenID)
	}

	expiresIn := s.jwt.config.AccessTokenExpire

	return &AuthResponse{
		Member: toMemberResponse(m),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(expiresIn / time.Second),
			ExpiresAt:    time.Now().Add(expiresIn),
		},
	}, nil
}

func toMemberResponse(m *member.Member) MemberResponse {
	return MemberResponse{
		ID:              m.ID,
		Email:           m.Email,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Role:            m.Role,
		EstablishmentID: establishmentIDOf(m),
		CreatedAt:       m.CreatedAt,
	}
}

func establishmentIDOf(m *member.Member) string {
	if m.EstablishmentID == nil {
		return ""
	}
	return *m.EstablishmentID
}
