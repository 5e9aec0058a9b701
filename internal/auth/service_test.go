// Platewise | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/platewise/backend/internal/core"
	"github.com/platewise/backend/internal/member"
)

type fakeMembers struct {
	members map[string]*member.Member
}

func newFakeMembers(members ...*member.Member) *fakeMembers {
	f := &fakeMembers{members: make(map[string]*member.Member)}
	for _, m := range members {
		f.members[m.ID] = m
	}
	return f
}

func (f *fakeMembers) FindByID(
	_ context.Context,
	id string,
) (*member.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, core.ErrNotFound)
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMembers) FindByEmail(
	_ context.Context,
	email string,
) (*member.Member, error) {
	for _, m := range f.members {
		if m.Email == email {
			clone := *m
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("member by email: %w", core.ErrNotFound)
}

func (f *fakeMembers) CreateOwner(
	_ context.Context,
	params member.OwnerParams,
) (*member.Member, error) {
	m := &member.Member{
		ID:           uuid.NewString(),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         member.RoleManager,
		IsActive:     true,
	}
	f.members[m.ID] = m
	return m, nil
}

func (f *fakeMembers) UpdatePassword(
	_ context.Context,
	memberID, passwordHash string,
) error {
	m, ok := f.members[memberID]
	if !ok {
		return fmt.Errorf("member %s: %w", memberID, core.ErrNotFound)
	}
	m.PasswordHash = passwordHash
	return nil
}

func (f *fakeMembers) BumpTokenVersion(
	_ context.Context,
	memberID string,
) (int, error) {
	m, ok := f.members[memberID]
	if !ok {
		return 0, fmt.Errorf("member %s: %w", memberID, core.ErrNotFound)
	}
	m.TokenVersion++
	return m.TokenVersion, nil
}

type fakeTokenRepo struct {
	tokens map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*RefreshToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *RefreshToken) error {
	clone := *token
	r.tokens[token.ID] = &clone
	return nil
}

func (r *fakeTokenRepo) FindByHash(
	_ context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			clone := *t
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("refresh token: %w", core.ErrNotFound)
}

func (r *fakeTokenRepo) FindByID(
	_ context.Context,
	id string,
) (*RefreshToken, error) {
	t, ok := r.tokens[id]
	if !ok {
		return nil, fmt.Errorf("refresh token %s: %w", id, core.ErrNotFound)
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTokenRepo) MarkAsUsed(
	_ context.Context,
	id, replacedByID string,
) error {
	t, ok := r.tokens[id]
	if !ok {
		return fmt.Errorf("refresh token %s: %w", id, core.ErrNotFound)
	}
	t.MarkAsUsed(replacedByID)
	return nil
}

func (r *fakeTokenRepo) RevokeByID(_ context.Context, id string) error {
	t, ok := r.tokens[id]
	if !ok {
		return fmt.Errorf("refresh token %s: %w", id, core.ErrNotFound)
	}
	t.Revoke()
	return nil
}

func (r *fakeTokenRepo) RevokeByFamilyID(
	_ context.Context,
	familyID string,
) error {
	for _, t := range r.tokens {
		if t.FamilyID == familyID {
			t.Revoke()
		}
	}
	return nil
}

func (r *fakeTokenRepo) RevokeAllForMember(
	_ context.Context,
	memberID string,
) error {
	for _, t := range r.tokens {
		if t.MemberID == memberID {
			t.Revoke()
		}
	}
	return nil
}

func (r *fakeTokenRepo) GetActiveSessionsForMember(
	_ context.Context,
	memberID string,
) ([]RefreshToken, error) {
	var out []RefreshToken
	for _, t := range r.tokens {
		if t.MemberID == memberID && t.IsValid() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	var deleted int64
	for id, t := range r.tokens {
		if t.IsExpired() {
			delete(r.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func testManagerMember() *member.Member {
	est := "11111111-1111-1111-1111-111111111111"
	return &member.Member{
		ID:              "aaaaaaaa-0000-0000-0000-000000000001",
		EstablishmentID: &est,
		Email:           "owner@example.com",
		Role:            member.RoleManager,
		IsActive:        true,
	}
}

func newBlacklistTestService(
	t *testing.T,
) (*Service, *fakeMembers, *fakeTokenRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		//nolint:errcheck // test cleanup
		_ = client.Close()
	})

	members := newFakeMembers(testManagerMember())
	repo := newFakeTokenRepo()
	manager := newTestJWTManager(t, 15*time.Minute)

	return NewService(repo, manager, members, client), members, repo
}

func issueAccessToken(t *testing.T, svc *Service, m *member.Member) string {
	t.Helper()

	token, err := svc.jwt.CreateAccessToken(AccessTokenClaims{
		MemberID:     m.ID,
		Role:         m.Role,
		TokenVersion: m.TokenVersion,
	})
	if err != nil {
		t.Fatalf("create access token: %v", err)
	}
	return token
}

func TestVerifyAccessTokenRejectedAfterLogout(t *testing.T) {
	t.Parallel()

	svc, _, _ := newBlacklistTestService(t)
	m := testManagerMember()
	token := issueAccessToken(t, svc, m)

	ctx := context.Background()

	claims, err := svc.VerifyAccessToken(ctx, token)
	if err != nil {
		t.Fatalf("verify before logout: %v", err)
	}

	if err := svc.Logout(ctx, "no-such-refresh", m.ID, claims); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	_, err = svc.VerifyAccessToken(ctx, token)
	if !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("verify after logout error = %v, want ErrTokenRevoked", err)
	}
}

func TestVerifyAccessTokenRejectsStaleTokenVersion(t *testing.T) {
	t.Parallel()

	svc, members, _ := newBlacklistTestService(t)
	m := testManagerMember()
	token := issueAccessToken(t, svc, m)

	ctx := context.Background()

	if _, err := svc.VerifyAccessToken(ctx, token); err != nil {
		t.Fatalf("verify before bump: %v", err)
	}

	if _, err := members.BumpTokenVersion(ctx, m.ID); err != nil {
		t.Fatalf("bump token version: %v", err)
	}

	_, err := svc.VerifyAccessToken(ctx, token)
	if !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("stale version error = %v, want ErrTokenRevoked", err)
	}
}

func TestLogoutAllKillsCurrentAndFutureUseOfOldTokens(t *testing.T) {
	t.Parallel()

	svc, _, repo := newBlacklistTestService(t)
	m := testManagerMember()
	token := issueAccessToken(t, svc, m)

	ctx := context.Background()

	refresh := &RefreshToken{
		ID:        uuid.NewString(),
		MemberID:  m.ID,
		TokenHash: core.HashToken("some-refresh-token"),
		FamilyID:  uuid.NewString(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := repo.Create(ctx, refresh); err != nil {
		t.Fatalf("seed refresh token: %v", err)
	}

	claims, err := svc.VerifyAccessToken(ctx, token)
	if err != nil {
		t.Fatalf("verify before logout-all: %v", err)
	}

	if err := svc.LogoutAll(ctx, m.ID, claims); err != nil {
		t.Fatalf("LogoutAll returned error: %v", err)
	}

	stored, err := repo.FindByID(ctx, refresh.ID)
	if err != nil {
		t.Fatalf("reload refresh token: %v", err)
	}
	if !stored.IsRevoked() {
		t.Errorf("refresh token not revoked by logout-all")
	}

	if _, err := svc.VerifyAccessToken(ctx, token); !errors.Is(
		err, core.ErrTokenRevoked,
	) {
		t.Errorf("access token error = %v, want ErrTokenRevoked", err)
	}
}

func TestRevokeAccessTokenSkipsExpired(t *testing.T) {
	t.Parallel()

	svc, _, _ := newBlacklistTestService(t)
	ctx := context.Background()

	jti := uuid.NewString()
	if err := svc.RevokeAccessToken(
		ctx, jti, time.Now().Add(-time.Minute),
	); err != nil {
		t.Fatalf("RevokeAccessToken returned error: %v", err)
	}

	blacklisted, err := svc.IsAccessTokenBlacklisted(ctx, jti)
	if err != nil {
		t.Fatalf("IsAccessTokenBlacklisted returned error: %v", err)
	}
	if blacklisted {
		t.Fatalf("expired token was blacklisted")
	}
}
