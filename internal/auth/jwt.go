package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"

	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrRevokedToken = errors.New("token revoked")
)

// Claims JWT 自定义声明，sub 为用户 id
type Claims struct {
	Type string `json:"type"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID 从 sub 解析用户 id
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// TokenPair 登录和刷新接口返回的令牌对
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Issuer HS256 签发和校验令牌。refresh 令牌只能使用一次
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    RevocationStore
	now        func() time.Time
}

// NewIssuer ttl 为 0 时使用 1 小时 / 7 天
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, revoked RevocationStore) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT Secret 不能为空")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	if revoked == nil {
		revoked = NewMemoryRevocationStore(0, refreshTTL)
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
		now:        time.Now,
	}, nil
}

func (i *Issuer) sign(userID uint, role, typ string, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(ttl)
	claims := Claims{
		Type: typ,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "newsboard",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	return signed, expires, err
}

// IssuePair 签发 access + refresh 令牌
func (i *Issuer) IssuePair(userID uint, role string) (*TokenPair, error) {
	access, expires, err := i.sign(userID, role, TokenAccess, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("签发 access token 失败: %w", err)
	}
	refresh, _, err := i.sign(userID, role, TokenRefresh, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("签发 refresh token 失败: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    expires,
	}, nil
}

func (i *Issuer) parse(tokenString, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != typ || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseAccess 校验 access 令牌
func (i *Issuer) ParseAccess(tokenString string) (*Claims, error) {
	return i.parse(tokenString, TokenAccess)
}

// ParseRefresh 校验 refresh 令牌，已吊销的返回 ErrRevokedToken
func (i *Issuer) ParseRefresh(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := i.parse(tokenString, TokenRefresh)
	if err != nil {
		return nil, err
	}
	revoked, err := i.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke 吊销 refresh 令牌直到其过期。重复吊销返回 ErrRevokedToken
func (i *Issuer) Revoke(ctx context.Context, claims *Claims) error {
	ttl := i.refreshTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(i.now())
	}
	if ttl <= 0 {
		return ErrExpiredToken
	}
	first, err := i.revoked.Revoke(ctx, claims.ID, ttl)
	if err != nil {
		return err
	}
	if !first {
		return ErrRevokedToken
	}
	return nil
}

// Rotate 用 refresh 令牌换新的令牌对，旧 refresh 令牌立即吊销。
// 并发使用同一个 refresh 令牌时只有一个请求成功
func (i *Issuer) Rotate(ctx context.Context, refreshToken string) (*TokenPair, *Claims, error) {
	claims, err := i.ParseRefresh(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if err := i.Revoke(ctx, claims); err != nil {
		return nil, nil, err
	}
	userID, _ := claims.UserID()
	pair, err := i.IssuePair(userID, claims.Role)
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}
