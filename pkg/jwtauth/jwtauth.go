package jwtauth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/golang-jwt/jwt/v5"
)

var Instance *JWT

const (
	// AccessTokenType 表示 Access Token 类型
	AccessTokenType = "access"
	// RefreshTokenType 表示 Refresh Token 类型
	RefreshTokenType = "refresh"
	// ClaimsKey 表示 JWT 载荷的键名
	ClaimsKey = "jwt_claims"
)

func Init(jwt *JWT) {
	Instance = jwt
}

// Claims 会话令牌载荷，令牌只标识会话，用户状态保存在服务端
type Claims struct {
	SessionID string `json:"sid"`   // 会话ID
	Login     string `json:"login"` // 登录名
	RoleID    int    `json:"role"`  // 角色ID
	Type      string `json:"type"`  // token类型：access/refresh
	jwt.RegisteredClaims
}

// TokenPair 包含 Access Token 和 Refresh Token
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// JWT 管理结构体
type JWT struct {
	SigningKey             []byte
	tokenExpiration        time.Duration
	refreshTokenExpiration time.Duration
}

// NewJWT 创建 JWT 管理器实例
func NewJWT(signingKey, tokenExp, refreshTokenExp string) (*JWT, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}

	tokenExpDur, err := ParseDuration(tokenExp)
	if err != nil {
		return nil, fmt.Errorf("invalid token expiration: %w", err)
	}

	refreshTokenExpDur, err := ParseDuration(refreshTokenExp)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token expiration: %w", err)
	}

	return &JWT{
		SigningKey:             []byte(signingKey),
		tokenExpiration:        tokenExpDur,
		refreshTokenExpiration: refreshTokenExpDur,
	}, nil
}

// TokenExpiration Access Token 有效期
func (j *JWT) TokenExpiration() time.Duration {
	return j.tokenExpiration
}

// ParseDuration 解析 30s、5m、2h、1d、3w 格式的时间
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("empty duration string")
	}

	// 支持的时间单位
	units := map[string]time.Duration{
		"s": time.Second,
		"m": time.Minute,
		"h": time.Hour,
		"d": time.Hour * 24,
		"w": time.Hour * 24 * 7,
	}

	numStr := ""
	unit := ""
	for _, char := range s {
		if char >= '0' && char <= '9' || char == '.' {
			numStr += string(char)
		} else {
			unit += string(char)
		}
	}

	if numStr == "" || unit == "" {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	num, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in duration: %s", s)
	}

	dur, ok := units[strings.ToLower(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown unit in duration: %s", unit)
	}

	return time.Duration(num * float64(dur)), nil
}

func (j *JWT) sign(sessionID, login string, roleID int, tokenType string, exp time.Time) (string, error) {
	claims := Claims{
		SessionID: sessionID,
		Login:     login,
		RoleID:    roleID,
		Type:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.SigningKey)
}

// GenerateToken 为会话生成 token 和 refresh token
func (j *JWT) GenerateToken(sessionID, login string, roleID int) (*TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(j.tokenExpiration)

	accessToken, err := j.sign(sessionID, login, roleID, AccessTokenType, accessExp)
	if err != nil {
		return nil, fmt.Errorf("generate access token failed: %w", err)
	}

	refreshToken, err := j.sign(sessionID, login, roleID, RefreshTokenType, now.Add(j.refreshTokenExpiration))
	if err != nil {
		return nil, fmt.Errorf("generate refresh token failed: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp.Unix(),
	}, nil
}

// ParseToken 解析 JWT token
func (j *JWT) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.SigningKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// RefreshToken 使用 refresh token 刷新 access token，会话ID不变
func (j *JWT) RefreshToken(refreshTokenStr string) (*TokenPair, error) {
	claims, err := j.ParseToken(refreshTokenStr)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	if claims.Type != RefreshTokenType {
		return nil, errors.New("not a refresh token")
	}

	return j.GenerateToken(claims.SessionID, claims.Login, claims.RoleID)
}

// ContextClaims 从上下文中提取 JWT 声明
func ContextClaims(c *app.RequestContext) (*Claims, error) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, errors.New("jwt claims not found in context")
	}
	claims, ok := value.(*Claims)
	if !ok {
		return nil, errors.New("invalid jwt claims in context")
	}
	return claims, nil
}

// SessionID 从上下文中获取会话ID
func SessionID(c *app.RequestContext) (string, error) {
	claims, err := ContextClaims(c)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}
