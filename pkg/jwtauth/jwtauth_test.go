package jwtauth

import (
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
		errMsg  string
	}{
		{name: "60 seconds", input: "60s", want: 60 * time.Second},
		{name: "5 minutes", input: "5m", want: 5 * time.Minute},
		{name: "2 hours", input: "2h", want: 2 * time.Hour},
		{name: "half hour", input: "0.5h", want: 30 * time.Minute},
		{name: "1 day", input: "1d", want: 24 * time.Hour},
		{name: "3 weeks", input: "3w", want: 3 * 7 * 24 * time.Hour},
		{name: "empty string", input: "", wantErr: true, errMsg: "empty duration string"},
		{name: "invalid unit", input: "10x", wantErr: true, errMsg: "unknown unit in duration"},
		{name: "no unit", input: "10", wantErr: true, errMsg: "invalid duration format"},
		{name: "invalid number", input: "abcdefh", wantErr: true, errMsg: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJWT_Invalid(t *testing.T) {
	_, err := NewJWT("", "1h", "1d")
	assert.Error(t, err)

	_, err = NewJWT("key", "invalid-duration", "30d")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration format")

	_, err = NewJWT("key", "1h", "10x")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown unit in duration")
}

func TestJWT_GenerateAndParse(t *testing.T) {
	assert := assert.New(t)
	jwtManager, err := NewJWT("test-secret-key", "24h", "30d")
	assert.NoError(err)
	assert.Equal(24*time.Hour, jwtManager.TokenExpiration())

	tokenPair, err := jwtManager.GenerateToken("sid-1", "operator", 2)
	assert.NoError(err)
	assert.NotEmpty(tokenPair.AccessToken)
	assert.NotEmpty(tokenPair.RefreshToken)

	claims, err := jwtManager.ParseToken(tokenPair.AccessToken)
	assert.NoError(err)
	assert.Equal("sid-1", claims.SessionID)
	assert.Equal("operator", claims.Login)
	assert.Equal(2, claims.RoleID)
	assert.Equal(AccessTokenType, claims.Type)

	expiresAt := claims.ExpiresAt.Unix()
	now := time.Now().Unix()
	assert.Greater(expiresAt, now)
	assert.Less(expiresAt, now+24*3600+60)
}

func TestJWT_ParseToken_WrongKey(t *testing.T) {
	signer, _ := NewJWT("key-a", "1h", "1d")
	parser, _ := NewJWT("key-b", "1h", "1d")

	tokenPair, err := signer.GenerateToken("sid", "user", 3)
	assert.NoError(t, err)
	_, err = parser.ParseToken(tokenPair.AccessToken)
	assert.Error(t, err)
}

func TestJWT_RefreshToken(t *testing.T) {
	assert := assert.New(t)
	jwtManager, err := NewJWT("test-secret-key", "1m", "30d")
	assert.NoError(err)

	initialPair, err := jwtManager.GenerateToken("sid-2", "guest", 3)
	assert.NoError(err)

	_, err = jwtManager.RefreshToken(initialPair.AccessToken)
	assert.Error(err)

	refreshedPair, err := jwtManager.RefreshToken(initialPair.RefreshToken)
	assert.NoError(err)
	claims, err := jwtManager.ParseToken(refreshedPair.AccessToken)
	assert.NoError(err)
	assert.Equal("sid-2", claims.SessionID)
	assert.Equal("guest", claims.Login)
	assert.Equal(3, claims.RoleID)
}

func TestContextClaims(t *testing.T) {
	assert := assert.New(t)
	ctx := app.NewContext(1)

	_, err := ContextClaims(ctx)
	assert.Error(err)

	claims := &Claims{SessionID: "sid-3", Login: "admin", RoleID: 1, Type: AccessTokenType}
	ctx.Set(ClaimsKey, claims)

	extracted, err := ContextClaims(ctx)
	assert.NoError(err)
	assert.Same(claims, extracted)

	sid, err := SessionID(ctx)
	assert.NoError(err)
	assert.Equal("sid-3", sid)
}
