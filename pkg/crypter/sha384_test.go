package crypter

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA384Crypter_Encrypt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		password string
	}{
		{name: "正常密码加密", key: DefaultKey, password: "testPassword123"},
		{name: "空密码加密", key: DefaultKey, password: ""},
		{name: "不同密钥相同密码", key: "differentKey@2025", password: "testPassword123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted := NewSHA384Crypter(tt.key).Encrypt(tt.password)
			// SHA-384 十六进制长度为 96
			assert.Len(t, encrypted, 96)

			mac := hmac.New(sha512.New384, []byte(tt.key))
			mac.Write([]byte(tt.password))
			assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), encrypted)
		})
	}
}

func TestSHA384Crypter_Verify(t *testing.T) {
	tests := []struct {
		name        string
		encryptKey  string
		correctPwd  string
		testPwd     string
		expectValid bool
	}{
		{name: "正确密码验证", encryptKey: DefaultKey, correctPwd: "testPassword123", testPwd: "testPassword123", expectValid: true},
		{name: "错误密码验证", encryptKey: DefaultKey, correctPwd: "testPassword123", testPwd: "wrongPassword", expectValid: false},
		{name: "空密码验证", encryptKey: DefaultKey, correctPwd: "", testPwd: "", expectValid: true},
		{name: "不同密钥的验证", encryptKey: "differentKey@2025", correctPwd: "testPassword123", testPwd: "testPassword123", expectValid: false},
	}

	crypter := NewSHA384Crypter(DefaultKey)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted := NewSHA384Crypter(tt.encryptKey).Encrypt(tt.correctPwd)
			assert.Equal(t, tt.expectValid, crypter.Verify(tt.testPwd, encrypted))
		})
	}

	assert.False(t, crypter.Verify("x", "not-hex"))
}

func TestInit(t *testing.T) {
	old := Instance
	defer func() { Instance = old }()

	Init("")
	assert.Same(t, old, Instance)

	Init("site-key")
	assert.Equal(t, NewSHA384Crypter("site-key").Encrypt("pwd"), Instance.Encrypt("pwd"))
}
