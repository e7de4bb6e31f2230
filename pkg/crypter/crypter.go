package crypter

// Crypter 密码摘要与校验
type Crypter interface {
	Encrypt(password string) string
	Verify(password, encryptedPassword string) bool
}

// Instance 全局密码加密器，启动时可通过 Init 更换密钥
var Instance Crypter = NewSHA384Crypter(DefaultKey)

// Init 使用配置的密钥初始化全局加密器，key 为空时保留默认密钥
func Init(key string) {
	if key == "" {
		return
	}
	Instance = NewSHA384Crypter(key)
}
