package models

import (
	"time"

	"github.com/ayxworxfr/scada_web/pkg/crypter"
)

// User 用户
type User struct {
	ID            uint64    `xorm:"pk autoincr bigint unsigned 'id'" json:"id"`
	Name          string    `xorm:"varchar(50) notnull unique 'name'" json:"name"`
	Password      string    `xorm:"varchar(100) notnull 'password'" json:"-"`
	RoleID        int       `xorm:"int notnull index 'role_id'" json:"role_id"`
	Descr         string    `xorm:"varchar(255) 'descr'" json:"descr"`
	LastLoginTime time.Time `xorm:"datetime 'last_login_time'" json:"last_login_time"`
	BaseModel     `xorm:"extends"`
}

func (u *User) Verify(password string) bool {
	return crypter.Instance.Verify(password, u.Password)
}

func (u *User) EncryptPassword() {
	u.Password = EncryptPassword(u.Password)
}

func EncryptPassword(password string) string {
	return crypter.Instance.Encrypt(password)
}
