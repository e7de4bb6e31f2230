package models

// Role 角色，ID 即角色标识，内置角色 0-4 和 255 以外为自定义角色
type Role struct {
	ID        int    `xorm:"pk int 'id'" json:"id"`
	Name      string `xorm:"varchar(50) notnull unique 'name'" json:"name"`
	Descr     string `xorm:"varchar(255) 'descr'" json:"descr"`
	BaseModel `xorm:"extends"`
}

// Interface 界面对象，Name 为视图或报表的文件名
type Interface struct {
	ID    uint64 `xorm:"pk autoincr bigint unsigned 'id'" json:"id"`
	Name  string `xorm:"varchar(255) notnull unique 'name'" json:"name"`
	Descr string `xorm:"varchar(255) 'descr'" json:"descr"`
}

// Right 角色对界面对象的权限
type Right struct {
	ID        uint64 `xorm:"pk autoincr bigint unsigned 'id'" json:"id"`
	ItfID     uint64 `xorm:"bigint unsigned notnull index 'itf_id'" json:"itf_id"`
	RoleID    int    `xorm:"int notnull index 'role_id'" json:"role_id"`
	ViewRight bool   `xorm:"bool 'view_right'" json:"view_right"`
	CtrlRight bool   `xorm:"bool 'ctrl_right'" json:"ctrl_right"`
}

// InCnl 输入通道
type InCnl struct {
	CnlNum     int    `xorm:"pk int 'cnl_num'" json:"cnl_num"`
	Active     bool   `xorm:"bool index 'active'" json:"active"`
	Name       string `xorm:"varchar(100) notnull 'name'" json:"name"`
	ObjNum     int    `xorm:"int 'obj_num'" json:"obj_num"`
	KPNum      int    `xorm:"int 'kp_num'" json:"kp_num"`
	Signal     int    `xorm:"int 'signal'" json:"signal"`
	UnitName   string `xorm:"varchar(50) 'unit_name'" json:"unit_name"`
	CtrlCnlNum int    `xorm:"int 'ctrl_cnl_num'" json:"ctrl_cnl_num"`
	EvEnabled  bool   `xorm:"bool 'ev_enabled'" json:"ev_enabled"`
}

// CnlProps 绑定到视图的通道属性
type CnlProps struct {
	CnlNum     int    `json:"cnl_num"`
	Name       string `json:"name"`
	ObjNum     int    `json:"obj_num"`
	UnitName   string `json:"unit_name"`
	CtrlCnlNum int    `json:"ctrl_cnl_num"`
	EvEnabled  bool   `json:"ev_enabled"`
}
