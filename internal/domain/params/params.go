package params

// GetViewRequest 按平铺列表中的序号获取视图
type GetViewRequest struct {
	Index int `query:"index" vd:"$>=0"`
}

// UpdateWebSettingsRequest 修改 Web 参数，插件列表整体替换
type UpdateWebSettingsRequest struct {
	SrezRefrFreq    int      `json:"srez_refr_freq" vd:"$>0"`
	EventRefrFreq   int      `json:"event_refr_freq" vd:"$>0"`
	EventCnt        int      `json:"event_cnt" vd:"$>0"`
	EventFltr       bool     `json:"event_fltr"`
	DiagBreak       int      `json:"diag_break" vd:"$>0"`
	CmdEnabled      bool     `json:"cmd_enabled"`
	SimpleCmd       bool     `json:"simple_cmd"`
	RemEnabled      bool     `json:"rem_enabled"`
	PluginFileNames []string `json:"plugin_file_names"`
}
