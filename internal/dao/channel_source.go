package dao

import (
	"context"

	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ChannelSource 提供绑定到视图的输入通道属性
type ChannelSource struct{}

// CnlProps 返回启用的输入通道属性，按通道号排序
func (ChannelSource) CnlProps(ctx context.Context) ([]models.CnlProps, error) {
	cnls, err := InCnlRepo.QueryBuilder().Eq("active", true).OrderBy("cnl_num").Find(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "query input channels")
	}
	return lo.Map(cnls, func(cnl models.InCnl, _ int) models.CnlProps {
		return models.CnlProps{
			CnlNum:     cnl.CnlNum,
			Name:       cnl.Name,
			ObjNum:     cnl.ObjNum,
			UnitName:   cnl.UnitName,
			CtrlCnlNum: cnl.CtrlCnlNum,
			EvEnabled:  cnl.EvEnabled,
		}
	}), nil
}
