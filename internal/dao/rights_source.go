package dao

import (
	"context"

	"github.com/ayxworxfr/scada_web/internal/domain/models"
	"github.com/ayxworxfr/scada_web/internal/rights"
	"github.com/ayxworxfr/scada_web/internal/settings"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// RightSource 从数据库读取自定义角色的权限表
type RightSource struct{}

var _ rights.Source = RightSource{}

// Rights 返回角色对各界面对象的权限，键为界面对象名
func (RightSource) Rights(ctx context.Context, role rights.Role) (map[string]rights.Right, error) {
	rows, err := RightRepo.QueryBuilder().Eq("role_id", int(role)).Find(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "query rights of role %d", role)
	}
	if len(rows) == 0 {
		return map[string]rights.Right{}, nil
	}

	itfIDs := lo.Uniq(lo.Map(rows, func(r models.Right, _ int) uint64 { return r.ItfID }))
	itfs, err := InterfaceRepo.QueryBuilder().In("id", itfIDs).Find(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "query interface objects")
	}
	names := lo.SliceToMap(itfs, func(itf models.Interface) (uint64, string) {
		return itf.ID, settings.ItfObjName(itf.Name)
	})

	result := make(map[string]rights.Right, len(rows))
	for _, r := range rows {
		name, ok := names[r.ItfID]
		if !ok {
			continue
		}
		result[name] = rights.Right{View: r.ViewRight, Control: r.CtrlRight}
	}
	return result, nil
}

// SetRight 设置角色对界面对象的权限，界面对象不存在时创建
func SetRight(ctx context.Context, role rights.Role, itfName string, right rights.Right) error {
	_, err := RightRepo.Transaction(ctx, func(txCtx context.Context) (any, error) {
		itf, err := InterfaceRepo.FindByKey(txCtx, "name", itfName)
		if errors.Is(err, ErrNotFound) {
			itf = &models.Interface{Name: itfName}
			if err = InterfaceRepo.Create(txCtx, itf); err == nil {
				itf, err = InterfaceRepo.FindByKey(txCtx, "name", itfName)
			}
		}
		if err != nil {
			return nil, errors.Wrapf(err, "interface object %s", itfName)
		}

		if err := RightRepo.QueryBuilder().Eq("role_id", int(role)).Eq("itf_id", itf.ID).Delete(txCtx); err != nil {
			return nil, err
		}
		return nil, RightRepo.Create(txCtx, &models.Right{
			ItfID:     itf.ID,
			RoleID:    int(role),
			ViewRight: right.View,
			CtrlRight: right.Control,
		})
	})
	return err
}
