/**
 * 模型:工单上下文
 * @author: sun977
 * @date: 2025.11.08
 * @description: 产线工单上下文的数据模型与校验逻辑
 * @func: OrderContext定义、必填字段校验、持久化记录
 */
package inspection

import (
	"fmt"
	"strings"

	basemodel "neoinspect/internal/model/basemodel"
)

// 工单上下文必填字段
// 上游Web系统下发的工单必须携带这些字段，缺一即视为畸形工单
const (
	FieldOrderNo   = "ORDER_NO"   // 工单号
	FieldItemCode  = "ITEM_CD"    // 物料编码
	FieldItemName  = "ITEM_NM"    // 物料名称
	FieldItemClass = "ITEM_CLASS" // 物料类别
	FieldBOM       = "BOM"        // 物料清单
	FieldRecipe    = "RECIPE"     // 工艺配方
)

// RequiredOrderFields 返回必填字段列表，顺序固定
func RequiredOrderFields() []string {
	return []string{FieldOrderNo, FieldItemCode, FieldItemName, FieldItemClass, FieldBOM, FieldRecipe}
}

// OrderContext 当前生效的工单上下文
// 除必填字段外允许携带任意扩展字段，整体替换，不做增量合并
type OrderContext map[string]interface{}

// OrderNo 返回工单号，缺失时返回空串
func (o OrderContext) OrderNo() string {
	if v, ok := o[FieldOrderNo]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// MissingFields 返回缺失或为空的必填字段
func (o OrderContext) MissingFields() []string {
	var missing []string
	for _, field := range RequiredOrderFields() {
		v, ok := o[field]
		if !ok || v == nil {
			missing = append(missing, field)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Validate 校验必填字段
func (o OrderContext) Validate() error {
	if missing := o.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("missing required order fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Clone 返回上下文的浅拷贝快照
// 上下文整体替换、不做原地修改，浅拷贝足以保证读方不受后续替换影响
func (o OrderContext) Clone() OrderContext {
	if o == nil {
		return nil
	}
	cloned := make(OrderContext, len(o))
	for k, v := range o {
		cloned[k] = v
	}
	return cloned
}

// OrderContextRecord 工单上下文持久化记录
// 单行表，每次整体替换时更新，重启后恢复最后一次生效的工单
type OrderContextRecord struct {
	basemodel.BaseModel
	OrderNo string `json:"order_no" gorm:"type:varchar(64);not null;index;comment:工单号"`
	Payload string `json:"payload" gorm:"type:text;not null;comment:工单上下文JSON"`
}

// TableName 指定表名
func (OrderContextRecord) TableName() string {
	return "order_context"
}
