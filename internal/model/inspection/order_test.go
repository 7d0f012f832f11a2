package inspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskTypeIsValid(t *testing.T) {
	for _, taskType := range AllTaskTypes() {
		assert.True(t, taskType.IsValid(), string(taskType))
	}
	assert.False(t, TaskType("SHIP").IsValid())
	assert.False(t, TaskType("case").IsValid())
	assert.False(t, TaskType("").IsValid())
}

func TestOrderContextMissingFields(t *testing.T) {
	order := OrderContext{
		"ORDER_NO":   "ORD-001",
		"ITEM_CD":    "ITEM-01",
		"ITEM_NM":    "carton A",
		"ITEM_CLASS": "A",
		"BOM":        "BOM-01",
		"RECIPE":     "RECIPE-01",
	}
	assert.Empty(t, order.MissingFields())
	assert.NoError(t, order.Validate())

	// 缺字段
	delete(order, "BOM")
	assert.Equal(t, []string{"BOM"}, order.MissingFields())
	assert.Error(t, order.Validate())

	// 空白字符串字段等同缺失
	order["BOM"] = "   "
	assert.Equal(t, []string{"BOM"}, order.MissingFields())

	// nil字段等同缺失
	order["BOM"] = nil
	assert.Equal(t, []string{"BOM"}, order.MissingFields())
}

func TestOrderContextClone(t *testing.T) {
	order := OrderContext{"ORDER_NO": "ORD-001"}
	clone := order.Clone()
	clone["ORDER_NO"] = "ORD-999"

	assert.Equal(t, "ORD-001", order.OrderNo())
	assert.Nil(t, OrderContext(nil).Clone())
}
