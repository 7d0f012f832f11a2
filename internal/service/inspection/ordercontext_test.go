package inspection

import (
	"context"
	"encoding/json"
	"testing"

	model "neoinspect/internal/model/inspection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validOrderPayload 构造携带全部必填字段的工单JSON
func validOrderPayload(orderNo string) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"ORDER_NO":   orderNo,
		"ITEM_CD":    "ITEM-01",
		"ITEM_NM":    "carton A",
		"ITEM_CLASS": "A",
		"BOM":        "BOM-01",
		"RECIPE":     "RECIPE-01",
	})
	return payload
}

func TestOrderContextReplace(t *testing.T) {
	repo := &fakeOrderRepo{}
	store := NewOrderContextStore(repo)

	require.NoError(t, store.Replace(context.Background(), validOrderPayload("ORD-001")))

	assert.Equal(t, "ORD-001", store.OrderNo())
	order := store.Current()
	require.NotNil(t, order)
	assert.Equal(t, "ITEM-01", order["ITEM_CD"])

	// 持久化记录同步更新
	require.NotNil(t, repo.record)
	assert.Equal(t, "ORD-001", repo.record.OrderNo)
}

func TestOrderContextReplaceWholesale(t *testing.T) {
	store := NewOrderContextStore(&fakeOrderRepo{})

	first, _ := json.Marshal(map[string]interface{}{
		"ORDER_NO": "ORD-001", "ITEM_CD": "I1", "ITEM_NM": "N1",
		"ITEM_CLASS": "A", "BOM": "B1", "RECIPE": "R1",
		"EXTRA_FIELD": "kept only in first",
	})
	require.NoError(t, store.Replace(context.Background(), first))

	require.NoError(t, store.Replace(context.Background(), validOrderPayload("ORD-002")))

	// 整体替换，旧工单的扩展字段不保留
	order := store.Current()
	assert.Equal(t, "ORD-002", order.OrderNo())
	_, exists := order["EXTRA_FIELD"]
	assert.False(t, exists)
}

func TestOrderContextMalformedKeepsPrior(t *testing.T) {
	store := NewOrderContextStore(&fakeOrderRepo{})
	require.NoError(t, store.Replace(context.Background(), validOrderPayload("ORD-001")))

	// JSON解析失败
	err := store.Replace(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, ErrMalformedOrderContext)
	assert.Equal(t, "ORD-001", store.OrderNo())

	// 缺少必填字段
	missing, _ := json.Marshal(map[string]interface{}{"ORDER_NO": "ORD-002"})
	err = store.Replace(context.Background(), missing)
	assert.ErrorIs(t, err, ErrMalformedOrderContext)
	assert.Equal(t, "ORD-001", store.OrderNo())

	// 必填字段为空串
	blank, _ := json.Marshal(map[string]interface{}{
		"ORDER_NO": "ORD-003", "ITEM_CD": "  ", "ITEM_NM": "N",
		"ITEM_CLASS": "A", "BOM": "B", "RECIPE": "R",
	})
	err = store.Replace(context.Background(), blank)
	assert.ErrorIs(t, err, ErrMalformedOrderContext)
	assert.Equal(t, "ORD-001", store.OrderNo())
}

func TestOrderContextPersistFailureKeepsPrior(t *testing.T) {
	repo := &fakeOrderRepo{}
	store := NewOrderContextStore(repo)
	require.NoError(t, store.Replace(context.Background(), validOrderPayload("ORD-001")))

	repo.replaceErr = assert.AnError
	err := store.Replace(context.Background(), validOrderPayload("ORD-002"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedOrderContext)
	assert.Equal(t, "ORD-001", store.OrderNo())
}

func TestOrderContextRestore(t *testing.T) {
	repo := &fakeOrderRepo{
		record: &model.OrderContextRecord{
			OrderNo: "ORD-009",
			Payload: string(validOrderPayload("ORD-009")),
		},
	}
	store := NewOrderContextStore(repo)

	require.NoError(t, store.Restore(context.Background()))
	assert.Equal(t, "ORD-009", store.OrderNo())
}

func TestOrderContextRestoreEmpty(t *testing.T) {
	store := NewOrderContextStore(&fakeOrderRepo{})

	require.NoError(t, store.Restore(context.Background()))
	assert.Equal(t, "", store.OrderNo())
	assert.Nil(t, store.Current())
}

func TestOrderContextRestoreCorruptRecord(t *testing.T) {
	repo := &fakeOrderRepo{
		record: &model.OrderContextRecord{OrderNo: "ORD-X", Payload: "{broken"},
	}
	store := NewOrderContextStore(repo)

	// 损坏的持久化记录不阻断启动，从空工单开始
	require.NoError(t, store.Restore(context.Background()))
	assert.Equal(t, "", store.OrderNo())
}

func TestOrderContextCurrentSnapshot(t *testing.T) {
	store := NewOrderContextStore(&fakeOrderRepo{})
	require.NoError(t, store.Replace(context.Background(), validOrderPayload("ORD-001")))

	snapshot := store.Current()
	snapshot["ORDER_NO"] = "tampered"

	// 快照修改不影响存储中的工单
	assert.Equal(t, "ORD-001", store.OrderNo())
}
