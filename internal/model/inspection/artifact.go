/**
 * 模型:产物台账
 * @author: sun977
 * @date: 2025.11.08
 * @description: 检测产物(抓拍帧等文件)的台账记录模型
 * @func: ArtifactRecord定义
 */
package inspection

import (
	"time"

	basemodel "neoinspect/internal/model/basemodel"
)

// ArtifactRecord 检测产物台账记录
// 每种任务类型只保留最近的若干条，新记录插入后裁剪旧记录
type ArtifactRecord struct {
	basemodel.BaseModel
	TaskType   string    `json:"task_type" gorm:"type:varchar(32);not null;index:idx_artifact_task_type;comment:任务类型"`
	OrderNo    string    `json:"order_no" gorm:"type:varchar(64);index;comment:工单号"`
	FilePath   string    `json:"file_path" gorm:"type:varchar(512);not null;comment:产物文件相对路径"`
	Verdict    string    `json:"verdict" gorm:"type:varchar(16);comment:判定结果"`
	Details    string    `json:"details" gorm:"type:text;comment:详细信息"`
	RecordedAt time.Time `json:"recorded_at" gorm:"not null;index;comment:记录时间"`
}

// TableName 指定表名
func (ArtifactRecord) TableName() string {
	return "artifact_ledger"
}

// ArtifactView 对外暴露的产物视图(API响应用)
type ArtifactView struct {
	TaskType   string `json:"task_type"`   // 任务类型
	OrderNo    string `json:"order_no"`    // 工单号
	FilePath   string `json:"file_path"`   // 产物文件相对路径
	Verdict    string `json:"verdict"`     // 判定结果
	Details    string `json:"details"`     // 详细信息
	RecordedAt string `json:"recorded_at"` // 记录时间
}
