package model

import (
	"time"
)

// Link 推广链接模型
type Link struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	URL       string    `gorm:"column:url;type:text;not null" json:"url"`
	Slug      string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// 删除链接时级联删除点击记录
	Clicks []Click `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Link) TableName() string {
	return "links"
}

// LinkSummary 列表视图, 附带点击次数
type LinkSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	Clicks    int64     `json:"clicks"`
}
