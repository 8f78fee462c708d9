package model

import (
	"time"
)

// Click 一次跳转的点击记录, 创建后不可修改
type Click struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	LinkID    uint      `gorm:"not null;index" json:"link_id"`
	IP        string    `gorm:"column:ip;size:50" json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

func (Click) TableName() string {
	return "clicks"
}
