package types

import "time"

const GlobalAppSettingID = "global"

// AppSetting is a single-row table keyed by GlobalAppSettingID.
type AppSetting struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	OpenAIAPIKey string    `gorm:"column:openai_api_key" json:"-"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (AppSetting) TableName() string { return "app_setting" }
