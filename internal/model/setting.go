package model

// SiteSetting is process-wide key/value configuration. Writes are upserts;
// last writer wins, no versioning.
type SiteSetting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

// Well-known setting keys.
const (
	SettingMaintenanceMode     = "maintenance_mode"
	SettingChatAutopilot       = "chat_autopilot"
	SettingAutopilotProvider   = "AUTOPILOT_PROVIDER"
	SettingOpenAIKey           = "OPENAI_API_KEY"
	SettingDeepSeekKey         = "DEEPSEEK_API_KEY"
	SettingGeminiKey           = "GEMINI_API_KEY"
	SettingOpenAIModel         = "OPENAI_MODEL"
	SettingDeepSeekModel       = "DEEPSEEK_MODEL"
	SettingOpenAITemperature   = "OPENAI_TEMPERATURE"
	SettingBusinessDescription = "business_description"
	SettingNotificationsSound  = "admin_notifications_sound"
	SettingAITestResult        = "ai_test_result"
)
