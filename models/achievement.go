package models

// AchievementDefinition is a static catalog entry. Only the ID is stored on
// users.
type AchievementDefinition struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Points int    `json:"points"`
	Icon   string `json:"icon"`
}
