package model

// WeeklyStat summarises one protocol over the two most recent 7-day windows.
// Changes and market shares are percentages.
type WeeklyStat struct {
	Protocol          string  `json:"protocol"`
	VolumeChange      float64 `json:"volume_change"`
	UsersChange       float64 `json:"users_change"`
	TradesChange      float64 `json:"trades_change"`
	FeesChange        float64 `json:"fees_change"`
	Volume            float64 `json:"volume"`
	Users             float64 `json:"users"`
	NewUsers          float64 `json:"new_users"`
	Trades            float64 `json:"trades"`
	Fees              float64 `json:"fees"`
	MarketShareVolume float64 `json:"market_share_volume"`
	MarketShareUsers  float64 `json:"market_share_users"`
}
