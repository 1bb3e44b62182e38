package models

// AutoPostStatus is the state of the scheduled-posting panel.
type AutoPostStatus string

const (
	AutoPostRunning AutoPostStatus = "RUNNING"
	AutoPostStopped AutoPostStatus = "STOPPED"
)

// AutoPostConfig holds the scheduled-posting settings. The posting itself
// runs remotely; only the control state lives here.
type AutoPostConfig struct {
	Caption   string `db:"caption" json:"caption"`
	Interval  int    `db:"interval" json:"interval"` // seconds between posts, 10..3600
	StartTime string `db:"start_time" json:"startTime"`
	EndTime   string `db:"end_time" json:"endTime"`
	GroupLink string `db:"group_link" json:"groupLink"`
}

// TableName returns the table name for AutoPostConfig.
func (AutoPostConfig) TableName() string {
	return "autopost"
}
