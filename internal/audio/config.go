package audio

import "time"

// GetWakeCeiling returns the current wake ceiling from centralized config.
func GetWakeCeiling() time.Duration {
	return GetConfig().WakeCeiling
}

// SetWakeCeiling sets the wake ceiling in centralized config.
func SetWakeCeiling(d time.Duration) {
	config := GetConfig()
	config.WakeCeiling = d
	UpdateConfig(config)
}
