package indicators

import "pairsight/internal/models"

// VolumeAnalysis compares the current bar's volume to the trailing 20-bar
// average. A zero average (no volume data) defaults the ratio to 1.0 rather
// than dividing by zero. Status is high above 1.5, low below 0.7.
func (a *Analyzer) VolumeAnalysis() models.VolumeAnalysis {
	n := len(a.volumes)
	window := a.volumes
	if n > 20 {
		window = a.volumes[n-20:]
	}
	avg := mean(window)
	current := a.volumes[n-1]

	ratio := 1.0
	if avg > 0 {
		ratio = finiteOr(current/avg, 1.0)
	}

	status := models.VolumeLow
	if ratio > 1.5 {
		status = models.VolumeHigh
	} else if ratio > 0.7 {
		status = models.VolumeNormal
	}

	return models.VolumeAnalysis{
		Current: int64(current),
		Average: int64(avg),
		Ratio:   roundTo(ratio, 2),
		Status:  status,
	}
}
