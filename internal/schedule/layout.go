package schedule

// Calendar geometry for the hour-indexed roster grid. Pure functions of
// the scheduled window; layout never fails, malformed windows are a
// data-validation problem at the ingestion boundary.

// WidthPercent is the visit's width relative to one hour column. A visit
// spanning multiple hours yields more than 100 and overflows its start
// column visually.
func WidthPercent(w Window) float64 {
	return w.Duration().Minutes() / 60 * 100
}

// LeftOffsetPercent is the offset inside the start hour column.
func LeftOffsetPercent(w Window) float64 {
	return float64(w.Start.Minute()) / 60 * 100
}

// HourBucket is the hour column the visit is rendered in. Multi-hour
// visits belong only to their start bucket.
func HourBucket(w Window) int {
	return w.Start.Hour()
}
