package timer

// Reporter receives progress side effects. Calls are fire-and-forget: the
// machine never waits on them and never learns whether they succeeded.
type Reporter interface {
	ReportExerciseProgress(sessionID, exerciseID int64, completedSets int)
	ReportSessionComplete(sessionID int64)
}

// NopReporter discards all reports.
type NopReporter struct{}

func (NopReporter) ReportExerciseProgress(int64, int64, int) {}
func (NopReporter) ReportSessionComplete(int64)              {}
