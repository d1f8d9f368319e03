package reporting

// CallsSummary aggregates the calls currently held by the tracker.
type CallsSummary struct {
	TotalCalls      int `json:"total_calls"`
	InitiatedCalls  int `json:"initiated_calls"`
	InProgressCalls int `json:"in_progress_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	EndedCalls      int `json:"ended_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	// CompletionRate is completed / terminal; 0 when nothing has finished.
	CompletionRate float64 `json:"completion_rate"`
}
