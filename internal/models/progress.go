package models

// StatusSuccess is the status value the backend returns for a stored update.
const StatusSuccess = "success"

// SaveExerciseRequest is the body of POST /api/save-exercise/.
type SaveExerciseRequest struct {
	SessionID     int64 `json:"session_id"`
	ExerciseID    int64 `json:"exercise_id"`
	CompletedSets int   `json:"completed_sets"`
}

// StatusResponse is the envelope both progress endpoints answer with.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	LogID   *int64 `json:"log_id,omitempty"`
}

// OK reports whether the backend accepted the update.
func (r StatusResponse) OK() bool {
	return r.Status == StatusSuccess
}
