package domain

// Request types understood by the recording control service.
const (
	RequestStartRecord = "StartRecord"
	RequestStopRecord  = "StopRecord"
)

type RequestStatus struct {
	Result  bool
	Code    int
	Comment string
}

// ControlResponse is the correlated reply to one control request.
type ControlResponse struct {
	RequestType string
	RequestID   string
	Status      RequestStatus
	Data        map[string]any
}

// OutputPath is the recorded file reported by a successful stop, or "".
func (r ControlResponse) OutputPath() string {
	s, _ := r.Data["outputPath"].(string)
	return s
}
