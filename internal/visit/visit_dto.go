package visit

// ClockRequest is the body of both clock-in and clock-out calls. Type
// carries the client's own classification hint; the server reclassifies
// from the effective timestamp and ignores a mismatching hint.
type ClockRequest struct {
	Type      string  `json:"type,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	Comments  *string `json:"comments,omitempty"`
	Timestamp *string `json:"timestamp,omitempty"` // RFC3339, defaults to server time
}

type AssignRequest struct {
	CarerID   string `json:"carerId" binding:"required"`
	Propagate bool   `json:"propagate"`
}

type AssignBatchRequest struct {
	CarerIDs  []string `json:"carerIds" binding:"required"`
	Propagate bool     `json:"propagate"`
}

type AssigneeResponse struct {
	CarerID  string   `json:"carerId"`
	Position int      `json:"position"`
	Distance *float64 `json:"distance,omitempty"`
}

type TaskSummaryResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// LayoutResponse carries the hour-grid geometry for a visit so every
// client renders the roster identically.
type LayoutResponse struct {
	WidthPercent      float64 `json:"widthPercent"`
	LeftOffsetPercent float64 `json:"leftOffsetPercent"`
	HourBucket        int     `json:"hourBucket"`
}

type VisitResponse struct {
	ID         string                `json:"id"`
	ClientID   string                `json:"client_id"`
	ClientName string                `json:"client_name,omitempty"`
	StartDate  string                `json:"startDate"`
	EndDate    string                `json:"endDate"`
	CareType   string                `json:"careType"`
	Status     string                `json:"status"`
	State      string                `json:"state"`
	Assignees  []AssigneeResponse    `json:"assignees"`
	Tasks      []TaskSummaryResponse `json:"tasks"`
	ClockInAt  *string               `json:"clockInAt,omitempty"`
	ClockOutAt *string               `json:"clockOutAt,omitempty"`

	Progress       float64        `json:"progress"`
	StatusLabel    string         `json:"statusLabel"`
	SecondaryLabel string         `json:"secondaryLabel"`
	Lateness       string         `json:"lateness,omitempty"`
	ExtraTime      string         `json:"extraTime,omitempty"`
	OffTime        string         `json:"offTime,omitempty"`
	WorkTime       string         `json:"workTime,omitempty"`
	Layout         LayoutResponse `json:"layout"`
}
