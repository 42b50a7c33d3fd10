package task

type UpdateTaskRequest struct {
	Status          string  `json:"status" binding:"required"`
	AdditionalNotes *string `json:"additionalNotes,omitempty"`
}

type TaskResponse struct {
	ID              string  `json:"id"`
	VisitID         string  `json:"visitId"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	RiskCategory    string  `json:"riskCategory,omitempty"`
	Frequency       string  `json:"frequency,omitempty"`
	Status          string  `json:"status"`
	AdditionalNotes *string `json:"additionalNotes,omitempty"`
	CompletedAt     *string `json:"completedAt,omitempty"`
}
