package models

// DetectionResult is the canonical outcome of one inference call. It is
// created once by the resolver and never mutated afterwards; corrections
// happen by creating a new result or deleting the persisted record.
type DetectionResult struct {
	ID            int64    `json:"id,omitempty"`
	Disease       string   `json:"disease"`
	Confidence    float64  `json:"confidence"`
	Severity      string   `json:"severity"`
	LesionCount   int      `json:"lesion_count"`
	Description   string   `json:"description"`
	Symptoms      []string `json:"symptoms"`
	Treatment     []string `json:"treatment"`
	Prevention    []string `json:"prevention"`
	OriginalImage string   `json:"original_image"`
	ResultImage   string   `json:"result_image"`
	Timestamp     string   `json:"timestamp"`
}

// FeedbackRequest is the payload for rating a past detection.
type FeedbackRequest struct {
	DetectionID int64  `json:"detection_id" binding:"required"`
	Rating      int    `json:"rating" binding:"required"`
	Comments    string `json:"comments"`
}

// ForumPost represents a community forum entry.
type ForumPost struct {
	ID        int64  `json:"id"`
	User      string `json:"user" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Content   string `json:"content" binding:"required"`
	CreatedAt string `json:"created_at"`
}

// ChatRequest is a question for the offline assistant.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse is the assistant's answer.
type ChatResponse struct {
	Reply string `json:"reply"`
}
