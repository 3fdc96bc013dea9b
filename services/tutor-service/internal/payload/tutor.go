package payload

type TutorRequest struct {
	Topic string `json:"topic" validate:"required"`
}

type TutorResponse struct {
	Response string `json:"response"`
	User     string `json:"user"`
}

type UploadResponse struct {
	Response string `json:"response"`
	Filename string `json:"filename"`
	User     string `json:"user"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
