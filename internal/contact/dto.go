package contact

// SubmitRequest is a contact form submission.
type SubmitRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// SubmitResponse acknowledges a queued submission.
type SubmitResponse struct {
	Status string `json:"status"`
}
