package dto

// NewsletterCustomField is a name/value pair forwarded to the email
// marketing provider.
type NewsletterCustomField struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// SubscribeRequest is the inbound body for newsletter signup.
type SubscribeRequest struct {
	Email        string                  `json:"email" validate:"required,email"`
	Source       string                  `json:"source,omitempty"`
	SignupDate   string                  `json:"signupDate,omitempty"`
	CustomFields []NewsletterCustomField `json:"customFields,omitempty" validate:"omitempty,dive"`
}

// SubscribeResponse is the payload under the success envelope.
type SubscribeResponse struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}
