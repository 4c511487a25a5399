package payload

import "github.com/Najnomics/lockedin-api/internal/model"

type SignUpRequest struct {
	Name          string   `json:"name"           validate:"required"`
	Email         string   `json:"email"          validate:"required,email"`
	Phone         string   `json:"phone"          validate:"required,e164"`
	Goals         []string `json:"goals"          validate:"required,min=1,dive,required"`
	ReminderTimes []string `json:"reminder_times" validate:"required,min=1,dive,required"`
	Timezone      string   `json:"timezone"`
}

type SignUpResponse struct {
	User             *model.User `json:"user"`
	WelcomeEmailSent bool        `json:"welcome_email_sent"`
	WelcomeEmailErr  string      `json:"welcome_email_error,omitempty"`
	JobsScheduled    int         `json:"jobs_scheduled"`
	SkippedPairs     []string    `json:"skipped_pairs,omitempty"`
	SchedulingErr    string      `json:"scheduling_error,omitempty"`
}

type UpdateReminderTimesRequest struct {
	Phone         string   `json:"phone"          validate:"required,e164"`
	ReminderTimes []string `json:"reminder_times" validate:"required,min=1,dive,required"`
}

type UpdateReminderTimesResponse struct {
	Message       string   `json:"message"`
	Status        string   `json:"status"`
	JobsScheduled int      `json:"jobs_scheduled"`
	SkippedPairs  []string `json:"skipped_pairs,omitempty"`
}

type SendTestMessageRequest struct {
	Phone   string `json:"phone"   validate:"required,e164"`
	Message string `json:"message" validate:"required"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
