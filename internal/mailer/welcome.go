package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

// WelcomeMailer sends the one-off signup welcome email. It is separate from
// the recurring WhatsApp gateway and invoked once per signup.
type WelcomeMailer interface {
	SendWelcome(email, name string, goals, times []string, phone string) error
}

// SendWelcome renders the welcome template and emails it to the new user.
func (m *Mailer) SendWelcome(email, name string, goals, times []string, phone string) error {
	body, err := renderWelcomeHTML(name, goals, times, phone)
	if err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}

	subject := fmt.Sprintf("Welcome to LockedIn, %s! Your Goals Await 🎯", name)
	return m.SendHTML(email, subject, body)
}

type welcomeData struct {
	Name          string
	Goals         []string
	ReminderTimes []string
	Phone         string
}

func renderWelcomeHTML(name string, goals, times []string, phone string) (string, error) {
	var sb strings.Builder
	err := welcomeTemplate.Execute(&sb, welcomeData{
		Name:          name,
		Goals:         goals,
		ReminderTimes: times,
		Phone:         phone,
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Welcome to LockedIn</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
        <h1 style="color: white; margin: 0; font-size: 28px;">🔒 Welcome to LockedIn!</h1>
        <p style="color: white; margin: 10px 0 0 0; font-size: 16px;">Your AI-Powered Goal Reminder App</p>
    </div>

    <div style="background: white; padding: 30px; border: 1px solid #ddd; border-top: none;">
        <h2 style="color: #333; margin-top: 0;">Hello {{.Name}}!</h2>
        <p>Thank you for joining LockedIn. We're excited to help you achieve your goals! 🎯</p>

        <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
            <h3 style="color: #667eea; margin-top: 0;">🎯 Your Selected Goals:</h3>
            <ul style="margin: 10px 0; padding-left: 20px;">
                {{range .Goals}}<li style="margin: 5px 0; color: #333;">{{.}}</li>{{end}}
            </ul>
        </div>

        <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
            <h3 style="color: #667eea; margin-top: 0;">⏰ Your Reminder Times (GMT+1):</h3>
            <ul style="margin: 10px 0; padding-left: 20px;">
                {{range .ReminderTimes}}<li style="margin: 5px 0; color: #333;">{{.}}</li>{{end}}
            </ul>
        </div>

        <div style="background: #e8f4fd; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #667eea;">
            <h3 style="color: #667eea; margin-top: 0;">📱 Phone Number Confirmation</h3>
            <p style="margin: 0;">We've registered your phone number: <strong>{{.Phone}}</strong></p>
            <p style="margin: 10px 0 0 0; font-size: 14px; color: #666;">You'll receive WhatsApp reminders at your scheduled times starting tomorrow!</p>
        </div>

        <div style="background: #fff3cd; padding: 15px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #ffc107;">
            <p style="margin: 0; font-size: 14px; color: #856404;">
                <strong>Important:</strong> Make sure to join our WhatsApp sandbox by sending "join" to +14155238886 on WhatsApp to receive your daily reminders.
            </p>
        </div>

        <p style="color: #666; font-size: 14px; margin-top: 30px; text-align: center;">
            Need help? Visit our dashboard to update your reminder times anytime!
        </p>
    </div>

    <div style="background: #f8f9fa; padding: 20px; text-align: center; border-radius: 0 0 10px 10px; border: 1px solid #ddd; border-top: none;">
        <p style="margin: 0; color: #666; font-size: 12px;">
            © 2024 LockedIn. All rights reserved. Stay focused, stay locked in! 🔒
        </p>
    </div>
</body>
</html>
`))
