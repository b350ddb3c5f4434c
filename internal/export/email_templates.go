package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const (
	OTPSubject            = "AI Resume Bot - Password Reset OTP"
	feedbackSubjectPrefix = "AI Resume Analysis Report - "
)

var otpEmailTmpl = template.Must(template.New("otp").Parse(`<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 20px; text-align: center; color: white;">
    <h1>AI Resume Bot</h1>
    <h2>Password Reset Request</h2>
  </div>
  <div style="padding: 20px; background: #f9f9f9;">
    <p>Hello,</p>
    <p>You have requested to reset your password. Please use the following OTP to proceed:</p>
    <div style="background: white; padding: 20px; text-align: center; border-radius: 10px; margin: 20px 0;">
      <h1 style="color: #667eea; font-size: 36px; letter-spacing: 10px; margin: 0;">{{.Code}}</h1>
    </div>
    <p><strong>This OTP is valid for {{.Minutes}} minutes only.</strong></p>
    <p>If you didn't request this password reset, please ignore this email.</p>
    <hr style="margin: 20px 0;">
    <p style="color: #666; font-size: 12px;">This is an automated email from AI Resume Bot. Please do not reply.</p>
  </div>
</body>
</html>`))

var feedbackEmailTmpl = template.Must(template.New("feedback").Parse(`<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 20px; text-align: center; color: white;">
    <h1>AI Resume Bot</h1>
    <h2>Resume Analysis Report</h2>
  </div>
  <div style="padding: 20px; background: #f9f9f9;">
    <h3>File: {{.Filename}}</h3>
    <h3>Target Role: {{.TargetRole}}</h3>
    <div style="background: white; padding: 20px; border-radius: 10px; text-align: center; margin: 20px 0;">
      <h2 style="color: #667eea;">Resume Score: {{.Score}}/100</h2>
      <div style="background: #e0e0e0; border-radius: 10px; height: 20px; margin: 10px 0;">
        <div style="background: {{.Color}}; width: {{.Score}}%; height: 100%; border-radius: 10px;"></div>
      </div>
    </div>
    <div style="background: white; padding: 20px; border-radius: 10px;">
      <h3>AI Feedback:</h3>
      <div style="white-space: pre-line;">{{.Feedback}}</div>
    </div>
    <hr style="margin: 20px 0;">
    <p style="color: #666; font-size: 12px;">Generated by AI Resume Bot. Keep improving your resume!</p>
  </div>
</body>
</html>`))

// ScoreColor returns the band color used for a score bar.
func ScoreColor(score int) string {
	switch {
	case score >= 85:
		return "#44ff44"
	case score >= 70:
		return "#ffaa00"
	default:
		return "#ff4444"
	}
}

// RenderOTPEmail builds the password reset message body.
func RenderOTPEmail(to, code string, ttl time.Duration) (Message, error) {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	var buf bytes.Buffer
	err := otpEmailTmpl.Execute(&buf, struct {
		Code    string
		Minutes int
	}{code, minutes})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render otp email: %w", err)
	}
	return Message{To: to, Subject: OTPSubject, HTML: buf.String()}, nil
}

// RenderFeedbackEmail builds the analysis report message.
func RenderFeedbackEmail(to, filename, targetRole, feedback string, score int) (Message, error) {
	var buf bytes.Buffer
	err := feedbackEmailTmpl.Execute(&buf, struct {
		Filename   string
		TargetRole string
		Feedback   string
		Score      int
		Color      template.CSS
	}{filename, targetRole, feedback, score, template.CSS(ScoreColor(score))})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render feedback email: %w", err)
	}
	return Message{To: to, Subject: feedbackSubjectPrefix + filename, HTML: buf.String()}, nil
}
