package mailer

import (
	"bytes"
	"html/template"
)

const VerifyEmailSubject = "Verify Your Email - Faith & Fast"

var verifyEmailTmpl = template.Must(template.New("verify-email").Parse(`<div>
  <p>Dear {{.Name}},</p>
  <p>Thank you for registering with Faith &amp; Fast.</p>
  <p>Please confirm your email address within the next hour:</p>
  <a href="{{.URL}}" style="color:white;background:#071263;margin-top:10px;padding:20px;display:block">Verify Email</a>
  <p>If you did not create an account, you can ignore this message.</p>
</div>
`))

// RenderVerifyEmail renders the body of the verification email.
func RenderVerifyEmail(name, url string) (string, error) {
	var b bytes.Buffer
	err := verifyEmailTmpl.Execute(&b, struct {
		Name string
		URL  string
	}{Name: name, URL: url})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
