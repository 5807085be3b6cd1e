package mailer

import (
	"bytes"
	"fmt"
	"text/template"
)

var (
	verificationTmpl = template.Must(template.New("verify").Parse(`Welcome to Kanah Health!

Please confirm your email address by opening the link below:

{{.Link}}

The link expires in {{.Expiry}}. If you did not create an account you can ignore this message.
`))

	recoveryTmpl = template.Must(template.New("recover").Parse(`We received a request to reset your Kanah Health password.

Open the link below to choose a new password:

{{.Link}}

The link expires in {{.Expiry}}. If you did not ask for this you can ignore this message.
`))
)

const (
	VerificationSubject = "Confirm your Kanah Health account"
	RecoverySubject     = "Reset your Kanah Health password"
)

type linkData struct {
	Link   string
	Expiry string
}

func VerificationBody(link, expiry string) (string, error) {
	return render(verificationTmpl, linkData{Link: link, Expiry: expiry})
}

func RecoveryBody(link, expiry string) (string, error) {
	return render(recoveryTmpl, linkData{Link: link, Expiry: expiry})
}

func render(t *template.Template, data linkData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
