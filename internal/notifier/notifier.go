// Package notifier builds and sends onboarding verification email.
package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/smallbiznis/scholaris/internal/config"
	"github.com/smallbiznis/scholaris/internal/providers/email"
	tenantdomain "github.com/smallbiznis/scholaris/internal/tenant/domain"
	"go.uber.org/zap"
)

var verifyTmpl = template.Must(template.New("verify_email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2 style="color: {{.PrimaryColor}};">Welcome to {{.SchoolName}}</h2>
  <p>Your school workspace is ready. Confirm your email address to finish setting up your account.</p>
  <p>
    <a href="{{.VerifyURL}}" style="background: {{.PrimaryColor}}; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">
      Verify Email
    </a>
  </p>
  <p>This link expires in {{.TTLHours}} hours. If you did not create this workspace, you can ignore this email.</p>
</body>
</html>`))

// Notifier signs verification links and delivers them through the email
// provider.
type Notifier struct {
	provider email.Provider
	appURL   string
	secret   []byte
	ttl      time.Duration
	log      *zap.Logger
}

// New builds the notifier from configuration.
func New(cfg config.Config, provider email.Provider, log *zap.Logger) *Notifier {
	return &Notifier{
		provider: provider,
		appURL:   cfg.AppURL,
		secret:   []byte(cfg.Onboarding.VerifySecret),
		ttl:      cfg.Onboarding.VerifyLinkTTL,
		log:      log.Named("notifier"),
	}
}

// SendVerification emails the tenant owner a signed verification link.
func (n *Notifier) SendVerification(ctx context.Context, tenant *tenantdomain.Tenant) error {
	verifyURL := n.VerificationURL(tenant.VerificationToken, time.Now().Add(n.ttl))

	var body bytes.Buffer
	err := verifyTmpl.Execute(&body, map[string]any{
		"SchoolName":   tenant.Name,
		"PrimaryColor": tenant.PrimaryColor,
		"VerifyURL":    verifyURL,
		"TTLHours":     int(n.ttl.Hours()),
	})
	if err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}

	subject := fmt.Sprintf("Verify your email for %s", tenant.Name)
	if err := n.provider.Send(ctx, []string{tenant.OwnerEmail}, subject, body.String()); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	n.log.Info("verification email sent", zap.String("tenant_id", tenant.ID.String()))
	return nil
}

// VerificationURL builds the signed link for a token and expiry.
func (n *Notifier) VerificationURL(token string, expires time.Time) string {
	exp := strconv.FormatInt(expires.Unix(), 10)
	q := url.Values{}
	q.Set("token", token)
	q.Set("expires", exp)
	q.Set("sig", n.sign(token, exp))
	return n.appURL + "/verify-email?" + q.Encode()
}

// VerifySignature checks a link's signature and expiry.
func (n *Notifier) VerifySignature(token, expires, sig string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return false
	}
	expected := n.sign(token, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (n *Notifier) sign(token, expires string) string {
	mac := hmac.New(sha256.New, n.secret)
	mac.Write([]byte(token + "|" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}
