package service

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/models"
)

const (
	defaultWhatsAppText = "Halo, saya ingin menjadwalkan sesi konsultasi."
	defaultEmailSubject = "Konsultasi BK"
	defaultEmailBody    = "Halo BK, saya ingin berkonsultasi."
)

var (
	nonDigits       = regexp.MustCompile(`\D`)
	leadingZeroCode = regexp.MustCompile(`^620+`)
)

type settingReader interface {
	Values(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
}

// ConsultationService builds the contact links shown on the consultation page.
type ConsultationService struct {
	settings settingReader
	logger   *zap.Logger
}

// NewConsultationService constructs a ConsultationService.
func NewConsultationService(settings settingReader, logger *zap.Logger) *ConsultationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsultationService{settings: settings, logger: logger}
}

// Links resolves the WhatsApp and Gmail links. A settings failure falls back to
// defaults so the page still renders.
func (s *ConsultationService) Links(ctx context.Context) dto.ConsultationLinks {
	wa := models.WhatsAppSetting{DefaultText: defaultWhatsAppText}
	mail := models.EmailSetting{Subject: defaultEmailSubject, Body: defaultEmailBody}

	values, err := s.settings.Values(ctx, models.SettingConsultWhatsApp, models.SettingConsultEmail)
	if err != nil {
		s.logger.Warn("consultation settings unavailable, using defaults", zap.Error(err))
	}
	if raw, ok := values[models.SettingConsultWhatsApp]; ok {
		var stored models.WhatsAppSetting
		if err := json.Unmarshal(raw, &stored); err == nil {
			wa.Number = stored.Number
			if strings.TrimSpace(stored.DefaultText) != "" {
				wa.DefaultText = stored.DefaultText
			}
		}
	}
	if raw, ok := values[models.SettingConsultEmail]; ok {
		var stored models.EmailSetting
		if err := json.Unmarshal(raw, &stored); err == nil {
			mail.To = strings.TrimSpace(stored.To)
			if strings.TrimSpace(stored.Subject) != "" {
				mail.Subject = stored.Subject
			}
			if strings.TrimSpace(stored.Body) != "" {
				mail.Body = stored.Body
			}
		}
	}

	phone := NormalizePhone(wa.Number)
	return dto.ConsultationLinks{
		WhatsAppURL: WhatsAppURL(phone, wa.DefaultText),
		EmailURL:    GmailComposeURL(mail.To, mail.Subject, mail.Body),
		Phone:       phone,
		Email:       mail.To,
	}
}

// NormalizePhone keeps digits only and rewrites a local 0 prefix to the 62 country code.
func NormalizePhone(raw string) string {
	n := nonDigits.ReplaceAllString(raw, "")
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "0") {
		n = "62" + n[1:]
	}
	return leadingZeroCode.ReplaceAllString(n, "62")
}

// WhatsAppURL returns an empty string when no number is configured.
func WhatsAppURL(phone, text string) string {
	if phone == "" {
		return ""
	}
	return "https://wa.me/" + phone + "?text=" + encodeComponent(text)
}

// GmailComposeURL returns an empty string when no recipient is configured.
func GmailComposeURL(to, subject, body string) string {
	if to == "" {
		return ""
	}
	return "https://mail.google.com/mail/?view=cm&fs=1&to=" + encodeComponent(to) +
		"&su=" + encodeComponent(subject) + "&body=" + encodeComponent(body)
}

// encodeComponent escapes like a URI component: spaces become %20, not "+".
func encodeComponent(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
