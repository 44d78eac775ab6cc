package mail

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/config"
)

// Message 一封待发送的邮件
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer 邮件发送接口
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer 按配置选择实现：sendgrid | console（默认）
func NewMailer(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.Provider == "sendgrid" && cfg.SendGridKey != "" {
		return NewSendGridMailer(cfg.SendGridKey, cfg.AppName, cfg.From)
	}
	return NewConsoleMailer(cfg.AppName, logger)
}

// ── Console ──

// ConsoleMailer 仅写日志，不真正发信（开发 / 测试）
type ConsoleMailer struct {
	subjPrefix string
	logger     *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewConsoleMailer 创建 ConsoleMailer
func NewConsoleMailer(appName string, logger *zap.Logger) *ConsoleMailer {
	return &ConsoleMailer{subjPrefix: "[" + appName + "] ", logger: logger}
}

func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	msg.Subject = m.subjPrefix + msg.Subject

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.Info("邮件（console）",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}

// Sent 返回已"发送"的邮件副本
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// ── SendGrid ──

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridMailer 通过 SendGrid v3 API 发信
type SendGridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

// NewSendGridMailer 创建 SendGridMailer
func NewSendGridMailer(key, appName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	req := sendgrid.GetRequest(m.key, sendGridEndpoint, sendGridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("SendGrid 请求失败: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("SendGrid 返回 %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
