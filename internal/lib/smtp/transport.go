package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/magabrotheeeer/subscription-plans/internal/config"
	"github.com/magabrotheeeer/subscription-plans/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// ErrNotConfigured у транспорта нет хоста или учётных данных.
var ErrNotConfigured = errors.New("smtp relay is not configured")

// ErrAuthNotSupported релей не объявил расширение AUTH, а учётные данные заданы.
var ErrAuthNotSupported = errors.New("smtp server does not support AUTH")

var _ TransportInterface = (*Transport)(nil)

// Transport реализует SMTP транспорт для отправки писем.
// При Secure соединение сразу открывается по TLS (обычно порт 465),
// иначе используется STARTTLS, если сервер его поддерживает.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// smtpClientWrapper обертка для *smtp.Client, реализующая интерфейс Client.
type smtpClientWrapper struct {
	client *smtp.Client
}

func (w *smtpClientWrapper) Mail(from string) error {
	return w.client.Mail(from)
}

func (w *smtpClientWrapper) Rcpt(to string) error {
	return w.client.Rcpt(to)
}

func (w *smtpClientWrapper) Data() (io.WriteCloser, error) {
	return w.client.Data()
}

func (w *smtpClientWrapper) Quit() error {
	return w.client.Quit()
}

func (w *smtpClientWrapper) Close() error {
	return w.client.Close()
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Addr адрес релея в виде host:port.
func (t *Transport) Addr() string {
	return net.JoinHostPort(t.cfg.SMTPHost, strconv.Itoa(t.cfg.SMTPPort))
}

// Host имя хоста релея.
func (t *Transport) Host() string {
	return t.cfg.SMTPHost
}

// Connect устанавливает соединение с SMTP сервером и проходит аутентификацию.
func (t *Transport) Connect(ctx context.Context) (Client, error) {
	const op = "smtp.Transport.Connect"

	if t.cfg.SMTPHost == "" || !t.cfg.Configured() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	tlsConfig := &tls.Config{
		ServerName: t.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := t.dial(ctx, tlsConfig)
	if err != nil {
		t.log.Error("failed to dial SMTP server", slog.String("addr", t.Addr()), sl.Err(err))
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		if closeErr := conn.Close(); closeErr != nil {
			t.log.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if !t.cfg.SMTPSecure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err = client.StartTLS(tlsConfig); err != nil {
				t.log.Error("failed to start TLS", sl.Err(err))
				t.closeClient(client)
				return nil, fmt.Errorf("failed to start TLS: %w", err)
			}
		} else {
			t.log.Warn("SMTP server does not support STARTTLS, continuing without TLS")
		}
	}

	if ok, _ := client.Extension("AUTH"); !ok {
		t.log.Error("smtp server does not advertise AUTH", slog.String("addr", t.Addr()))
		t.closeClient(client)
		return nil, fmt.Errorf("%s: %w", op, ErrAuthNotSupported)
	}

	auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)
	if err = client.Auth(auth); err != nil {
		t.log.Error("smtp auth failed", sl.Err(err))
		t.closeClient(client)
		return nil, fmt.Errorf("smtp auth failed: %w", err)
	}

	return &smtpClientWrapper{client: client}, nil
}

// GetSMTPUser возвращает имя пользователя SMTP.
func (t *Transport) GetSMTPUser() string {
	return t.cfg.SMTPUser
}

func (t *Transport) dial(ctx context.Context, tlsConfig *tls.Config) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	if t.cfg.SMTPSecure {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: tlsConfig}
		return tlsDialer.DialContext(ctx, "tcp", t.Addr())
	}
	return dialer.DialContext(ctx, "tcp", t.Addr())
}

func (t *Transport) closeClient(client *smtp.Client) {
	if closeErr := client.Close(); closeErr != nil {
		t.log.Error("failed to close client", sl.Err(closeErr))
	}
}
