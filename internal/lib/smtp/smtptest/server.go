// Package smtptest поднимает минимальный SMTP сервер на localhost для тестов.
package smtptest

import (
	"bufio"
	"net"
	"strings"
	"sync"
)

// Message письмо, принятое сервером.
type Message struct {
	From string
	To   []string
	Data string
}

// Server фейковый SMTP релей. Поддерживает EHLO, AUTH PLAIN, MAIL, RCPT, DATA, QUIT.
type Server struct {
	rejectAuth bool
	rejectRcpt bool
	noAuth     bool

	ln       net.Listener
	mu       sync.Mutex
	messages []Message
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// Option настраивает поведение сервера.
type Option func(*Server)

// WithRejectAuth заставляет сервер отвечать 535 на AUTH.
func WithRejectAuth() Option {
	return func(s *Server) { s.rejectAuth = true }
}

// WithoutAuth убирает AUTH из ответа на EHLO.
func WithoutAuth() Option {
	return func(s *Server) { s.noAuth = true }
}

// WithRejectRcpt заставляет сервер отвечать 550 на RCPT.
func WithRejectRcpt() Option {
	return func(s *Server) { s.rejectRcpt = true }
}

// NewServer запускает сервер на случайном порту 127.0.0.1.
func NewServer(opts ...Option) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln, conns: make(map[net.Conn]struct{})}
	for _, opt := range opts {
		opt(s)
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

// Host адрес хоста сервера.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.ln.Addr().String())
	return host
}

// Port порт сервера.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Messages возвращает копию принятых писем.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Close останавливает сервер и обрывает открытые соединения.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	reply := func(line string) {
		_, _ = w.WriteString(line + "\r\n")
		_ = w.Flush()
	}

	reply("220 smtptest ESMTP ready")

	var msg Message
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		cmd := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			reply("250-smtptest")
			if !s.noAuth {
				reply("250-AUTH PLAIN")
			}
			reply("250 8BITMIME")
		case strings.HasPrefix(cmd, "AUTH"):
			if s.rejectAuth {
				reply("535 5.7.8 Authentication credentials invalid")
				continue
			}
			reply("235 2.7.0 Authentication successful")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			msg = Message{From: extractAddr(line)}
			reply("250 2.1.0 Ok")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			if s.rejectRcpt {
				reply("550 5.1.1 Recipient address rejected")
				continue
			}
			msg.To = append(msg.To, extractAddr(line))
			reply("250 2.1.5 Ok")
		case cmd == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var sb strings.Builder
			for {
				dl, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if dl == ".\r\n" {
					break
				}
				sb.WriteString(dl)
			}
			msg.Data = sb.String()
			s.mu.Lock()
			s.messages = append(s.messages, msg)
			s.mu.Unlock()
			reply("250 2.0.0 Ok: queued")
		case cmd == "QUIT":
			reply("221 2.0.0 Bye")
			return
		case cmd == "RSET", cmd == "NOOP":
			reply("250 2.0.0 Ok")
		default:
			reply("502 5.5.2 Command not recognized")
		}
	}
}

func extractAddr(line string) string {
	start := strings.Index(line, "<")
	end := strings.Index(line, ">")
	if start < 0 || end < start {
		return ""
	}
	return line[start+1 : end]
}
