/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/configguard/pkg/config"
	"github.com/carverauto/configguard/pkg/logger"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/net/proxy"
)

const (
	terminalType   = "vt100"
	terminalWidth  = 511
	terminalHeight = 24
	readBufferSize = 4096
)

var (
	// any hostname-like token ending in > or # at the very end of the output
	anyPrompt      = regexp.MustCompile(`(?:^|\n)([\w.\-/:@]+)(?:\([^)\n]*\))?[>#][ \t]*\z`)
	passwordPrompt = regexp.MustCompile(`(?i)password:[ \t]*\z`)
)

// SSHClient drives an IOS-style interactive shell over SSH. It is not safe
// for concurrent use.
type SSHClient struct {
	target          Target
	timeout         time.Duration
	commandTimeout  time.Duration
	hostKeyCallback ssh.HostKeyCallback
	dialer          proxy.ContextDialer
	logger          zerolog.Logger

	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	chunks  chan []byte
	done    chan struct{}
	pending bytes.Buffer
	prompt  *regexp.Regexp

	privileged bool
}

// NewSSHFactory returns a Factory building SSH clients with the given
// transport settings. Host keys are checked against cfg.KnownHostsFile when
// it is set and accepted unconditionally otherwise.
func NewSSHFactory(cfg config.SSHConfig, log logger.Logger) (Factory, error) {
	callback := ssh.InsecureIgnoreHostKey() //nolint:gosec // verification is opt-in through known_hosts_file

	if cfg.KnownHostsFile != "" {
		var err error

		callback, err = knownhosts.New(cfg.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts %s: %w", cfg.KnownHostsFile, err)
		}
	} else {
		log.Debug().Msg("No known_hosts file configured, host keys will not be verified")
	}

	dialer, err := newDialer(cfg)
	if err != nil {
		return nil, err
	}

	return func(target Target) Client {
		client := NewSSHClient(target, cfg, callback, log)
		client.dialer = dialer

		return client
	}, nil
}

// newDialer returns a direct dialer, or one tunnelling through
// cfg.SOCKSProxy when it is set.
func newDialer(cfg config.SSHConfig) (proxy.ContextDialer, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultSSHTimeout
	}

	direct := &net.Dialer{Timeout: timeout}

	if cfg.SOCKSProxy == "" {
		return direct, nil
	}

	d, err := proxy.SOCKS5("tcp", cfg.SOCKSProxy, nil, direct)
	if err != nil {
		return nil, fmt.Errorf("failed to configure SOCKS proxy %s: %w", cfg.SOCKSProxy, err)
	}

	contextDialer, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("%w: SOCKS proxy %s does not support cancellation", ErrSession, cfg.SOCKSProxy)
	}

	return contextDialer, nil
}

// NewSSHClient creates an unconnected client.
func NewSSHClient(target Target, cfg config.SSHConfig, hostKeyCallback ssh.HostKeyCallback, log logger.Logger) *SSHClient {
	if target.Port == 0 {
		target.Port = cfg.Port
	}

	if target.Port == 0 {
		target.Port = config.DefaultSSHPort
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultSSHTimeout
	}

	commandTimeout := cfg.CommandTimeout
	if commandTimeout <= 0 {
		commandTimeout = config.DefaultCommandTimeout
	}

	return &SSHClient{
		target:          target,
		timeout:         timeout,
		commandTimeout:  commandTimeout,
		hostKeyCallback: hostKeyCallback,
		dialer:          &net.Dialer{Timeout: timeout},
		logger:          log.With().Str("host", target.Host).Logger(),
	}
}

func (c *SSHClient) address() string {
	return net.JoinHostPort(c.target.Host, strconv.Itoa(c.target.Port))
}

// Connect dials the device, authenticates, opens a shell and waits for the
// first prompt. Paging is disabled before returning.
func (c *SSHClient) Connect(ctx context.Context) error {
	if c.client != nil {
		return fmt.Errorf("%w: %s: already connected", ErrSession, c.address())
	}

	addr := c.address()
	deadline := time.Now().Add(c.timeout)

	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return classifyConnectError(addr, err, deadline)
	}

	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()

		return fmt.Errorf("%w: %s: %w", ErrSession, addr, err)
	}

	password := c.target.Password
	clientConfig := &ssh.ClientConfig{
		User: c.target.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}

				return answers, nil
			}),
		},
		HostKeyCallback: c.hostKeyCallback,
		Timeout:         c.timeout,
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()

		return classifyConnectError(addr, err, deadline)
	}

	// the handshake deadline must not cut long running commands short
	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = sshConn.Close()

		return fmt.Errorf("%w: %s: %w", ErrSession, addr, err)
	}

	c.client = ssh.NewClient(sshConn, chans, reqs)

	if err := c.openShell(); err != nil {
		_ = c.Disconnect()

		return err
	}

	banner, err := c.readUntil(ctx, c.timeout, anyPrompt.MatchString)
	if err != nil {
		_ = c.Disconnect()

		return err
	}

	hostname := anyPrompt.FindStringSubmatch(banner)[1]
	c.prompt = regexp.MustCompile(`(?:^|\n)` + regexp.QuoteMeta(hostname) + `(?:\([^)\n]*\))?([>#])[ \t]*\z`)
	c.privileged = strings.HasSuffix(strings.TrimRight(banner, " \t"), "#")

	c.logger.Debug().Str("prompt", hostname).Bool("privileged", c.privileged).Msg("Shell ready")

	if _, err := c.Execute(ctx, "terminal length 0"); err != nil {
		_ = c.Disconnect()

		return err
	}

	return nil
}

func (c *SSHClient) openShell() error {
	addr := c.address()

	session, err := c.client.NewSession()
	if err != nil {
		return fmt.Errorf("%w: %s: failed to open session: %w", ErrSession, addr, err)
	}

	c.session = session

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}

	if err := session.RequestPty(terminalType, terminalHeight, terminalWidth, modes); err != nil {
		return fmt.Errorf("%w: %s: pty request rejected: %w", ErrSession, addr, err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSession, addr, err)
	}

	stdout, err := session.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSession, addr, err)
	}

	if err := session.Shell(); err != nil {
		return fmt.Errorf("%w: %s: shell request rejected: %w", ErrSession, addr, err)
	}

	c.stdin = stdin
	c.chunks = make(chan []byte)
	c.done = make(chan struct{})

	go c.pump(stdout)

	return nil
}

// pump forwards shell output until the session ends or Disconnect is called.
func (c *SSHClient) pump(r io.Reader) {
	defer close(c.chunks)

	buf := make([]byte, readBufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			select {
			case c.chunks <- chunk:
			case <-c.done:
				return
			}
		}

		if err != nil {
			return
		}
	}
}

// readUntil accumulates output until match reports true on everything read
// since the previous call.
func (c *SSHClient) readUntil(ctx context.Context, timeout time.Duration, match func(string) bool) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if match(c.pending.String()) {
			out := c.pending.String()
			c.pending.Reset()

			return out, nil
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s: %w", ErrSession, c.address(), ctx.Err())
		case <-timer.C:
			return "", fmt.Errorf("%w: %s: no prompt after %s", ErrConnectTimeout, c.address(), timeout)
		case chunk, ok := <-c.chunks:
			if !ok {
				return "", fmt.Errorf("%w: %s: session closed by peer", ErrSession, c.address())
			}

			c.pending.Write(chunk)
		}
	}
}

func (c *SSHClient) send(line string) error {
	if _, err := io.WriteString(c.stdin, line+"\n"); err != nil {
		return fmt.Errorf("%w: %s: write failed: %w", ErrSession, c.address(), err)
	}

	return nil
}

// EnterPrivilegedMode runs enable and answers the password prompt with the
// enable secret. It is a no-op when the shell is already privileged.
func (c *SSHClient) EnterPrivilegedMode(ctx context.Context) error {
	if c.session == nil {
		return fmt.Errorf("%w: %w", ErrSession, errNotConnected)
	}

	if c.privileged {
		return nil
	}

	promptOrPassword := func(s string) bool {
		return passwordPrompt.MatchString(s) || c.prompt.MatchString(s)
	}

	if err := c.send("enable"); err != nil {
		return err
	}

	out, err := c.readUntil(ctx, c.commandTimeout, promptOrPassword)
	if err != nil {
		return err
	}

	if passwordPrompt.MatchString(out) {
		if err := c.send(c.target.EnableSecret); err != nil {
			return err
		}

		out, err = c.readUntil(ctx, c.commandTimeout, promptOrPassword)
		if err != nil {
			return err
		}

		if passwordPrompt.MatchString(out) {
			return fmt.Errorf("%w: %s: enable secret rejected", ErrAuthenticationFailed, c.address())
		}
	}

	if m := c.prompt.FindStringSubmatch(out); m == nil || m[1] != "#" {
		return fmt.Errorf("%w: %s: enable secret rejected", ErrAuthenticationFailed, c.address())
	}

	c.privileged = true

	c.logger.Debug().Msg("Entered privileged mode")

	return nil
}

// Execute runs one command and returns its output without the echoed
// command line and the trailing prompt. Line endings are normalized to \n.
func (c *SSHClient) Execute(ctx context.Context, command string) (string, error) {
	if c.session == nil {
		return "", fmt.Errorf("%w: %w", ErrSession, errNotConnected)
	}

	if err := c.send(command); err != nil {
		return "", err
	}

	out, err := c.readUntil(ctx, c.commandTimeout, c.prompt.MatchString)
	if err != nil {
		return "", err
	}

	return cleanOutput(out, command), nil
}

func cleanOutput(out, command string) string {
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\r", "")

	// trailing prompt
	if i := strings.LastIndex(out, "\n"); i >= 0 {
		out = out[:i+1]
	} else {
		return ""
	}

	// echoed command
	if first, rest, ok := strings.Cut(out, "\n"); ok && strings.TrimSpace(first) == strings.TrimSpace(command) {
		out = rest
	}

	return out
}

// Disconnect closes the shell and the connection. It is safe to call more
// than once and on a client that never connected.
func (c *SSHClient) Disconnect() error {
	if c.client == nil {
		return nil
	}

	if c.done != nil {
		close(c.done)
	}

	var errs []error

	if c.session != nil {
		if err := c.session.Close(); err != nil && !errors.Is(err, io.EOF) {
			errs = append(errs, err)
		}
	}

	if err := c.client.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = append(errs, err)
	}

	c.client = nil
	c.session = nil
	c.stdin = nil
	c.chunks = nil
	c.done = nil
	c.prompt = nil
	c.privileged = false
	c.pending.Reset()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %s: disconnect: %w", ErrSession, c.address(), err)
	}

	c.logger.Debug().Msg("Disconnected")

	return nil
}

func classifyConnectError(addr string, err error, deadline time.Time) error {
	var netErr net.Error

	switch {
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout(),
		!time.Now().Before(deadline):
		return fmt.Errorf("%w: %s: %w", ErrConnectTimeout, addr, err)
	case strings.Contains(err.Error(), "unable to authenticate"):
		return fmt.Errorf("%w: %s: %w", ErrAuthenticationFailed, addr, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrSession, addr, err)
	}
}
