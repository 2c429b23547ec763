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
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/carverauto/configguard/pkg/config"
	"github.com/carverauto/configguard/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var errBadPassword = errors.New("bad password")

const runningConfig = `Building configuration...

Current configuration : 1024 bytes
!
hostname router1
!
ip domain name example.com
!
end
`

// fakeDevice is a minimal IOS-like shell served over SSH.
type fakeDevice struct {
	hostname        string
	username        string
	password        string
	enable          string
	startPrivileged bool
	outputs         map[string]string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		hostname: "router1",
		username: "admin",
		password: "secret",
		enable:   "enable-secret",
		outputs: map[string]string{
			"terminal length 0":   "",
			"show running-config": runningConfig,
			"show ip domain":      "example.com\n",
		},
	}
}

// start serves the device on a loopback port and returns the port and host key.
func (d *fakeDevice) start(t *testing.T) (int, ssh.PublicKey) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	serverConfig := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if meta.User() == d.username && string(password) == d.password {
				return nil, nil
			}

			return nil, errBadPassword
		},
	}
	serverConfig.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go d.serve(conn, serverConfig)
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, signer.PublicKey()
}

func (d *fakeDevice) serve(conn net.Conn, serverConfig *ssh.ServerConfig) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, serverConfig)
	if err != nil {
		_ = conn.Close()

		return
	}
	defer sconn.Close()

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")

			continue
		}

		channel, requests, err := newChannel.Accept()
		if err != nil {
			return
		}

		go func() {
			for req := range requests {
				switch req.Type {
				case "pty-req":
					_ = req.Reply(true, nil)
				case "shell":
					_ = req.Reply(true, nil)

					go d.shell(channel)
				default:
					_ = req.Reply(false, nil)
				}
			}
		}()
	}
}

func (d *fakeDevice) shell(channel ssh.Channel) {
	defer channel.Close()

	privileged := d.startPrivileged
	prompt := func() string {
		if privileged {
			return d.hostname + "#"
		}

		return d.hostname + ">"
	}

	_, _ = fmt.Fprintf(channel, "\r\nUnauthorized access is prohibited\r\n\r\n%s", prompt())

	r := bufio.NewReader(channel)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}

		command := strings.TrimRight(line, "\r\n")
		_, _ = fmt.Fprintf(channel, "%s\r\n", command)

		switch command {
		case "exit":
			return
		case "enable":
			if !privileged {
				_, _ = io.WriteString(channel, "Password: ")

				secret, err := r.ReadString('\n')
				if err != nil {
					return
				}

				_, _ = io.WriteString(channel, "\r\n")

				if strings.TrimRight(secret, "\r\n") == d.enable {
					privileged = true
				} else {
					_, _ = io.WriteString(channel, "% Bad secrets\r\n\r\n")
				}
			}
		default:
			if out, ok := d.outputs[command]; ok {
				_, _ = io.WriteString(channel, strings.ReplaceAll(out, "\n", "\r\n"))
			} else {
				_, _ = io.WriteString(channel, "                 ^\r\n% Invalid input detected at '^' marker.\r\n\r\n")
			}
		}

		_, _ = io.WriteString(channel, prompt())
	}
}

func testSSHConfig(port int) config.SSHConfig {
	return config.SSHConfig{
		Port:           port,
		Timeout:        5 * time.Second,
		CommandTimeout: 5 * time.Second,
	}
}

func newTestClient(port int, target Target) *SSHClient {
	return NewSSHClient(target, testSSHConfig(port), ssh.InsecureIgnoreHostKey(), logger.NewTestLogger())
}

func TestSSHClientSession(t *testing.T) {
	device := newFakeDevice()
	port, _ := device.start(t)

	client := newTestClient(port, Target{
		Host:         "127.0.0.1",
		Username:     "admin",
		Password:     "secret",
		EnableSecret: "enable-secret",
	})

	ctx := context.Background()

	require.NoError(t, client.Connect(ctx))
	require.NoError(t, client.EnterPrivilegedMode(ctx))

	out, err := client.Execute(ctx, "show running-config")
	require.NoError(t, err)
	assert.Equal(t, runningConfig, out)

	out, err = client.Execute(ctx, "show ip domain")
	require.NoError(t, err)
	assert.Equal(t, "example.com\n", out)

	out, err = client.Execute(ctx, "show ip domain-name")
	require.NoError(t, err)
	assert.Contains(t, out, "^")
	assert.NotContains(t, out, "router1#")

	require.NoError(t, client.Disconnect())
	require.NoError(t, client.Disconnect())
}

func TestSSHClientAlreadyPrivileged(t *testing.T) {
	device := newFakeDevice()
	device.startPrivileged = true
	device.enable = ""
	port, _ := device.start(t)

	client := newTestClient(port, Target{Host: "127.0.0.1", Username: "admin", Password: "secret"})
	ctx := context.Background()

	require.NoError(t, client.Connect(ctx))
	t.Cleanup(func() { _ = client.Disconnect() })

	require.NoError(t, client.EnterPrivilegedMode(ctx))

	out, err := client.Execute(ctx, "show ip domain")
	require.NoError(t, err)
	assert.Equal(t, "example.com\n", out)
}

func TestSSHClientAuthenticationFailed(t *testing.T) {
	device := newFakeDevice()
	port, _ := device.start(t)

	client := newTestClient(port, Target{Host: "127.0.0.1", Username: "admin", Password: "wrong"})

	err := client.Connect(context.Background())
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.NotErrorIs(t, err, ErrConnectTimeout)

	require.NoError(t, client.Disconnect())
}

func TestSSHClientEnableRejected(t *testing.T) {
	device := newFakeDevice()
	port, _ := device.start(t)

	client := newTestClient(port, Target{
		Host:         "127.0.0.1",
		Username:     "admin",
		Password:     "secret",
		EnableSecret: "wrong",
	})
	ctx := context.Background()

	require.NoError(t, client.Connect(ctx))
	t.Cleanup(func() { _ = client.Disconnect() })

	err := client.EnterPrivilegedMode(ctx)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestSSHClientHandshakeTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	// accept and never speak
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}

		<-done
		_ = conn.Close()
	}()

	cfg := testSSHConfig(ln.Addr().(*net.TCPAddr).Port)
	cfg.Timeout = 200 * time.Millisecond

	client := NewSSHClient(Target{Host: "127.0.0.1", Username: "admin", Password: "secret"},
		cfg, ssh.InsecureIgnoreHostKey(), logger.NewTestLogger())

	err = client.Connect(context.Background())
	require.ErrorIs(t, err, ErrConnectTimeout)
}

func TestSSHClientConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	client := newTestClient(port, Target{Host: "127.0.0.1", Username: "admin", Password: "secret"})

	err = client.Connect(context.Background())
	require.ErrorIs(t, err, ErrSession)
	assert.NotErrorIs(t, err, ErrAuthenticationFailed)
}

func TestSSHClientNotConnected(t *testing.T) {
	client := newTestClient(22, Target{Host: "127.0.0.1"})

	_, err := client.Execute(context.Background(), "show version")
	require.ErrorIs(t, err, ErrSession)

	require.ErrorIs(t, client.EnterPrivilegedMode(context.Background()), ErrSession)
	require.NoError(t, client.Disconnect())
}

func TestSSHFactoryKnownHosts(t *testing.T) {
	device := newFakeDevice()
	port, hostKey := device.start(t)

	addr := net.JoinHostPort("127.0.0.1", fmt.Sprint(port))
	dir := t.TempDir()

	trusted := filepath.Join(dir, "trusted")
	require.NoError(t, os.WriteFile(trusted, []byte(knownhosts.Line([]string{knownhosts.Normalize(addr)}, hostKey)+"\n"), 0o600))

	_, otherKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	otherSigner, err := ssh.NewSignerFromKey(otherKey)
	require.NoError(t, err)

	untrusted := filepath.Join(dir, "untrusted")
	require.NoError(t, os.WriteFile(untrusted, []byte(knownhosts.Line([]string{knownhosts.Normalize(addr)}, otherSigner.PublicKey())+"\n"), 0o600))

	target := Target{Host: "127.0.0.1", Username: "admin", Password: "secret", EnableSecret: "enable-secret"}

	t.Run("known key", func(t *testing.T) {
		cfg := testSSHConfig(port)
		cfg.KnownHostsFile = trusted

		factory, err := NewSSHFactory(cfg, logger.NewTestLogger())
		require.NoError(t, err)

		client := factory(target)
		require.NoError(t, client.Connect(context.Background()))
		require.NoError(t, client.Disconnect())
	})

	t.Run("mismatched key", func(t *testing.T) {
		cfg := testSSHConfig(port)
		cfg.KnownHostsFile = untrusted

		factory, err := NewSSHFactory(cfg, logger.NewTestLogger())
		require.NoError(t, err)

		err = factory(target).Connect(context.Background())
		require.ErrorIs(t, err, ErrSession)
		assert.Contains(t, err.Error(), "knownhosts")
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := testSSHConfig(port)
		cfg.KnownHostsFile = filepath.Join(dir, "absent")

		_, err := NewSSHFactory(cfg, logger.NewTestLogger())
		require.Error(t, err)
	})
}

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		command string
		want    string
	}{
		{
			name:    "echo and prompt stripped",
			out:     "show ip domain\r\nexample.com\r\nrouter1#",
			command: "show ip domain",
			want:    "example.com\n",
		},
		{
			name:    "no output",
			out:     "terminal length 0\r\nrouter1#",
			command: "terminal length 0",
			want:    "",
		},
		{
			name:    "prompt only",
			out:     "router1#",
			command: "show ip domain",
			want:    "",
		},
		{
			name:    "no echo",
			out:     "line one\r\nline two\r\nrouter1#",
			command: "show clock",
			want:    "line one\nline two\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanOutput(tt.out, tt.command))
		})
	}
}

// serveSOCKS5 accepts a single unauthenticated CONNECT request and splices
// the connection to the requested IPv4 target.
func serveSOCKS5(t *testing.T) (string, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	requested := make(chan string, 1)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)

		greeting := make([]byte, 2)
		if _, err := io.ReadFull(r, greeting); err != nil {
			return
		}

		if _, err := io.ReadFull(r, make([]byte, greeting[1])); err != nil {
			return
		}

		if _, err := conn.Write([]byte{5, 0}); err != nil {
			return
		}

		// version, CONNECT, reserved, IPv4, address, port
		req := make([]byte, 10)
		if _, err := io.ReadFull(r, req); err != nil || req[3] != 1 {
			return
		}

		target := net.JoinHostPort(net.IP(req[4:8]).String(), fmt.Sprint(int(req[8])<<8|int(req[9])))
		requested <- target

		upstream, err := net.Dial("tcp", target)
		if err != nil {
			_, _ = conn.Write([]byte{5, 5, 0, 1, 0, 0, 0, 0, 0, 0})

			return
		}
		defer upstream.Close()

		if _, err := conn.Write([]byte{5, 0, 0, 1, 0, 0, 0, 0, 0, 0}); err != nil {
			return
		}

		go func() { _, _ = io.Copy(upstream, r) }()

		_, _ = io.Copy(conn, upstream)
	}()

	return ln.Addr().String(), requested
}

func TestSSHFactorySOCKSProxy(t *testing.T) {
	device := newFakeDevice()
	port, _ := device.start(t)

	proxyAddr, requested := serveSOCKS5(t)

	cfg := testSSHConfig(port)
	cfg.SOCKSProxy = proxyAddr

	factory, err := NewSSHFactory(cfg, logger.NewTestLogger())
	require.NoError(t, err)

	client := factory(Target{Host: "127.0.0.1", Username: "admin", Password: "secret", EnableSecret: "enable-secret"})

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))
	require.NoError(t, client.EnterPrivilegedMode(ctx))

	out, err := client.Execute(ctx, "show ip domain")
	require.NoError(t, err)
	assert.Equal(t, "example.com\n", out)

	require.NoError(t, client.Disconnect())
	assert.Equal(t, net.JoinHostPort("127.0.0.1", fmt.Sprint(port)), <-requested)
}

func TestSSHFactorySOCKSProxyUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	proxyAddr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := testSSHConfig(22)
	cfg.SOCKSProxy = proxyAddr

	factory, err := NewSSHFactory(cfg, logger.NewTestLogger())
	require.NoError(t, err)

	err = factory(Target{Host: "127.0.0.1", Username: "admin", Password: "secret"}).Connect(context.Background())
	require.ErrorIs(t, err, ErrSession)
}
