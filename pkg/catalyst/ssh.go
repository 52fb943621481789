package catalyst

import (
	"fmt"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	defaultDialTimeout    = 10 * time.Second
	defaultCommandTimeout = 20 * time.Second
)

// SSHChannel opens password-authenticated SSH sessions against switches.
// Both timeouts are applied per probe so a hung switch cannot stall the
// fleet-wide barrier indefinitely.
type SSHChannel struct {
	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

// NewSSHChannel returns an SSHChannel with default timeouts.
func NewSSHChannel() *SSHChannel {
	return &SSHChannel{
		DialTimeout:    defaultDialTimeout,
		CommandTimeout: defaultCommandTimeout,
	}
}

// Open dials the target and authenticates with its configured credentials.
func (c *SSHChannel) Open(target Target) (Session, error) {
	dialTimeout := c.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	cmdTimeout := c.CommandTimeout
	if cmdTimeout <= 0 {
		cmdTimeout = defaultCommandTimeout
	}

	cfg := &ssh.ClientConfig{
		User: target.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(target.Password),
			ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
				// Many IOS builds only offer keyboard-interactive; answer
				// every prompt with the configured password.
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = target.Password
				}
				return answers, nil
			}),
		},
		// Switch inventories rarely ship pinned host keys; access is
		// restricted to the management network.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	client, err := ssh.Dial("tcp", target.Addr(), cfg)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", target.Addr(), err)
	}
	return &sshSession{client: client, commandTimeout: cmdTimeout}, nil
}

// sshSession runs each command in its own exec session on a shared SSH
// connection.
type sshSession struct {
	client         *ssh.Client
	commandTimeout time.Duration
}

func (s *sshSession) Run(command string) (string, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("opening session: %w", err)
	}
	defer sess.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := sess.CombinedOutput(command)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return string(r.out), fmt.Errorf("running %q: %w", command, r.err)
		}
		return string(r.out), nil
	case <-time.After(s.commandTimeout):
		return "", fmt.Errorf("running %q: timed out after %s", command, s.commandTimeout)
	}
}

func (s *sshSession) Close() error {
	return s.client.Close()
}
