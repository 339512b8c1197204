// internal/comparator/process.go
package comparator

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	apperrors "dealbot/internal/common/errors"
	"dealbot/internal/common/httpclient"
	"dealbot/internal/common/logger"
)

// ManagedServer is an answer-server process the comparator owns. The
// comparator must guarantee shutdown on completion or cancellation,
// even when a batch fails mid-run.
type ManagedServer struct {
	name    string
	cmd     *exec.Cmd
	baseURL string
	log     logger.Logger
}

// StartServer launches the command and polls its /health endpoint until
// it answers or startTimeout elapses. On a failed start the process is
// killed before returning. Extra env entries ("KEY=value") are appended
// to the inherited environment.
func StartServer(ctx context.Context, name string, command []string, baseURL string, startTimeout time.Duration, log logger.Logger, env ...string) (*ManagedServer, error) {
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	if err := cmd.Start(); err != nil {
		return nil, apperrors.NewBackendStartError(name, err)
	}

	m := &ManagedServer{name: name, cmd: cmd, baseURL: baseURL, log: log}

	client := httpclient.NewClient(time.Second, 0, 0)
	deadline := time.Now().Add(startTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			m.Stop(5 * time.Second)
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
		if err := client.GetJSON(ctx, baseURL+"/health", nil); err == nil {
			log.Info("Managed server is up", map[string]interface{}{
				"backend": name,
				"url":     baseURL,
			})
			return m, nil
		}
	}

	m.Stop(5 * time.Second)
	return nil, apperrors.NewBackendStartError(name, context.DeadlineExceeded)
}

// BaseURL returns the server's address for a remote backend.
func (m *ManagedServer) BaseURL() string {
	return m.baseURL
}

// Stop terminates the process gracefully, escalating to a hard kill
// when it ignores SIGTERM past the timeout.
func (m *ManagedServer) Stop(timeout time.Duration) {
	if m.cmd.Process == nil {
		return
	}

	if err := m.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		m.log.Warn("SIGTERM failed, killing process", map[string]interface{}{
			"backend": m.name,
			"error":   err.Error(),
		})
		_ = m.cmd.Process.Kill()
		_ = m.cmd.Wait()
		return
	}

	done := make(chan error, 1)
	go func() { done <- m.cmd.Wait() }()

	select {
	case <-done:
		m.log.Info("Managed server stopped", map[string]interface{}{"backend": m.name})
	case <-time.After(timeout):
		m.log.Warn("Managed server ignored SIGTERM, killing", map[string]interface{}{"backend": m.name})
		_ = m.cmd.Process.Kill()
		<-done
	}
}
