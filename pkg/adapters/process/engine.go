package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/aretw0/tesoro/pkg/domain"
	"github.com/aretw0/tesoro/pkg/protocol"
	"github.com/sourcegraph/conc"
)

const (
	lineBuffer    = 256
	maxLineLength = 1024 * 1024
	// killWait bounds how long a killed engine may keep its pipes open,
	// e.g. through a child process that inherited them.
	killWait = time.Second
)

// errStreamBroken marks an engine whose output could not be read to the end,
// for example because a line exceeded maxLineLength.
var errStreamBroken = errors.New("engine output unreadable")

// engineProcess is one running engine with its stream pumps.
type engineProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout chan string
	stderr chan string
	outR   io.ReadCloser
	errR   io.ReadCloser

	quit chan struct{} // closed on stop; pumps drop lines instead of blocking
	done chan struct{} // closed once the process has been reaped
	err  error         // Wait result, valid after done

	mu      sync.Mutex
	readErr error // first pump failure, set before its channel closes

	quitOnce sync.Once
	pumps    conc.WaitGroup
}

// spawn starts the engine and its stdout/stderr pumps.
func spawn(cfg Config) (*engineProcess, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = append(cmd.Environ(), cfg.Environment...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, domain.Unavailable("stdin pipe", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, domain.Unavailable("stdout pipe", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, domain.Unavailable("stderr pipe", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, domain.Unavailable("start", err)
	}

	p := &engineProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: make(chan string, lineBuffer),
		stderr: make(chan string, lineBuffer),
		outR:   stdout,
		errR:   stderr,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	p.pumps.Go(func() { p.pump(stdout, p.stdout) })
	p.pumps.Go(func() { p.pump(stderr, p.stderr) })

	go func() {
		// Wait closes the pipes, so it must run after the pumps hit EOF.
		p.pumps.Wait()
		p.err = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

func (p *engineProcess) pump(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-p.quit:
		}
	}
	if err := scanner.Err(); err != nil {
		p.fail(err)
	}
}

// fail records a read failure and kills the engine: once a stream is out of
// step, no later reply on it can be trusted.
func (p *engineProcess) fail(err error) {
	p.mu.Lock()
	if p.readErr == nil {
		p.readErr = fmt.Errorf("%w: %w", errStreamBroken, err)
	}
	p.mu.Unlock()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

func (p *engineProcess) streamErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readErr
}

// usable reports whether requests may still be sent to the process.
func (p *engineProcess) usable() bool {
	return !p.exited() && p.streamErr() == nil
}

// exited reports whether the process has been reaped.
func (p *engineProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// exitError describes why the process is gone, for error wrapping.
func (p *engineProcess) exitError() error {
	if err := p.streamErr(); err != nil {
		return err
	}
	if !p.exited() {
		return errors.New("output stream closed")
	}
	if p.err != nil {
		return p.err
	}
	return errors.New("engine exited")
}

func (p *engineProcess) pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// stop asks the engine to halt, waits up to grace and then kills it.
// It returns true when the process had to be killed.
func (p *engineProcess) stop(grace time.Duration) bool {
	killed := false
	if !p.exited() {
		_, _ = io.WriteString(p.stdin, protocol.HaltDirective)
	}
	_ = p.stdin.Close()
	p.release()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
			killed = true
		}
		p.reap()
	}
	return killed
}

// kill terminates the process immediately.
func (p *engineProcess) kill() {
	if !p.exited() && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.stdin.Close()
	p.release()
	p.reap()
}

// reap waits for a killed process. If something else still holds its pipes
// the pumps never see EOF, so the read ends are closed after killWait.
func (p *engineProcess) reap() {
	timer := time.NewTimer(killWait)
	defer timer.Stop()

	select {
	case <-p.done:
		return
	case <-timer.C:
	}
	_ = p.outR.Close()
	_ = p.errR.Close()
	<-p.done
}

// release unblocks the pumps so they can drain to EOF.
func (p *engineProcess) release() {
	p.quitOnce.Do(func() { close(p.quit) })
}
