package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mohammed-el-Amine/check-port/pkg/procinfo"
	"github.com/Mohammed-el-Amine/check-port/pkg/remediate"
	"github.com/Mohammed-el-Amine/check-port/pkg/services"
)

// remediator runs the post-scan prompt for closing ports.
type remediator struct {
	in       *bufio.Reader
	out      io.Writer
	finder   procinfo.Finder
	executor remediate.Executor
	lockDir  string
	logger   zerolog.Logger
}

func newRemediator(in io.Reader, out io.Writer, finder procinfo.Finder, executor remediate.Executor, lockDir string) *remediator {
	return &remediator{
		in:       bufio.NewReader(in),
		out:      out,
		finder:   finder,
		executor: executor,
		lockDir:  lockDir,
		logger:   log.With().Str("component", "cli.remediate").Logger(),
	}
}

// readLine returns the next trimmed line. EOF yields "" so sessions always
// terminate.
func (r *remediator) readLine() string {
	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		r.logger.Debug().Err(err).Msg("read input")
	}
	return strings.TrimSpace(line)
}

func (r *remediator) ask(prompt string) string {
	fmt.Fprint(r.out, prompt)
	return r.readLine()
}

// run asks which open ports to close. open holds every open port of the
// scan, including ones hidden from the table. Remote targets only get
// firewall advice; local ports go through one remediation session each,
// under the host-wide lock.
func (r *remediator) run(ctx context.Context, target string, local bool, open []uint16) ([]remediate.Outcome, error) {
	answer := r.ask("\nPorts to close (e.g. 135,139,445), empty to skip: ")
	selected, err := remediate.ParseSelection(answer)
	if err != nil {
		return nil, err
	}
	ports := make([]uint16, 0, len(selected))
	for _, p := range selected {
		if !slices.Contains(open, p) {
			fmt.Fprintf(r.out, "Port %d is not open, skipping\n", p)
			continue
		}
		ports = append(ports, p)
	}
	if len(ports) == 0 {
		return nil, nil
	}

	if !local {
		fmt.Fprintln(r.out)
		fmt.Fprint(r.out, remediate.FirewallAdvice(target, ports))
		return nil, nil
	}

	if !remediate.IsConfirmation(r.ask(fmt.Sprintf("Close %d port(s) on this machine? (yes/no) ", len(ports)))) {
		fmt.Fprintln(r.out, "Aborted, nothing changed")
		return nil, nil
	}

	lock, err := remediate.AcquireLock(r.lockDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn().Err(err).Msg("release remediation lock")
		}
	}()

	outcomes := make([]remediate.Outcome, 0, len(ports))
	for _, port := range ports {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcome, err := r.closePort(ctx, port)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}

	fmt.Fprintln(r.out)
	fmt.Fprint(r.out, remediate.Summary(outcomes))
	return outcomes, nil
}

func (r *remediator) closePort(ctx context.Context, port uint16) (remediate.Outcome, error) {
	procs, err := r.finder.FindListening(ctx, port)
	if err != nil {
		r.logger.Warn().Err(err).Uint16("port", port).Msg("process lookup failed")
		procs = nil
	}
	info := services.Lookup(port)
	a := services.Analyze(port)

	fmt.Fprintf(r.out, "\nPort %d - %s\n", port, a.Title)
	fmt.Fprintf(r.out, "  %s\n  Risk: %s\n  Advice: %s\n", a.Description, a.Risk, a.Action)
	for _, p := range procs {
		fmt.Fprintf(r.out, "  PID %d %s (user %s): %s\n", p.PID, p.Name, p.User, p.Command)
	}
	fmt.Fprintln(r.out, "  Manual commands:")
	for _, c := range remediate.ServiceCommands(port, info.Unit, pidsOf(procs)) {
		fmt.Fprintf(r.out, "    %s\n", c)
	}

	session := remediate.NewSession(port, info, procs)
	for prompt := session.Prompt(); prompt != ""; prompt = session.Prompt() {
		if err := session.Handle(r.ask(prompt)); err != nil {
			return session.Outcome(), err
		}
	}
	if session.State() == remediate.Executing {
		return session.Execute(ctx, r.executor)
	}
	return session.Outcome(), nil
}

func pidsOf(procs []procinfo.Process) []int {
	out := make([]int, 0, len(procs))
	for _, p := range procs {
		out = append(out, p.PID)
	}
	return out
}
