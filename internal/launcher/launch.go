package launcher

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/chess10kp/skoll/internal/apps"
	"github.com/chess10kp/skoll/internal/config"
	"github.com/chess10kp/skoll/internal/history"
	"github.com/coreos/go-systemd/v22/unit"
	"github.com/google/shlex"
)

// Spawner starts a process and does not wait for it.
type Spawner interface {
	Spawn(argv []string) error
}

type execSpawner struct{}

func (execSpawner) Spawn(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Orchestrator turns entries and command text into spawned processes and
// records application launches in the history.
type Orchestrator struct {
	prefix      string
	termCommand string
	terminal    string
	cgroups     bool
	unitPrefix  string

	spawner Spawner
	history *history.History
	store   history.Store
	pid     int
}

func NewOrchestrator(cfg *config.Config, hist *history.History, store history.Store) *Orchestrator {
	return &Orchestrator{
		prefix:      cfg.Launcher.CommandPrefix,
		termCommand: cfg.Launcher.TermCommand,
		terminal:    cfg.Env.Terminal,
		cgroups:     cfg.Launcher.Cgroups,
		unitPrefix:  cfg.Launcher.UnitPrefix,
		spawner:     execSpawner{},
		history:     hist,
		store:       store,
		pid:         os.Getpid(),
	}
}

// WithSpawner replaces the process spawner.
func (o *Orchestrator) WithSpawner(s Spawner) *Orchestrator {
	o.spawner = s
	return o
}

// LaunchCommand runs raw command text typed after the command prefix.
// It does not touch the history.
func (o *Orchestrator) LaunchCommand(text string) error {
	argv, err := splitCommand(CommandText(text, o.prefix))
	if err != nil {
		return err
	}
	log.Printf("[LAUNCH] Running command %q", argv)
	return o.spawn(argv)
}

// Launch starts the entry: window entries run their focus command, app
// entries go through field-code stripping, terminal and cgroup wrapping
// and then have their launch recorded. A returned ErrPersistenceFailed
// means the process did start.
func (o *Orchestrator) Launch(e *Entry) error {
	if e.App == nil {
		argv, err := splitCommand(e.CustomCommand)
		if err != nil {
			return err
		}
		log.Printf("[LAUNCH] Focusing window %q", e.Name)
		return o.spawn(argv)
	}

	argv, err := o.Argv(e.App)
	if err != nil {
		return err
	}

	log.Printf("[LAUNCH] Launching %s: %q", e.App.ID, argv)
	if err := o.spawn(argv); err != nil {
		return err
	}

	count := o.history.Increment(e.App.ID)
	if o.store != nil {
		if err := o.store.Save(o.history); err != nil {
			log.Printf("[LAUNCH] Failed to save history: %v", err)
			return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
		}
	}
	log.Printf("[LAUNCH] %s launched %d times", e.App.ID, count)
	return nil
}

// Argv builds the final argument vector for app.
func (o *Orchestrator) Argv(app *apps.App) ([]string, error) {
	argv, err := ResolveCommand(app)
	if err != nil {
		return nil, err
	}
	if app.Terminal {
		if argv, err = o.WrapTerminal(argv); err != nil {
			return nil, err
		}
	}
	if o.cgroups {
		argv = o.WrapCgroup(argv, app.ID)
	}
	return argv, nil
}

// ResolveCommand splits the desktop Exec line and expands its field
// codes. File and URL codes expand to nothing since we never pass files.
func ResolveCommand(app *apps.App) ([]string, error) {
	args, err := splitCommand(app.Exec)
	if err != nil {
		return nil, err
	}

	argv := make([]string, 0, len(args))
	for _, arg := range args {
		switch arg {
		case "%f", "%F", "%u", "%U", "%d", "%D", "%n", "%N", "%v", "%m":
			continue
		case "%i":
			if app.Icon != "" {
				argv = append(argv, "--icon", app.Icon)
			}
			continue
		case "%c":
			argv = append(argv, app.Name)
			continue
		case "%k":
			argv = append(argv, app.File)
			continue
		}
		if arg = expandFieldCodes(arg, app); arg != "" {
			argv = append(argv, arg)
		}
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty Exec in %s", ErrParse, app.ID)
	}
	return argv, nil
}

// expandFieldCodes handles codes embedded inside a larger argument.
func expandFieldCodes(s string, app *apps.App) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case '%':
			b.WriteByte('%')
		case 'c':
			b.WriteString(app.Name)
		case 'k':
			b.WriteString(app.File)
		default:
			// other codes expand to nothing
		}
	}
	return b.String()
}

// WrapTerminal runs argv inside a terminal: term_command with "{}"
// replaced by the command line, else $TERMINAL -e. The template is
// substituted as text and split afterwards, so a quoted "{}" yields a
// single argument.
func (o *Orchestrator) WrapTerminal(argv []string) ([]string, error) {
	if o.termCommand != "" {
		return splitCommand(strings.ReplaceAll(o.termCommand, "{}", joinCommand(argv)))
	}

	if o.terminal != "" {
		term, err := splitCommand(o.terminal)
		if err != nil {
			return nil, err
		}
		return append(append(term, "-e"), argv...), nil
	}

	return nil, ErrNoTerminalAvailable
}

// WrapCgroup runs argv in its own transient systemd scope named after
// the desktop id.
func (o *Orchestrator) WrapCgroup(argv []string, desktopID string) []string {
	name := unit.UnitNameEscape(strings.TrimSuffix(desktopID, ".desktop"))
	unitName := o.unitPrefix + "-" + name + "-" + strconv.Itoa(o.pid)

	wrapped := []string{"systemd-run", "--scope", "--user", "--unit=" + unitName}
	return append(wrapped, argv...)
}

func (o *Orchestrator) spawn(argv []string) error {
	if err := o.spawner.Spawn(argv); err != nil {
		log.Printf("[LAUNCH] Failed to spawn %q: %v", argv[0], err)
		return fmt.Errorf("%w: %s: %v", ErrSpawnFailed, argv[0], err)
	}
	return nil
}

// joinCommand is the inverse of splitCommand for plain arguments; others
// are single-quoted.
func joinCommand(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		if arg != "" && strings.IndexFunc(arg, needsQuote) < 0 {
			quoted[i] = arg
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:=@%+,", r)
}

func splitCommand(s string) ([]string, error) {
	argv, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrParse)
	}
	return argv, nil
}
