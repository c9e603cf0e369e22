// Command smalltable is an interactive shell over a single in-memory
// SmallTable repository, grounded on the teacher's repl/ package: one
// readline loop dispatching to small cmd* handlers, a
// line-editing history file, and a tab completer listing the verbs.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ergochat/readline"

	st "github.com/ashigeru/smalltable"
	"github.com/ashigeru/smalltable/client"
	"github.com/ashigeru/smalltable/logging"
	"github.com/ashigeru/smalltable/repo"
	"github.com/ashigeru/smalltable/session"
	"github.com/ashigeru/smalltable/wire"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("new"),
	readline.PcItem("set"),
	readline.PcItem("get"),
	readline.PcItem("bind"),
	readline.PcItem("root"),
	readline.PcItem("save"),
	readline.PcItem("dump"),
	readline.PcItem("load"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

// shell holds everything one interactive session needs: the
// repository, the current Table/session pair, and a name→Object
// table of objects the user has created or referenced by a short
// local alias, since raw References are unwieldy to type.
type shell struct {
	rl   *readline.Instance
	repo *repo.Repository
	tab  *client.Table

	aliases map[string]*client.Object
}

func newShell() (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "smalltable> ",
		HistoryFile:         ".smalltable_history",
		AutoComplete:        completer,
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	rl.CaptureExitSignal()

	r := repo.New(repo.Options{Logger: logging.New(slog.LevelWarn)})
	return &shell{
		rl:      rl,
		repo:    r,
		tab:     client.Open(session.Open(r)),
		aliases: make(map[string]*client.Object),
	}, nil
}

func filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}

func (s *shell) Close() error {
	if s.rl != nil {
		_ = s.rl.Close()
		s.rl = nil
	}
	return nil
}

var errUnknownCommand = errors.New("unknown command")

func (s *shell) step() error {
	line, err := s.rl.Readline()
	if err == readline.ErrInterrupt && len(line) != 0 {
		return nil
	}
	if err != nil {
		return err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "new":
		return s.cmdNew(args)
	case "set":
		return s.cmdSet(args)
	case "get":
		return s.cmdGet(args)
	case "bind":
		return s.cmdBind(args)
	case "root":
		return s.cmdRoot(args)
	case "save":
		return s.cmdSave(args)
	case "dump":
		return s.cmdDump(args)
	case "load":
		return s.cmdLoad(args)
	case "help":
		s.printHelp()
		return nil
	case "exit", "quit":
		return io.EOF
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(os.Stdout, `commands:
  new <alias>                     create a fresh object, remember it as <alias>
  set <alias> <prop> <value>      set a scalar property (int:N, str:S, ref:alias)
  get <alias> <prop>              print a property value
  bind <name> <alias>             bind a root name to an object
  root <name> <alias>             resolve a root name into <alias>
  save                            commit staged changes, start a fresh session
  dump <file>                     persist the repository to <file>
  load <file>                     restore the repository from <file>
  exit, quit                      leave`)
}

func (s *shell) cmdNew(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: new <alias>")
	}
	s.aliases[args[0]] = s.tab.NewObject()
	return nil
}

func (s *shell) resolveAlias(name string) (*client.Object, error) {
	obj, ok := s.aliases[name]
	if !ok {
		return nil, fmt.Errorf("no such alias: %s", name)
	}
	return obj, nil
}

func (s *shell) cmdSet(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: set <alias> <prop> <value>")
	}
	obj, err := s.resolveAlias(args[0])
	if err != nil {
		return err
	}
	v, err := s.parseValue(args[2])
	if err != nil {
		return err
	}
	obj.SetProperty(args[1], v)
	return nil
}

func (s *shell) parseValue(tok string) (st.Value, error) {
	switch {
	case strings.HasPrefix(tok, "int:"):
		n, err := strconv.ParseInt(tok[len("int:"):], 10, 64)
		if err != nil {
			return st.Value{}, err
		}
		return st.Int64Value(n), nil
	case strings.HasPrefix(tok, "str:"):
		return st.StringValue(tok[len("str:"):]), nil
	case strings.HasPrefix(tok, "ref:"):
		other, err := s.resolveAlias(tok[len("ref:"):])
		if err != nil {
			return st.Value{}, err
		}
		return st.RefValue(other.Self()), nil
	default:
		return st.Value{}, fmt.Errorf("value must be int:/str:/ref:, got %q", tok)
	}
}

func (s *shell) cmdGet(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: get <alias> <prop>")
	}
	obj, err := s.resolveAlias(args[0])
	if err != nil {
		return err
	}
	v, ok := obj.GetProperty(args[1])
	if !ok {
		fmt.Fprintln(os.Stdout, "<absent>")
		return nil
	}
	fmt.Fprintln(os.Stdout, v.String())
	return nil
}

func (s *shell) cmdBind(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: bind <name> <alias>")
	}
	obj, err := s.resolveAlias(args[1])
	if err != nil {
		return err
	}
	return s.tab.SetRoot(args[0], obj)
}

func (s *shell) cmdRoot(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: root <name> <alias>")
	}
	obj, err := s.tab.RootObject(args[0])
	if err != nil {
		return err
	}
	s.aliases[args[1]] = obj
	return nil
}

func (s *shell) cmdSave(args []string) error {
	if len(args) != 0 {
		return errors.New("usage: save")
	}
	next, err := s.tab.Save()
	if err != nil {
		return err
	}
	s.tab = client.Open(session.Open(s.repo))
	s.aliases = make(map[string]*client.Object)
	fmt.Fprintf(os.Stdout, "committed: %d bindings, %d entities\n", len(next.Bindings()), len(next.Entities()))
	return nil
}

func (s *shell) cmdDump(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: dump <file>")
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := wire.Dump(w, s.repo); err != nil {
		return err
	}
	return w.Flush()
}

func (s *shell) cmdLoad(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := wire.Restore(bufio.NewReader(f), repo.Options{Logger: logging.New(slog.LevelWarn)})
	if err != nil {
		return err
	}
	s.repo = r
	s.tab = client.Open(session.Open(s.repo))
	s.aliases = make(map[string]*client.Object)
	return nil
}

func main() {
	s, err := newShell()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer s.Close()

	for {
		err := s.step()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		}
	}
}
