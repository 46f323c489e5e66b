package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/gosuri/uitable"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/trezcool/darasa/client"
	"github.com/trezcool/darasa/client/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type portal struct {
	api    *client.Client
	sess   *session.Manager
	out    io.Writer
	logger *zap.SugaredLogger
}

func (p *portal) printUsage() {
	fmt.Fprintln(p.out, "Usage:")
	fmt.Fprintln(p.out, "  login -username EMAIL|PHONE            - log in, the password is prompted next")
	fmt.Fprintln(p.out, "  logout")
	fmt.Fprintln(p.out, "  students list|add|edit|delete [FLAGS]  - manage students (admin)")
	fmt.Fprintln(p.out, "  classes list|add|edit|delete [FLAGS]   - manage class forms (admin)")
	fmt.Fprintln(p.out, "  subjects list|add|edit|delete [FLAGS]  - manage subjects (admin)")
	fmt.Fprintln(p.out, "  teachers list|add|edit|delete [FLAGS]  - manage teachers (admin)")
	fmt.Fprintln(p.out, "  teachers assignments|classes [FLAGS]   - teachers dashboard")
	fmt.Fprintln(p.out, "  assignments list|add|edit|delete [FLAGS] - manage assignments (admin)")
	fmt.Fprintln(p.out, "  grades summary|entry|submit|clear [FLAGS]")
	fmt.Fprintln(p.out, "  settings profile|password|appearance [FLAGS]")
	fmt.Fprintln(p.out, "Run a command with -h to list its flags.")
}

func (p *portal) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(p.out)
	return fs
}

// parse returns errHelp for bad flags.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	return nil
}

// visited lists the flags given on the command line, so partial updates only send those.
func visited(fs *flag.FlagSet) map[string]bool {
	given := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { given[f.Name] = true })
	return given
}

func (p *portal) promptPassword(label string) (string, error) {
	fmt.Fprint(p.out, label+":")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (p *portal) palette() palette {
	if p.sess.Session().Appearance == session.Dark {
		return darkPalette
	}
	return lightPalette
}

// render prints a table whose first row is the header.
func (p *portal) render(title string, header []interface{}, rows [][]interface{}) {
	pal := p.palette()
	fmt.Fprintln(p.out, pal.title(title))
	if len(rows) == 0 {
		fmt.Fprintln(p.out, "  (none)")
		return
	}
	table := uitable.New()
	table.MaxColWidth = 50
	table.Wrap = true
	table.AddRow(header...)
	for _, row := range rows {
		table.AddRow(row...)
	}
	lines := strings.Split(table.String(), "\n")
	lines[0] = pal.header(lines[0])
	fmt.Fprintln(p.out, strings.Join(lines, "\n"))
}

func (p *portal) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// run dispatches args (program name first) to the page they open.
func (p *portal) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		p.home()
		return nil
	}
	cmd, rest := args[1], args[2:]
	sub := ""
	if len(rest) > 0 {
		sub = rest[0]
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		p.printUsage()
		return errHelp
	}

	if err := guard(routeFor(cmd, sub), p.sess.Session()); err != nil {
		return err
	}

	switch cmd {
	case "home":
		p.home()
		return nil
	case "login":
		return p.login(ctx, rest)
	case "logout":
		return p.logout()
	case "settings":
		return p.settings(ctx, rest)
	case "grades":
		return p.grades(ctx, rest)
	case "students":
		return p.students(ctx, rest)
	case "classes":
		return p.classes(ctx, rest)
	case "subjects":
		return p.subjects(ctx, rest)
	case "teachers":
		return p.teachers(ctx, rest)
	case "assignments":
		return p.assignments(ctx, rest)
	}
	return errNotFound
}

func (p *portal) home() {
	sess := p.sess.Session()
	if sess.LoggedIn() {
		p.printf("Welcome to Darasa, %s!", displayName(sess.User.FullName, sess.User.Email))
	} else {
		p.printf("Welcome to Darasa! Log in to continue.")
	}
	p.printUsage()
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

// subcommand splits `sub [flags]`; a missing or unknown one prints the usage.
func (p *portal) subcommand(args []string, known ...string) (string, []string, error) {
	if len(args) > 0 {
		for _, k := range known {
			if args[0] == k {
				return k, args[1:], nil
			}
		}
	}
	fmt.Fprintf(p.out, "expected one of: %s\n", strings.Join(known, ", "))
	return "", nil, errHelp
}
