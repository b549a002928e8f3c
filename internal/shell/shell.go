// Package shell is an interactive command line over a board.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/hungpv1995/postboard/internal/board"
	"github.com/hungpv1995/postboard/internal/models"
	"github.com/hungpv1995/postboard/internal/navigation"
)

// ErrExit is returned by Execute when the user asks to leave.
var ErrExit = errors.New("exit requested")

// LineReader is satisfied by *readline.Instance.
type LineReader interface {
	Readline() (string, error)
}

// Command is a parsed input line.
type Command struct {
	Name string
	Args string
}

// ParseCommand splits line into a lower-cased command name and the rest.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)
	name, args, _ := strings.Cut(line, " ")
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
}

type Shell struct {
	board *board.Board
	out   io.Writer
}

func New(b *board.Board, out io.Writer) *Shell {
	return &Shell{board: b, out: out}
}

// Navigator prints the location it is asked to open.
type Navigator struct {
	out io.Writer
}

func NewNavigator(out io.Writer) *Navigator {
	return &Navigator{out: out}
}

func (n *Navigator) Push(ctx context.Context, path string, query url.Values) error {
	_, err := fmt.Fprintf(n.out, "open %s\n", navigation.Location(path, query))
	return err
}

// Run reads commands until EOF or exit. Ctrl+C abandons the current line.
func (s *Shell) Run(ctx context.Context, in LineReader) error {
	for {
		line, err := in.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Execute runs a single command line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	cmd := ParseCommand(line)
	switch cmd.Name {
	case "list", "ls":
		s.printView(s.board.View())
		return nil
	case "show":
		return s.withPost(cmd.Args, func(p models.Post) error {
			fmt.Fprintf(s.out, "[%d] %s\n%s\n", p.ID, p.Title, p.Body)
			return nil
		})
	case "save", "add":
		return s.save(ctx, cmd.Args)
	case "edit":
		return s.withPost(cmd.Args, func(p models.Post) error {
			s.board.BeginEdit(p)
			fmt.Fprintf(s.out, "editing [%d] %s\n", p.ID, p.Title)
			return nil
		})
	case "cancel":
		s.board.CancelEdit()
		fmt.Fprintln(s.out, "edit cancelled")
		return nil
	case "delete", "rm":
		id, err := parseID(cmd.Args)
		if err != nil {
			return err
		}
		if err := s.board.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "deleted %d\n", id)
		return nil
	case "search":
		s.board.SetSearchQuery(cmd.Args)
		s.printView(s.board.View())
		return nil
	case "page":
		n, err := strconv.Atoi(cmd.Args)
		if err != nil {
			return fmt.Errorf("invalid page %q", cmd.Args)
		}
		s.board.SetPage(n)
		s.printView(s.board.View())
		return nil
	case "comments":
		return s.withPost(cmd.Args, func(p models.Post) error {
			return s.board.NavigateToComments(ctx, p)
		})
	case "status":
		state, err := s.board.Status()
		if err != nil {
			fmt.Fprintf(s.out, "%s: %v\n", state, err)
		} else {
			fmt.Fprintln(s.out, state)
		}
		return nil
	case "retry":
		if err := s.board.Retry(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "ready")
		return nil
	case "help", "?":
		s.printHelp()
		return nil
	case "exit", "quit":
		return ErrExit
	default:
		return fmt.Errorf("unknown command %q, try help", cmd.Name)
	}
}

// save handles "save <title> | <body>".
func (s *Shell) save(ctx context.Context, args string) error {
	title, body, ok := strings.Cut(args, "|")
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if !ok || title == "" || body == "" {
		return errors.New("usage: save <title> | <body>")
	}

	post := models.Post{Title: title, Body: body}
	session := s.board.EditSession()
	if session.Active {
		post.ID = session.Target.ID
		post.UserID = session.Target.UserID
	} else {
		post.ID = s.board.NextID()
	}

	if err := s.board.Create(ctx, post); err != nil {
		return err
	}
	if session.Active {
		fmt.Fprintf(s.out, "updated [%d] %s\n", post.ID, post.Title)
	} else {
		fmt.Fprintf(s.out, "created [%d] %s\n", post.ID, post.Title)
	}
	return nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q", arg)
	}
	return id, nil
}

func (s *Shell) withPost(arg string, fn func(models.Post) error) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	p, err := s.board.Post(id)
	if err != nil {
		return err
	}
	return fn(p)
}

func (s *Shell) printView(page models.Page) {
	header := fmt.Sprintf("page %d/%d, %d posts", page.Page, page.TotalPages, page.Total)
	if page.Query != "" {
		header += fmt.Sprintf(" matching %q", page.Query)
	}
	fmt.Fprintln(s.out, header)
	for _, p := range page.Posts {
		fmt.Fprintf(s.out, "  [%d] %s\n", p.ID, p.Title)
	}
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `commands:
  list                      show the current page
  show <id>                 print a post
  save <title> | <body>     create a post, or save the one being edited
  edit <id>                 start editing a post
  cancel                    stop editing
  delete <id>               delete a post
  search <text>             filter by title
  page <n>                  go to page n
  comments <id>             open the comments view of a post
  status | retry            board state, retry a failed load
  exit
`)
}
