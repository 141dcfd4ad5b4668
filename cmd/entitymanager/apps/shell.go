package apps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/h2hsecure/entitymanager/internal/adapter"
	"github.com/h2hsecure/entitymanager/internal/domain"
)

var (
	errSignal = errors.New("signal received")
	errInput  = errors.New("read input")
)

var ShellCmd = &cobra.Command{
	Use:   "entitymanager",
	Short: "Interactive directory account manager",
	Long:  AppDescription,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// Listen for termination signal for gracefully shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		if err := StartShell(cmd.Context(), c, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
			os.Exit(1)
		}
	},
}

// StartShell loads credentials, obtains the first token and runs the command
// loop until quit, end of input or a signal on c.
func StartShell(ctx context.Context, c chan os.Signal, in io.Reader, out io.Writer) error {
	cfg := setup()
	domain.LoadEnvFile(cfg.EnvFile)

	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		_, _ = fmt.Fprint(out, "\033[H\033[2J")
	}
	fmt.Fprintln(out, pterm.FgGreen.Sprint("Welcome to the Entity Manager"))
	fmt.Fprintln(out, pterm.FgGreen.Sprint(`Type "help" for a list of commands`))

	creds, err := domain.LoadCredentials(os.LookupEnv)
	if err != nil {
		return err
	}

	ops := []domain.ServiceOp{}
	if cfg.DBPath != "" {
		journal, err := adapter.NewBoltJournal(cfg.DBPath, false)
		if err != nil {
			log.Warn().Err(err).Msg("journal disabled")
		} else {
			defer func() {
				if err := journal.Close(); err != nil {
					log.Warn().Err(err).Msgf("db close")
				}
			}()
			ops = append(ops, domain.WithJournal(journal))
		}
	}

	svc := domain.NewService(
		creds,
		adapter.NewEntraAdapter(
			adapter.WithTimeout(cfg.RequestTimeout),
			adapter.WithAuthority(cfg.Authority),
		),
		adapter.NewGraphAdapter(
			adapter.WithTimeout(cfg.RequestTimeout),
			adapter.WithGraphURL(cfg.GraphURL),
		),
		ops...,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	grp, ctx := errgroup.WithContext(ctx)

	// Signals also cancel the startup token request.
	grp.Go(func() error {
		select {
		case s := <-c:
			return fmt.Errorf("%w: %v", errSignal, s)
		case <-ctx.Done():
			return nil
		}
	})

	grp.Go(func() error {
		defer cancel()

		if err := svc.Authenticate(ctx); err != nil {
			return err
		}

		return NewShell(svc, in, out).Run(ctx)
	})

	err = grp.Wait()
	if errors.Is(err, errSignal) {
		log.Info().Err(err).Msg("closing the app")
		return nil
	}

	return err
}

// Shell is the interactive session. Commands run one at a time.
type Shell struct {
	svc   domain.IService
	input *lineReader
	out   io.Writer
}

func NewShell(svc domain.IService, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		svc:   svc,
		input: scanLines(in),
		out:   out,
	}
}

// lineReader feeds input lines to a channel so reads can be abandoned on
// cancellation. lines closes at end of input, with err set first when the
// scanner failed.
type lineReader struct {
	lines chan string
	done  chan struct{}
	once  sync.Once
	err   error
}

func scanLines(in io.Reader) *lineReader {
	r := &lineReader{
		lines: make(chan string),
		done:  make(chan struct{}),
	}

	go func() {
		defer close(r.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case r.lines <- scanner.Text():
			case <-r.done:
				return
			}
		}
		r.err = scanner.Err()
	}()

	return r
}

// stop releases the scanning goroutine once no more lines will be read.
func (r *lineReader) stop() {
	r.once.Do(func() { close(r.done) })
}

func (s *Shell) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.input.lines:
		if !ok {
			if s.input.err != nil {
				return "", fmt.Errorf("%w: %w", errInput, s.input.err)
			}
			return "", io.EOF
		}
		return line, nil
	}
}

func (s *Shell) ask(ctx context.Context, question string) (string, error) {
	_, _ = fmt.Fprint(s.out, question)
	answer, err := s.readLine(ctx)
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimRight(answer, "\r"), nil
}

func (s *Shell) println(color pterm.Color, a ...any) {
	_, _ = fmt.Fprintln(s.out, color.Sprint(a...))
}

// Run prompts and dispatches until quit or end of input, both of which return
// nil. An unreadable input line ends the loop with an error.
func (s *Shell) Run(ctx context.Context) error {
	defer s.input.stop()

	for {
		_, _ = fmt.Fprint(s.out, Prompt)

		line, err := s.readLine(ctx)
		if err == io.EOF {
			_, _ = fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := s.Handle(ctx, line)
		if quit {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, errInput) {
				return err
			}
			s.println(pterm.FgRed, "error: "+err.Error())
		}
	}
}

// Handle runs a single command line. It reports quit for the quit command.
func (s *Shell) Handle(ctx context.Context, input string) (bool, error) {
	switch strings.TrimSpace(input) {
	case "help":
		for _, line := range helpLines {
			s.println(pterm.FgGreen, line)
		}
	case "list":
		s.println(pterm.FgGreen, "list")
		users, err := s.svc.ListUsers(ctx)
		if err != nil {
			return false, err
		}
		s.println(pterm.FgGreen, string(users))
	case "add-applicant":
		s.println(pterm.FgGreen, "add-applicant")
		return false, s.addApplicant(ctx)
	case "add-entity":
		s.println(pterm.FgGreen, "add-entity")
		return false, s.addEntity(ctx)
	case "quit":
		s.println(pterm.FgGreen, "quit")
		return true, nil
	default:
		s.println(pterm.FgRed, "Invalid command")
	}

	return false, nil
}

func (s *Shell) addApplicant(ctx context.Context) error {
	if err := s.svc.RequireExtensionAppID(); err != nil {
		return err
	}

	var (
		in  domain.ApplicantInput
		err error
	)
	if in.Name, err = s.ask(ctx, " Name: "); err != nil {
		return err
	}
	if in.Email, err = s.ask(ctx, " Email: "); err != nil {
		return err
	}
	if in.Password, err = s.ask(ctx, "Applicant Password: "); err != nil {
		return err
	}

	user, err := s.svc.NewApplicant(in)
	if err != nil {
		return err
	}

	return s.submit(ctx, domain.AccountApplicant, user)
}

func (s *Shell) addEntity(ctx context.Context) error {
	if err := s.svc.RequireExtensionAppID(); err != nil {
		return err
	}

	var (
		in  domain.EntityInput
		err error
	)
	if in.Name, err = s.ask(ctx, " Name: "); err != nil {
		return err
	}
	if in.Email, err = s.ask(ctx, " Email: "); err != nil {
		return err
	}
	if in.EntityName, err = s.ask(ctx, "Entity Name: "); err != nil {
		return err
	}
	if in.EntityID, err = s.ask(ctx, "Entity Id: "); err != nil {
		return err
	}
	if in.Password, err = s.ask(ctx, "Password: "); err != nil {
		return err
	}

	user, err := s.svc.NewEntity(in)
	if err != nil {
		return err
	}

	return s.submit(ctx, domain.AccountEntity, user)
}

// submit prints the outgoing payload, creates the account and prints the raw
// response.
func (s *Shell) submit(ctx context.Context, kind string, user *domain.UserSpecification) error {
	payload, err := user.MarshalJSON()
	if err != nil {
		return err
	}
	s.println(pterm.FgBlue, string(payload))

	res, err := s.svc.AddUser(ctx, kind, user)
	if err != nil {
		return err
	}
	s.println(pterm.FgGreen, string(res))

	return nil
}
