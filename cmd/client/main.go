package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/prperemyshlev/kanah-health/internal/client"
	"github.com/prperemyshlev/kanah-health/internal/config"
	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/internal/notify"
	"github.com/prperemyshlev/kanah-health/internal/onboarding"
	"github.com/prperemyshlev/kanah-health/internal/securestore"
	"github.com/prperemyshlev/kanah-health/internal/session"
	"github.com/prperemyshlev/kanah-health/pkg/observability"
)

const serviceName = "kanah-client"

// terminalNavigator prints route changes instead of swapping screens.
type terminalNavigator struct {
	out io.Writer
}

func (n *terminalNavigator) Replace(route string) {
	fmt.Fprintf(n.out, "-> %s\n", route)
}

func (n *terminalNavigator) Push(route string) {
	n.Replace(route)
}

type cli struct {
	cfg       *config.ClientConfig
	api       *client.Client
	gate      *session.Gate
	completer *onboarding.Completer
	term      *notify.Terminal
	in        *bufio.Reader
	out       io.Writer
	logger    *zap.Logger

	phone  string
	closed bool
}

func main() {
	cmd := flag.String("cmd", "status", "Command: status|signup|login|resend|recover|google|callback|onboard|logout")
	email := flag.String("email", "", "Email address (prompted when empty)")
	callbackURL := flag.String("url", "", "Callback URL for -cmd callback")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadClient(ctx)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := observability.InitLogger(cfg.Env, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := securestore.Open(cfg.StorePath, cfg.StoreKey)
	if err != nil {
		logger.Fatal("Failed to open secure store", zap.Error(err))
	}

	api, err := client.New(cfg.APIURL, cfg.APIKey, store,
		client.WithTimeout(cfg.Timeout.Duration),
		client.WithLogger(logger.Named("client")),
	)
	if err != nil {
		logger.Fatal("Failed to create API client", zap.Error(err))
	}

	in := bufio.NewReader(os.Stdin)
	c := &cli{
		cfg:       cfg,
		api:       api,
		gate:      session.NewGate(api, store, &terminalNavigator{out: os.Stdout}, session.WithLogger(logger.Named("session"))),
		completer: onboarding.NewCompleter(api, logger.Named("onboarding")),
		term:      notify.NewTerminal(os.Stdout, in),
		in:        in,
		out:       os.Stdout,
		logger:    logger,
	}

	c.gate.Resolve(ctx)

	if err := c.run(ctx, *cmd, *email, *callbackURL); err != nil {
		if errors.Is(err, session.ErrSignOutDeclined) {
			return
		}
		notify.Error(c.term, err)
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context, cmd, email, callbackURL string) error {
	switch cmd {
	case "status":
		return c.status(ctx)
	case "signup":
		return c.signup(ctx, email)
	case "login":
		if email == "" {
			email = c.prompt("Email")
		}
		if err := c.gate.SignIn(ctx, email, c.prompt("Password")); err != nil {
			return err
		}
		return c.continueOnboarding(ctx)
	case "resend":
		if email == "" {
			email = c.prompt("Email")
		}
		if err := c.gate.ResendVerification(ctx, email); err != nil {
			return err
		}
		c.term.Notify(notify.Notice{Severity: notify.SeveritySuccess, Title: "Email Sent! 📧", Message: "Check your inbox for a new verification link."})
		return nil
	case "recover":
		if email == "" {
			email = c.prompt("Email")
		}
		if err := c.api.Recover(ctx, email); err != nil {
			return err
		}
		c.term.Notify(notify.Notice{Severity: notify.SeveritySuccess, Title: "Email Sent! 📧", Message: "If an account exists, a reset link is on its way."})
		return nil
	case "google":
		authURL, err := c.gate.StartOAuth(ctx, "google", c.cfg.RedirectURL)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Open this URL to continue with Google:\n%s\n", authURL)
		if err := c.gate.CompleteOAuth(ctx, c.prompt("Paste the URL you were redirected to")); err != nil {
			return err
		}
		return c.continueOnboarding(ctx)
	case "callback":
		if callbackURL == "" {
			callbackURL = c.prompt("Callback URL")
		}
		if err := c.gate.CompleteOAuth(ctx, callbackURL); err != nil {
			return err
		}
		return c.continueOnboarding(ctx)
	case "onboard":
		return c.continueOnboarding(ctx)
	case "logout":
		return c.gate.SignOut(ctx, c.term)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *cli) status(ctx context.Context) error {
	fmt.Fprintf(c.out, "State: %s\n", c.gate.State())
	sess := c.gate.Session()
	if sess == nil {
		return nil
	}
	fmt.Fprintf(c.out, "Signed in as %s (email verified: %t)\n", sess.Email, sess.EmailVerified)

	status, err := c.completer.CheckStatus(ctx)
	if err != nil {
		return err
	}
	if status.IsComplete {
		fmt.Fprintln(c.out, "Onboarding complete")
		return nil
	}
	fmt.Fprintf(c.out, "Onboarding missing: %s\n", strings.Join(status.MissingSteps, ", "))
	return nil
}

func (c *cli) signup(ctx context.Context, email string) error {
	if email == "" {
		email = c.prompt("Email")
	}
	in := session.SignUpInput{
		Email:           email,
		Password:        c.prompt("Password"),
		ConfirmPassword: c.prompt("Confirm password"),
		FullName:        c.prompt("Full name (optional)"),
	}
	if phone := c.prompt("Phone +254XXXXXXXXX (optional)"); phone != "" {
		in.Phone = onboarding.SanitizePhone(phone)
	}

	if err := c.gate.SignUp(ctx, in); err != nil {
		return err
	}
	if c.gate.State() != session.Authenticated {
		c.term.Notify(notify.Notice{
			Severity: notify.SeverityInfo,
			Title:    "Verify Your Email",
			Message:  "We sent a link to " + email + ". Open it, then run -cmd callback with the URL you land on.",
		})
		return nil
	}
	return c.continueOnboarding(ctx)
}

// continueOnboarding runs the wizard when the gate says the user still needs it.
func (c *cli) continueOnboarding(ctx context.Context) error {
	if c.gate.State() != session.Authenticated {
		route, _ := c.gate.OnNavigationChange(session.GroupOnboarding)
		return fmt.Errorf("not signed in, go to %s", route)
	}
	if route, redirected := c.gate.OnNavigationChange(session.GroupOnboarding); redirected && route == session.RouteTabs {
		return nil
	}

	wizard := onboarding.NewWizard(c.completer, c.gate, c.gate, onboarding.WithLogger(c.logger.Named("wizard")))
	for wizard.Step() != onboarding.StepComplete {
		if c.closed {
			return io.ErrUnexpectedEOF
		}
		ev, err := c.nextEvent(wizard)
		if err != nil {
			return err
		}
		if ev == nil {
			continue
		}
		if _, err := wizard.Dispatch(ctx, ev); err != nil {
			notify.Error(c.term, err)
			var setupErr *onboarding.SetupError
			if errors.As(err, &setupErr) && !c.term.Confirm("Setup Failed", "Try again?") {
				// already shown
				return nil
			}
		}
	}
	return nil
}

// nextEvent prompts for the current step. A nil event with no error means
// the prompt was handled locally (for example, sending a code).
func (c *cli) nextEvent(w *onboarding.Wizard) (onboarding.Event, error) {
	fmt.Fprintf(c.out, "\n[%s] (type 'back' to go back)\n", w.Step())

	switch w.Step() {
	case onboarding.StepPhoneVerification:
		if c.phone == "" || w.Challenge() == nil {
			c.phone = onboarding.SanitizePhone(c.prompt("Phone +254XXXXXXXXX"))
			notice, err := w.SendCode(c.phone)
			if err != nil {
				notify.Error(c.term, err)
				return nil, nil
			}
			c.term.Notify(notice)
		}
		phone := c.phone
		code := c.prompt("6-digit code (or 'resend')")
		if code == "resend" {
			notice, err := w.SendCode(phone)
			if err != nil {
				return nil, err
			}
			c.term.Notify(notice)
			return nil, nil
		}
		w.Challenge().Enter(code)
		return onboarding.SubmitPhone{Phone: phone}, nil

	case onboarding.StepMotherDetails:
		name := c.prompt("Full name")
		if name == "back" {
			return onboarding.Back{}, nil
		}
		ev := onboarding.SubmitMotherDetails{
			FullName: name,
			Location: c.prompt("Location (optional)"),
		}
		if raw := c.prompt("Date of birth YYYY-MM-DD (optional)"); raw != "" {
			dob, err := domain.ParseDate(raw)
			if err != nil {
				notify.Error(c.term, err)
				return nil, nil
			}
			ev.DateOfBirth = &dob
		}
		if lang := c.prompt("Language english/swahili [english]"); lang != "" {
			ev.LanguagePreference = domain.Language(strings.ToLower(lang))
		}
		return ev, nil

	case onboarding.StepBabyDetails:
		raw := c.prompt("How many babies? (1-3)")
		if raw == "back" {
			return onboarding.Back{}, nil
		}
		count, err := strconv.Atoi(raw)
		if err != nil {
			return onboarding.SubmitBabyDetails{}, nil
		}
		ev := onboarding.SubmitBabyDetails{Count: count}
		for i := 1; i <= count && i <= domain.MaxBabies; i++ {
			date, err := c.promptDate(fmt.Sprintf("Baby %d birth date YYYY-MM-DD [today]", i))
			if err != nil {
				notify.Error(c.term, err)
				return nil, nil
			}
			ev.BirthDates = append(ev.BirthDates, date)
		}
		return ev, nil

	case onboarding.StepBirthType:
		switch c.prompt("Birth type: 1) vaginal 2) c-section") {
		case "back":
			return onboarding.Back{}, nil
		case "1", "vaginal":
			return onboarding.SubmitBirthType{BirthType: domain.BirthTypeVaginal}, nil
		case "2", "c-section", "c_section":
			return onboarding.SubmitBirthType{BirthType: domain.BirthTypeCSection}, nil
		default:
			return onboarding.SubmitBirthType{}, nil
		}
	}
	return nil, fmt.Errorf("no prompt for step %s", w.Step())
}

func (c *cli) promptDate(label string) (domain.Date, error) {
	raw := c.prompt(label)
	if raw == "" {
		return domain.NewDate(time.Now()), nil
	}
	return domain.ParseDate(raw)
}

func (c *cli) prompt(label string) string {
	fmt.Fprintf(c.out, "%s: ", label)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		c.closed = true
	}
	return strings.TrimSpace(line)
}
