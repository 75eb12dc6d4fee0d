package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-store/internal/events"
	"github.com/SAP-F-2025/lms-store/internal/models"
	"github.com/SAP-F-2025/lms-store/internal/repositories"
	"github.com/SAP-F-2025/lms-store/internal/repositories/casdoor"
	"github.com/SAP-F-2025/lms-store/internal/services"
)

var (
	errHelp              = errors.New("help provided")
	errIntegrityIssues   = errors.New("integrity issues found")
	errDirectoryDisabled = errors.New("remote user directory is not configured")
)

type commandLine struct {
	services  services.ServiceManager
	store     *repositories.Store
	bus       *events.Bus
	directory *casdoor.UserDirectory
	out       io.Writer
	logger    *slog.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  init                                          - seed absent collections and print their sizes")
	fmt.Fprintln(cli.out, "  users [-role R] [-email E] [-remote]          - list or look up users")
	fmt.Fprintln(cli.out, "  users -add -name N -first F -email E [-role R -actor ID]")
	fmt.Fprintln(cli.out, "  users -remove ID -actor ID                    - remove a user (no cascade)")
	fmt.Fprintln(cli.out, "  reassign -user ID -course ID                  - replace the enrollment of a user")
	fmt.Fprintln(cli.out, "  progress -user ID (-value N | -complete MODULE)")
	fmt.Fprintln(cli.out, "  quiz -user ID -course ID -module ID -answers q1=0,q2=1")
	fmt.Fprintln(cli.out, "  send -from ID -to ID|global [-text T] [-file PATH]")
	fmt.Fprintln(cli.out, "  channel -user ID [-with ID] [-list]           - print a channel or the conversation list")
	fmt.Fprintln(cli.out, "  check                                         - report dangling references")
	fmt.Fprintln(cli.out, "  export [-out roster.xlsx]                     - write the roster workbook")
	fmt.Fprintln(cli.out, "  watch [-interval 2s]                          - print change notifications until interrupted")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmdArgs := args[2:]
	switch args[1] {
	case "init":
		return cli.initStore(ctx)
	case "users":
		return cli.users(ctx, cmdArgs)
	case "reassign":
		return cli.reassign(ctx, cmdArgs)
	case "progress":
		return cli.progress(ctx, cmdArgs)
	case "quiz":
		return cli.quiz(ctx, cmdArgs)
	case "send":
		return cli.send(ctx, cmdArgs)
	case "channel":
		return cli.channel(ctx, cmdArgs)
	case "check":
		return cli.check(ctx)
	case "export":
		return cli.export(ctx, cmdArgs)
	case "watch":
		return cli.watch(ctx, cmdArgs)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, string(data))
	return err
}

// ===== COMMANDS =====

func (cli *commandLine) initStore(ctx context.Context) error {
	if err := cli.services.HealthCheck(ctx); err != nil {
		return err
	}
	users, err := cli.services.User().List(ctx, "")
	if err != nil {
		return err
	}
	courses, err := cli.services.Course().List(ctx, services.CourseFilter{IncludeDrafts: true})
	if err != nil {
		return err
	}
	enrollments, err := cli.store.Enrollments().Get(ctx)
	if err != nil && !repositories.IsCorruptionError(err) {
		return err
	}
	messages, err := cli.store.Messages().Get(ctx)
	if err != nil && !repositories.IsCorruptionError(err) {
		return err
	}

	fmt.Fprintf(cli.out, "users: %d\ncourses: %d\nenrollments: %d\nmessages: %d\n",
		len(users), len(courses), len(enrollments), len(messages))
	return nil
}

func (cli *commandLine) users(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("users")
	role := fs.String("role", "", "Only list users holding this role.")
	email := fs.String("email", "", "Look a single user up by email.")
	remote := fs.Bool("remote", false, "Read from the remote user directory instead of the store.")
	add := fs.Bool("add", false, "Create an account.")
	remove := fs.String("remove", "", "Id of the user to remove.")
	actor := fs.String("actor", "", "Id of the administrator performing the change.")
	name := fs.String("name", "", "Family name of the new account.")
	first := fs.String("first", "", "Given name of the new account.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	users := cli.services.User()
	switch {
	case *add:
		if *role == "" || models.UserRole(*role) == models.RoleStudent {
			user, err := users.Register(ctx, &services.RegisterRequest{Name: *name, FirstName: *first, Email: *email})
			if err != nil {
				return err
			}
			return cli.printJSON(user)
		}
		user, err := users.AddStaff(ctx, *actor, &services.StaffRequest{
			Name: *name, FirstName: *first, Email: *email, Role: models.UserRole(*role),
		})
		if err != nil {
			return err
		}
		return cli.printJSON(user)

	case *remove != "":
		if err := users.Remove(ctx, *actor, *remove); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "removed %s\n", *remove)
		return nil

	case *email != "":
		user, err := users.FindByEmail(ctx, *email)
		if err != nil && services.IsNotFound(err) && cli.directory.Enabled() {
			remoteUser, rerr := cli.directory.GetByEmail(ctx, *email)
			if rerr != nil {
				return rerr
			}
			return cli.printJSON(remoteUser)
		}
		if err != nil {
			return err
		}
		return cli.printJSON(user)

	case *remote:
		if !cli.directory.Enabled() {
			return errDirectoryDisabled
		}
		remoteUsers, err := cli.directory.FetchUsers(ctx)
		if err != nil {
			return err
		}
		return cli.printJSON(filterRole(remoteUsers, models.UserRole(*role)))

	default:
		list, err := users.List(ctx, models.UserRole(*role))
		if err != nil {
			return err
		}
		return cli.printJSON(list)
	}
}

func filterRole(users []models.User, role models.UserRole) []models.User {
	if role == "" {
		return users
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

func (cli *commandLine) reassign(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("reassign")
	user := fs.String("user", "", "The user to enroll.")
	course := fs.String("course", "", "The course the user now takes.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *user == "" || *course == "" {
		fs.Usage()
		return errHelp
	}

	enrollment, err := cli.services.Enrollment().Reassign(ctx, *user, *course)
	if err != nil {
		return err
	}
	return cli.printJSON(enrollment)
}

func (cli *commandLine) progress(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("progress")
	user := fs.String("user", "", "The enrolled user.")
	value := fs.Int("value", -1, "Progress percentage to store (clamped to 0-100).")
	complete := fs.String("complete", "", "Id of a module to mark as completed.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *user == "" || (*value < 0 && *complete == "") {
		fs.Usage()
		return errHelp
	}

	var (
		enrollment *models.Enrollment
		err        error
	)
	if *complete != "" {
		enrollment, err = cli.services.Enrollment().CompleteModule(ctx, *user, *complete)
	} else {
		enrollment, err = cli.services.Enrollment().SetProgress(ctx, *user, *value)
	}
	if err != nil {
		return err
	}
	return cli.printJSON(enrollment)
}

func (cli *commandLine) quiz(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("quiz")
	user := fs.String("user", "", "The learner submitting the quiz.")
	course := fs.String("course", "", "Course of the module.")
	module := fs.String("module", "", "Module carrying the quiz.")
	answers := fs.String("answers", "", "Comma separated question=option pairs, options start at 0.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *user == "" || *course == "" || *module == "" {
		fs.Usage()
		return errHelp
	}

	parsed, err := parseAnswers(*answers)
	if err != nil {
		return err
	}
	submission, err := cli.services.Quiz().Submit(ctx, *user, *course, *module, parsed)
	if err != nil {
		return err
	}
	return cli.printJSON(submission)
}

// parseAnswers reads "q1=0,q2=1".
func parseAnswers(value string) (map[string]int, error) {
	answers := make(map[string]int)
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, option, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("answer %q must look like question=option", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(option))
		if err != nil {
			return nil, fmt.Errorf("option of %s must be a number (got %q)", id, option)
		}
		answers[strings.TrimSpace(id)] = n
	}
	return answers, nil
}

func (cli *commandLine) send(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("send")
	from := fs.String("from", "", "Sender id.")
	to := fs.String("to", models.GlobalChannelID, "Recipient id, or global.")
	text := fs.String("text", "", "Message text.")
	file := fs.String("file", "", "Path of a file to attach.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	req := &services.SendMessageRequest{FromID: *from, ToID: *to, Text: *text}
	if *file != "" {
		attachment, err := cli.readAttachment(ctx, *file)
		if err != nil {
			return err
		}
		req.Attachment = attachment
	}

	msg, err := cli.services.Chat().Send(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "sent %s\n", msg.ID)
	return nil
}

func (cli *commandLine) readAttachment(ctx context.Context, path string) (*models.Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return cli.services.Chat().EncodeAttachment(ctx, path, "", info.Size(), f)
}

func (cli *commandLine) channel(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("channel")
	user := fs.String("user", "", "The user reading the channel.")
	with := fs.String("with", "", "The other participant; empty for the global channel.")
	list := fs.Bool("list", false, "Print the conversation list instead of a channel.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *user == "" {
		fs.Usage()
		return errHelp
	}

	chat := cli.services.Chat()
	if *list {
		conversations, err := chat.Conversations(ctx, *user)
		if err != nil {
			return err
		}
		return cli.printJSON(conversations)
	}

	var (
		messages []models.ChatMessage
		err      error
	)
	if *with == "" || *with == models.GlobalChannelID {
		messages, err = chat.GlobalChannel(ctx)
	} else {
		messages, err = chat.DirectChannel(ctx, *user, *with)
	}
	if err != nil {
		return err
	}

	users, err := cli.services.User().List(ctx, "")
	if err != nil {
		return err
	}
	for _, m := range messages {
		line := fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Format(time.DateTime), services.SenderLabel(users, m.FromID), m.Text)
		if m.HasAttachment() {
			line += fmt.Sprintf(" (file: %s, %d bytes)", m.FileName, m.FileSize)
		}
		fmt.Fprintln(cli.out, line)
	}
	return nil
}

func (cli *commandLine) check(ctx context.Context) error {
	report, err := cli.services.Integrity().Check(ctx)
	if err != nil {
		return err
	}
	if err := cli.printJSON(report); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%w: %d", errIntegrityIssues, len(report.Issues))
	}
	return nil
}

func (cli *commandLine) export(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("export")
	out := fs.String("out", "roster.xlsx", "Destination of the workbook.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := cli.services.Report().ExportRoster(ctx, f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "roster written to %s\n", *out)
	return nil
}

func (cli *commandLine) watch(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("watch")
	interval := fs.Duration("interval", repositories.DefaultWatchInterval, "How often the store is polled.")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	notifications, err := cli.bus.Subscribe(ctx, events.TopicStoreChanged)
	if err != nil {
		return err
	}

	watcher := repositories.NewWatcher(cli.store, cli.bus, *interval, cli.logger)
	errs := make(chan error, 1)
	go func() {
		errs <- watcher.Run(ctx)
	}()

	for {
		select {
		case event, ok := <-notifications:
			if !ok {
				return <-errs
			}
			fmt.Fprintf(cli.out, "%s %s count=%d\n", event.Timestamp.Format(time.RFC3339), event.Data.Collection, event.Data.Count)
		case err := <-errs:
			return err
		}
	}
}
