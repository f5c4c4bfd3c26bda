package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/attendance/core"
	"github.com/trezcool/attendance/core/authz"
	"github.com/trezcool/attendance/core/batch"
	"github.com/trezcool/attendance/core/session"
	"github.com/trezcool/attendance/core/upload"
	"github.com/trezcool/attendance/services/gateway"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotSignedIn = errors.New("the API token was rejected")
	errForbidden   = errors.New("you are not allowed to run this command")
	errAborted     = errors.New("aborted")
)

var (
	adminGate       = authz.NewGate(authz.HasRole(session.RoleSystemAdmin))
	coordinatorGate = authz.NewGate(authz.IsCourseCoordinator)
)

const tokenUsage = "The API token. Defaults to $<ENV>_API_TOKEN, prompted when empty."

type commandLine struct {
	gw        *gateway.Client
	logger    core.Logger
	env       string
	limits    upload.Limits
	timeout   time.Duration
	startWeek int // default of -start-week
	in        *bufio.Reader
	out       io.Writer
}

func (cli *commandLine) defaultStartWeek() int {
	if cli.startWeek < batch.MinStartWeek || cli.startWeek > batch.MaxStartWeek {
		return batch.MinStartWeek
	}
	return cli.startWeek
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  whoami                                        - show who the API token belongs to")
	fmt.Fprintln(cli.out, "  batch [-start-week N] [-yes] FILE...          - create classes from batch spreadsheets")
	fmt.Fprintln(cli.out, "  managers [-yes] FILE...                       - assign class group managers from spreadsheets")
	fmt.Fprintln(cli.out, "  export [-out DIR]                             - download the data export")
	fmt.Fprintln(cli.out, "  report -class ID [-out DIR]                   - download the attendance report of a class")
	fmt.Fprintln(cli.out, "Every command accepts -token TOKEN.")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	whoamiCmd := flag.NewFlagSet("whoami", flag.ExitOnError)
	whoamiToken := whoamiCmd.String("token", "", tokenUsage)

	batchCmd := flag.NewFlagSet("batch", flag.ExitOnError)
	batchToken := batchCmd.String("token", "", tokenUsage)
	batchStartWeek := batchCmd.Int("start-week", cli.defaultStartWeek(), "The academic week the schedules start on (1 to 53).")
	batchYes := batchCmd.Bool("yes", false, "Create the classes without asking for confirmation.")

	managersCmd := flag.NewFlagSet("managers", flag.ExitOnError)
	managersToken := managersCmd.String("token", "", tokenUsage)
	managersYes := managersCmd.Bool("yes", false, "Assign the managers without asking for confirmation.")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportToken := exportCmd.String("token", "", tokenUsage)
	exportOut := exportCmd.String("out", ".", "The directory the export is saved to.")

	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	reportToken := reportCmd.String("token", "", tokenUsage)
	reportClass := reportCmd.Int("class", 0, "The ID of the coordinated class.")
	reportOut := reportCmd.String("out", ".", "The directory the report is saved to.")

	switch args[1] {
	case "whoami":
		if err := whoamiCmd.Parse(args[2:]); err != nil {
			return err
		}
		_, sess, err := cli.signIn(*whoamiToken, nil)
		if err != nil {
			return err
		}
		cli.whoami(sess)
		return nil

	case "batch":
		if err := batchCmd.Parse(args[2:]); err != nil {
			return err
		}
		if batchCmd.NArg() == 0 {
			batchCmd.Usage()
			return errHelp
		}
		client, _, err := cli.signIn(*batchToken, &adminGate)
		if err != nil {
			return err
		}
		return cli.uploadBatch(client, batchCmd.Args(), *batchStartWeek, *batchYes)

	case "managers":
		if err := managersCmd.Parse(args[2:]); err != nil {
			return err
		}
		if managersCmd.NArg() == 0 {
			managersCmd.Usage()
			return errHelp
		}
		client, _, err := cli.signIn(*managersToken, &adminGate)
		if err != nil {
			return err
		}
		return cli.uploadManagers(client, managersCmd.Args(), *managersYes)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		client, _, err := cli.signIn(*exportToken, &adminGate)
		if err != nil {
			return err
		}
		return cli.download(*exportOut, func(ctx context.Context) (gateway.Download, error) {
			return client.DownloadDataExport(ctx)
		})

	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reportClass <= 0 {
			reportCmd.Usage()
			return errHelp
		}
		client, _, err := cli.signIn(*reportToken, &coordinatorGate)
		if err != nil {
			return err
		}
		return cli.download(*reportOut, func(ctx context.Context) (gateway.Download, error) {
			return client.DownloadReport(ctx, *reportClass)
		})

	default:
		cli.printUsage()
		return errHelp
	}
}

// signIn resolves the API token, then asks the API who it belongs to, once.
// When gate is set, the session must pass it.
func (cli *commandLine) signIn(token string, gate *authz.Gate) (*gateway.Client, *session.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(cli.env + "_API_TOKEN"))
	}
	if token == "" {
		fmt.Fprint(cli.out, "Enter API token:")
		raw, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return nil, nil, err
		}
		if token = strings.TrimSpace(string(raw)); token == "" {
			return nil, nil, errHelp
		}
	}

	client := cli.gw.WithToken(token)
	store := session.NewStore(client.GetSession, cli.logger)
	store.Bootstrap(context.Background())

	sess, _ := store.Current()
	if sess == nil {
		return nil, nil, errNotSignedIn
	}
	if gate != nil && gate.Decide(store) != authz.Allow {
		return nil, nil, errForbidden
	}
	return client, sess, nil
}

func (cli *commandLine) whoami(sess *session.Session) {
	fmt.Fprintf(cli.out, "%s <%s>\n", sess.User.Name, sess.User.Email)
	fmt.Fprintf(cli.out, "role: %s\n", sess.User.Role)
	if sess.Capabilities.CanManageClassGroups {
		fmt.Fprintln(cli.out, "can manage class groups")
	}
	if sess.Capabilities.IsCourseCoordinator {
		fmt.Fprintln(cli.out, "is a course coordinator")
	}
}

// confirm asks a yes/no question on the command line. Anything but y/yes is a no.
func (cli *commandLine) confirm(question string) bool {
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	answer, err := cli.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = core.CleanString(answer, true /* lower */)
	return answer == "y" || answer == "yes"
}
