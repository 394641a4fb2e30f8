// Package command provides the CLI command definitions for students-cli.
//
// It uses urfave/cli/v2 for command parsing. The create command drives
// the same form model a browser client would, so validation messages
// match.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/aanand-mishra/student-registry/internal/client"
	"github.com/aanand-mishra/student-registry/internal/client/form"
	"github.com/aanand-mishra/student-registry/internal/types"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"

	requestTimeout = 30 * time.Second
)

// Version is set via ldflags.
var Version = "dev"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "students-cli",
		Usage:   "Student registry command-line client",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "API base URL",
				EnvVars: []string{"STUDENTS_API_URL"},
				Value:   "http://localhost:5000/api/v1",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: table, json",
				Value:   OutputTable,
			},
		},
		Commands: []*cli.Command{
			CreateCommand(),
			ListCommand(),
		},
	}
}

// CreateCommand returns the create subcommand.
func CreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a student",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "first-name", Aliases: []string{"f"}, Usage: "First name (required)"},
			&cli.StringFlag{Name: "last-name", Aliases: []string{"l"}, Usage: "Last name"},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email (required)"},
			&cli.StringFlag{Name: "phone", Aliases: []string{"p"}, Usage: "Phone number"},
		},
		Action: createStudent,
	}
}

// ListCommand returns the list subcommand.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List all students",
		Action:  listStudents,
	}
}

func newClient(c *cli.Context) *client.Client {
	return client.New(c.String("server"))
}

func createStudent(c *cli.Context) error {
	f := &form.Form{
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
		Email:     c.String("email"),
		Phone:     c.String("phone"),
	}

	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	created, err := f.Submit(ctx, newClient(c))
	if err != nil {
		return errors.New(f.Error)
	}

	if c.String("output") == OutputJSON {
		return writeJSON(c.App.Writer, created)
	}

	fmt.Fprintln(c.App.Writer, f.Success)
	return writeTable(c.App.Writer, []types.PublicStudent{created.Public()})
}

func listStudents(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	students, err := newClient(c).ListStudents(ctx)
	if err != nil {
		return err
	}

	switch c.String("output") {
	case OutputJSON:
		return writeJSON(c.App.Writer, students)
	case OutputTable:
		if len(students) == 0 {
			fmt.Fprintln(c.App.Writer, "No students found.")
			return nil
		}
		return writeTable(c.App.Writer, students)
	default:
		return fmt.Errorf("unknown output format %q", c.String("output"))
	}
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeTable(w io.Writer, students []types.PublicStudent) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tCREATED")
	for _, s := range students {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Email, s.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
