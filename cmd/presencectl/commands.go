package main

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/presencepro/presencepro-go/pkg/presence"
)

const dateLayout = "2006-01-02"

func loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			displayBanner()

			if password == "" {
				password = os.Getenv("PRESENCE_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return errors.Wrap(err, "reading password")
				}
				password = strings.TrimSpace(line)
			}

			user, err := client.Auth.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}

			logger.Info().Str("username", user.Username).Str("role", user.Role).Msg("signed in")
			fmt.Printf("Signed in as %s %s (%s)\n", user.FirstName, user.LastName, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (otherwise $PRESENCE_PASSWORD or prompt)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := client.Auth.Logout(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			user, err := client.Auth.CurrentUser()
			if err != nil {
				return err
			}
			fmt.Printf("%s %s <%s> role=%s\n", user.FirstName, user.LastName, user.Email, user.Role)
			return nil
		},
	}
}

func studentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Roster management",
	}

	var classID int
	list := &cobra.Command{
		Use:   "list",
		Short: "List students",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			var (
				students []*presence.Student
				err      error
			)
			if classID != 0 {
				students, err = client.Classes.Students(c.Context(), classID)
			} else {
				students, err = client.Students.List(c.Context())
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCLASS\tSTATUS")
			for _, s := range students {
				fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\n", s.ID, s.FirstName, s.LastName, s.ClassName, s.Status)
			}
			return w.Flush()
		},
	}
	list.Flags().IntVar(&classID, "class", 0, "filter by class ID")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Wrap(err, "student ID")
			}
			s, err := client.Students.Get(c.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("#%d %s %s\n  class: %s\n  status: %s\n  born: %s\n  contact: %s\n",
				s.ID, s.FirstName, s.LastName, s.ClassName, s.Status, s.BirthDate, s.ParentContact)
			return nil
		},
	}

	registerFace := &cobra.Command{
		Use:   "register-face <id> <image-file>",
		Short: "Upload a reference photo for face check-in",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Wrap(err, "student ID")
			}
			data, err := readImageDataURI(args[1])
			if err != nil {
				return err
			}
			if err := client.Students.RegisterFace(c.Context(), id, data); err != nil {
				return err
			}
			fmt.Println("Face registered")
			return nil
		},
	}

	cmd.AddCommand(list, show, registerFace)
	return cmd
}

func classesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Class management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List classes",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			classes, err := client.Classes.List(c.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLEVEL")
			for _, cl := range classes {
				fmt.Fprintf(w, "%d\t%s\t%s\n", cl.ID, cl.Name, cl.Level)
			}
			return w.Flush()
		},
	})
	return cmd
}

func attendanceCmd() *cobra.Command {
	var (
		startStr, endStr, status string
		classID, studentID       int
		limit                    int
	)
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "List presence records",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			query := client.Attendance.Query()
			if startStr != "" || endStr != "" {
				start, err := parseDate(startStr)
				if err != nil {
					return err
				}
				end, err := parseDate(endStr)
				if err != nil {
					return err
				}
				query = query.Between(start, end)
			}
			if classID != 0 {
				query = query.ForClass(classID)
			}
			if studentID != 0 {
				query = query.ForStudent(studentID)
			}
			if status != "" {
				query = query.WithStatus(status)
			}
			if limit != 0 {
				query = query.Limit(limit)
			}

			records, err := query.Execute(c.Context())
			if err != nil {
				return err
			}
			printRecords(records)
			return nil
		},
	}
	cmd.Flags().StringVar(&startStr, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endStr, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&classID, "class", 0, "filter by class ID")
	cmd.Flags().IntVar(&studentID, "student", 0, "filter by student ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 0, "max records")
	return cmd
}

func checkinCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "checkin <image-file>",
		Short: "Submit a camera frame for face check-in",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			data, err := readImageDataURI(args[0])
			if err != nil {
				return err
			}

			result, err := client.Recognition.Recognize(c.Context(), data, mode)
			if err != nil {
				return err
			}
			if !result.Recognized || result.Student == nil {
				fmt.Println("No match:", result.Message)
				return nil
			}
			if result.AlreadyPresent {
				fmt.Printf("%s %s already checked in at %s\n",
					result.Student.FirstName, result.Student.LastName, result.PresenceTime)
				return nil
			}
			fmt.Printf("Matched %s %s (%.0f%% confidence), %s recorded\n",
				result.Student.FirstName, result.Student.LastName, result.Confidence*100, result.Mode)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", presence.ModeArrival, "arrivee or depart")
	return cmd
}

func todayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Today's attendance summary",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			summary, err := client.Statistics.TodaySummary(c.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d/%d present (%.1f%%), %d absent\n",
				summary.Date, summary.PresentStudents, summary.TotalStudents,
				summary.AttendanceRate, summary.AbsentStudents)
			for _, cp := range summary.ClassPresence {
				fmt.Printf("  %s: %d\n", cp.ClassName, cp.Count)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		startStr, endStr string
		classID          int
		format           string
		out              string
		threshold, days  int
	)
	cmd := &cobra.Command{
		Use:   "export <jour|classe|assiduite|alertes>",
		Short: "Download a report file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			start, err := parseDate(startStr)
			if err != nil {
				return err
			}
			end, err := parseDate(endStr)
			if err != nil {
				return err
			}
			f := presence.ExportFormat(format)

			var url string
			switch args[0] {
			case "jour":
				url = client.Exports.PresenceCountByDateURL(start, end, classID, f)
			case "classe":
				url = client.Exports.PresenceCountByClassURL(start, end, f)
			case "assiduite":
				url = client.Exports.AttendanceRateURL(start, end, classID, f)
			case "alertes":
				url = client.Exports.AbsenceAlertsURL(threshold, days, f)
			default:
				return errors.Errorf("unknown report %q", args[0])
			}

			data, contentType, err := client.Exports.Download(c.Context(), url)
			if err != nil {
				return err
			}

			if out == "" {
				out = fmt.Sprintf("presences-%s.%s", args[0], format)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return errors.Wrap(err, "writing export")
			}
			logger.Debug().Str("content_type", contentType).Int("bytes", len(data)).Msg("export downloaded")
			fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&startStr, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endStr, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&classID, "class", 0, "filter by class ID")
	cmd.Flags().StringVar(&format, "format", string(presence.ExportXLSX), "xlsx, csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "alert threshold percent (alertes)")
	cmd.Flags().IntVar(&days, "days", 0, "alert lookback days (alertes)")
	return cmd
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "date %q", s)
	}
	return t, nil
}

func printRecords(records []*presence.PresenceRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT\tDATE\tSTATUS")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\n", r.ID, r.StudentFirstName, r.StudentLastName, r.Date, r.Status)
	}
	w.Flush()
	fmt.Printf("%d record(s)\n", len(records))
}

// readImageDataURI loads an image file and encodes it the way the backend's
// recognition endpoints expect.
func readImageDataURI(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "reading image")
	}

	mime := "image/jpeg"
	if strings.HasSuffix(strings.ToLower(path), ".png") {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(raw)), nil
}
