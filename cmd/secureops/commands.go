package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	domainauth "github.com/secureops/secureops-client/internal/domain/auth"
	"github.com/secureops/secureops-client/internal/domain/job"
	apperrors "github.com/secureops/secureops-client/internal/errors"
)

// sniffLen is how much of a file http.DetectContentType looks at.
const sniffLen = 512

func newHealthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report backend health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := c.app.Client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.printer.print(h); err != nil {
				return err
			}
			if !h.Healthy() {
				return errors.New("backend is degraded")
			}
			return nil
		},
	}
}

func newSignupCmd(c *cli) *cobra.Command {
	var (
		email    string
		password string
		role     string
	)
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account (does not sign in)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				email = c.cfg.Credentials.Email
			}
			if password == "" {
				password = c.cfg.Credentials.Password
			}
			if email == "" || password == "" {
				return apperrors.Validation("email and password are required")
			}
			acct, err := c.app.Session.Signup(cmd.Context(), domainauth.SignupInput{
				Email:    email,
				Password: password,
				Role:     domainauth.Role(role),
			})
			if err != nil {
				return err
			}
			return c.printer.print(acct)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email (defaults to SECUREOPS_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (defaults to SECUREOPS_PASSWORD)")
	cmd.Flags().StringVar(&role, "role", string(domainauth.DefaultSignupRole), "Account role")
	return cmd
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Aliases: []string{"login"},
		Short:   "Sign in and print the current profile",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := c.app.EnsureSession(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer.print(profile)
		},
	}
}

// uploadOutput is printed once an upload finishes.
type uploadOutput struct {
	Job     job.Job      `json:"job"               yaml:"job"`
	Results *job.Results `json:"results,omitempty" yaml:"results,omitempty"`
}

func newUploadCmd(c *cli) *cobra.Command {
	var (
		category    = job.CategoryImage
		contentType string
		noWait      bool
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file for inspection and wait for its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			file, err := localFile(args[0], contentType)
			if err != nil {
				return err
			}

			wf, err := c.app.NewWorkflow()
			if err != nil {
				return err
			}
			defer c.app.ReleaseWorkflow(wf)

			if err := wf.SelectCategory(category); err != nil {
				return err
			}
			// Local checks run before any network call.
			if err := wf.Validate([]job.File{file}); err != nil {
				return err
			}
			if _, err := c.app.EnsureSession(ctx); err != nil {
				return err
			}

			progress := cmd.ErrOrStderr()
			started := time.Now()
			unsubscribe := wf.Subscribe(func(tr job.Transition) {
				elapsed := formatElapsed(tr.At.Sub(started))
				if tr.JobID == "" {
					_, _ = fmt.Fprintf(progress, "%s (%s)\n", tr.To, elapsed)
					return
				}
				_, _ = fmt.Fprintf(progress, "%s %s (%s)\n", tr.To, tr.JobID, elapsed)
			})
			defer unsubscribe()

			submitted, err := wf.Submit(ctx, file)
			if err != nil {
				return err
			}
			if noWait {
				return c.printer.print(uploadOutput{Job: submitted})
			}

			final, err := wf.Wait(ctx)
			if err != nil {
				if perr := c.printer.print(uploadOutput{Job: final}); perr != nil {
					return errors.Join(err, perr)
				}
				return err
			}
			res, err := wf.Results(ctx)
			if err != nil {
				return err
			}
			return c.printer.print(uploadOutput{Job: final, Results: &res})
		},
	}
	cmd.Flags().Var(&category, "category", "Upload category (image, pdf, video)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Declared content type (sniffed from the content when empty)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return as soon as the upload is accepted")
	return cmd
}

// localFile describes a file on disk as an upload candidate. The declared
// type comes from contentType or, when empty, from the file's first bytes.
func localFile(path, contentType string) (job.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return job.File{}, apperrors.ValidationField("file", fmt.Sprintf("cannot open %s: %v", path, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return job.File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return job.File{}, apperrors.ValidationField("file", path+" is a directory")
	}

	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(f, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return job.File{}, fmt.Errorf("read %s: %w", path, err)
		}
		contentType = http.DetectContentType(head[:n])
	}

	return job.File{
		Name:        info.Name(),
		Size:        info.Size(),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// statusOutput is the status command's result.
type statusOutput struct {
	JobID  string           `json:"job_id" yaml:"job_id"`
	Status job.RemoteStatus `json:"status" yaml:"status"`
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Print the backend status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.app.EnsureSession(ctx); err != nil {
				return err
			}
			remote, err := c.app.Client.Status(ctx, args[0])
			if err != nil {
				return err
			}
			return c.printer.print(statusOutput{JobID: args[0], Status: job.NormalizeRemoteStatus(remote)})
		},
	}
}

// completedJob confirms with the backend that jobID has completed.
func (c *cli) completedJob(cmd *cobra.Command, jobID string) (job.Job, error) {
	ctx := cmd.Context()
	if _, err := c.app.EnsureSession(ctx); err != nil {
		return job.Job{}, err
	}
	remote, err := c.app.Client.Status(ctx, jobID)
	if err != nil {
		return job.Job{}, err
	}
	if status := job.NormalizeRemoteStatus(remote); status != job.RemoteCompleted {
		return job.Job{}, apperrors.Validationf("job %s is not completed (status %s)", jobID, status)
	}
	return job.Job{ID: jobID, Status: job.StatusCompleted}, nil
}

func newResultsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "results <job-id>",
		Short: "Print summary, violations and proximity events of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := c.completedJob(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := c.app.Results.FetchAll(cmd.Context(), j)
			if err != nil {
				return err
			}
			return c.printer.print(res)
		},
	}
}

// reportOutput describes a saved report.
type reportOutput struct {
	JobID string `json:"job_id" yaml:"job_id"`
	Path  string `json:"path"   yaml:"path"`
	Bytes int    `json:"bytes"  yaml:"bytes"`
}

func newReportCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report <job-id>",
		Short: "Download the PDF report of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := c.completedJob(cmd, args[0])
			if err != nil {
				return err
			}
			pdf, err := c.app.Results.Report(cmd.Context(), j)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(pdf)
				return err
			}
			path := out
			if path == "" {
				path = fmt.Sprintf("report_%s.pdf", j.ID)
			}
			if err := os.WriteFile(path, pdf, 0o600); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			return c.printer.print(reportOutput{JobID: j.ID, Path: path, Bytes: len(pdf)})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Destination file; \"-\" writes the PDF to stdout")
	return cmd
}
