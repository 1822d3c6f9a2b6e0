package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	reporterAuth "github.com/MrEthical07/reporterAuth"
)

// Provisioner is satisfied by *reporterAuth.Engine.
type Provisioner interface {
	ProvisionUser(ctx context.Context, req reporterAuth.ProvisionRequest) (reporterAuth.Profile, error)
}

// CreateUser runs the create-user command. Flags it does not receive are
// prompted for; the password is always prompted.
func CreateUser(ctx context.Context, p Provisioner, pr *Prompter, args []string) error {
	const op = "cli.CreateUser"

	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("username", "", "display name")
	email := fs.String("email", "", "login email")
	role := fs.String("role", string(reporterAuth.RoleAdmin), "user or admin")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var err error
	if *username == "" {
		if *username, err = pr.Line("Username"); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if *email == "" {
		if *email, err = pr.Line("Email"); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	password, err := pr.NewPassword()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	profile, err := p.ProvisionUser(ctx, reporterAuth.ProvisionRequest{
		Username: *username,
		Email:    *email,
		Password: password,
		Role:     reporterAuth.Role(*role),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = fmt.Fprintf(pr.out, "created %s %s (%s)\n", profile.Role, profile.Email, profile.ID)
	return err
}
