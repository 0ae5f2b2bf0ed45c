package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicdash/internal/shared"
	"github.com/desertthunder/musicdash/internal/tasks"
	"github.com/desertthunder/musicdash/internal/ui"
)

// Signup creates an account and stores its session.
func (r *Runner) Signup(ctx context.Context, cmd *cli.Command) error {
	b, err := r.components(ctx)
	if err != nil {
		return err
	}

	account := tasks.NewAccount(b.NewAuth(), r.logger)
	sess, err := account.Signup(ctx, tasks.SignupInput{
		Name:     cmd.String("name"),
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
		Confirm:  cmd.String("confirm"),
	})
	if err != nil {
		return err
	}

	if err := r.saveToken(account.Token()); err != nil {
		return err
	}

	user, _ := sess.User()
	return r.writeLine(ui.Success(fmt.Sprintf("Welcome, %s! You are signed in.", user.Name)))
}

// Login signs in and stores the session.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	b, err := r.components(ctx)
	if err != nil {
		return err
	}

	account := tasks.NewAccount(b.NewAuth(), r.logger)
	sess, err := account.Login(ctx, tasks.LoginInput{
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
	})
	if err != nil {
		return err
	}

	if err := r.saveToken(account.Token()); err != nil {
		return err
	}

	user, _ := sess.User()
	return r.writeLine(ui.Success(fmt.Sprintf("Signed in as %s", user.Email)))
}

// Logout ends the session. The local token is removed even when the gateway call fails.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	_, account, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	logoutErr := account.Logout(ctx, sess)
	if err := r.clearToken(); err != nil {
		return err
	}
	if logoutErr != nil {
		r.logger.Warn("gateway logout failed, local session removed", "error", logoutErr)
	}
	return r.writeLine(ui.Success("Signed out"))
}

// DeleteAccount removes the account after an explicit --yes.
func (r *Runner) DeleteAccount(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to delete your account", shared.ErrMissingArgument)
	}

	_, account, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	if err := account.DeleteAccount(ctx, sess); err != nil {
		return err
	}
	if err := r.clearToken(); err != nil {
		return err
	}
	return r.writeLine(ui.Success("Account deleted"))
}

// Profile shows the signed-in user or updates the display name with --name.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	_, account, sess, err := r.resume(ctx)
	if err != nil {
		return err
	}

	user, err := sess.User()
	if err != nil {
		return err
	}

	if cmd.IsSet("name") {
		if err := account.UpdateProfile(ctx, sess, tasks.ProfileInput{Name: cmd.String("name"), Email: user.Email}); err != nil {
			return err
		}
		user, _ = sess.User()
		if !cmd.Bool("json") {
			r.writeLine(ui.Success("Profile updated"))
		}
	}

	return r.writeResult(cmd, user, func() string {
		return fmt.Sprintf("%s\nName:   %s\nEmail:  %s\nJoined: %s",
			ui.Title("Profile"), user.Name, user.Email, user.CreatedAt.Format("Jan 2, 2006"))
	})
}

// PasswordStrength scores a password without creating anything.
func (r *Runner) PasswordStrength(ctx context.Context, cmd *cli.Command) error {
	password := cmd.StringArg("password")
	if password == "" {
		return fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	return r.writeLine(ui.Strength(shared.MeasurePassword(password)))
}

func passwordFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "Account password",
		Sources: cli.EnvVars("MUSICDASH_PASSWORD"),
	}
}

// accountCommand handles signup, login & profile operations
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "account",
		Aliases: []string{"auth"},
		Usage:   "Sign up, sign in & manage your profile",
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
					passwordFlag(),
					&cli.StringFlag{Name: "confirm", Usage: "Password confirmation", Sources: cli.EnvVars("MUSICDASH_PASSWORD")},
				},
				Action: r.Signup,
			},
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
					passwordFlag(),
				},
				Action: r.Login,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.Logout,
			},
			{
				Name:  "delete",
				Usage: "Delete your account",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm deletion"},
				},
				Action: r.DeleteAccount,
			},
			{
				Name:  "profile",
				Usage: "Show your profile, or change your display name",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New display name"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.Profile,
			},
			{
				Name:      "strength",
				Usage:     "Score a password the way signup does",
				Arguments: []cli.Argument{&cli.StringArg{Name: "password"}},
				Action:    r.PasswordStrength,
			},
		},
	}
}
