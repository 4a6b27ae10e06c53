package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/campusmarket/internal/client/client"
	"github.com/dmitrijs2005/campusmarket/internal/client/models"
	"github.com/dmitrijs2005/campusmarket/internal/client/services"
	"github.com/dmitrijs2005/campusmarket/internal/client/tokens"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account details and creates the account. On
// success the new user is signed in. Field errors are printed one per line.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	course, err := getSimpleText(a.reader, "Enter your course", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)
	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer wipe(confirm)

	err = a.session.Register(ctx, models.RegisterRequest{
		Email:     email,
		Password:  string(password),
		Password2: string(confirm),
		Name:      name,
		Course:    course,
	})
	if err != nil {
		a.printFieldErrors(err)
		return err
	}
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	return a.session.Login(ctx, email, string(password))
}

// Logout forgets the stored session.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	return nil
}

// WhoAmI prints the signed-in user.
func (a *App) WhoAmI(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	u := a.session.Snapshot().User
	if u == nil {
		return services.ErrNotAuthenticated
	}
	verified := "not verified"
	if u.EmailVerified {
		verified = "verified"
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", u.DisplayName(), u.Email, verified)
	if u.Profile.Course != "" {
		fmt.Fprintf(a.out, "Course: %s\n", u.Profile.Course)
	}
	a.printTokenExpiry(ctx)
	return nil
}

// printTokenExpiry shows when the stored access token lapses. Tokens that
// are not JWTs are skipped.
func (a *App) printTokenExpiry(ctx context.Context) {
	access, err := a.api.Tokens().Access(ctx)
	if err != nil || access == "" {
		return
	}
	claims, err := tokens.ParseClaims(access)
	if err != nil {
		a.logger.Debug(ctx, "access token is not a readable JWT", "error", err)
		return
	}
	switch {
	case claims.ExpiresAt.IsZero():
	case claims.Expired(time.Now()):
		fmt.Fprintln(a.out, "Access token expired, it will be refreshed on the next request")
	default:
		fmt.Fprintf(a.out, "Access token valid until %s\n", claims.ExpiresAt.Local().Format(time.DateTime))
	}
}

// Profile updates the signed-in user's name and course. Empty answers keep
// the current value.
func (a *App) Profile(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	var upd models.ProfileUpdate
	name, err := getSimpleText(a.reader, "New name (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if name != "" {
		upd.Name = &name
	}
	course, err := getSimpleText(a.reader, "New course (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if course != "" {
		upd.Course = &course
	}
	if upd.Name == nil && upd.Course == nil {
		return nil
	}

	u, err := a.session.UpdateProfile(ctx, upd)
	if err != nil {
		a.printFieldErrors(err)
		return err
	}
	fmt.Fprintf(a.out, "Profile updated: %s\n", u.DisplayName())
	return nil
}

// Verify sends a verification code to the signed-in user's email and
// confirms it.
func (a *App) Verify(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	u := a.session.Snapshot().User
	if u == nil {
		return services.ErrNotAuthenticated
	}
	if u.EmailVerified {
		fmt.Fprintln(a.out, "Email already verified")
		return nil
	}
	if err := a.api.SendVerification(ctx, u.Email); err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, fmt.Sprintf("Enter the code sent to %s", u.Email), a.out)
	if err != nil {
		return err
	}
	if err := a.api.VerifyEmail(ctx, u.Email, code); err != nil {
		return err
	}
	a.session.LoadUser(ctx)
	fmt.Fprintln(a.out, "Email verified")
	return nil
}

// ResetPassword runs the forgotten-password flow: request a code, then set a
// new password with it.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	if err := a.api.RequestPasswordReset(ctx, email); err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter the reset code", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)
	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer wipe(confirm)

	if err := a.api.ResetPassword(ctx, email, code, string(password), string(confirm)); err != nil {
		a.printFieldErrors(err)
		return err
	}
	fmt.Fprintln(a.out, "Password changed, you can log in now")
	return nil
}

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return services.ErrNotAuthenticated
	}
	return nil
}

func (a *App) printFieldErrors(err error) {
	var ve *client.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) < 2 {
		return
	}
	keys := make([]string, 0, len(ve.Fields))
	for k := range ve.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, msg := range ve.Fields[k] {
			fmt.Fprintf(a.out, "  %s: %s\n", k, msg)
		}
	}
}
