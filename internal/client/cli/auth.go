package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/client/services"
	"github.com/dmitrijs2005/hbd/internal/common"
)

// getSimpleText, getTextDefault and getSecret are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText  = GetSimpleText
	getTextDefault = GetTextDefault
	getSecret      = GetSecret
)

const defaultReminderTime = "09:00"

func (a *App) credentialPrompt() string {
	if a.config.Scheme() == models.SchemeToken {
		return "Enter password"
	}
	return "Enter encryption key"
}

func (a *App) readSecret(prompt string) (string, error) {
	b, err := getSecret(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(b)
	return string(b), nil
}

// Login prompts for credentials and authenticates against the server.
// A malformed credential is reported without contacting the server.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	credential, err := a.readSecret(a.credentialPrompt())
	if err != nil {
		return err
	}

	acc, err := a.authService.Login(ctx, email, credential)
	if err != nil {
		a.report(ctx, "login", err)
		return err
	}

	a.view.reset()
	a.setMode(ModeOnline)
	printlnFn(fmt.Sprintf("Welcome, %s! You have %d birthday(s) saved.", acc.Profile.Email, len(acc.Birthdays)))
	return nil
}

// Register prompts for the account fields, creates the account and logs in.
// In the key scheme an empty key is generated and shown once.
func (a *App) Register(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already logged in as " + a.session.Email() + ". Log out first.")
		return nil
	}

	p, err := a.promptProfile(models.Profile{ReminderTime: defaultReminderTime, Timezone: "UTC"})
	if err != nil {
		return err
	}

	reg := models.Registration{Profile: p}
	if a.config.Scheme() == models.SchemeToken {
		pw, err := a.readSecret("Choose a password")
		if err != nil {
			return err
		}
		again, err := a.readSecret("Repeat the password")
		if err != nil {
			return err
		}
		if pw != again {
			printlnFn("Passwords do not match.")
			return errors.New("password mismatch")
		}
		reg.Credential = pw
	} else {
		reg.Credential, err = a.readSecret("Enter encryption key (leave empty to generate one)")
		if err != nil {
			return err
		}
	}

	credential, err := a.authService.Register(ctx, reg)
	if err != nil {
		a.report(ctx, "register", err)
		return err
	}

	a.view.reset()
	a.setMode(ModeOnline)
	printlnFn("Account created, you are logged in.")
	if a.config.Scheme() == models.SchemeKey {
		printlnFn("Your encryption key (keep it safe, it is your password and cannot be recovered):")
		printlnFn(credential)
	}
	return nil
}

// promptProfile asks for every profile field, offering cur as defaults.
func (a *App) promptProfile(cur models.Profile) (models.Profile, error) {
	var err error
	p := cur

	if p.Email, err = getTextDefault(a.reader, "Email", cur.Email, a.out); err != nil {
		return p, err
	}
	if p.ReminderTime, err = getTextDefault(a.reader, "Reminder time (HH:MM)", cur.ReminderTime, a.out); err != nil {
		return p, err
	}
	if p.Timezone, err = getTextDefault(a.reader, "Timezone (IANA name, e.g. Europe/Riga)", cur.Timezone, a.out); err != nil {
		return p, err
	}

	botPrompt := "Telegram bot API key"
	if a.config.DefaultBotAPIKey != "" {
		botPrompt += " (leave empty to use the default bot)"
	}
	if p.TelegramBotAPIKey, err = getTextDefault(a.reader, botPrompt, cur.TelegramBotAPIKey, a.out); err != nil {
		return p, err
	}
	if p.TelegramUserID, err = getTextDefault(a.reader, "Telegram user id", cur.TelegramUserID, a.out); err != nil {
		return p, err
	}
	return p, nil
}

// GenKey prints a fresh random encryption key.
func (a *App) GenKey(ctx context.Context) error {
	key, err := a.authService.GenerateKey()
	if err != nil {
		a.report(ctx, "generate key", err)
		return err
	}
	printlnFn(key)
	return nil
}

// Profile shows the notification settings of the current user.
func (a *App) Profile(ctx context.Context) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	p, ok := a.authService.Profile(ctx)
	if !ok {
		printlnFn("Profile not loaded yet, try 'reload'.")
		return nil
	}

	bot := "custom"
	if a.config.DefaultBotAPIKey != "" && p.TelegramBotAPIKey == a.config.DefaultBotAPIKey {
		bot = "default"
	}
	printlnFn("Email:         " + p.Email)
	printlnFn("Reminder time: " + p.ReminderTime + " (" + p.Timezone + ")")
	printlnFn("Telegram bot:  " + bot)
	printlnFn("Telegram user: " + p.TelegramUserID)
	return nil
}

// Settings edits the profile. Every field defaults to its current value.
func (a *App) Settings(ctx context.Context) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	cur, _ := a.authService.Profile(ctx)
	if cur.Email == "" {
		cur.Email = a.session.Email()
	}

	p, err := a.promptProfile(cur)
	if err != nil {
		return err
	}
	upd := models.ProfileUpdate{Profile: p}
	if a.config.Scheme() == models.SchemeToken {
		if upd.NewPassword, err = a.readSecret("New password (leave empty to keep the current one)"); err != nil {
			return err
		}
	}

	if err := a.authService.UpdateProfile(ctx, upd); err != nil {
		a.report(ctx, "update profile", err)
		return err
	}
	printlnFn("Settings saved.")
	return nil
}

// Check asks the server to send reminders that are due now.
func (a *App) Check(ctx context.Context) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	if err := a.authService.CheckReminders(ctx); err != nil {
		a.report(ctx, "check reminders", err)
		return err
	}
	printlnFn("Reminder check started.")
	return nil
}

// DeleteAccount marks the account for deletion; 'confirm' carries it out.
func (a *App) DeleteAccount(ctx context.Context) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	a.view.markAccountDelete()
	printlnFn("This deletes your account and all saved birthdays. Type 'confirm' to proceed or 'cancel'.")
	return nil
}

func (a *App) confirmAccountDelete(ctx context.Context) error {
	a.view.reset()
	if err := a.authService.DeleteAccount(ctx); err != nil {
		a.report(ctx, "delete account", err)
		return err
	}
	printlnFn("Account deleted.")
	return nil
}

// Logout forgets the session and all cached data.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not logged in.")
		return nil
	}
	a.authService.Logout(ctx)
	a.view.reset()
	printlnFn("Logged out.")
	return nil
}

// Reload refreshes profile and birthdays from the server.
func (a *App) Reload(ctx context.Context) error {
	if !a.requireLogin(ctx) {
		return nil
	}
	acc, err := a.authService.Hydrate(ctx)
	if err != nil {
		if errors.Is(err, services.ErrOffline) {
			a.setMode(ModeOffline)
			printlnFn("Server unavailable, showing cached data.")
			return err
		}
		a.report(ctx, "reload", err)
		return err
	}
	a.view.reset()
	a.setMode(ModeOnline)
	printlnFn(fmt.Sprintf("Reloaded %d birthday(s).", len(acc.Birthdays)))
	return nil
}
