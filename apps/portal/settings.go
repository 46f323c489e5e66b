package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/client/session"
	"github.com/trezcool/darasa/core/user"
)

var errUsernameRequired = errors.New("-username is required")

func (p *portal) login(ctx context.Context, args []string) error {
	fs := p.flagSet("login")
	username := fs.String("username", "", "Email or phone number. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *username == "" {
		fs.Usage()
		return errUsernameRequired
	}
	if !validEmailOrPhone(*username) {
		return errEmailOrPhone
	}
	pwd, err := p.promptPassword("Password")
	if err != nil {
		return err
	}
	usr, err := p.sess.Login(ctx, *username, pwd)
	if err != nil {
		return err
	}
	p.printf("Welcome, %s!", displayName(usr.FullName, usr.Email))
	return nil
}

func (p *portal) logout() error {
	if err := p.sess.Logout(); err != nil {
		return err
	}
	p.printf("Logged out.")
	return nil
}

func (p *portal) settings(ctx context.Context, args []string) error {
	sub, args, err := p.subcommand(args, "profile", "password", "appearance")
	if err != nil {
		return err
	}

	switch sub {
	case "profile":
		fs := p.flagSet("settings profile")
		name := fs.String("name", "", "Your full name.")
		if err = parse(fs, args); err != nil {
			return err
		}
		if *name == "" {
			return p.showProfile()
		}
		if _, err = p.api.UpdateMe(ctx, user.UpdateMe{FullName: *name}); err != nil {
			return err
		}
		if _, err = p.sess.Refresh(ctx); err != nil {
			return err
		}
		p.printf("Profile updated.")
		return p.showProfile()

	case "password":
		current, err := p.promptPassword("Current password")
		if err != nil {
			return err
		}
		pwd, confirm, err := p.promptNewPassword("New password")
		if err != nil {
			return err
		}
		msg, err := p.api.UpdatePassword(ctx, user.UpdatePassword{CurrentPassword: current, NewPassword: pwd, PasswordConfirm: confirm})
		if err != nil {
			return err
		}
		p.printf("%s", msg.Message)
		return nil

	case "appearance":
		if len(args) == 0 {
			p.printf("Appearance: %s", p.sess.Session().Appearance)
			return nil
		}
		a, err := session.ParseAppearance(args[0])
		if err != nil {
			return err
		}
		if err = p.sess.SetAppearance(a); err != nil {
			return err
		}
		p.printf("Appearance set to %s.", a)
	}
	return nil
}

func (p *portal) showProfile() error {
	usr := p.sess.Session().User
	if usr == nil {
		return errors.New("not logged in")
	}
	p.render("Profile", []interface{}{"NAME", "EMAIL", "ROLES"}, [][]interface{}{{usr.FullName, usr.Email, formatRoles(usr.Roles)}})
	return nil
}

func formatRoles(roles user.RoleList) string {
	names := ""
	for _, r := range user.Roles {
		for _, v := range roles {
			if v == r.Value {
				if names != "" {
					names += ", "
				}
				names += r.Name
			}
		}
	}
	return names
}
