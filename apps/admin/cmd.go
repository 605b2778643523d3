package main

import (
	"context"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/identity"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db          *sqlx.DB
	identities  identity.Repository
	identitySvc *identity.Service
	assignments assignment.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a migration command (up, down, status, version, redo, reset, up-to, down-to)")
	fmt.Println("  addidentity -kind student|teacher|admin -email EMAIL [-first NAME] [-last NAME] - create or update an identity")
	fmt.Println("  resetpassword -kind student|teacher|admin -email EMAIL - reset an identity's password")
	fmt.Println("  addref -table subject|group|program -name NAME - create a subject, group or program")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addIdentityCmd := flag.NewFlagSet("addidentity", flag.ContinueOnError)
	addIdentityKind := addIdentityCmd.String("kind", string(identity.Student), "The identity kind: student, teacher or admin.")
	addIdentityEmail := addIdentityCmd.String("email", "", "The identity's email. The password will be prompted next.")
	addIdentityFirst := addIdentityCmd.String("first", "", "The first name.")
	addIdentityLast := addIdentityCmd.String("last", "", "The last name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordKind := resetPasswordCmd.String("kind", string(identity.Student), "The identity kind: student, teacher or admin.")
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The identity's email. The password will be prompted next.")

	addRefCmd := flag.NewFlagSet("addref", flag.ContinueOnError)
	addRefTable := addRefCmd.String("table", "", "One of subject, group or program.")
	addRefName := addRefCmd.String("name", "", "The name of the new row.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addidentity":
		if err := addIdentityCmd.Parse(args[2:]); err != nil {
			return err
		}
		kind, err := identity.ParseKind(*addIdentityKind)
		if err != nil || *addIdentityEmail == "" {
			addIdentityCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addIdentityCmd.Usage()
			return errHelp
		}
		return cli.addIdentity(identity.Identity{
			Kind:      kind,
			Email:     core.CleanString(*addIdentityEmail, true),
			FirstName: *addIdentityFirst,
			LastName:  *addIdentityLast,
		}, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		kind, err := identity.ParseKind(*resetPasswordKind)
		if err != nil || *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(kind, *resetPasswordEmail, pwd)

	case "addref":
		if err := addRefCmd.Parse(args[2:]); err != nil {
			return err
		}
		ref, err := assignment.ParseRef(*addRefTable)
		if err != nil || core.CleanString(*addRefName) == "" {
			addRefCmd.Usage()
			return errHelp
		}
		id, err := cli.assignments.CreateRef(context.Background(), ref, core.CleanString(*addRefName))
		if err != nil {
			return errors.Wrapf(err, "creating %s", ref)
		}
		fmt.Printf("%s %d created\n", ref, id)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// addIdentity creates idn, or updates the identity of the same kind holding its email.
func (cli *commandLine) addIdentity(idn identity.Identity, pwd string) error {
	saved, err := cli.identitySvc.Save(context.Background(), idn, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d saved\n", idn.Kind, saved.ID)
	return nil
}

func (cli *commandLine) resetPassword(kind identity.Kind, email, pwd string) error {
	ctx := context.Background()
	idn, err := cli.identities.GetIdentityByEmail(ctx, kind, core.CleanString(email, true))
	if err != nil {
		return err
	}
	_, err = cli.identitySvc.Save(ctx, idn, pwd)
	return err
}
