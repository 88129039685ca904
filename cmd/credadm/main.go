// Command credadm manages technician credentials in the store shared by the
// mediator and the agent's direct listener.
//
// Usage:
//
//	credadm [-d dsn] add <username>      create or migrate a record
//	credadm [-d dsn] passwd <username>   set a new password
//	credadm [-d dsn] delete <username>   remove a record
//	credadm [-d dsn] verify <username>   check a password
//
// A postgres:// DSN selects the PostgreSQL repository; anything else is a
// bbolt file path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/remotehelp/internal/cli"
	"github.com/dmitrijs2005/remotehelp/internal/common"
	"github.com/dmitrijs2005/remotehelp/internal/creds"
	"github.com/dmitrijs2005/remotehelp/internal/creds/boltrepo"
	"github.com/dmitrijs2005/remotehelp/internal/creds/postgresrepo"
)

func main() {
	dsn := flag.String("d", "remotehelp.db", "credential store DSN")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: credadm [-d dsn] add|passwd|delete|verify <username>")
		os.Exit(2)
	}
	command, username := args[0], args[1]

	ctx := context.Background()

	var repo creds.Repository
	if strings.HasPrefix(*dsn, "postgres://") {
		r, db, err := postgresrepo.Open(ctx, *dsn)
		if err != nil {
			log.Fatalf("db init error: %v", err)
		}
		defer db.Close()
		repo = r
	} else {
		r, err := boltrepo.Open(*dsn)
		if err != nil {
			log.Fatalf("db init error: %v", err)
		}
		defer r.Close()
		repo = r
	}
	store := creds.NewStore(repo)

	if err := run(ctx, store, command, username); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, store *creds.Store, command, username string) error {
	switch command {
	case "add":
		password, err := cli.GetPassword(os.Stdout)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(password)
		if err := store.CreateOrMigrate(ctx, username, string(password)); err != nil {
			return err
		}
		fmt.Printf("user %q stored\n", username)
		return nil

	case "passwd":
		password, err := cli.GetPassword(os.Stdout)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(password)
		if err := store.ChangePassword(ctx, username, string(password)); err != nil {
			return err
		}
		fmt.Printf("password for %q changed\n", username)
		return nil

	case "delete":
		if err := store.Delete(ctx, username); err != nil {
			return err
		}
		fmt.Printf("user %q deleted\n", username)
		return nil

	case "verify":
		password, err := cli.GetPassword(os.Stdout)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(password)
		ok, err := store.Verify(ctx, username, string(password))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("verification failed for %q", username)
		}
		fmt.Printf("user %q verified\n", username)
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
