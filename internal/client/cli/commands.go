package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/services"
	"github.com/dmitrijs2005/cardkeeper/internal/validation"
)

// getPassword is a test seam for GetPassword.
var getPassword = GetPassword

const helpText = `Commands:
  add <name> [--set S] [--number N] [--rarity R] [--quantity Q] [--favorite] [--merge] [--validate]
  list [--favorites|-f]          list the collection
  search <name>                  find cards by partial name
  update <id> [--name N] [--set S] [--number N] [--rarity R] [--quantity Q] [--favorite true|false]
  delete <id>                    remove a card
  favorite <id>                  toggle the favorite flag
  stats [all]                    collection statistics, "all" adds the per-user breakdown
  cards all | cards user <id>    every card, or the cards of one user
  users                          registered users (hosted backend)
  lookup <name>                  search the Pokemon TCG database
  api-health                     check the Pokemon TCG API
  clear                          delete every card (asks for confirmation)
  backup                         export the collection to S3
  signup | signin                create an account or sign in through the API server
  shell                          interactive mode
  help                           this text`

// Execute runs a single command. args[0] is the command name.
func (a *App) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.help()
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		return a.add(ctx, rest)
	case "list", "l":
		return a.list(ctx, rest)
	case "search":
		return a.search(ctx, rest)
	case "update":
		return a.update(ctx, rest)
	case "delete":
		return a.remove(ctx, rest)
	case "favorite":
		return a.favorite(ctx, rest)
	case "stats":
		return a.stats(ctx, rest)
	case "cards":
		return a.cardsOf(ctx, rest)
	case "users":
		return a.users(ctx)
	case "lookup":
		return a.lookupCards(ctx, rest)
	case "api-health":
		return a.apiHealth(ctx)
	case "clear":
		return a.clear(ctx)
	case "backup":
		return a.runBackup(ctx)
	case "signup":
		return a.signUp(ctx)
	case "signin":
		return a.signIn(ctx)
	case "shell":
		return a.Shell(ctx)
	case "help", "-h", "--help":
		return a.help()
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (a *App) help() error {
	_, err := fmt.Fprintln(a.out, helpText)
	return err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (a *App) add(ctx context.Context, args []string) error {
	fs := newFlagSet("add")
	set := fs.String("set", "", "set name")
	number := fs.String("number", "", "card number")
	rarity := fs.String("rarity", "", "rarity")
	quantity := fs.String("quantity", "1", "quantity")
	favorite := fs.Bool("favorite", false, "mark as favorite")
	merge := fs.Bool("merge", false, "merge with an existing card of the same identity")
	validate := fs.Bool("validate", false, "check the name against the Pokemon TCG API")

	pos, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		return usageError("add <name> [flags]")
	}
	q, err := validation.QuantityArg(*quantity)
	if err != nil {
		return err
	}

	in := models.CardInput{
		Name:       strings.Join(pos, " "),
		SetName:    *set,
		CardNumber: optional(*number),
		Rarity:     optional(*rarity),
		Quantity:   q,
		IsFavorite: *favorite,
	}
	id, err := a.cards.AddCard(ctx, in, services.AddOptions{Merge: *merge, Validate: *validate})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Card added with ID: %s\n", id)
	return nil
}

func (a *App) list(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	fav := fs.Bool("favorites", false, "favorites only")
	fs.BoolVar(fav, "f", false, "favorites only")
	if _, err := parseInterspersed(fs, args); err != nil {
		return err
	}

	var (
		list []models.Card
		err  error
	)
	if *fav {
		list, err = a.cards.ListFavorites(ctx)
	} else {
		list, err = a.cards.ListCards(ctx)
	}
	if err != nil {
		return err
	}
	return printCards(a.out, list)
}

func (a *App) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("search <name>")
	}
	list, err := a.cards.SearchCards(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printCards(a.out, list)
}

func (a *App) update(ctx context.Context, args []string) error {
	fs := newFlagSet("update")
	name := fs.String("name", "", "new name")
	set := fs.String("set", "", "new set name")
	number := fs.String("number", "", "new card number")
	rarity := fs.String("rarity", "", "new rarity")
	quantity := fs.String("quantity", "", "new quantity")
	favorite := fs.String("favorite", "", "true or false")

	pos, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return usageError("update <id> [--name N] [--set S] [--number N] [--rarity R] [--quantity Q] [--favorite true|false]")
	}
	id := pos[0]

	var u models.CardUpdate
	given := visited(fs)
	if given["name"] {
		u.Name = name
	}
	if given["set"] {
		u.SetName = set
	}
	if given["number"] {
		u.CardNumber = number
	}
	if given["rarity"] {
		u.Rarity = rarity
	}
	if given["quantity"] {
		q, err := validation.QuantityArg(*quantity)
		if err != nil {
			return err
		}
		u.Quantity = &q
	}
	if given["favorite"] {
		b, err := strconv.ParseBool(*favorite)
		if err != nil {
			return common.InvalidField("is_favorite", "favorite must be true or false")
		}
		u.IsFavorite = &b
	}

	ok, err := a.cards.UpdateCard(ctx, id, u)
	if err != nil {
		return err
	}
	if !ok {
		return common.CardNotFound(id)
	}
	fmt.Fprintf(a.out, "Card %s updated\n", id)
	return nil
}

func (a *App) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("delete <id>")
	}
	card, err := a.cards.DeleteCard(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Card '%s' deleted successfully\n", card.Name)
	return nil
}

func (a *App) favorite(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("favorite <id>")
	}
	card, err := a.cards.ToggleFavorite(ctx, args[0])
	if err != nil {
		return err
	}
	if card.IsFavorite {
		fmt.Fprintf(a.out, "Card '%s' added to favorites\n", card.Name)
	} else {
		fmt.Fprintf(a.out, "Card '%s' removed from favorites\n", card.Name)
	}
	return nil
}

func (a *App) stats(ctx context.Context, args []string) error {
	switch {
	case len(args) == 0:
		s, err := a.cards.Stats(ctx)
		if err != nil {
			return err
		}
		return printStats(a.out, s)
	case len(args) == 1 && args[0] == "all":
		s, err := a.cards.SystemStats(ctx)
		if err != nil {
			return err
		}
		return printSystemStats(a.out, s)
	default:
		return usageError("stats [all]")
	}
}

func (a *App) cardsOf(ctx context.Context, args []string) error {
	switch {
	case len(args) == 1 && args[0] == "all":
		list, err := a.cards.ListCards(ctx)
		if err != nil {
			return err
		}
		return printCards(a.out, list)
	case len(args) == 2 && args[0] == "user":
		if err := services.ValidateUserID(args[1]); err != nil {
			return err
		}
		list, err := a.cards.ListByOwner(ctx, args[1])
		if err != nil {
			return err
		}
		return printCards(a.out, list)
	default:
		return usageError("cards all | cards user <id>")
	}
}

func (a *App) users(ctx context.Context) error {
	users, err := a.auth.ListUsers(ctx)
	if err != nil {
		return err
	}
	return printUsers(a.out, users)
}

func (a *App) lookupCards(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("lookup <name>")
	}
	found, err := a.lookup.Search(ctx, strings.Join(args, " "), 10)
	if err != nil {
		return err
	}
	return printLookup(a.out, found)
}

func (a *App) apiHealth(ctx context.Context) error {
	healthy, msg := a.lookup.HealthCheck(ctx)
	status := "unhealthy"
	if healthy {
		status = "healthy"
	}
	fmt.Fprintf(a.out, "Pokemon TCG API: %s (%s)\n", status, msg)
	return nil
}

func (a *App) clear(ctx context.Context) error {
	ok, err := Confirm(a.reader, "This deletes every card in the collection.", "yes", a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	n, err := a.cards.DeleteAllCards(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %d cards\n", n)
	return nil
}

func (a *App) runBackup(ctx context.Context) error {
	key, err := a.backup.Export(ctx, a.storage.Cards(), string(a.storage.Kind()))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Backup written to s3://%s/%s\n", a.config.S3Bucket, key)
	return nil
}

func (a *App) signUp(ctx context.Context) error {
	api, err := a.apiClient()
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(pw)

	res, err := api.SignUp(ctx, email, string(pw), username)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User registered: %s (%s)\n", res.User.Username, res.User.ID)
	if res.Session == nil {
		fmt.Fprintln(a.out, "Confirm your email address, then sign in.")
	}
	return nil
}

func (a *App) signIn(ctx context.Context) error {
	api, err := a.apiClient()
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(pw)

	res, err := api.SignIn(ctx, email, string(pw))
	if err != nil {
		return err
	}
	who := res.User.Username
	if who == "" {
		who = res.User.Email
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", who)
	if res.Session != nil {
		fmt.Fprintf(a.out, "Access token: %s\n", res.Session.AccessToken)
	}
	return nil
}
