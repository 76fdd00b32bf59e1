package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

const dateLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printCards(w io.Writer, list []models.Card) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No cards found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSET\tNUMBER\tRARITY\tQTY\tFAV\tADDED")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.ID, c.Name, c.SetName, deref(c.CardNumber), deref(c.Rarity),
			c.Quantity, yesNo(c.IsFavorite), c.DateAdded.Local().Format(dateLayout))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d card(s)\n", len(list))
	return err
}

func printStats(w io.Writer, s *models.Stats) error {
	mostCommon := s.MostCommonSet
	if mostCommon == "" {
		mostCommon = "-"
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "Total cards:\t%d\n", s.TotalCards)
	fmt.Fprintf(tw, "Total quantity:\t%d\n", s.TotalQuantity)
	fmt.Fprintf(tw, "Favorites:\t%d\n", s.Favorites)
	fmt.Fprintf(tw, "Unique sets:\t%d\n", s.UniqueSets)
	fmt.Fprintf(tw, "Most common set:\t%s\n", mostCommon)
	return tw.Flush()
}

func printSystemStats(w io.Writer, s *models.SystemStats) error {
	if err := printStats(w, &s.Stats); err != nil {
		return err
	}
	fmt.Fprintf(w, "Active users: %d\n", s.ActiveUsers)
	if len(s.PerUser) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := newTable(w)
	fmt.Fprintln(tw, "USER\tCARDS\tQTY\tFAVORITES")
	for _, u := range s.PerUser {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", u.UserID, u.Cards, u.Quantity, u.Favorites)
	}
	return tw.Flush()
}

func printUsers(w io.Writer, users []models.User) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.CreatedAt.Local().Format(dateLayout))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d user(s)\n", len(users))
	return err
}

func printLookup(w io.Writer, found []lookup.CardInfo) error {
	if len(found) == 0 {
		_, err := fmt.Fprintln(w, "No matching cards in the Pokemon TCG database.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSET\tSERIES\tNUMBER\tRARITY")
	for _, c := range found {
		rarity := c.Rarity
		if rarity == "" {
			rarity = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Set.Name, c.Set.Series, c.Number, rarity)
	}
	return tw.Flush()
}
