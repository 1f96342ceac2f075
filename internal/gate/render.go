package gate

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// Render draws s as plain text. It has no side effects.
func Render(s State) string {
	var b strings.Builder

	if s.Status != SignedIn {
		b.WriteString("stockroom: signed out\n")
		b.WriteString("Sign in or sign up to manage your inventory.\n")
		writeError(&b, s.LastErr)
		return b.String()
	}

	email := ""
	if s.Principal != nil {
		email = s.Principal.Email
	}
	fmt.Fprintf(&b, "stockroom: signed in as %s\n", email)
	fmt.Fprintf(&b, "Search: %q\n", s.Search)
	b.WriteString("Category:")
	for _, c := range append([]models.Category{models.CategoryNone}, models.Categories...) {
		label := string(c)
		if c == models.CategoryNone {
			label = "All"
		}
		if c == s.Category {
			label = "[" + label + "]"
		}
		b.WriteString(" " + label)
	}
	b.WriteString("\n\n")

	if len(s.Items) == 0 {
		b.WriteString("No items.\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCATEGORY\tQTY\tID")
		for _, item := range s.Items {
			category := string(item.Category)
			if category == "" {
				category = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", item.Name, category, item.Quantity, item.ID)
		}
		_ = tw.Flush()
		fmt.Fprintf(&b, "%d item(s)\n", len(s.Items))
	}

	writeError(&b, s.LastErr)
	return b.String()
}

func writeError(b *strings.Builder, msg string) {
	if msg != "" {
		fmt.Fprintf(b, "error: %s\n", msg)
	}
}
