package cli

import (
	"context"
	"fmt"
	"log"
)

// Apps lists the applications visible to the logged-in user.
func (a *App) Apps(ctx context.Context) error {
	apps, err := a.api.ListApplications(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if len(apps) == 0 {
		fmt.Fprintln(a.out, "No applications")
		return nil
	}
	for _, app := range apps {
		fmt.Fprintf(a.out, "%s  %-12s  %s %s\n", app.ID, app.Status, app.Building, app.Unit)
	}
	return nil
}
