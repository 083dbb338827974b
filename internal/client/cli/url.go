package cli

import (
	"context"
	"fmt"
	"log"
)

// URL prints a presigned download link for a completed document, served from
// the signed-URL cache. Usage: url <document-id>
func (a *App) URL(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: url <document-id>")
		return nil
	}
	url, err := a.urls.Get(ctx, args[0])
	if err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Fprintln(a.out, url)
	return nil
}
