package cli

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"

	"github.com/mpodriezov/boardpack/internal/client/models"
)

// Stage reads a file from disk and saves it into the local store, ready to
// be uploaded. Usage: stage <path> <application-id> <category>
func (a *App) Stage(ctx context.Context, args []string) error {
	if len(args) != 3 {
		fmt.Fprintln(a.out, "Usage: stage <path> <application-id> <category>")
		return nil
	}
	path, applicationID, category := args[0], args[1], args[2]

	blob, err := os.ReadFile(path)
	if err != nil {
		log.Printf("error reading file: %v", err)
		return err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	f := &models.StoredFile{
		Filename:      filepath.Base(path),
		MimeType:      mimeType,
		Category:      category,
		Blob:          blob,
		ApplicationID: applicationID,
	}
	if err := a.store.Save(ctx, f); err != nil {
		log.Printf("error staging file: %v", err)
		return err
	}

	fmt.Fprintf(a.out, "Staged %s (%d bytes) as %s\n", f.Filename, f.Size, f.ID)
	return nil
}
