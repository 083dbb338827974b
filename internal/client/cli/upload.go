package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/mpodriezov/boardpack/internal/client/api"
	"github.com/mpodriezov/boardpack/internal/client/models"
	"github.com/mpodriezov/boardpack/internal/client/uploader"
)

// Upload pushes every pending staged file for an application to the server:
// upload intent, presigned PUT, completion confirmation. Uploads run in the
// background; progress is printed as it arrives and "files" shows task
// state. Usage: upload <application-id>
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: upload <application-id>")
		return nil
	}
	applicationID := args[0]

	pending, err := a.store.PendingUploads(ctx, applicationID)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(a.out, "Nothing to upload")
		return nil
	}

	for i := range pending {
		if err := a.uploadFile(ctx, &pending[i]); err != nil {
			log.Printf("upload %s: %v", pending[i].Filename, err)
		}
	}
	return nil
}

func (a *App) uploadFile(ctx context.Context, f *models.StoredFile) error {
	intent, err := a.api.CreateDocumentIntent(ctx, f.ApplicationID, api.IntentRequest{
		Category:    f.Category,
		Filename:    f.Filename,
		Size:        f.Size,
		ContentType: f.MimeType,
	})
	if err != nil {
		return err
	}
	if err := a.store.LinkDocument(ctx, f.ID, intent.Document.ID); err != nil {
		return err
	}

	documentID := intent.Document.ID
	spec := uploader.Spec{
		FileID:      f.ID,
		URL:         intent.UploadURL,
		ContentType: f.MimeType,
		Data:        f.Blob,
	}
	callbacks := uploader.Callbacks{
		OnProgress: func(fileID string, percent int) {
			fmt.Fprintf(a.out, "\r%s: %d%%", fileID, percent)
		},
		OnComplete: func(fileID string) {
			fmt.Fprintf(a.out, "\r%s: done\n", fileID)
			a.confirmUpload(fileID, documentID)
		},
		OnError: func(fileID string, err error) {
			fmt.Fprintf(a.out, "\r%s: failed: %v\n", fileID, err)
		},
	}

	if err := a.uploads.Start(ctx, spec, callbacks); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploading %s as document %s\n", f.Filename, documentID)
	return nil
}

// confirmUpload tells the server the PUT finished and marks the local copy
// uploaded. Runs from an uploader callback, so it carries its own context.
func (a *App) confirmUpload(fileID, documentID string) {
	ctx := context.Background()
	if _, err := a.api.CompleteDocument(ctx, documentID); err != nil {
		log.Printf("confirming document %s: %v", documentID, err)
		return
	}
	if err := a.store.MarkUploaded(ctx, fileID); err != nil {
		log.Printf("marking %s uploaded: %v", fileID, err)
	}
}

// Pause suspends an in-flight upload. Usage: pause <file-id>
func (a *App) Pause(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: pause <file-id>")
		return nil
	}
	if err := a.uploads.Pause(args[0]); err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Fprintln(a.out, "Paused", args[0])
	return nil
}

// Resume continues a paused upload. Usage: resume <file-id>
func (a *App) Resume(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: resume <file-id>")
		return nil
	}
	if err := a.uploads.Resume(ctx, args[0]); err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Fprintln(a.out, "Resumed", args[0])
	return nil
}
