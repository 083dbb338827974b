package cli

import (
	"context"
	"fmt"
	"log"
)

// Files lists staged files and the state of any in-flight uploads.
func (a *App) Files(ctx context.Context) error {
	files, err := a.store.GetAll(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}

	if len(files) == 0 {
		fmt.Fprintln(a.out, "No staged files")
		return nil
	}
	for _, f := range files {
		line := fmt.Sprintf("%s  %-9s  app=%s  %s (%d bytes)", f.ID, f.UploadStatus, f.ApplicationID, f.Filename, f.Size)
		if task, ok := a.uploads.Task(f.ID); ok {
			line += fmt.Sprintf("  [%s %d%%]", task.Status, task.Percent)
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// Remove deletes a staged file. Usage: remove <file-id>
func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: remove <file-id>")
		return nil
	}
	if err := a.store.Delete(ctx, args[0]); err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Fprintln(a.out, "Removed", args[0])
	return nil
}

// Usage prints local store occupancy. Usage: usage
func (a *App) Usage(ctx context.Context) error {
	u, err := a.store.Usage(ctx)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	fmt.Fprintf(a.out, "Store usage: %d / %d bytes (%.1f%%)\n",
		u.UsedBytes, u.MaxBytes, float64(u.UsedBytes)*100/float64(u.MaxBytes))
	return nil
}
