package cli

import (
	"context"
	"fmt"
	"log"
)

// Watch tails the realtime event stream of an application, printing each
// event as it arrives. Press Enter to stop watching.
// Usage: watch <application-id>
func (a *App) Watch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: watch <application-id>")
		return nil
	}

	events, stop, err := a.api.StreamEvents(ctx, args[0])
	if err != nil {
		log.Println(err.Error())
		return err
	}
	defer stop()

	fmt.Fprintln(a.out, "Watching (press Enter to stop)")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range events {
			fmt.Fprintf(a.out, "[%s] %s by %s\n", event.At.Format("15:04:05"), event.Type, event.ActorID)
		}
	}()

	// Enter stops the watch; the stream also ends if the server closes it.
	if _, err := a.reader.ReadString('\n'); err != nil {
		<-done
		return nil
	}
	stop()
	<-done
	return nil
}
