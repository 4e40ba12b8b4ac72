package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/uitmedia/framefusion/pkg/display"
)

// guestCommand creates the guest command, which follows a booth's guest
// screen from a terminal.
func (c *CLI) guestCommand() *cobra.Command {
	var (
		url      string
		redisURL string
		channel  string
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "guest",
		Short: "Follow a booth's guest screen",
		Long: `Follow a booth's guest screen.

Connects to a running booth's websocket feed, or to the Redis channel the
booth publishes on, and shows the mode and the committed composition as
they change. Useful for checking a guest monitor setup without a browser.`,
		Example: `  framefusion guest --url ws://booth.local:8080/ws/guest
  framefusion guest --redis redis://localhost:6379/0 --plain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			source, watch := url, func(ctx context.Context, fn func(display.Snapshot)) error {
				return display.Watch(ctx, url, fn)
			}
			if redisURL != "" {
				client, err := newRedis(ctx, redisURL)
				if err != nil {
					return err
				}
				defer client.Close()
				source = redisURL + " #" + channel
				watch = func(ctx context.Context, fn func(display.Snapshot)) error {
					return display.Subscribe(ctx, client, channel, fn)
				}
			}

			if plain {
				return c.followPlain(ctx, source, watch)
			}
			return c.followTUI(ctx, source, watch)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "ws://localhost:8080/ws/guest", "guest screen websocket URL")
	cmd.Flags().StringVar(&redisURL, "redis", "", "follow a Redis channel instead of the websocket")
	cmd.Flags().StringVar(&channel, "channel", display.DefaultChannel, "Redis channel")
	cmd.Flags().BoolVar(&plain, "plain", false, "print one line per snapshot instead of the live view")

	return cmd
}

type watchFunc func(ctx context.Context, fn func(display.Snapshot)) error

func (c *CLI) followPlain(ctx context.Context, source string, watch watchFunc) error {
	printInfo("Following %s", source)
	err := watch(ctx, func(s display.Snapshot) {
		fmt.Printf("%s %s %s\n", StyleDim.Render(s.At.Format("15:04:05")), StyleNumber.Render(fmt.Sprintf("#%d", s.Seq)), s.Summary())
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *CLI) followTUI(ctx context.Context, source string, watch watchFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewGuestModel(source), tea.WithContext(ctx))
	go func() {
		err := watch(ctx, func(s display.Snapshot) { p.Send(snapshotMsg(s)) })
		if ctx.Err() == nil {
			p.Send(feedClosedMsg{err: err})
		}
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if m, ok := final.(GuestModel); ok && m.Err != nil {
		return m.Err
	}
	return nil
}
