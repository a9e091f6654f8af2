package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/mcarch/mcarch-editor/internal/archive"
	"github.com/mcarch/mcarch-editor/internal/chat"
	"github.com/mcarch/mcarch-editor/internal/cli"
	"github.com/mcarch/mcarch-editor/internal/i18n"
	"github.com/mcarch/mcarch-editor/internal/lifecycle"
	"github.com/mcarch/mcarch-editor/internal/logger"
	"github.com/mcarch/mcarch-editor/internal/perf"
	"github.com/mcarch/mcarch-editor/internal/telemetry"
)

type chatOptions struct {
	cli.GlobalOptions
	Channel string
}

type chatDeps struct {
	fs         afero.Fs
	logger     *logger.Logger
	dial       func(ctx context.Context, serverURL string, channel string, options chat.DialOptions) (*chat.Client, error)
	register   func(lifecycle.Handler) lifecycle.HandlerID
	unregister func(lifecycle.HandlerID)
}

type chatRunner func(context.Context, *cobra.Command, chatOptions, chatDeps) (telemetry.CommandTelemetry, error)

func Command() *cobra.Command {
	return commandWithRunner(runChat)
}

func commandWithRunner(runner chatRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <channel>",
		Short: i18n.T("cmd.chat.short"),
		Long:  i18n.T("cmd.chat.long"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()
			ctx, span := perf.StartSpan(cmd.Context(), "app.command.chat",
				perf.WithAttributes(attribute.String("channel", args[0])),
			)

			global, err := cli.ReadGlobalOptions(cmd)
			if err != nil {
				return cli.Finish(span, telemetry.CommandTelemetry{Command: "chat"}, started, err)
			}

			payload, err := runner(ctx, cmd, chatOptions{GlobalOptions: global, Channel: args[0]}, chatDeps{
				fs:         afero.NewOsFs(),
				logger:     global.Logger(cmd),
				dial:       chat.Dial,
				register:   lifecycle.Register,
				unregister: lifecycle.Unregister,
			})
			payload.Command = "chat"
			return cli.Finish(span, payload, started, err)
		},
		SilenceUsage: true,
	}

	return cmd
}

// printer writes server events as they arrive.
type printer struct {
	log     *logger.Logger
	channel string
}

func (p printer) Joined() {
	p.log.Log(i18n.T("cmd.chat.joined", i18n.Tvars{Data: &i18n.TData{"channel": p.channel}}), false)
}

func (p printer) Message(message chat.Message) {
	p.log.Log(fmt.Sprintf("<%s> %s", message.User, message.Content), true)
}

func (p printer) ServerError(message string) {
	p.log.Error(i18n.T("cmd.chat.server_error", i18n.Tvars{Data: &i18n.TData{"error": message}}))
}

func runChat(ctx context.Context, cmd *cobra.Command, options chatOptions, deps chatDeps) (telemetry.CommandTelemetry, error) {
	payload := telemetry.CommandTelemetry{Command: "chat"}

	settings, err := options.Settings(ctx, deps.fs, 0)
	if err != nil {
		return payload, err
	}
	jar, err := archive.NewSessionJar(settings.ServerURL, settings.Session)
	if err != nil {
		return payload, err
	}

	_, dialSpan := perf.StartSpan(ctx, "app.command.chat.stage.dial")
	client, err := deps.dial(ctx, settings.ServerURL, options.Channel, chat.DialOptions{
		Jar:    jar,
		Header: http.Header{"User-Agent": []string{archive.UserAgent()}},
	})
	dialSpan.SetAttributes(attribute.Bool("success", err == nil))
	dialSpan.End()
	if err != nil {
		deps.logger.Error(i18n.T("cmd.chat.error.connect", i18n.Tvars{Data: &i18n.TData{"error": err.Error()}}))
		return payload, err
	}
	defer client.Close()

	handlerID := deps.register(func(os.Signal) {
		_ = client.Close()
	})
	defer deps.unregister(handlerID)

	sent, err := converse(ctx, client, cmd.InOrStdin(), printer{log: deps.logger, channel: options.Channel})
	payload.Extra = map[string]interface{}{"sent": sent}
	return payload, err
}

// converse pumps input lines to the channel while printing what the server
// sends. It ends when the input is exhausted or the server goes away.
func converse(ctx context.Context, client *chat.Client, in io.Reader, handler chat.Handler) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := readLines(ctx, in)
	sent := 0

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer cancel()
		return client.Listen(groupCtx, handler)
	})
	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return client.Close()
				}
				if err := client.Send(line); err != nil {
					return err
				}
				sent++
			}
		}
	})

	err := group.Wait()
	return sent, err
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
