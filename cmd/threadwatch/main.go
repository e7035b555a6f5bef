package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ferdian3456/virdanthread/internal/apiclient"
	"github.com/ferdian3456/virdanthread/internal/config"
	"github.com/ferdian3456/virdanthread/internal/engine"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/moderation"
	"github.com/ferdian3456/virdanthread/internal/roomclient"
	zapLog "go.uber.org/zap"
)

// watchingJoiner redraws after every room event the engine has applied.
type watchingJoiner struct {
	rooms *roomclient.Client
	after func()
}

func (joiner watchingJoiner) Acquire(ctx context.Context, postId string, handler func(model.RoomEvent)) (func(), error) {
	return joiner.rooms.Acquire(ctx, postId, func(event model.RoomEvent) {
		handler(event)
		joiner.after()
	})
}

type screen struct {
	mu     sync.Mutex
	out    io.Writer
	thread *engine.Engine
}

func (screen *screen) redraw() {
	screen.mu.Lock()
	defer screen.mu.Unlock()

	renderThread(screen.out, screen.thread.PostId, screen.thread.PostLikes(), screen.thread.Snapshot())
}

func (screen *screen) notify(event model.RoomEvent) {
	notification, ok := event.(model.NotificationEvent)
	if !ok {
		return
	}

	screen.mu.Lock()
	defer screen.mu.Unlock()

	renderNotification(screen.out, notification)
}

func main() {
	postId := flag.String("post", "", "id of the post to watch")
	flag.Parse()

	zap := config.NewZap()
	koanf := config.NewKoanf(zap)

	if *postId == "" {
		zap.Fatal("missing -post")
	}

	apiUrl := koanf.String("THREADWATCH_API_URL")
	wsUrl := koanf.String("THREADWATCH_WS_URL")
	token := koanf.String("THREADWATCH_TOKEN")
	userId := koanf.String("THREADWATCH_USER_ID")
	if apiUrl == "" || wsUrl == "" || token == "" || userId == "" {
		zap.Fatal("THREADWATCH_API_URL, THREADWATCH_WS_URL, THREADWATCH_TOKEN and THREADWATCH_USER_ID are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	moderationConfig := config.LoadModerationConfig(koanf, zap)
	gate := moderation.NewGate(moderation.NewHTTPClassifier(zap, moderationConfig), zap, moderationConfig)
	store := apiclient.NewClient(zap, apiUrl, token)

	rooms, err := roomclient.Dial(ctx, roomclient.WebsocketDialer(wsUrl, token), zap)
	if err != nil {
		zap.Fatal("failed to connect to room socket", zapLog.Error(err))
	}
	defer rooms.Close()

	thread := engine.New(userId, *postId, store, gate, zap)
	view := &screen{out: os.Stdout, thread: thread}
	thread.Observer = func(key engine.ActionKey, state engine.ActionState) {
		zap.Debug("action state changed",
			zapLog.String("kind", string(key.Kind)),
			zapLog.String("targetId", key.TargetId),
			zapLog.String("state", state.String()),
		)
		view.redraw()
	}

	err = rooms.JoinUser(ctx, userId, view.notify)
	if err != nil {
		zap.Fatal("failed to join user room", zapLog.Error(err))
	}

	session, err := engine.Open(ctx, thread, watchingJoiner{rooms: rooms, after: view.redraw})
	if err != nil {
		zap.Fatal("failed to open post", zapLog.Error(err))
	}
	defer session.Close()

	view.redraw()
	os.Stdout.WriteString(usage + "\n")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rooms.Done():
			zap.Error("room socket closed", zapLog.Error(rooms.Err()))
			return
		case line, ok := <-lines:
			if !ok {
				return
			}

			cmd, err := parseCommand(line)
			if err != nil {
				if errors.Is(err, ErrUnknownCommand) {
					os.Stdout.WriteString(usage + "\n")
				} else {
					zap.Warn("invalid command", zapLog.Error(err))
				}
				continue
			}

			if cmd.Name == "q" {
				return
			}

			err = cmd.run(ctx, thread)
			if err != nil {
				zap.Warn("action failed", zapLog.String("command", cmd.Name), zapLog.Error(err))
			}
			view.redraw()
		}
	}
}
