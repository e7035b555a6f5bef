package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ferdian3456/virdanthread/internal/engine"
	"github.com/ferdian3456/virdanthread/internal/model"
)

var ErrUnknownCommand = errors.New("unknown command")

const usage = `commands:
  c <text>                comment on the post
  m <file> [text]         comment with an image attachment
  r <commentId> <text>    reply to a comment
  l <commentId>           toggle like on a comment
  lp                      toggle like on the post
  q                       quit`

// command is one parsed input line.
type command struct {
	Name     string
	TargetId string
	Path     string
	Text     string
}

func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "c":
		if rest == "" {
			return command{}, fmt.Errorf("c: missing text")
		}
		return command{Name: name, Text: rest}, nil
	case "m":
		path, text, _ := strings.Cut(rest, " ")
		if path == "" {
			return command{}, fmt.Errorf("m: missing file")
		}
		return command{Name: name, Path: path, Text: strings.TrimSpace(text)}, nil
	case "r":
		targetId, text, _ := strings.Cut(rest, " ")
		text = strings.TrimSpace(text)
		if targetId == "" || text == "" {
			return command{}, fmt.Errorf("r: expected <commentId> <text>")
		}
		return command{Name: name, TargetId: targetId, Text: text}, nil
	case "l":
		if rest == "" {
			return command{}, fmt.Errorf("l: missing commentId")
		}
		return command{Name: name, TargetId: rest}, nil
	case "lp", "q":
		return command{Name: name}, nil
	default:
		return command{}, ErrUnknownCommand
	}
}

func (cmd command) run(ctx context.Context, thread *engine.Engine) error {
	var err error

	switch cmd.Name {
	case "c":
		_, err = thread.Comment(ctx, cmd.Text, nil)
	case "m":
		item, readErr := readAttachment(cmd.Path)
		if readErr != nil {
			return readErr
		}
		_, err = thread.Comment(ctx, cmd.Text, []model.MediaItem{item})
	case "r":
		_, err = thread.Reply(ctx, cmd.TargetId, cmd.Text, nil)
	case "l":
		_, err = thread.ToggleCommentLike(ctx, cmd.TargetId)
	case "lp":
		_, err = thread.TogglePostLike(ctx)
	}

	return err
}

func readAttachment(path string) (model.MediaItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.MediaItem{}, err
	}

	return model.MediaItem{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
