package session

import (
	"context"
	"fmt"

	"github.com/wozobuyshop/Kidstalk3/internal/ipc"
	"github.com/wozobuyshop/Kidstalk3/internal/lang"
)

// Handle dispatches one IPC command against the session. It implements
// ipc.Handler for the owning process.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	var (
		err     error
		message string
	)

	switch req.Command {
	case "status":
		snap := c.Snapshot()
		return ipc.Response{OK: true, State: snap.State, Session: &snap}
	case "talk":
		err = c.Toggle(ctx)
	case "stop":
		err = c.StopRecording(ctx)
	case "cancel":
		err = c.Cancel(ctx)
	case "submit":
		if req.Arg == "" {
			err = fmt.Errorf("submit requires an audio file path")
			break
		}
		err = c.SubmitFile(ctx, req.Arg)
	case "reply":
		var target lang.Language
		if target, err = lang.Parse(req.Arg); err == nil {
			if err = c.SelectReply(ctx, target); err == nil {
				message = "replying in " + target.Name()
			}
		}
	case "dismiss":
		err = c.DismissReply(ctx)
	case "retry":
		err = c.Reset(ctx)
	case "say":
		var l lang.Language
		if l, err = lang.Parse(req.Arg); err == nil {
			err = c.Speak(ctx, l)
		}
	case "share":
		var l lang.Language
		if l, err = lang.Parse(req.Arg); err == nil {
			err = c.Share(ctx, l)
		}
	case "lang":
		var l lang.Language
		if l, err = lang.Parse(req.Arg); err == nil {
			c.SetUILanguage(l)
			message = "interface language set to " + l.Name()
		}
	case "theme":
		switch req.Arg {
		case "dark":
			c.SetDarkMode(true)
		case "light":
			c.SetDarkMode(false)
		default:
			err = fmt.Errorf("unknown theme %q (expected dark or light)", req.Arg)
		}
	default:
		err = fmt.Errorf("unknown command %q", req.Command)
	}

	state := string(c.State())
	if err != nil {
		return ipc.Response{OK: false, State: state, Error: err.Error()}
	}
	return ipc.Response{OK: true, State: state, Message: message}
}
