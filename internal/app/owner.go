package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
	"github.com/wozobuyshop/Kidstalk3/internal/config"
	"github.com/wozobuyshop/Kidstalk3/internal/gemini"
	"github.com/wozobuyshop/Kidstalk3/internal/ipc"
	"github.com/wozobuyshop/Kidstalk3/internal/lang"
	"github.com/wozobuyshop/Kidstalk3/internal/logging"
	"github.com/wozobuyshop/Kidstalk3/internal/notify"
	"github.com/wozobuyshop/Kidstalk3/internal/pipeline"
	"github.com/wozobuyshop/Kidstalk3/internal/session"
	"github.com/wozobuyshop/Kidstalk3/internal/share"
)

// runOwner builds the full session stack, starts recording, and serves IPC
// until a quit command or signal arrives.
func runOwner(
	ctx context.Context,
	listener net.Listener,
	loaded config.Loaded,
	stdout io.Writer,
	stderr io.Writer,
) int {
	logRuntime, err := logging.New()
	var logger *slog.Logger
	if err != nil {
		fmt.Fprintln(stderr, "kidstalk: log file unavailable, logging to stderr:", err)
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	} else {
		logger = logRuntime.Logger
		defer logRuntime.Close()
	}

	credential := config.LoadCredential()
	if !credential.Present() {
		logger.Warn("gateway credential missing")
		fmt.Fprintln(stderr, "kidstalk: GEMINI_API_KEY is not set; recordings will fail to translate until it is")
	}

	var dumpSink io.Writer
	if loaded.Config.Debug.EnableGatewayDump {
		dumpFile, err := pipeline.CreateDebugFile("gateway", "jsonl")
		if err != nil {
			logger.Warn("gateway dump disabled", "error", err)
		} else {
			defer dumpFile.Close()
			dumpSink = dumpFile
			logger.Info("gateway dump enabled", "path", dumpFile.Name())
		}
	}

	gateway := gemini.NewClient(loaded.Config.Gateway, gemini.Options{
		Logger:     logger,
		Credential: credential,
		DumpSink:   dumpSink,
	})
	player := audio.NewPlayer(logger)
	recorder := pipeline.NewRecorder(logger, loaded.Config.Audio, loaded.Config.Debug.EnableAudioDump)
	speaker := pipeline.NewSpeaker(logger, gateway, player)
	opener := share.NewOpener(logger, loaded.Config.Share)
	notifier := notify.New(logger, loaded.Config.Notify, player)

	uiLanguage, err := lang.Parse(loaded.Config.UI.Language)
	if err != nil {
		uiLanguage = lang.English
	}

	controller := session.NewController(session.Options{
		Logger:     logger,
		Gateway:    gateway,
		Recorder:   recorder,
		Speaker:    speaker,
		Sharer:     opener,
		Notifier:   notifier,
		UILanguage: uiLanguage,
		DarkMode:   loaded.Config.UI.DarkMode,
	})

	ownerCtx, stop := context.WithCancel(ctx)
	defer stop()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- ipc.Serve(ownerCtx, listener, ownerHandler(controller, stop))
	}()

	logger.Info("session started", "socket", listener.Addr().String(), "config", loaded.Path)
	fmt.Fprintln(stdout, "kidstalk session started; run 'kidstalk' again to stop recording and translate")

	// The first invocation doubles as the push of the talk button.
	if err := controller.StartRecording(ownerCtx); err != nil {
		logger.Error("initial recording failed", "error", err)
		fmt.Fprintln(stderr, "kidstalk:", err)
	}

	<-ownerCtx.Done()
	if err := <-serveDone; err != nil {
		logger.Error("ipc server stopped", "error", err)
	}

	controller.Wait()
	player.Wait()
	notifier.Wait()
	logger.Info("session stopped")
	fmt.Fprintln(stdout, "kidstalk session stopped")
	return 0
}

// ownerHandler wraps the session handler and intercepts quit, which belongs
// to the process rather than the session.
func ownerHandler(controller *session.Controller, stop func()) ipc.Handler {
	return ipc.HandlerFunc(func(ctx context.Context, req ipc.Request) ipc.Response {
		if req.Command == "quit" {
			stop()
			return ipc.Response{OK: true, State: string(controller.State()), Message: "session stopping"}
		}
		return controller.Handle(ctx, req)
	})
}
