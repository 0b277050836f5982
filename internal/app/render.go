package app

import (
	"fmt"
	"io"

	"github.com/wozobuyshop/Kidstalk3/internal/ipc"
	"github.com/wozobuyshop/Kidstalk3/internal/lang"
)

// renderSnapshot prints the session aggregate for the status command.
func renderSnapshot(w io.Writer, snap ipc.Snapshot) {
	theme := "light"
	if snap.DarkMode {
		theme = "dark"
	}
	fmt.Fprintf(w, "state:     %s\n", snap.State)
	fmt.Fprintf(w, "interface: %s, %s theme\n", snap.UILanguage, theme)

	if snap.Error != "" {
		fmt.Fprintf(w, "problem:   %s\n", snap.Error)
	}

	if snap.Transcription != nil {
		fmt.Fprintf(w, "\nheard:     %s\n", snap.Transcription.OriginalText)
		fmt.Fprintf(w, "language:  %s\n", snap.Transcription.DetectedLanguage)
		for _, l := range lang.All() {
			if text, ok := snap.Transcription.Translations[l.Code()]; ok {
				fmt.Fprintf(w, "  %s: %s\n", l.Code(), text)
			}
		}
	}

	if snap.ReplyTarget != "" {
		fmt.Fprintf(w, "\nreplying in: %s\n", snap.ReplyTarget)
	}
	if snap.Reply != nil {
		fmt.Fprintf(w, "child said:  %s\n", snap.Reply.ChildOriginalText)
		fmt.Fprintf(w, "  %s: %s\n", snap.Reply.TargetLanguage, snap.Reply.TranslatedReply)
	}
}
