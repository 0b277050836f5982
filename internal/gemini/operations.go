package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wozobuyshop/Kidstalk3/internal/audio"
	"github.com/wozobuyshop/Kidstalk3/internal/codec"
	"github.com/wozobuyshop/Kidstalk3/internal/lang"
	"github.com/wozobuyshop/Kidstalk3/internal/session"
)

const translateInstruction = `Listen to the attached audio. Transcribe it exactly as spoken. Detect whether the speaker is using English, French, or Arabic (including Moroccan Darija) and name that language. Then translate the transcription into English, Arabic, and French. Respond with JSON only, no prose and no markdown, using exactly this shape: {"originalText": string, "detectedLanguage": string, "translations": {"en": string, "ar": string, "fr": string}}`

const speechStylePrefix = "Say this in a happy, friendly child-like voice: "

func replyInstruction(target lang.Language) string {
	return fmt.Sprintf(`The attached audio is a child answering in Arabic (Moroccan Darija). Transcribe the child's words verbatim, then translate them into %s. Respond with JSON only, no prose and no markdown, using exactly this shape: {"childOriginalText": string, "translatedReply": string, "targetLanguage": string}`, target.Name())
}

// TranscribeAndTranslate sends one clip through the transcribe+translate
// round and validates the structured result.
func (c *Client) TranscribeAndTranslate(ctx context.Context, clip audio.Clip) (session.TranslationResult, error) {
	const op = "transcribe_translate"

	resp, err := c.generate(ctx, op, c.model, generateRequest{
		Contents: []content{{Parts: []part{
			{Text: translateInstruction},
			{InlineData: &inlineData{MIMEType: clip.MIME, Data: codec.EncodeForTransport(clip.Bytes)}},
		}}},
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return session.TranslationResult{}, err
	}

	text, ok := firstText(resp)
	if !ok {
		return session.TranslationResult{}, fmt.Errorf("%s: no text candidate: %w", op, session.ErrResponseFormat)
	}

	var payload struct {
		OriginalText     *string           `json:"originalText"`
		DetectedLanguage *string           `json:"detectedLanguage"`
		Translations     map[string]string `json:"translations"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &payload); err != nil {
		return session.TranslationResult{}, fmt.Errorf("%s: %w: %v", op, session.ErrResponseFormat, err)
	}
	if payload.OriginalText == nil || payload.DetectedLanguage == nil {
		return session.TranslationResult{}, fmt.Errorf("%s: missing transcription fields: %w", op, session.ErrResponseFormat)
	}
	for _, l := range lang.All() {
		if _, ok := payload.Translations[l.Code()]; !ok {
			return session.TranslationResult{}, fmt.Errorf("%s: missing %s translation: %w", op, l.Code(), session.ErrResponseFormat)
		}
	}

	return session.TranslationResult{
		OriginalText:     *payload.OriginalText,
		DetectedLanguage: *payload.DetectedLanguage,
		Translations:     payload.Translations,
	}, nil
}

// TranscribeReply sends a child's spoken reply through transcription and
// translation into the chosen target language.
func (c *Client) TranscribeReply(ctx context.Context, clip audio.Clip, target lang.Language) (session.ReplyResult, error) {
	const op = "transcribe_reply"

	resp, err := c.generate(ctx, op, c.model, generateRequest{
		Contents: []content{{Parts: []part{
			{Text: replyInstruction(target)},
			{InlineData: &inlineData{MIMEType: clip.MIME, Data: codec.EncodeForTransport(clip.Bytes)}},
		}}},
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	})
	if err != nil {
		return session.ReplyResult{}, err
	}

	text, ok := firstText(resp)
	if !ok {
		return session.ReplyResult{}, fmt.Errorf("%s: no text candidate: %w", op, session.ErrResponseFormat)
	}

	var payload struct {
		ChildOriginalText *string `json:"childOriginalText"`
		TranslatedReply   *string `json:"translatedReply"`
		TargetLanguage    string  `json:"targetLanguage"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &payload); err != nil {
		return session.ReplyResult{}, fmt.Errorf("%s: %w: %v", op, session.ErrResponseFormat, err)
	}
	if payload.ChildOriginalText == nil || payload.TranslatedReply == nil {
		return session.ReplyResult{}, fmt.Errorf("%s: missing reply fields: %w", op, session.ErrResponseFormat)
	}

	// The gateway echoes the target language; trust the request over a
	// malformed echo.
	echoed := target
	if parsed, err := lang.Parse(payload.TargetLanguage); err == nil {
		echoed = parsed
	}

	return session.ReplyResult{
		ChildOriginalText: *payload.ChildOriginalText,
		TranslatedReply:   *payload.TranslatedReply,
		TargetLanguage:    echoed,
	}, nil
}

// SynthesizeSpeech returns base64-encoded 16-bit PCM speech for the text,
// voiced per the language's synthesis profile.
func (c *Client) SynthesizeSpeech(ctx context.Context, text string, voice lang.Language) (string, error) {
	const op = "synthesize_speech"

	resp, err := c.generate(ctx, op, c.ttsModel, generateRequest{
		Contents: []content{{Parts: []part{
			{Text: speechStylePrefix + text},
		}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: lang.Voice(voice.Code())},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	data, ok := firstAudio(resp)
	if !ok {
		return "", fmt.Errorf("%s: %w", op, session.ErrNoAudioGenerated)
	}
	return data, nil
}
