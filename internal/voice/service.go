package voice

import (
	"context"
	"fmt"
	"strings"

	"ai-calling-agent/internal/metrics"
	"ai-calling-agent/pkg/logger"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultVoice = "alloy"

	audioBaseURL = "https://api.example.com/audio"

	demoTranscript = "Transcribed text from audio (demo)"
)

// Service is the placeholder boundary for speech synthesis and recognition.
// No audio is produced or decoded; the model names are kept so a real
// provider can be dropped in behind the same methods.
type Service struct {
	TTSModel string
	STTModel string
}

func NewService(ttsModel, sttModel string) *Service {
	return &Service{TTSModel: ttsModel, STTModel: sttModel}
}

// TextToSpeech returns a stable placeholder URL for (voice, text).
func (s *Service) TextToSpeech(ctx context.Context, text, voice string) (string, error) {
	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = DefaultVoice
	}
	metrics.VoiceConversions.WithLabelValues("tts").Inc()
	logger.From(ctx).Debug("text-to-speech requested", "voice", voice, "chars", len(text), "model", s.TTSModel)

	return fmt.Sprintf("%s/%s/%016x.mp3", audioBaseURL, voice, xxhash.Sum64String(text)), nil
}

// SpeechToText ignores its input and returns a fixed transcript.
func (s *Service) SpeechToText(ctx context.Context, audioBase64 string) (string, error) {
	metrics.VoiceConversions.WithLabelValues("stt").Inc()
	logger.From(ctx).Debug("speech-to-text requested", "bytes", len(audioBase64), "model", s.STTModel)

	return demoTranscript, nil
}
