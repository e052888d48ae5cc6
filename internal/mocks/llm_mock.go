package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/telcal/internal/voice"
)

// MockCompleter is a mock implementation of the language model client
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockTranscriber is a mock implementation of the transcription client
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	args := m.Called(ctx, audio)
	return args.String(0), args.Error(1)
}

// MockVoicePipeline is a mock implementation of the voice-to-text pipeline
type MockVoicePipeline struct {
	mock.Mock
}

func (m *MockVoicePipeline) Transcribe(ctx context.Context, ref voice.FileRef) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}
