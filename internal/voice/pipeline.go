// Package voice turns a voice message into text: the attachment is streamed
// from the chat transport straight into the transcription upload.
package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrDownload wraps failures fetching the attachment from the transport.
var ErrDownload = errors.New("voice download failed")

var errTranscriberDone = errors.New("transcriber stopped reading")

// FileRef locates a voice attachment on the transport.
type FileRef struct {
	ID            int64
	AccessHash    int64
	FileReference []byte
	MimeType      string
	Size          int64
}

// Downloader writes the bytes of a voice attachment to w.
type Downloader interface {
	DownloadVoice(ctx context.Context, ref FileRef, w io.Writer) error
}

// Transcriber turns an audio stream into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// Pipeline downloads and transcribes in one pass without buffering the
// whole file.
type Pipeline struct {
	downloader  Downloader
	transcriber Transcriber
}

func NewPipeline(downloader Downloader, transcriber Transcriber) *Pipeline {
	return &Pipeline{downloader: downloader, transcriber: transcriber}
}

// Transcribe returns the transcript of the referenced attachment. Download
// failures are reported as ErrDownload. When both sides fail, the error of
// the side that failed first is returned; each side records its failure
// before it can disturb the other.
func (p *Pipeline) Transcribe(ctx context.Context, ref FileRef) (string, error) {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	var (
		once  sync.Once
		first error
	)
	fail := func(err error) {
		once.Do(func() { first = err })
	}

	g.Go(func() error {
		err := p.downloader.DownloadVoice(gctx, ref, pw)
		if err != nil && !errors.Is(err, errTranscriberDone) {
			fail(fmt.Errorf("%w: %v", ErrDownload, err))
		}
		pw.CloseWithError(err)
		return err
	})

	var text string
	g.Go(func() error {
		var err error
		text, err = p.transcriber.Transcribe(gctx, pr)
		if err != nil {
			fail(fmt.Errorf("transcribe: %w", err))
		}
		pr.CloseWithError(errTranscriberDone)
		return err
	})

	_ = g.Wait()

	if first != nil {
		return "", first
	}
	return text, nil
}
