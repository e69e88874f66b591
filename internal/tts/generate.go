package tts

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"voxnote/internal/audio"
	"voxnote/internal/config"
	"voxnote/internal/notify"
)

const DefaultPace = 100 * time.Millisecond

var ErrNothingGenerated = errors.New("no audio files were generated")

// Job is one clip to render.
type Job struct {
	File    string
	Text    string
	Profile string
}

// Jobs lists every phrase for every profile plus the ambient clips, which use
// the default profile.
func Jobs() []Job {
	var jobs []Job
	kinds := append(append([]notify.Kind{}, notify.Kinds...), notify.KindActivated)
	for _, kind := range kinds {
		for _, profile := range config.Profiles {
			jobs = append(jobs, Job{
				File:    notify.FileName(kind, profile),
				Text:    notify.Phrase(kind, profile),
				Profile: profile,
			})
		}
	}

	ambient := make([]string, 0, len(notify.AmbientPhrases))
	for file := range notify.AmbientPhrases {
		ambient = append(ambient, file)
	}
	sort.Strings(ambient)
	for _, file := range ambient {
		jobs = append(jobs, Job{File: file, Text: notify.AmbientPhrases[file], Profile: config.DefaultProfile})
	}
	return jobs
}

type Result struct {
	Success int
	Total   int
	Failed  []string
}

type Generator struct {
	client *Client
	dir    string
	// Pace is the pause between requests so the engine is not flooded.
	Pace time.Duration
}

func NewGenerator(client *Client, dir string) *Generator {
	return &Generator{client: client, dir: dir, Pace: DefaultPace}
}

// Generate renders jobs into the output directory. It fails only when the
// engine is unreachable or nothing could be rendered.
func (g *Generator) Generate(ctx context.Context, jobs []Job) (Result, error) {
	version, err := g.client.Version(ctx)
	if err != nil {
		return Result{}, err
	}
	log.Info("VOICEVOX is available", "version", version)

	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return Result{}, fmt.Errorf("create assets dir: %w", err)
	}

	res := Result{Total: len(jobs)}
	for _, job := range jobs {
		if err := g.render(ctx, job); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Error("Failed to generate clip", "file", job.File, "err", err)
			res.Failed = append(res.Failed, job.File)
			continue
		}
		res.Success++

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(g.Pace):
		}
	}

	log.Info("Audio asset generation complete", "success", res.Success, "total", res.Total)
	if res.Success == 0 {
		return res, ErrNothingGenerated
	}
	if len(res.Failed) > 0 {
		log.Warn("Some files failed to generate", "failed", len(res.Failed))
	}
	return res, nil
}

func (g *Generator) render(ctx context.Context, job Job) error {
	speaker := config.SpeakerID(job.Profile)
	voice, ok := Voices[job.Profile]
	if !ok {
		voice = Voices[config.DefaultProfile]
	}

	log.Info("Generating", "file", job.File, "text", job.Text, "speaker", speaker)

	query, err := g.client.AudioQuery(ctx, job.Text, speaker)
	if err != nil {
		return err
	}
	voice.Apply(query)

	data, err := g.client.Synthesize(ctx, query, speaker)
	if err != nil {
		return err
	}

	info, err := audio.Probe(job.File, data)
	if err != nil {
		return fmt.Errorf("engine returned an unreadable clip: %w", err)
	}

	path := filepath.Join(g.dir, job.File)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Info("Generated", "file", job.File, "bytes", len(data), "duration", info.Duration)
	return nil
}
