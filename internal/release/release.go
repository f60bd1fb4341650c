// Package release builds a package distribution, asks the operator whether
// to publish it, optionally uploads it, and always removes the local build
// artifacts afterwards.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pwvkpno/pwvkpno/internal/config"
	"github.com/pwvkpno/pwvkpno/internal/executor"
	"github.com/pwvkpno/pwvkpno/internal/security"
	"github.com/pwvkpno/pwvkpno/internal/utils"
)

// ErrNoArtifacts is returned when the packaging commands left nothing in
// the distribution directory.
var ErrNoArtifacts = errors.New("no distribution artifacts were produced")

// Config describes one release.
type Config struct {
	Build     []string
	Upload    string
	Cleanup   []string
	DistDir   string
	Checksums bool
	SignKey   string
	WorkDir   string
}

// FromSettings converts the release section of the settings file.
func FromSettings(s config.ReleaseSettings) Config {
	return Config{
		Build:     append([]string(nil), s.Build...),
		Upload:    s.Upload,
		Cleanup:   append([]string(nil), s.Cleanup...),
		DistDir:   s.DistDir,
		Checksums: s.Checksums,
		SignKey:   s.SignKey,
		WorkDir:   ".",
	}
}

// Result reports what a run did. It is returned even when Run fails.
type Result struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	WorkDir    string
	DryRun     bool
	Operator   string
	Artifacts  []Artifact
	Signed     bool
	Confirmed  bool
	Uploaded   bool
	Removed    []string
	BuildErr   error
	UploadErr  error
	CleanupErr error
}

// Err folds the step errors into one.
func (r *Result) Err() error {
	return errors.Join(r.BuildErr, r.UploadErr, r.CleanupErr)
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, res *Result) error
}

// Pipeline runs a release. Runner, In and Out are injectable so tests can
// drive the confirmation gate and observe which commands ran.
type Pipeline struct {
	Config    Config
	Runner    executor.Runner
	In        io.Reader
	Out       io.Writer
	ErrOut    io.Writer
	History   Recorder
	DryRun    bool
	AssumeYes bool
	Force     bool
	Operator  string
	Logger    zerolog.Logger

	now func() time.Time
}

// NewPipeline returns a Pipeline wired to the real executor and the
// process's standard streams.
func NewPipeline(cfg Config, runner executor.Runner) *Pipeline {
	return &Pipeline{
		Config: cfg,
		Runner: runner,
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		Logger: zerolog.Nop(),
	}
}

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now().UTC()
}

func (p *Pipeline) operator() string {
	if p.Operator != "" {
		return p.Operator
	}
	return os.Getenv("USER")
}

func (p *Pipeline) workDir() string {
	if p.Config.WorkDir == "" {
		return "."
	}
	return p.Config.WorkDir
}

// Check validates the configuration without running anything: every
// command must pass the safety deny list (unless forced) and every cleanup
// path must stay inside the working directory.
func (p *Pipeline) Check() error {
	if len(p.Config.Build) == 0 {
		return errors.New("no build commands configured")
	}
	if p.Config.DistDir == "" {
		return errors.New("no distribution directory configured")
	}
	if !p.Force {
		cmds := append(append([]string(nil), p.Config.Build...), p.Config.Upload)
		for _, c := range cmds {
			if c == "" {
				continue
			}
			if err := security.CheckAllowed(c); err != nil {
				return fmt.Errorf("refusing to run potentially dangerous command '%s': %v (use --force to override)", c, err)
			}
		}
	}
	for _, c := range p.Config.Cleanup {
		if _, err := security.ConfineCleanupPath(p.workDir(), c); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the release. Cleanup runs on every path out of Run once the
// configuration has been accepted, including after build or upload
// failures and when the operator declines.
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	res = &Result{
		ID:        uuid.NewString(),
		StartedAt: p.clock(),
		WorkDir:   p.workDir(),
		DryRun:    p.DryRun,
		Operator:  p.operator(),
	}
	log := p.Logger.With().Str("run", res.ID).Logger()

	if err := p.Check(); err != nil {
		return res, err
	}

	defer func() {
		res.CleanupErr = p.cleanup(res, log)
		res.FinishedAt = p.clock()
		if res.CleanupErr != nil {
			err = errors.Join(err, fmt.Errorf("cleanup: %w", res.CleanupErr))
		}
		if p.History != nil {
			if herr := p.History.Record(context.WithoutCancel(ctx), res); herr != nil {
				log.Warn().Err(herr).Msg("could not record release run")
			}
		}
	}()

	if err := p.build(ctx, log); err != nil {
		res.BuildErr = err
		return res, fmt.Errorf("build: %w", err)
	}

	distDir := filepath.Join(p.workDir(), p.Config.DistDir)
	if !p.DryRun {
		arts, err := CollectArtifacts(distDir)
		if err != nil {
			res.BuildErr = err
			return res, err
		}
		if len(arts) == 0 {
			res.BuildErr = ErrNoArtifacts
			return res, fmt.Errorf("%w in %s", ErrNoArtifacts, distDir)
		}
		if p.Config.SignKey != "" {
			if err := SignArtifacts(p.Config.SignKey, arts); err != nil {
				res.BuildErr = err
				return res, err
			}
			res.Signed = true
		}
		if p.Config.Checksums {
			if _, err := WriteChecksums(distDir, arts); err != nil {
				res.BuildErr = err
				return res, err
			}
		}
		res.Artifacts = arts
		for _, a := range arts {
			log.Info().Str("artifact", a.Name).Int64("bytes", a.Size).Str("sha256", a.SHA256).Msg("built")
		}
	}

	if p.Config.Upload == "" {
		log.Info().Msg("no upload command configured; skipping upload")
		return res, nil
	}

	confirmed := p.AssumeYes
	if !confirmed {
		confirmed, err = utils.ConfirmKey(fmt.Sprintf("Upload %d artifact(s) with %q?", len(res.Artifacts), p.Config.Upload), p.In, p.Out)
		if err != nil {
			return res, err
		}
	}
	res.Confirmed = confirmed
	if !confirmed {
		log.Info().Msg("upload skipped by operator")
		return res, nil
	}

	log.Info().Str("command", p.Config.Upload).Msg("uploading")
	if err := p.Runner.Execute(ctx, p.Config.Upload, p.workDir(), p.In, p.Out, p.ErrOut); err != nil {
		res.UploadErr = err
		return res, fmt.Errorf("upload: %w", err)
	}
	res.Uploaded = !p.DryRun
	return res, nil
}

func (p *Pipeline) build(ctx context.Context, log zerolog.Logger) error {
	for _, c := range p.Config.Build {
		log.Info().Str("command", c).Msg("packaging")
		if err := p.Runner.Execute(ctx, c, p.workDir(), nil, p.Out, p.ErrOut); err != nil {
			return err
		}
	}
	return nil
}

// cleanup removes every configured path. Missing paths are not errors.
func (p *Pipeline) cleanup(res *Result, log zerolog.Logger) error {
	var errs []error
	for _, c := range p.Config.Cleanup {
		full, err := security.ConfineCleanupPath(p.workDir(), c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := os.Lstat(full); err != nil {
			if !os.IsNotExist(err) {
				errs = append(errs, fmt.Errorf("stat %s: %w", c, err))
			}
			continue
		}
		if p.DryRun {
			if p.Out != nil {
				_, _ = fmt.Fprintf(p.Out, "dry-run: would remove %s\n", c)
			}
			continue
		}
		if err := os.RemoveAll(full); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", c, err))
			continue
		}
		log.Debug().Str("path", c).Msg("removed")
		res.Removed = append(res.Removed, c)
	}
	return errors.Join(errs...)
}
