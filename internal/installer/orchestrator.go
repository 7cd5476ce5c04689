package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/eim-labs/eim/internal/gitclone"
	"github.com/eim-labs/eim/internal/manifest"
	"github.com/eim-labs/eim/internal/paths"
	"github.com/eim-labs/eim/internal/prereq"
	"github.com/eim-labs/eim/internal/progress"
	"github.com/eim-labs/eim/internal/python"
	"github.com/eim-labs/eim/internal/registry"
	"github.com/eim-labs/eim/internal/settings"
	"github.com/eim-labs/eim/internal/telemetry"
	"github.com/eim-labs/eim/internal/tools"
)

// Overall percent slices per stage. Download dominates because cloning
// with submodules is by far the longest phase.
const (
	checkingDone  = 5
	prereqDone    = 10
	downloadLow   = 10
	downloadHigh  = 65
	extractLow    = 65
	extractHigh   = 80
	pythonLow     = 80
	pythonHigh    = 90
	configureLow  = 90
	configureHigh = 100
)

// Orchestrator runs the installation pipeline. All fields must be set;
// use New for a production instance.
type Orchestrator struct {
	Cloner     Cloner
	Tools      ToolProvisioner
	Python     EnvBuilder
	Prereqs    PrereqChecker
	Registry   *registry.Handle
	Resolver   *paths.Resolver
	Sink       progress.Sink
	Prompt     Prompter
	Telemetry  *telemetry.Reporter
	Log        *log.Logger
	AppVersion string
	GOOS       string
	GitPath    string // recorded in the registry for later repairs
}

// New wires an orchestrator to the real collaborators.
func New(reg *registry.Handle, sink progress.Sink, prompt Prompter, logger *log.Logger, appVersion string) *Orchestrator {
	gitPath, _ := exec.LookPath("git")
	return &Orchestrator{
		Cloner:     gitclone.New(),
		Tools:      tools.New(),
		Python:     python.New(runtime.GOOS),
		Prereqs:    prereq.New(runtime.GOOS),
		Registry:   reg,
		Resolver:   paths.NewResolver(),
		Sink:       sink,
		Prompt:     prompt,
		Telemetry:  telemetry.New(logger),
		Log:        logger,
		AppVersion: appVersion,
		GOOS:       runtime.GOOS,
		GitPath:    gitPath,
	}
}

// Run installs every requested version sequentially and stops at the
// first fatal failure, leaving earlier versions' registry entries intact.
// Context is consulted between stages, not mid-transfer.
func (o *Orchestrator) Run(ctx context.Context, s *settings.Settings) error {
	if len(s.Versions) == 0 {
		return ErrNoVersionsRequested
	}
	for _, version := range s.Versions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.installOne(ctx, s, version); err != nil {
			o.report(progress.StageError, version, 100, "")
			o.Sink.Message(progress.LevelError, version, err.Error())
			return err
		}
	}
	return nil
}

func (o *Orchestrator) installOne(ctx context.Context, s *settings.Settings, version string) error {
	// Checking.
	o.report(progress.StageChecking, version, 0, "")
	vp, err := o.Resolver.Resolve(s, version)
	if err != nil {
		return stageErr(progress.StageChecking, version, ErrPathCreation, err)
	}
	if err := vp.EnsureDirs(); err != nil {
		return stageErr(progress.StageChecking, version, ErrPathCreation, err)
	}
	o.logDebug("resolved layout", "version", vp.ActualVersion, "root", vp.InstallRoot, "useExisting", vp.UseExisting)
	o.report(progress.StageChecking, vp.ActualVersion, checkingDone, "")

	// Prerequisites.
	if !s.SkipPrerequisitesCheck {
		o.report(progress.StagePrerequisites, vp.ActualVersion, checkingDone, "")
		if err := o.ensurePrereqs(ctx, s, vp.ActualVersion); err != nil {
			return err
		}
	}
	o.report(progress.StagePrerequisites, vp.ActualVersion, prereqDone, "")

	// Download.
	if vp.UseExisting {
		o.Sink.Message(progress.LevelWarning, vp.ActualVersion,
			fmt.Sprintf("using existing checkout at %s without verifying completeness", vp.CheckoutDir))
		o.report(progress.StageDownload, vp.ActualVersion, downloadHigh, "")
	} else {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.download(ctx, s, vp, version); err != nil {
			return err
		}
	}

	// Extract.
	if err := ctx.Err(); err != nil {
		return err
	}
	installed, err := o.provisionTools(ctx, s, vp)
	if err != nil {
		return err
	}

	// Python.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.buildPython(ctx, s, vp); err != nil {
		return err
	}

	// Configure.
	o.report(progress.StageConfigure, vp.ActualVersion, configureLow, "")
	if err := o.configure(ctx, s, vp, installed); err != nil {
		return err
	}

	o.report(progress.StageComplete, vp.ActualVersion, configureHigh, "")
	o.Sink.Message(progress.LevelSuccess, vp.ActualVersion,
		fmt.Sprintf("installed at %s; activate with %s", vp.InstallRoot, vp.ActivationScript))
	return nil
}

// ensurePrereqs checks for missing system packages and installs them once
// when requested (or confirmed interactively), then re-checks once.
func (o *Orchestrator) ensurePrereqs(ctx context.Context, s *settings.Settings, version string) error {
	missing := o.Prereqs.Missing()
	if len(missing) == 0 {
		return nil
	}
	o.Sink.Message(progress.LevelWarning, version,
		"missing prerequisites: "+strings.Join(missing, ", "))

	install := s.InstallAllPrerequisites
	if !install && !s.NonInteractive && o.Prompt != nil {
		ok, err := o.Prompt.Confirm("Install the missing prerequisites now?")
		install = err == nil && ok
	}
	if !install {
		return stageErr(progress.StagePrerequisites, version, ErrPrerequisites,
			fmt.Errorf("install them manually or rerun with --install-all-prerequisites: %s", strings.Join(missing, ", ")))
	}

	if err := o.Prereqs.Install(ctx, missing); err != nil {
		return stageErr(progress.StagePrerequisites, version, ErrPrerequisites, err)
	}
	if still := o.Prereqs.Missing(); len(still) > 0 {
		return stageErr(progress.StagePrerequisites, version, ErrPrerequisites,
			fmt.Errorf("still missing after installation: %s", strings.Join(still, ", ")))
	}
	return nil
}

// download clones the repository with a paired aggregator goroutine. A
// pre-existing destination is tolerated: silently in non-interactive
// runs, after confirmation otherwise.
func (o *Orchestrator) download(ctx context.Context, s *settings.Settings, vp paths.VersionPaths, version string) error {
	events := make(chan progress.Event, progress.QueueSize)
	agg := progress.NewAggregator(o.Sink, progress.StageDownload, vp.ActualVersion, downloadLow, downloadHigh)
	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.Run(events)
	}()

	err := o.Cloner.Clone(ctx, gitclone.Options{
		URL:               gitclone.RepoURL(s.IDFMirror, s.RepoStub),
		Version:           version,
		Dest:              vp.CheckoutDir,
		RecurseSubmodules: s.RecurseSubmodules,
	}, events)
	<-done

	if err == nil {
		return nil
	}
	if errors.Is(err, gitclone.ErrDestinationExists) {
		if s.NonInteractive {
			o.Sink.Message(progress.LevelWarning, vp.ActualVersion,
				fmt.Sprintf("directory %s already exists, using it as is", vp.CheckoutDir))
			return nil
		}
		ok, perr := o.Prompt.Confirm(
			fmt.Sprintf("Directory %s already exists. Use its contents anyway?", vp.CheckoutDir))
		if perr == nil && ok {
			return nil
		}
		return stageErr(progress.StageDownload, vp.ActualVersion, ErrUserCancelled, nil)
	}
	return stageErr(progress.StageDownload, vp.ActualVersion, ErrDownload, err)
}

// provisionTools validates the checkout's manifest and installs the
// toolchain artifacts for the configured targets.
func (o *Orchestrator) provisionTools(ctx context.Context, s *settings.Settings, vp paths.VersionPaths) ([]tools.Installed, error) {
	manifestPath := filepath.Join(vp.CheckoutDir, filepath.FromSlash(s.ToolsFile))
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, stageErr(progress.StageExtract, vp.ActualVersion, ErrToolSetup, err)
	}
	res, err := manifest.Validate(data)
	if err != nil {
		return nil, stageErr(progress.StageExtract, vp.ActualVersion, ErrToolSetup, err)
	}
	if !res.Valid {
		return nil, stageErr(progress.StageExtract, vp.ActualVersion, ErrToolSetup,
			fmt.Errorf("manifest %s failed schema validation: %s", manifestPath, summarizeIssues(res.Issues)))
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, stageErr(progress.StageExtract, vp.ActualVersion, ErrToolSetup, err)
	}

	events := make(chan progress.Event, progress.QueueSize)
	agg := progress.NewAggregator(o.Sink, progress.StageExtract, vp.ActualVersion, extractLow, extractHigh)
	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.Run(events)
	}()

	installed, err := o.Tools.Provision(ctx, tools.Request{
		Manifest:    m,
		Targets:     s.Targets,
		PlatformKey: manifest.PlatformKey(o.GOOS, runtime.GOARCH),
		DownloadDir: vp.ToolDownloadDir,
		InstallDir:  vp.ToolInstallDir,
		Mirror:      s.Mirror,
	}, events)
	<-done

	if err != nil {
		return nil, stageErr(progress.StageExtract, vp.ActualVersion, ErrToolSetup, err)
	}
	return installed, nil
}

func (o *Orchestrator) buildPython(ctx context.Context, s *settings.Settings, vp paths.VersionPaths) error {
	events := make(chan progress.Event, progress.QueueSize)
	agg := progress.NewAggregator(o.Sink, progress.StagePython, vp.ActualVersion, pythonLow, pythonHigh)
	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.Run(events)
	}()

	err := o.Python.Build(ctx, python.Options{
		VenvDir:     vp.VenvDir,
		PythonPath:  vp.PythonPath,
		CheckoutDir: vp.CheckoutDir,
		Features:    s.Features,
		PyPIMirror:  s.PyPIMirror,
	}, events)
	<-done

	if err != nil {
		return stageErr(progress.StagePython, vp.ActualVersion, ErrPythonEnv, err)
	}
	return nil
}

// configure writes the activation script and records the installation.
// Registry write failures surface; already-written files are kept so a
// repair run can pick the installation up.
func (o *Orchestrator) configure(ctx context.Context, s *settings.Settings, vp paths.VersionPaths, installed []tools.Installed) error {
	var exports []string
	for _, inst := range installed {
		exports = append(exports, inst.ExportPaths...)
	}
	if err := writeActivationScript(o.GOOS, vp, exports); err != nil {
		return stageErr(progress.StageConfigure, vp.ActualVersion, ErrPathCreation, err)
	}

	record := registry.Installation{
		ID:               registry.NewID(),
		Name:             vp.ActualVersion,
		Path:             vp.CheckoutDir,
		ToolsPath:        vp.ToolInstallDir,
		ActivationScript: vp.ActivationScript,
		Python:           vp.PythonPath,
	}
	incoming := &registry.Config{
		GitPath:    o.GitPath,
		Installed:  []registry.Installation{record},
		SelectedID: record.ID,
	}
	if err := o.Registry.Merge(incoming); err != nil {
		return stageErr(progress.StageConfigure, vp.ActualVersion, ErrRegistryWrite, err)
	}

	if s.ConfigFileSavePath != "" {
		if err := s.Save(); err != nil {
			o.Sink.Message(progress.LevelWarning, vp.ActualVersion,
				"could not export settings snapshot: "+err.Error())
		}
	}
	if o.Telemetry != nil {
		o.Telemetry.ReportInstall(ctx, o.AppVersion, vp.ActualVersion, true)
	}
	return nil
}

func (o *Orchestrator) report(stage progress.Stage, version string, percent int, detail string) {
	o.Sink.Progress(progress.Report{Stage: stage, Version: version, Percent: percent, Detail: detail})
}

func (o *Orchestrator) logDebug(msg string, kv ...any) {
	if o.Log != nil {
		o.Log.Debug(msg, kv...)
	}
}

func summarizeIssues(issues []manifest.ValidationIssue) string {
	parts := make([]string, 0, len(issues))
	for i, issue := range issues {
		if i == 3 {
			parts = append(parts, fmt.Sprintf("and %d more", len(issues)-i))
			break
		}
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Path, issue.Message))
	}
	return strings.Join(parts, "; ")
}
