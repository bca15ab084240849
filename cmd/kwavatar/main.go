package main

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kwami-ai/kwavatar/internal/audio"
	"github.com/kwami-ai/kwavatar/internal/bands"
	"github.com/kwami-ai/kwavatar/internal/cli"
	"github.com/kwami-ai/kwavatar/internal/config"
	"github.com/kwami-ai/kwavatar/internal/crystal"
	"github.com/kwami-ai/kwavatar/internal/engine"
	"github.com/kwami-ai/kwavatar/internal/export"
	"github.com/kwami-ai/kwavatar/internal/mesh"
	"github.com/kwami-ai/kwavatar/internal/renderer"
	"github.com/kwami-ai/kwavatar/internal/ui"
	"golang.org/x/image/font"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Input  string `arg:"" name:"input" help:"Input audio file (.wav, .mp3, .flac)" optional:""`
	Output string `arg:"" name:"output" help:"Output directory for the PNG frame sequence" optional:""`

	Live      bool   `help:"Run the interactive terminal session instead of rendering"`
	Shape     string `help:"Avatar shape: sphere or crystal" default:"sphere" enum:"sphere,crystal"`
	Pattern   string `help:"Crystal shard layout: random, spiral, or rings" default:"random" enum:"random,spiral,rings"`
	Fps       int    `help:"Frames per second" default:"60"`
	Width     int    `help:"Frame width in pixels" default:"1280"`
	Height    int    `help:"Frame height in pixels" default:"720"`
	Tint      string `help:"Surface tint as a hex colour" default:"#5EC5FF"`
	Seed      int64  `help:"Noise and layout seed" default:"7"`
	Font      string `help:"TTF font for the title overlay (built-in bitmap face when unset)"`
	Title     string `help:"Title drawn onto each frame"`
	NoPreview bool   `help:"Disable the terminal frame preview"`
	Version   bool   `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("kwavatar"),
		kong.Description("Render an audio-reactive soft-body avatar to PNG frames, or drive it live in the terminal."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	tintR, tintG, tintB, err := config.ParseHexColor(CLI.Tint)
	if err != nil {
		cli.PrintError(fmt.Sprintf("invalid tint: %v", err))
		os.Exit(1)
	}

	fontFace := loadFontFace()
	frame := renderer.NewFrame(CLI.Width, CLI.Height, tintR, tintG, tintB, fontFace, CLI.Title)

	if CLI.Live {
		runLive(frame)
		return
	}

	if CLI.Input == "" || CLI.Output == "" {
		cli.PrintError("<input> and <output> are required (or pass --live)")
		os.Exit(1)
	}
	if _, err := os.Stat(CLI.Input); os.IsNotExist(err) {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", CLI.Input))
		os.Exit(1)
	}

	renderFrames(frame)
}

// loadFontFace resolves the title overlay font: the configured TTF when
// given, the built-in bitmap face otherwise, nil when there is no title.
func loadFontFace() font.Face {
	if CLI.Title == "" {
		return nil
	}
	if CLI.Font != "" {
		face, err := renderer.LoadFont(CLI.Font, 28)
		if err != nil {
			cli.PrintWarning(fmt.Sprintf("failed to load font %s: %v", CLI.Font, err))
			return renderer.FallbackFace()
		}
		return face
	}
	return renderer.FallbackFace()
}

func runLive(frame *renderer.Frame) {
	var source engine.FrequencySource
	if CLI.Input != "" {
		analyser, err := audio.OpenAnalyser(CLI.Input, CLI.Fps)
		if err != nil {
			cli.PrintError(fmt.Sprintf("opening audio: %v", err))
			os.Exit(1)
		}
		defer analyser.Close()
		source = analyser
	} else {
		source = audio.NewOscillator(CLI.Seed, CLI.Fps)
	}

	err := ui.RunLive(ui.LiveConfig{
		Source:    source,
		Frame:     frame,
		Shape:     ui.ParseShape(CLI.Shape),
		Pattern:   crystal.ParsePattern(CLI.Pattern),
		Seed:      CLI.Seed,
		FPS:       CLI.Fps,
		NoPreview: CLI.NoPreview,
	})
	if err != nil {
		cli.PrintError(fmt.Sprintf("running session: %v", err))
		os.Exit(1)
	}
}

// bufferedSource hands the engine a snapshot the render loop has
// already pulled, so decode time can be measured separately.
type bufferedSource struct {
	freq []byte
	ok   bool
}

func (s *bufferedSource) Available() bool { return s.ok }

func (s *bufferedSource) FrequencyData(dst []byte) bool {
	if !s.ok {
		return false
	}
	copy(dst, s.freq)
	return true
}

func renderFrames(frame *renderer.Frame) {
	analyser, err := audio.OpenAnalyser(CLI.Input, CLI.Fps)
	if err != nil {
		cli.PrintError(fmt.Sprintf("opening audio: %v", err))
		os.Exit(1)
	}
	defer analyser.Close()

	seq, err := export.New(export.Config{
		OutputDir: CLI.Output,
		Width:     CLI.Width,
		Height:    CLI.Height,
		Framerate: CLI.Fps,
	})
	if err != nil {
		cli.PrintError(fmt.Sprintf("creating sequence: %v", err))
		os.Exit(1)
	}
	if err := seq.Initialize(); err != nil {
		cli.PrintError(fmt.Sprintf("initializing sequence: %v", err))
		os.Exit(1)
	}

	model := ui.NewRenderModel(CLI.NoPreview, CLI.Fps)
	p := tea.NewProgram(model)

	var renderErr error

	go func() {
		source := &bufferedSource{freq: make([]byte, config.FrequencyBins)}
		avatar := engine.NewAvatar(mesh.NewSphere(1.0, 48, 32), source, CLI.Seed)
		formation := crystal.NewFormation(14, crystal.ParsePattern(CLI.Pattern), CLI.Seed)
		useCrystal := ui.ParseShape(CLI.Shape) == ui.ShapeCrystal

		var decodeTime, deformTime, drawTime, encodeTime time.Duration
		startTime := time.Now()
		frameDt := time.Second / time.Duration(CLI.Fps)
		dt := frameDt.Seconds()
		now := startTime
		rotation := 0.0
		frameNum := 0

		for {
			t0 := time.Now()
			source.ok = analyser.FrequencyData(source.freq)
			decodeTime += time.Since(t0)
			if !source.ok {
				break
			}
			now = now.Add(frameDt)

			t0 = time.Now()
			var fi engine.FrameInfo
			if useCrystal {
				formation.Update(source.freq, dt)
				rotation += config.IdleRotationSpeed * dt
			} else {
				avatar.Tick(now)
				lb, tb := avatar.Blends()
				fi = engine.FrameInfo{
					Now:            now,
					Mesh:           avatar.Mesh,
					AudioDriven:    avatar.AudioDriven(),
					RotationY:      avatar.RotationY(),
					Scale:          avatar.Scale(),
					Bands:          avatar.Bands(),
					ListeningBlend: lb,
					ThinkingBlend:  tb,
				}
			}
			deformTime += time.Since(t0)

			t0 = time.Now()
			if useCrystal {
				frame.DrawFormation(formation, rotation)
			} else {
				frame.DrawMesh(fi)
			}
			drawTime += time.Since(t0)

			t0 = time.Now()
			if err := seq.WriteFrame(frame.GetImage()); err != nil {
				renderErr = fmt.Errorf("writing frame %d: %w", frameNum, err)
				p.Quit()
				return
			}
			encodeTime += time.Since(t0)

			frameNum++

			if frameNum%3 == 0 {
				sm := avatar.Bands()
				if useCrystal {
					lv := bands.Extract(source.freq)
					sm.Low, sm.Mid, sm.High, sm.Ultra = lv.Low, lv.Mid, lv.High, lv.Ultra
				}
				var frameData *image.RGBA
				if !CLI.NoPreview && frameNum%6 == 0 {
					frameData = frame.GetImage()
				}
				p.Send(ui.RenderProgress{
					Frame:     frameNum,
					Elapsed:   time.Since(startTime),
					Bands:     []float64{sm.Low, sm.Mid, sm.High, sm.Ultra},
					FrameData: frameData,
				})
			}
		}

		if err := seq.Close(); err != nil {
			renderErr = fmt.Errorf("closing sequence: %w", err)
			p.Quit()
			return
		}

		p.Send(ui.RenderComplete{
			OutputDir:   CLI.Output,
			TotalFrames: frameNum,
			DecodeTime:  decodeTime,
			DeformTime:  deformTime,
			DrawTime:    drawTime,
			EncodeTime:  encodeTime,
			TotalTime:   time.Since(startTime),
		})
	}()

	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("running UI: %v", err))
		os.Exit(1)
	}
	if renderErr != nil {
		cli.PrintError(fmt.Sprintf("during render: %v", renderErr))
		os.Exit(1)
	}

	cli.PrintSuccess(fmt.Sprintf("Done! %d frames in %s", seq.FramesWritten(), CLI.Output))
}
