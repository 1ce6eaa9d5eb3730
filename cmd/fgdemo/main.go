// Command fgdemo renders one frame of a 2D scene through the render graph
// into the in-memory recorder and prints the recorded passes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/clearcolor"
	"github.com/gogpu/framegraph/config"
	"github.com/gogpu/framegraph/core2d"
	"github.com/gogpu/framegraph/encoding"
	"github.com/gogpu/framegraph/graph"
	"github.com/gogpu/framegraph/phase"
	"github.com/gogpu/framegraph/resource"
	"github.com/gogpu/framegraph/texture"
	"github.com/gogpu/framegraph/view"
	"github.com/gogpu/framegraph/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "pipeline TOML file (default: built-in 2D pipeline)")
		imagePath  = flag.String("image", "", "sprite image to load")
		cameras    = flag.Int("cameras", 2, "number of cameras")
		sprites    = flag.Int("sprites", 4, "sprites per camera")
		split      = flag.Bool("split", false, "give each camera its own target")
		verbose    = flag.Bool("v", false, "debug logging")
		dumpConfig = flag.Bool("dump-config", false, "print the effective config and exit")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *dumpConfig {
		if err := cfg.Encode(os.Stdout); err != nil {
			log.Fatalf("encode config: %v", err)
		}
		return
	}

	s := scene{cameras: *cameras, sprites: *sprites, split: *split}
	if *imagePath != "" {
		img, err := texture.NewLoader().LoadFile(*imagePath, nil)
		if err != nil {
			log.Fatalf("load image: %v", err)
		}
		s.image = img
	}
	if err := run(context.Background(), cfg, s, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// scene describes the demo world.
type scene struct {
	cameras int
	sprites int
	split   bool
	image   *texture.Image
}

func run(ctx context.Context, cfg config.Config, s scene, out io.Writer) error {
	clearColor, err := cfg.ClearColor()
	if err != nil {
		return err
	}
	w := world.New()
	world.SetResource(w, clearcolor.ClearColor{Color: clearColor})
	populate(w, s)

	if err := core2d.SortPhases(w); err != nil {
		return err
	}
	d, caps, err := graph.FromConfig(cfg, w)
	if err != nil {
		return err
	}
	runner, err := graph.NewViewRunner(d, func(label string) (encoding.CommandEncoder, error) {
		return encoding.NewRecorder(label), nil
	}, caps)
	if err != nil {
		return err
	}

	frames, err := runner.Run(ctx, w)
	if err != nil {
		return err
	}
	for _, f := range frames {
		rec := f.Encoder.(*encoding.Recorder)
		passes, err := rec.Finish()
		if err != nil {
			return err
		}
		printFrame(out, f, passes)
	}
	core2d.ClearPhases(w)
	return nil
}

// populate spawns the cameras and queues the sprites into their phases.
func populate(w *world.World, s scene) {
	pipeline := resource.NewRenderPipeline("sprite_pipeline", nil)
	material := resource.NewBindGroup("sprite_material", nil)
	if s.image != nil {
		material = resource.NewBindGroup(s.image, nil)
	}
	quad := phase.Mesh{VertexBuffer: resource.NewBuffer("quad", nil), VertexCount: 6}

	shared := view.Target{View: resource.NewTextureView("window", nil)}
	for c := range s.cameras {
		target := shared
		if s.split {
			target = view.Target{View: resource.NewTextureView(fmt.Sprintf("window_%d", c), nil)}
		}
		settings := core2d.Camera2d{ClearColor: clearcolor.Default()}
		if c > 0 && !s.split {
			// Later cameras on a shared target draw over the first.
			settings.ClearColor = clearcolor.None()
		}
		var vp *view.Viewport
		if s.cameras > 1 {
			vp = &view.Viewport{
				PhysicalPosition: [2]uint32{uint32(c) * 800 / uint32(s.cameras), 0},
				PhysicalSize:     [2]uint32{800 / uint32(s.cameras), 600},
				Depth:            [2]float32{0, 1},
			}
		}
		cam := core2d.SpawnCamera(w, core2d.Camera{
			Camera:   view.ExtractedCamera{Viewport: vp, Order: c, TargetSize: [2]uint32{800, 600}},
			Target:   target,
			Settings: settings,
		})

		ph, _ := world.Get[core2d.Phase](w, cam)
		for i := range s.sprites {
			e := w.Spawn()
			world.Insert(w, e, quad)
			ph.Add(phase.Item{
				Entity:     e,
				SortKey:    phase.SortKey((i * 7) % s.sprites),
				Pipeline:   pipeline,
				BindGroups: []resource.BindGroup{material},
			})
		}
	}
}

func printFrame(out io.Writer, f graph.TargetFrame, passes []encoding.RecordedPass) {
	fmt.Fprintf(out, "target %d: %d view(s)\n", f.Target, len(f.Views))
	for _, p := range passes {
		ops := "-"
		if len(p.Descriptor.ColorAttachments) > 0 {
			ops = p.Descriptor.ColorAttachments[0].Ops.String()
		}
		fmt.Fprintf(out, "  pass %-24s %-28s pipelines=%d bind_groups=%d draws=%d\n",
			p.Label(), ops,
			p.Count(encoding.CmdSetPipeline),
			p.Count(encoding.CmdSetBindGroup),
			p.Count(encoding.CmdDraw)+p.Count(encoding.CmdDrawIndexed))
	}
}
