// Command drawdemo renders a YAML scene through the geometry pipeline.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/draw"
	"github.com/gogpu/draw/backend"
	_ "github.com/gogpu/draw/backend/native"
	"github.com/gogpu/draw/shader"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func main() {
	var (
		scenePath = flag.String("scene", "", "scene file (YAML)")
		output    = flag.String("output", "scene.png", "output file")
		name      = flag.String("backend", "", "renderer backend (default: best available)")
		wgsl      = flag.String("wgsl", "", "optional WGSL vertex shader for GPU backends")
		entry     = flag.String("entry", "", "vertex entry point in the WGSL shader")
		lang      = flag.String("lang", "en", "language for the statistics report")
		verbose   = flag.Bool("v", false, "log pipeline activity")
	)
	flag.Parse()

	if *verbose {
		draw.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *scenePath == "" {
		log.Fatal("missing -scene")
	}

	s, err := LoadScene(*scenePath)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}

	var module *shader.Module
	if *wgsl != "" {
		src, err := os.ReadFile(*wgsl)
		if err != nil {
			log.Fatalf("Failed to read shader: %v", err)
		}
		if module, err = shader.Compile(string(src), *entry); err != nil {
			log.Fatalf("Failed to compile shader: %v", err)
		}
	}

	rb, err := selectBackend(*name)
	if err != nil {
		log.Fatalf("Failed to select backend: %v", err)
	}
	defer rb.Close()

	res, err := render(s, rb, module)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}

	if res.Image != nil {
		if err := savePNG(*output, res); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Scene saved to %s (%dx%d)\n", *output, s.Width, s.Height)
	}
	report(message.NewPrinter(language.Make(*lang)), res)
}

// selectBackend returns the named backend, or the best one that
// initializes when name is empty.
func selectBackend(name string) (backend.RenderBackend, error) {
	if name == "" {
		return backend.InitDefault()
	}
	rb := backend.Get(name)
	if rb == nil {
		return nil, fmt.Errorf("%w: %q (available: %v)", backend.ErrBackendNotAvailable, name, backend.Available())
	}
	if err := rb.Init(); err != nil {
		return nil, err
	}
	return rb, nil
}

func savePNG(path string, res *result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, res.Image); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func report(p *message.Printer, res *result) {
	p.Printf("backend:   %s\n", res.Backend)
	p.Printf("draws:     %d\n", res.Draws)
	p.Printf("vertices:  %d shaded in %d batches\n", res.Vertices, res.Batches)
	p.Printf("emitted:   %d vertices in %d buffers, %d indices in %d draws\n",
		res.Traffic.Vertices, res.Traffic.Allocations, res.Traffic.Indices, res.Traffic.Draws)
	if res.Image != nil {
		p.Printf("drawn:     %d triangles, %d lines, %d points\n",
			res.Stats.Triangles, res.Stats.Lines, res.Stats.Points)
	}
}
