// sdfencode flattens SDF blend scenes into the shape and container buffers
// consumed by the raymarching shader.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gekko3d/sdfblend"
	"github.com/gekko3d/sdfblend/sdfrt/rt/app"
	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
	"github.com/gekko3d/sdfblend/sdfrt/rt/gpu"
	"github.com/gekko3d/sdfblend/sdfrt/rt/scenefile"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "encode":
		err = cmdEncode(args)
	case "dump":
		err = cmdDump(args)
	case "watch":
		err = cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sdfencode - SDF blend tree encoder

Usage:
  sdfencode <command> [options] <scene.yaml>

Commands:
  encode [-out dir] [-gpu] scene.yaml   Encode once and write shapes.bin / containers.bin
  dump scene.yaml                       Print the flat container and shape tables
  watch [-gpu] [-fps n] scene.yaml      Re-encode every tick, reloading the scene on change

Common options:
  -config file   Config file (default ./sdfblend.yaml or the user config dir)
  -order o       Traversal order: forward or reverse
  -debug         Enable debug logging`)
}

// env is the state every command needs.
type env struct {
	cfg  *sdfblend.Config
	log  *sdfblend.DefaultLogger
	orch *app.Orchestrator

	wgpu      *gpu.WgpuSink // nil unless -gpu
	closeSink func()
}

func (e *env) Close() {
	if e.closeSink != nil {
		e.closeSink()
	}
	_ = e.log.Sync()
}

func newEnv(flags sdfblend.Flags, useGPU bool) (*env, error) {
	cfg, err := sdfblend.Load(flags)
	if err != nil {
		return nil, err
	}
	log := cfg.NewLogger()

	e := &env{cfg: cfg, log: log}
	var sink gpu.Sink = gpu.NewMemorySink(0)
	if useGPU {
		ws, release, err := openDevice()
		if err != nil {
			return nil, err
		}
		log.Infof("uploading to WebGPU storage buffers")
		sink, e.wgpu, e.closeSink = ws, ws, release
	}

	e.orch = app.NewOrchestrator(gpu.NewBufferManager(sink, cfg.Limits()), cfg.EncodeOptions(), log)
	return e, nil
}

// logBound reports the storage buffers a renderer would bind for fb.
func (e *env) logBound(fb *gpu.FrameBuffers) {
	if e.wgpu == nil || fb == nil {
		return
	}
	shapes := e.wgpu.Buffer(fb.Slot, gpu.ShapeBuffer)
	containers := e.wgpu.Buffer(fb.Slot, gpu.ContainerBuffer)
	if shapes == nil || containers == nil {
		e.log.Warnf("frame %d: slot %d has no bound buffers", fb.Frame, fb.Slot)
		return
	}
	e.log.Debugf("frame %d bound slot %d: shapes %d bytes, containers %d bytes", fb.Frame, fb.Slot, shapes.GetSize(), containers.GetSize())
}

func sceneArg(fs *flag.FlagSet, usage string) (string, error) {
	if fs.NArg() < 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return fs.Arg(0), nil
}

func cmdEncode(args []string) error {
	var flags sdfblend.Flags
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	flags.Register(fs)
	outDir := fs.String("out", ".", "Output directory")
	useGPU := fs.Bool("gpu", false, "Also upload to a headless WebGPU device")
	fs.Parse(args)

	path, err := sceneArg(fs, "sdfencode encode [-out dir] [-gpu] scene.yaml")
	if err != nil {
		return err
	}

	e, err := newEnv(flags, *useGPU)
	if err != nil {
		return err
	}
	defer e.Close()

	root, err := scenefile.Load(path)
	if err != nil {
		return err
	}
	fb, err := e.orch.EncodeFrame(root)
	if err != nil {
		return err
	}
	e.logBound(fb)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(*outDir, "shapes.bin"), fb.ShapeBytes, 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(*outDir, "containers.bin"), fb.ContainerBytes, 0644); err != nil {
		return err
	}

	e.log.Infof("encoded %s: %d containers, %d shapes -> %s", path, fb.ContainerCount(), fb.ShapeCount(), *outDir)
	e.log.Debugf("%s", e.orch.Profiler.GetStatsString())
	return nil
}

func cmdDump(args []string) error {
	var flags sdfblend.Flags
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	flags.Register(fs)
	fs.Parse(args)

	path, err := sceneArg(fs, "sdfencode dump scene.yaml")
	if err != nil {
		return err
	}

	e, err := newEnv(flags, false)
	if err != nil {
		return err
	}
	defer e.Close()

	root, err := scenefile.Load(path)
	if err != nil {
		return err
	}
	fb, err := e.orch.EncodeFrame(root)
	if err != nil {
		return err
	}
	printFrame(os.Stdout, fb)
	return nil
}

func cmdWatch(args []string) error {
	var flags sdfblend.Flags
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	flags.Register(fs)
	useGPU := fs.Bool("gpu", false, "Upload to a headless WebGPU device")
	fps := fs.Int("fps", 30, "Frames encoded per second")
	fs.Parse(args)

	path, err := sceneArg(fs, "sdfencode watch [-gpu] [-fps n] scene.yaml")
	if err != nil {
		return err
	}
	if *fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", *fps)
	}

	e, err := newEnv(flags, *useGPU)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scene := &app.SceneSnapshot{}
	go func() {
		err := scenefile.Watch(ctx, path, func(root *core.Container, err error) {
			if err != nil {
				e.log.Warnf("reload %s: %v", path, err)
				return
			}
			scene.Publish(root)
			containers, shapes := root.CountNodes()
			e.log.Infof("loaded %s (version %d, %d containers, %d shapes)", path, scene.Version(), containers, shapes)
		})
		if err != nil && ctx.Err() == nil {
			e.log.Errorf("watching %s: %v", path, err)
			stop()
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()

	var frames uint64
	err = e.orch.Run(ctx, scene, ticker.C, func(fb *gpu.FrameBuffers, err error) {
		if err != nil {
			return
		}
		e.logBound(fb)
		frames++
		if frames%uint64(*fps) == 0 {
			e.log.Debugf("frame %d\n%s", fb.Frame, e.orch.Profiler.GetStatsString())
		}
	})
	if ctx.Err() != nil {
		e.log.Infof("stopped after %d frames", frames)
		return nil
	}
	return err
}
