//TODO check to se if MIS or NEE is messing up my metallic reflection

package main

import (
	"flag"
	"fmt"
	"github.com/byvfx/go-steertracer/rt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	// Profiling flags
	enableProfile := flag.Bool("profile", false, "Enable profiling (CPU, memory)")
	cpuProfile := flag.Bool("cpu-profile", true, "Enable CPU profiling (requires -profile)")
	memProfile := flag.Bool("mem-profile", true, "Enable memory profiling (requires -profile)")
	traceProfile := flag.Bool("trace", false, "Enable execution tracing (requires -profile)")
	blockProfile := flag.Bool("block-profile", false, "Enable block profiling (requires -profile)")
	profileDir := flag.String("profile-dir", "profiles", "Directory to save profile files")
	showMemStats := flag.Bool("mem-stats", false, "Show memory statistics after render")

	sceneName := flag.String("s", "cornell", "Scene to render (e.g. cornell, quads, random, white-furnace)")
	flag.StringVar(sceneName, "scene", *sceneName, "Alias of -s")
	envMap := flag.String("em", "", "Environment map: \"path[,rotate_u][,scale][,nearest]\" (overrides the scene's own environment)")
	algorithm := flag.String("a", "pt", "Direct-illumination algorithm: el, dbs, dlsa, dlss, dmis, pt")
	timeBudget := flag.Duration("t", 0, "Wall-clock render budget (e.g. 10s); 0 disables the time limit")
	iterBudget := flag.Int("i", 0, "Iteration (pass) budget; 0 disables the iteration limit")
	numJobs := flag.Int("j", runtime.NumCPU(), "Number of render worker goroutines")
	quiet := flag.Bool("q", false, "Quiet: suppress console progress and stats output")
	outputType := flag.String("e", "png", "Output image type: png, bmp or hdr")
	outputPath := flag.String("o", "", "Output image path; defaults to <outputDir>/<scene><trail>.<type>")
	outputDir := flag.String("od", ".", "Output directory used when -o is not given")
	outputTrail := flag.String("ot", "", "Trail appended to the default output file name")
	quality := flag.Int("spp", 0, "Samples per pixel; 0 keeps the scene's own default")
	maxDepth := flag.Int("d", 0, "Maximum bounce depth; 0 keeps the scene's own default")

	flag.Parse()

	rt.Quiet = *quiet

	// Configure profiler
	profileConfig := &rt.ProfileConfig{
		Enabled:      *enableProfile,
		CPUProfile:   *cpuProfile,
		MemProfile:   *memProfile,
		TraceEnabled: *traceProfile,
		BlockProfile: *blockProfile,
		OutputDir:    *profileDir,
		SampleRate:   100,
	}

	profiler := rt.NewProfiler(profileConfig)

	// Start profiling if enabled
	if *enableProfile {
		fmt.Println("🔬 Profiling enabled")
		if err := profiler.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start profiler: %v\n", err)
			os.Exit(1)
		}

		// Handle graceful shutdown for profiling
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			fmt.Println("\n Interrupt received, saving profiles...")
			profiler.Stop()
			profiler.PrintTimingReport()
			if *showMemStats {
				rt.PrintMemStats()
			}
			os.Exit(0)
		}()
	}

	// Reset render stats
	rt.ResetRenderStats()

	// Time BVH construction
	bvhTimer := rt.NewTimer("BVH Construction")
	world, camera, sceneErr := loadScene(*sceneName)
	if sceneErr != nil {
		fmt.Fprintf(os.Stderr, "Unknown scene '%s'. Use -help for options.\n", *sceneName)
		os.Exit(1)
	}

	camera.Algorithm = *algorithm

	if *envMap != "" {
		sampler, err := buildEnvSampler(*envMap)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load -em %q: %v\n", *envMap, err)
			os.Exit(1)
		}
		camera.EnvSampler = sampler
	}
	if camera.EnvSampler != nil {
		camera.Initialize()
	}

	if *quality > 0 {
		camera.SamplesPerPixel = *quality
	}
	if *maxDepth > 0 {
		camera.MaxDepth = *maxDepth
	}

	bvh := rt.NewBVHNodeFromList(world)
	bvhTime := bvhTimer.Stop()
	rt.GlobalRenderStats.BVHConstructTime = bvhTime

	rt.PrintRenderSettings(camera, len(world.Objects))

	bucketSize := 32
	numWorkers := *numJobs
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	renderer := rt.NewBucketRenderer(camera, bvh, bucketSize, numWorkers)
	renderer.OutputFormat = strings.ToLower(*outputType)
	renderer.OutputPath = resolveOutputPath(*outputPath, *outputDir, *sceneName, *outputTrail, renderer.OutputFormat)

	if *iterBudget > 0 {
		renderer.MaxPasses(*iterBudget)
	}
	if *timeBudget > 0 {
		go func(d time.Duration) {
			<-time.After(d)
			if !renderer.IsCompleted() {
				_ = renderer.SaveImage(renderer.OutputPath)
				os.Exit(0)
			}
		}(*timeBudget)
	}

	ebiten.SetWindowSize(camera.ImageWidth, camera.ImageHeight)
	ebiten.SetWindowTitle("Go Raytracer")

	if err := ebiten.RunGame(renderer); err != nil {
		panic(err)
	}

	// Stop profiling and print reports
	if *enableProfile {
		profiler.Stop()
		profiler.PrintTimingReport()
	}

	if *showMemStats {
		rt.PrintMemStats()
	}
}

// buildEnvSampler parses the -em flag
// ("path[,rotate_u][,scale][,nearest]") and builds a Sampler over the
// referenced environment image using the default triangulation
// parameters. The trailing "nearest" token switches the image to
// nearest-neighbour lookup instead of the default bilinear tent.
func buildEnvSampler(spec string) (*rt.Sampler, error) {
	parts := strings.Split(spec, ",")
	path := parts[0]
	rotateU, scale := 0.0, 1.0
	nearest := false
	if n := len(parts); n > 1 && parts[n-1] == "nearest" {
		nearest = true
		parts = parts[:n-1]
	}
	if len(parts) > 1 && parts[1] != "" {
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid rotate_u %q: %w", parts[1], err)
		}
		rotateU = v
	}
	if len(parts) > 2 && parts[2] != "" {
		v, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid scale %q: %w", parts[2], err)
		}
		scale = v
	}
	env, err := rt.LoadEnvImageWithParams(path, rotateU, scale)
	if err != nil {
		return nil, err
	}
	if nearest {
		env.SetBilinear(false)
	}

	// The triangulation build is the expensive part, so it is cached
	// next to the image. A stale or corrupt cache is rebuilt, never
	// trusted.
	params := rt.DefaultBuildParameters()
	cachePath := rt.CachePath(path, params, env.Bilinear())
	if vs, tree, err := rt.Load(cachePath, params); err == nil {
		return rt.NewSamplerFromParts(env, vs, tree), nil
	}
	sampler := rt.NewSampler(env, params)
	if err := rt.Save(cachePath, sampler.VS, sampler.Tree, params); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write sampler cache %s: %v\n", cachePath, err)
	}
	return sampler, nil
}

func resolveOutputPath(explicit, dir, scene, trail, format string) string {
	if explicit != "" {
		return explicit
	}
	ext := format
	if ext == "" {
		ext = "png"
	}
	return filepath.Join(dir, scene+trail+"."+ext)
}

func loadScene(name string) (*rt.HittableList, *rt.Camera, error) {
	switch strings.ToLower(name) {
	case "random", "randomscene":
		w, c := rt.RandomScene()
		return w, c, nil
	case "checkered", "checker", "checkered-spheres":
		w, c := rt.CheckeredSpheresScene()
		return w, c, nil
	case "simple", "simple-scene":
		w, c := rt.SimpleScene()
		return w, c, nil
	case "perlin", "perlin-spheres":
		w, c := rt.PerlinSpheresScene()
		return w, c, nil
	case "earth", "earth-scene":
		w, c := rt.EarthScene()
		return w, c, nil
	case "quads", "quads-scene":
		w, c := rt.QuadsScene()
		return w, c, nil
	case "cornell", "cornell-box":
		w, c := rt.CornellBoxScene()
		return w, c, nil
	case "cornell-smoke", "smoke":
		w, c := rt.CornellSmokeScene()
		return w, c, nil
	case "glass", "glass-sphere":
		w, c := rt.GlassScene()
		return w, c, nil
	case "white-furnace", "whitefurnace":
		w, c := rt.SceneWhiteFurnace()
		return w, c, nil
	case "single-pixel-env", "singlepixelenv":
		w, c := rt.SceneSinglePixelEnv()
		return w, c, nil
	case "const-white-env", "constwhiteenv":
		w, c := rt.SceneConstWhiteEnv()
		return w, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown scene: %s", name)
	}
}
