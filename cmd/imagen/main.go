package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/samber/do"

	"github.com/comrender/ComfyUI-Imagen-Gemini/internal/config"
	"github.com/comrender/ComfyUI-Imagen-Gemini/internal/inject"
	"github.com/comrender/ComfyUI-Imagen-Gemini/internal/logging"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/adapters"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/domain"
	"github.com/comrender/ComfyUI-Imagen-Gemini/pkg/imgutil"
)

func main() {
	_ = godotenv.Load()

	var (
		req      domain.GenerationRequest
		outDir   string
		format   string
		quality  int
		guideOut string
		describe bool
	)
	flag.StringVar(&req.Prompt, "prompt", domain.DefaultPrompt, "text prompt")
	flag.StringVar(&req.Model, "model", domain.DefaultModel, "Imagen model identifier")
	flag.StringVar(&req.APIKey, "api-key", "", "Gemini API key (falls back to GEMINI_API_KEY)")
	flag.StringVar(&req.AspectRatio, "aspect-ratio", domain.DefaultAspectRatio, "1:1, 3:4, 4:3, 9:16 or 16:9")
	flag.StringVar(&req.Resolution, "resolution", domain.DefaultResolution, "1K or 2K")
	flag.IntVar(&req.NumImages, "n", domain.DefaultNumImages, "number of images (1-4)")
	flag.StringVar(&req.PersonGeneration, "person-generation", domain.DefaultPersonGeneration, "allow_adult, dont_allow or allow_all")
	flag.StringVar(&outDir, "out", ".", "directory for generated images")
	flag.StringVar(&format, "format", "png", "output format: png or jpeg")
	flag.IntVar(&quality, "quality", 90, "jpeg quality")
	flag.StringVar(&guideOut, "guidance", "", "write the prompting guidance to this file (- for stdout)")
	flag.BoolVar(&describe, "describe", false, "print the node descriptor as JSON and exit")
	flag.Parse()

	if describe {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(adapters.Descriptor()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(logging.NewContext(context.Background(), logger), os.Interrupt, syscall.SIGTERM)
	defer stop()

	injector := inject.Setup(ctx, cfg)
	defer func() { _ = injector.Shutdown() }()

	node := do.MustInvoke[adapters.ImageNode](injector)
	// 失敗の内容は node がログに残している
	batch, guidance, err := node.Process(ctx, req)
	if err != nil {
		os.Exit(1)
	}

	paths, err := writeFrames(batch, outDir, format, quality)
	if err != nil {
		logger.Error("画像の書き出しに失敗しました", "error", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println(p)
	}

	if err := writeGuidance(guideOut, guidance); err != nil {
		logger.Error("ガイドの書き出しに失敗しました", "error", err)
		os.Exit(1)
	}
}

func writeFrames(batch *imgutil.Batch, dir, format string, quality int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}

	paths := make([]string, 0, batch.Len())
	for n := 0; n < batch.Len(); n++ {
		data, err := imgutil.Encode(batch.Frame(n), format, quality)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("imagen_%02d.%s", n, ext))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeGuidance(path, text string) error {
	switch path {
	case "":
		return nil
	case "-":
		_, err := fmt.Fprintln(os.Stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
