package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/memecanvas/dsl"
	"github.com/ByLCY/memecanvas/export"
	"github.com/ByLCY/memecanvas/layout"
	"github.com/ByLCY/memecanvas/renderer"
	canvasrenderer "github.com/ByLCY/memecanvas/renderer/canvas"
)

func main() {
	input := flag.String("in", "examples/demo.meme", "脚本文件路径")
	output := flag.String("out", "output/"+export.DownloadName, "PNG 输出路径")
	debug := flag.String("debug", "", "排版调试 JSON 输出路径")
	dataJSON := flag.String("data", "", "绑定到脚本的 JSON 数据")
	dataURL := flag.Bool("dataurl", false, "同时把结果以 data URL 打印到标准输出")
	watch := flag.Bool("watch", false, "脚本变化时重新渲染")
	logLevel := flag.String("loglevel", "info", "日志级别 (debug, info, warn, error)")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			logrus.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	cfg := runConfig{
		inputPath:  *input,
		outputPath: *output,
		debugPath:  *debug,
		data:       inputData,
		printURL:   *dataURL,
	}
	var r renderer.Renderer = canvasrenderer.NewRenderer()
	if err := render(cfg, r); err != nil {
		logrus.WithError(err).Error("生成图片失败")
		if !*watch {
			os.Exit(1)
		}
	}
	if *watch {
		if err := watchAndRender(cfg, r); err != nil {
			logrus.Fatal(err)
		}
	}
}

type runConfig struct {
	inputPath  string
	outputPath string
	debugPath  string
	data       any
	printURL   bool
}

func render(cfg runConfig, r renderer.Renderer) error {
	url, err := run(cfg.inputPath, cfg.outputPath, cfg.debugPath, cfg.data, r)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"in": cfg.inputPath, "out": cfg.outputPath}).Info("已生成图片")
	if cfg.printURL {
		fmt.Println(url)
	}
	return nil
}

// run 串联解析、场景构建与渲染，返回结果的 data URL。
func run(inputPath, outputPath, debugPath string, data any, r renderer.Renderer) (string, error) {
	if r == nil {
		return "", fmt.Errorf("renderer 不能为空")
	}
	file, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("无法打开脚本文件 %s: %w", inputPath, err)
	}
	defer file.Close()

	script, err := dsl.Parse(file)
	if err != nil {
		return "", fmt.Errorf("解析脚本失败: %w", err)
	}

	scene, err := layout.Build(script, data, layout.BuildOptions{
		LoadImage: fileLoader(filepath.Dir(inputPath)),
	})
	if err != nil {
		return "", fmt.Errorf("构建场景失败: %w", err)
	}

	if debugPath != "" {
		if err := writeDebug(scene, layout.Compose(scene, r), debugPath); err != nil {
			return "", err
		}
	}

	surface, err := r.Render(scene)
	if err != nil {
		return "", fmt.Errorf("渲染失败: %w", err)
	}
	if _, err := export.WriteFile(outputPath, surface); err != nil {
		return "", fmt.Errorf("写入 PNG 文件失败: %w", err)
	}
	return export.DataURL(surface)
}

// fileLoader 解析脚本里的图片来源：data URL 或相对脚本目录的路径。
func fileLoader(baseDir string) layout.ImageLoader {
	return func(src string) (image.Image, error) {
		if strings.HasPrefix(src, "data:") {
			return export.DecodeDataURL(src)
		}
		path := src
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		img, err := export.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return img.Source, nil
	}
}

func writeDebug(scene *layout.Scene, captions []layout.Caption, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(scene, captions, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// watchAndRender 监听脚本所在目录，脚本被写入或替换时重新渲染。
func watchAndRender(cfg runConfig, r renderer.Renderer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听失败: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(cfg.inputPath)
	if err != nil {
		return err
	}
	// 编辑器常以重命名方式保存，所以监听目录而不是文件本身。
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("监听 %s 失败: %w", filepath.Dir(target), err)
	}
	logrus.WithField("file", target).Info("Watching for changes")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !shouldRerender(event, target) {
				continue
			}
			logrus.WithField("op", event.Op.String()).Debug("Script changed")
			if err := render(cfg, r); err != nil {
				logrus.WithError(err).Error("生成图片失败")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logrus.WithError(err).Warn("Watcher error")
		}
	}
}

func shouldRerender(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
