package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/Balrog57/xml2png/api"
	"github.com/Balrog57/xml2png/batch"
	"github.com/Balrog57/xml2png/catalog"
	"github.com/Balrog57/xml2png/config"
	"github.com/Balrog57/xml2png/fonts"
	"github.com/Balrog57/xml2png/layer"
	"github.com/Balrog57/xml2png/renderer"
	canvasrenderer "github.com/Balrog57/xml2png/renderer/canvas"
	rasterrenderer "github.com/Balrog57/xml2png/renderer/raster"
	"github.com/Balrog57/xml2png/template"
)

func main() {
	def := config.Default()
	configPath := flag.String("config", "", "YAML 配置文件路径")
	catalogPath := flag.String("catalog", def.Catalog, "gameList / menu XML 目录文件")
	templatePath := flag.String("template", def.Template, "图层模板文件")
	output := flag.String("out", def.Output, "PNG 输出目录")
	background := flag.String("background", def.Background, "替代模板背景的图片")
	backgrounds := flag.String("backgrounds", def.Backgrounds, "背景素材目录，未指定模板时使用其中第一张图片")
	name := flag.String("name", def.Name, "输出文件名模板，如 ${key}、${year}-${name|slug}")
	workers := flag.Int("workers", def.Workers, "并发数")
	width := flag.Int("width", def.Width, "强制输出宽度（需与 -height 同时使用）")
	height := flag.Int("height", def.Height, "强制输出高度")
	sheet := flag.String("sheet", def.Sheet, "PDF 缩略图校样输出路径")
	debug := flag.String("debug", def.Debug, "排版调试 JSON 输出目录")
	fontDirs := flag.String("fonts", "", "额外字体目录，逗号分隔")
	bundledOnly := flag.Bool("bundled-fonts", false, "只使用内置 Go 字体")
	serve := flag.String("serve", "", "启动预览服务的监听地址，如 :8080（也可在配置中设置 server.enabled）")
	initPath := flag.String("init", "", "写出默认模板到该路径后退出")
	flag.Parse()

	cfg := def
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
		cfg = loaded
	}
	// 显式给出的参数覆盖配置文件
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "catalog":
			cfg.Catalog = *catalogPath
		case "template":
			cfg.Template = *templatePath
		case "out":
			cfg.Output = *output
		case "background":
			cfg.Background = *background
		case "backgrounds":
			cfg.Backgrounds = *backgrounds
		case "name":
			cfg.Name = *name
		case "workers":
			cfg.Workers = *workers
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "sheet":
			cfg.Sheet = *sheet
		case "debug":
			cfg.Debug = *debug
		case "fonts":
			cfg.Fonts.Dirs = splitList(*fontDirs)
		case "bundled-fonts":
			cfg.Fonts.BundledOnly = *bundledOnly
		case "serve":
			cfg.Server.Enabled = true
			if *serve != "" {
				cfg.Server.Addr = *serve
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("参数错误: %v", err)
	}

	if *initPath != "" {
		tpl, err := template.DefaultFor(cfg.Backgrounds)
		if err != nil {
			log.Fatalf("读取背景目录失败: %v", err)
		}
		if err := template.Save(*initPath, tpl); err != nil {
			log.Fatalf("写出模板失败: %v", err)
		}
		fmt.Printf("已生成模板：%s\n", *initPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := rasterrenderer.New(newResolver(cfg.Fonts))
	if cfg.Server.Enabled {
		if err := runServer(cfg, r); err != nil {
			log.Fatalf("预览服务退出: %v", err)
		}
		return
	}
	if err := run(ctx, cfg, r); err != nil {
		log.Fatalf("生成失败: %v", err)
	}
}

func newResolver(cfg config.Fonts) *fonts.Resolver {
	if cfg.BundledOnly {
		return fonts.NewResolver(fonts.Options{Locator: fonts.BundledLocator{MatchAll: true}, Dirs: []string{}})
	}
	opts := fonts.Options{Dirs: cfg.Dirs}
	if len(cfg.Dirs) > 0 {
		opts.Locator = fonts.Chain{fonts.NewDirLocator(cfg.Dirs...), fonts.PlatformLocator()}
	}
	return fonts.NewResolver(opts)
}

// loadTemplate 读取模板；未指定时使用默认会话，背景取背景目录中的第一张图片。
// -width/-height 覆盖模板中的画布尺寸。
func loadTemplate(cfg config.Config) (*template.Template, error) {
	var tpl *template.Template
	var err error
	if cfg.Template != "" {
		tpl, err = template.Load(cfg.Template)
	} else {
		tpl, err = template.DefaultFor(cfg.Backgrounds)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		tpl.Width, tpl.Height = cfg.Width, cfg.Height
	}
	return tpl, nil
}

// run 串联目录解析、批量合成与校样输出。
func run(ctx context.Context, cfg config.Config, r renderer.Renderer) error {
	if cfg.Catalog == "" {
		return fmt.Errorf("缺少 -catalog 参数")
	}
	entries, format, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	log.Printf("已读取 %s 目录 %s：%d 个条目", format, cfg.Catalog, len(entries))

	tpl, err := loadTemplate(cfg)
	if err != nil {
		return err
	}

	job := batch.Job{
		Entries:   entries,
		Layers:    tpl.Layers,
		Options:   renderer.Options{Background: cfg.Background, Size: tpl.Size()},
		OutputDir: cfg.Output,
		Pattern:   cfg.Name,
		Workers:   cfg.Workers,
		DebugDir:  cfg.Debug,
		Progress: func(done, total int) {
			if done%50 == 0 || done == total {
				log.Printf("进度 %d/%d", done, total)
			}
		},
	}
	if cfg.Sheet != "" {
		job.Thumbnail = 256
	}

	report, runErr := batch.Run(ctx, r, job)
	if report != nil {
		log.Printf("完成：写出 %d 个，失败 %d 个", report.Written, report.Failed)
		if cfg.Sheet != "" {
			if err := writeSheet(cfg.Sheet, report); err != nil {
				return err
			}
			fmt.Printf("已生成校样：%s\n", cfg.Sheet)
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("已取消: %w", runErr)
	}
	return runErr
}

func writeSheet(path string, report *batch.Report) error {
	items := make([]canvasrenderer.Item, 0, len(report.Items))
	for _, it := range report.Items {
		if it.Path == "" {
			continue
		}
		item := canvasrenderer.Item{Title: filepath.Base(it.Path), Caption: describeSkips(it.Skips)}
		if it.Err != nil {
			item.Caption = it.Err.Error()
		}
		if it.Thumb != nil {
			item.Image = it.Thumb
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	sheet := canvasrenderer.NewSheet(canvasrenderer.Options{Title: "xml2png"})
	return sheet.WriteFile(path, items)
}

func describeSkips(skips []renderer.Skip) string {
	parts := make([]string, 0, len(skips))
	for _, s := range skips {
		// 空文本是正常情况，不在校样中提示
		if s.Reason == renderer.SkipEmptyText {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d:%s", s.Layer, s.Reason))
	}
	return strings.Join(parts, " ")
}

func runServer(cfg config.Config, r renderer.Renderer) error {
	tpl, err := loadTemplate(cfg)
	if err != nil {
		return err
	}
	if cfg.Background != "" {
		tpl.Layers[0] = layer.NewBackground(cfg.Background)
	}
	var entries []layer.Entry
	if cfg.Catalog != "" {
		if entries, _, err = catalog.Load(cfg.Catalog); err != nil {
			return err
		}
	}

	engine := api.New(r, tpl, entries).WithBackgrounds(cfg.Backgrounds).Engine()
	log.Println("预览服务已启动: http://localhost" + displayAddr(cfg.Server.Addr))
	if err := engine.Run(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return addr
	}
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return addr
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
