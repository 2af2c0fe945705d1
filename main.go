package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ByLCY/folio/compose"
	"github.com/ByLCY/folio/config"
	"github.com/ByLCY/folio/document"
	"github.com/ByLCY/folio/output"
	"github.com/ByLCY/folio/pipeline"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if err := newApp(log, os.Stdout).Run(os.Args); err != nil {
		log.Fatalf("folio: %v", err)
	}
}

func newApp(log *logrus.Logger, stdout io.Writer) *cli.App {
	configFlag := &cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML 配置文件"}
	inFlag := &cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "报价单 JSON 文件", Required: true}

	return &cli.App{
		Name:      "folio",
		Usage:     "将报价单排版为可打印的 PDF",
		Writer:    stdout,
		ErrWriter: stdout,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "输出调试日志"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				log.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "render",
				Usage: "生成 PDF",
				Flags: []cli.Flag{
					inFlag,
					configFlag,
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "output/quote.pdf", Usage: "PDF 输出路径"},
					&cli.StringFlag{Name: "backend", Usage: "渲染后端: fpdf | canvas"},
					&cli.StringFlag{Name: "debug", Usage: "布局调试 JSON 输出路径"},
					&cli.StringFlag{Name: "logo", Usage: "公司 logo 图片"},
					&cli.StringFlag{Name: "cover-image", Usage: "封面图片"},
					&cli.StringFlag{Name: "signature", Usage: "签名图片"},
				},
				Action: func(c *cli.Context) error { return render(c, log) },
			},
			{
				Name:   "validate",
				Usage:  "只校验报价单，不生成文件",
				Flags:  []cli.Flag{inFlag, configFlag},
				Action: func(c *cli.Context) error { return validate(c) },
			},
			{
				Name:   "covers",
				Usage:  "列出可用的封面样式",
				Flags:  []cli.Flag{configFlag},
				Action: func(c *cli.Context) error { return listCovers(c) },
			},
		},
	}
}

func render(c *cli.Context, log *logrus.Logger) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	q, err := readQuotation(c.String("in"))
	if err != nil {
		return err
	}
	// 命令行给出的图片覆盖 JSON 中的内容
	for _, img := range []struct {
		flag string
		dst  *[]byte
	}{
		{"logo", &q.Company.Logo},
		{"cover-image", &q.Cover.Image},
		{"signature", &q.Signature.Image},
	} {
		path := c.String(img.flag)
		if path == "" {
			continue
		}
		if *img.dst, err = readFile(path); err != nil {
			return err
		}
	}

	dest := output.Destination{Path: c.String("out")}
	out, err := pipeline.GenerateTo(q, dest, pipeline.Options{
		Config:    &cfg,
		Logger:    log,
		Backend:   c.String("backend"),
		DebugPath: c.String("debug"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "已生成 PDF：%s（%d 页，%d 条警告）\n", dest, out.Pages, len(out.Warnings))
	return nil
}

func validate(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	templates, err := compose.LoadTemplates(cfg.Covers.File)
	if err != nil {
		return err
	}
	q, err := readQuotation(c.String("in"))
	if err != nil {
		return err
	}
	if err := document.Validate(document.Prepare(q, cfg, nil), templates.Has); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: ok\n", c.String("in"))
	return nil
}

func listCovers(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	templates, err := compose.LoadTemplates(cfg.Covers.File)
	if err != nil {
		return err
	}
	for _, t := range templates.List() {
		fmt.Fprintf(c.App.Writer, "%-18s %s\n", t.ID, t.Name)
	}
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func readQuotation(path string) (document.Quotation, error) {
	var q document.Quotation
	data, err := readFile(path)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return q, fmt.Errorf("解析报价单 JSON %s 失败: %w", path, err)
	}
	return q, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("无法打开 %s: %w", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	return data, nil
}
