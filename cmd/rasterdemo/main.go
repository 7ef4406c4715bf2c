package main

import (
	"fmt"
	"os"

	"github.com/wgdzlh/rasterkit"
	"github.com/wgdzlh/rasterkit/log"
	"github.com/wgdzlh/rasterkit/utils"

	"go.uber.org/zap"
)

// usage: rasterdemo [input.tif [output-dir]]
func main() {
	cfg := rasterkit.DefaultConfig()
	args := os.Args[1:]
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if len(args) > 1 {
		dir := args[1]
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			fail(err)
		}
		cfg.Output = utils.DerivedPath(dir, cfg.Input, rasterkit.OUT_SUFFIX, rasterkit.FILE_EXT_TIF)
		cfg.GeoJSONOut = utils.DerivedPath(dir, cfg.Input, rasterkit.OUT_SUFFIX, rasterkit.FILE_EXT_JSON)
		cfg.SqliteOut = utils.DerivedPath(dir, cfg.Input, rasterkit.OUT_SUFFIX, rasterkit.FILE_EXT_SQLITE)
		cfg.ShapefileOut = utils.DerivedPath(dir, cfg.Input, rasterkit.OUT_SUFFIX, rasterkit.FILE_EXT_SHP)
	}
	g := rasterkit.NewGdalToolbox()
	defer g.Close()
	rep, err := g.RunWorkflow(cfg)
	if err != nil {
		g.Close()
		fail(err)
	}
	fmt.Println(rep)
	log.Sync()
}

func fail(err error) {
	log.Error("rasterdemo: run failed", zap.Error(err))
	log.Sync()
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
