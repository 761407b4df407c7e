package main

import (
	"github.com/fachebot/scan-digest/internal/cli"
	"github.com/fachebot/scan-digest/internal/logger"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logger.Fatalf("运行失败, %v", err)
	}
}
