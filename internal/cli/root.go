// Package cli 命令行入口
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fachebot/scan-digest/internal/config"
	"github.com/fachebot/scan-digest/internal/logger"
	"github.com/fachebot/scan-digest/internal/svc"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "etc/config.yaml"

// options 全局参数
type options struct {
	configFile string
	mode       string
	fraction   float64
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "scan-digest",
		Short:         "Extract text from scanned images and produce extractive summaries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "f", defaultConfigFile, "the config file")
	flags.StringVar(&opts.mode, "mode", "", "summary mode: general or email (overrides config)")
	flags.Float64Var(&opts.fraction, "fraction", 0, "fraction of sentences to keep (overrides config)")

	root.AddCommand(
		newImageCommand(opts),
		newTextCommand(opts),
		newMboxCommand(opts),
		newWatchCommand(opts),
		newRunsCommand(opts),
	)
	return root
}

// loadConfig 读取配置文件并应用命令行覆盖；默认配置文件不存在时使用默认配置
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.LoadFromFile(o.configFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || cmd.Flags().Changed("config") {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		c = config.Default()
	}

	if cmd.Flags().Changed("mode") {
		c.Summary.Mode = o.mode
	}
	if cmd.Flags().Changed("fraction") {
		c.Summary.SentenceFraction = o.fraction
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// serviceContext 加载配置、初始化日志并创建服务上下文
func (o *options) serviceContext(cmd *cobra.Command) (*svc.ServiceContext, error) {
	c, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(c.Log); err != nil {
		return nil, err
	}
	return svc.NewServiceContext(c)
}
