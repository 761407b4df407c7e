package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fachebot/scan-digest/internal/logger"
	"github.com/fachebot/scan-digest/internal/scheduler"
	"github.com/spf13/cobra"
)

func newWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Periodically process new files in the inbox directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcCtx, err := opts.serviceContext(cmd)
			if err != nil {
				return err
			}
			defer svcCtx.Close()

			c := svcCtx.Config
			if c.Watch.InputDir == "" {
				return fmt.Errorf("Watch.InputDir 不能为空")
			}

			// 指标服务
			var server *http.Server
			if c.Metrics.Listen != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", svcCtx.Metrics.Handler())
				server = &http.Server{Addr: c.Metrics.Listen, Handler: mux}
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Errorf("[Metrics] 指标服务异常退出, %v", err)
					}
				}()
				logger.Infof("[Metrics] 指标服务已启动, listen: %s", c.Metrics.Listen)
			}

			// 创建并启动调度器
			schedulerInstance := scheduler.NewScheduler(svcCtx.Processor, &c.Watch)
			if err := schedulerInstance.Start(); err != nil {
				return err
			}

			// 等待程序退出
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			// 优雅关闭
			logger.Infof("正在关闭服务...")
			schedulerInstance.Stop()
			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("[Metrics] 关闭指标服务失败, %v", err)
				}
			}
			logger.Infof("服务已停止")
			return nil
		},
	}
}
