package main

import (
	"errors"
	"io"
	"os"

	"gptui/internal/logger"
	"gptui/internal/render"

	"github.com/spf13/cobra"
)

func main() {
	logger.Configure()
	logFile, _, err := logger.SetupFile("")
	if err != nil {
		// 日志写到终端会与对话输出混在一起。
		logger.Discard()
	}
	os.Exit(execute(newRootCommand(), logFile))
}

// execute 运行命令并返回退出码。logFile 在返回前关闭，os.Exit 不会执行 defer。
func execute(cmd *cobra.Command, logFile io.Closer) int {
	if logFile != nil {
		defer logFile.Close()
	}
	if err := cmd.Execute(); err != nil {
		logger.Named("main").WithError(err).Error("exit with error")
		var usage usageError
		if !errors.As(err, &usage) {
			render.SystemPrintln(os.Stderr, err.Error())
		}
		return 1
	}
	return 0
}
