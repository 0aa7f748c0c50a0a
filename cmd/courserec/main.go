package main

import (
	"fmt"
	"os"

	"github.com/rushteam/courserec/core"
)

// 退出码
const (
	ExitSuccess       = 0
	ExitError         = 1 // 运行时错误（后端不可用等）
	ExitInvalidInput  = 2
	ExitConfiguration = 3
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case core.IsInvalidInput(err):
		return ExitInvalidInput
	case core.IsConfiguration(err):
		return ExitConfiguration
	default:
		return ExitError
	}
}
