package safe

import (
	"LiveDesk/logger"
)

// Go 带 recover 的 goroutine：写协程这种挂在连接上的任务 panic 不能带崩整个网关
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[SafeGo] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
