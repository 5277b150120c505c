package pipeline

import "fmt"

// FatalPipelineError 表示编排逻辑自身的 bug（阶段 panic、
// 装配错误等）。这是唯一允许从 Run 逃逸到调用方的失败类别，
// 调用方据此回退到更简单的时间线 Feed。
type FatalPipelineError struct {
	Op    string // 出错的环节（装配 / 阶段名）
	Cause any    // panic 值或底层错误
}

func (e *FatalPipelineError) Error() string {
	return fmt.Sprintf("pipeline fatal at %s: %v", e.Op, e.Cause)
}

func (e *FatalPipelineError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
