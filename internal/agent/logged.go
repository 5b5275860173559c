package agent

import "gptui/internal/logger"

// WithLogging 包装 Stream：逐片记录 LLM 日志，并在流结束时记录完成或错误。
// wrapErr 用于把 SDK 错误规整为带 http 状态码的错误，可为 nil。
func WithLogging(stream Stream, model string, wrapErr func(error) error) Stream {
	if wrapErr == nil {
		wrapErr = func(err error) error { return err }
	}
	return &loggedStream{Stream: stream, model: model, wrapErr: wrapErr}
}

type loggedStream struct {
	Stream
	model   string
	wrapErr func(error) error
	seq     int
	done    bool
}

func (s *loggedStream) Next() bool {
	if s.Stream.Next() {
		s.seq++
		if c, ok := s.Stream.Current().(Content); ok {
			logger.StreamChunk(s.model, c.Delta, s.seq)
		}
		return true
	}
	if !s.done {
		s.done = true
		if err := s.Err(); err != nil {
			logger.Error(s.model, err)
		} else {
			logger.StreamComplete(s.model, s.seq)
		}
	}
	return false
}

func (s *loggedStream) Err() error {
	if err := s.Stream.Err(); err != nil {
		return s.wrapErr(err)
	}
	return nil
}
