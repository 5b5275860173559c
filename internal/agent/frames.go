package agent

// FrameSource 是 SDK 流的最小抽象，openai-go 与 anthropic-sdk-go 的 ssestream.Stream 都满足。
type FrameSource[T any] interface {
	Next() bool
	Current() T
	Err() error
	Close() error
}

// ExpandFrames 将逐帧的 SDK 流适配为 Stream：每帧经 decode 展开为零或多个 Fragment。
// 展开是惰性的，只有在已展开的 Fragment 消费完之后才会向底层流请求下一帧。
func ExpandFrames[T any](src FrameSource[T], decode func(T) []Fragment) Stream {
	return &frameStream[T]{src: src, decode: decode}
}

type frameStream[T any] struct {
	src     FrameSource[T]
	decode  func(T) []Fragment
	pending []Fragment
	current Fragment
}

func (s *frameStream[T]) Next() bool {
	for len(s.pending) == 0 {
		if !s.src.Next() {
			s.current = nil
			return false
		}
		s.pending = s.decode(s.src.Current())
	}
	s.current = s.pending[0]
	s.pending = s.pending[1:]
	return true
}

func (s *frameStream[T]) Current() Fragment {
	return s.current
}

func (s *frameStream[T]) Err() error {
	return s.src.Err()
}

func (s *frameStream[T]) Close() error {
	return s.src.Close()
}
