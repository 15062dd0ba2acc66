package console

import (
	"fmt"
	"io"
	"os"

	"xprobe/internal/application/port"
)

type Sink struct {
	out io.Writer
}

func NewSink() port.Sink { return &Sink{out: os.Stdout} }

// NewWriterSink 输出到任意 writer（测试用）
func NewWriterSink(w io.Writer) port.Sink { return &Sink{out: w} }

func (s *Sink) WriteSummary(text string) error {
	_, err := fmt.Fprint(s.out, text)
	return err
}

func (s *Sink) NewLine() error {
	_, err := fmt.Fprint(s.out, "\n")
	return err
}
