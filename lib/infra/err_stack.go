package infra

import (
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// References:
// https://github.com/pkg/errors/blob/master/stack.go

const maxStackDepth = 16

type Frame uintptr

func (frame Frame) pc() uintptr {
	return uintptr(frame) - 1
}

func (frame Frame) fileLine() (string, int) {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFile", 0
	}
	return fn.FileLine(frame.pc())
}

func (frame Frame) name() string {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFunc"
	}
	return fn.Name()
}

// Format characters:
// %s - source file
// %d - source line
// %n - function name
// %v - equivalent to %s:%d
// %+s - function name and full path, separated by \n\t
// %+v - equivalent to %+s:%d
func (frame Frame) Format(s fmt.State, verb rune) {
	file, line := frame.fileLine()
	switch verb {
	case 's':
		if s.Flag('+') {
			_, _ = io.WriteString(s, frame.name())
			_, _ = io.WriteString(s, "\n\t")
			_, _ = io.WriteString(s, file)
			return
		}
		_, _ = io.WriteString(s, path.Base(file))
	case 'd':
		_, _ = io.WriteString(s, strconv.Itoa(line))
	case 'n':
		_, _ = io.WriteString(s, shortFuncName(frame.name()))
	case 'v':
		frame.Format(s, 's')
		_, _ = io.WriteString(s, ":")
		frame.Format(s, 'd')
	}
}

func (frame Frame) MarshalText() ([]byte, error) {
	name := frame.name()
	if name == "unknownFunc" {
		return []byte("unknownFrame"), nil
	}
	file, line := frame.fileLine()
	builder := strings.Builder{}
	_, _ = builder.WriteString(name)
	_, _ = builder.WriteString(" ")
	_, _ = builder.WriteString(file)
	_, _ = builder.WriteString(":")
	_, _ = builder.WriteString(strconv.Itoa(line))
	return []byte(builder.String()), nil
}

func shortFuncName(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}

func callers(skip int) []Frame {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, Frame(pcs[i]))
	}
	return frames
}

// ErrorStack is an error carrying the frames where it was created.
// It can be inlined into a zap log entry directly.
type ErrorStack interface {
	error
	zapcore.ObjectMarshaler
	Unwrap() error
	Frames() []Frame
}

type errorStack struct {
	msg    string
	cause  error
	frames []Frame
}

var _ ErrorStack = (*errorStack)(nil)

func (es *errorStack) Error() string {
	switch {
	case es.cause == nil:
		return es.msg
	case es.msg == "":
		return es.cause.Error()
	}
	return es.msg + ": " + es.cause.Error()
}

func (es *errorStack) Unwrap() error {
	return es.cause
}

func (es *errorStack) Frames() []Frame {
	return es.frames
}

func (es *errorStack) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("error", es.Error())
	return enc.AddArray("errorStack", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, frame := range es.frames {
			text, _ := frame.MarshalText()
			ae.AppendByteString(text)
		}
		return nil
	}))
}

// Format %+v prints the message followed by every frame.
func (es *errorStack) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = io.WriteString(s, es.Error())
			for _, frame := range es.frames {
				_, _ = io.WriteString(s, "\n")
				frame.Format(s, verb)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, es.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", es.Error())
	}
}

func NewErrorStack(msg string) error {
	return &errorStack{
		msg:    msg,
		frames: callers(3),
	}
}

// WrapErrorStack keeps the frames of err if it already is an ErrorStack.
func WrapErrorStack(err error) error {
	if err == nil {
		return nil
	}
	var es ErrorStack
	if errors.As(err, &es) {
		return err
	}
	return &errorStack{
		cause:  err,
		frames: callers(3),
	}
}

func WrapErrorStackWithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &errorStack{
		msg:    msg,
		cause:  err,
		frames: callers(3),
	}
}
