package server

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/runewire/pkg/protocol"
)

func TestDispatcherRegister(t *testing.T) {
	d := NewDispatcher()
	noop := func(context.Context, *Session, *protocol.Frame) error { return nil }

	d.Register(0, noop)
	d.RegisterAll(noop, 248, 164, 98)

	got := d.Opcodes()
	want := []uint8{0, 98, 164, 248}
	if len(got) != len(want) {
		t.Fatalf("Opcodes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Opcodes() = %v, want %v", got, want)
		}
	}
	if d.Handler(1) != nil {
		t.Error("Handler(1) should be nil")
	}
}

func TestDispatcherRoutesFrame(t *testing.T) {
	d := NewDispatcher()
	var got *protocol.Frame
	d.Register(4, func(ctx context.Context, s *Session, f *protocol.Frame) error {
		got = f
		return nil
	})
	s, _, _ := newPipeSession(t, d, nil)

	f := protocol.NewFrame(4, []byte("hello\n"))
	if err := d.Dispatch(context.Background(), s, f); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got != f {
		t.Fatal("handler did not receive the frame")
	}
}

func TestDispatcherUnhandledFrame(t *testing.T) {
	d := NewDispatcher()
	s, _, logs := newPipeSession(t, d, nil)

	err := d.Dispatch(context.Background(), s, protocol.NewFrame(77, []byte{1, 2}))
	var pe *ProtocolError
	if !errors.As(err, &pe) || !errors.Is(err, ErrUnhandledFrame) {
		t.Fatalf("Dispatch() error = %v, want ProtocolError(ErrUnhandledFrame)", err)
	}
	if pe.Opcode != 77 || pe.SessionID != s.ID {
		t.Errorf("ProtocolError = %+v", pe)
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("expected a warning, logs:\n%s", logs)
	}
}

func TestDispatcherContainsFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		handler Handler
		check   func(t *testing.T, err error)
		logged  string
	}{
		{
			name: "error",
			handler: func(context.Context, *Session, *protocol.Frame) error {
				return boom
			},
			check: func(t *testing.T, err error) {
				var he *HandlerError
				if !errors.As(err, &he) || !errors.Is(err, boom) {
					t.Fatalf("err = %v, want HandlerError wrapping boom", err)
				}
				if he.Panic != nil {
					t.Error("Panic should be nil")
				}
			},
			logged: "handler failed",
		},
		{
			name: "panic",
			handler: func(context.Context, *Session, *protocol.Frame) error {
				panic("kaboom")
			},
			check: func(t *testing.T, err error) {
				var he *HandlerError
				if !errors.As(err, &he) {
					t.Fatalf("err = %v, want HandlerError", err)
				}
				if he.Panic != "kaboom" {
					t.Errorf("Panic = %v", he.Panic)
				}
				if len(he.Stack) == 0 {
					t.Error("expected a stack trace")
				}
			},
			logged: "handler panic",
		},
		{
			name: "protocol error",
			handler: func(ctx context.Context, s *Session, f *protocol.Frame) error {
				return NewProtocolError(f.Opcode, ErrUnrecognizedInterface, "interface 9999")
			},
			check: func(t *testing.T, err error) {
				var pe *ProtocolError
				if !errors.As(err, &pe) || !errors.Is(err, ErrUnrecognizedInterface) {
					t.Fatalf("err = %v, want ProtocolError(ErrUnrecognizedInterface)", err)
				}
				if pe.Message != "interface 9999" {
					t.Errorf("Message = %q", pe.Message)
				}
			},
			logged: "protocol error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher()
			d.Register(3, tt.handler)
			s, _, logs := newPipeSession(t, d, nil)

			f := protocol.NewFrame(3, []byte{0xCA})
			err := d.Dispatch(context.Background(), s, f)
			tt.check(t, err)

			out := logs.String()
			if !strings.Contains(out, tt.logged) {
				t.Errorf("logs missing %q:\n%s", tt.logged, out)
			}
			if !strings.Contains(out, "payload=ca") {
				t.Errorf("logs missing offending frame:\n%s", out)
			}
		})
	}
}

func TestDispatcherRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	d := NewDispatcher()
	d.Register(0, func(context.Context, *Session, *protocol.Frame) error { return nil })
	d.Register(3, func(context.Context, *Session, *protocol.Frame) error { panic("x") })
	s, _, _ := newPipeSession(t, d, nil)
	s.metrics = m

	ctx := context.Background()
	d.Dispatch(ctx, s, protocol.NewFrame(0, nil))
	d.Dispatch(ctx, s, protocol.NewFrame(0, nil))
	d.Dispatch(ctx, s, protocol.NewFrame(3, []byte{1}))
	d.Dispatch(ctx, s, protocol.NewFrame(200, nil))

	if got := metricCounterValue(t, m.framesDecoded.WithLabelValues("0")); got != 2 {
		t.Errorf("frames_decoded_total{opcode=0} = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.handlerFailures.WithLabelValues("3", "panic")); got != 1 {
		t.Errorf("handler_failures_total{3,panic} = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.protocolErrors.WithLabelValues("unhandled_frame")); got != 1 {
		t.Errorf("protocol_errors_total{unhandled_frame} = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.dispatchDuration); got != 4 {
		t.Errorf("dispatch_duration_seconds count = %d, want 4", got)
	}
}
