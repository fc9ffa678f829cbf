package server

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/runewire/pkg/protocol"
)

const defaultTracerName = "github.com/vango-dev/runewire/pkg/server"

// Handler processes one decoded frame. The frame's cursor is positioned at
// the start of the payload.
//
// Returning a *ProtocolError marks the frame as malformed for its opcode;
// any other error is reported as a handler failure. Neither ends the
// session.
type Handler func(ctx context.Context, s *Session, f *protocol.Frame) error

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// Dispatcher routes frames to handlers by opcode.
//
// The table is filled at startup and then shared read-only by every
// session; Register must not be called once sessions are running.
type Dispatcher struct {
	handlers [256]Handler
	tracer   trace.Tracer
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		tracer: otel.Tracer(defaultTracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register installs h for opcode, replacing any previous handler.
func (d *Dispatcher) Register(opcode uint8, h Handler) {
	d.handlers[opcode] = h
}

// RegisterAll installs h for each opcode.
func (d *Dispatcher) RegisterAll(h Handler, opcodes ...uint8) {
	for _, op := range opcodes {
		d.handlers[op] = h
	}
}

// Handler returns the handler for opcode, or nil.
func (d *Dispatcher) Handler(opcode uint8) Handler {
	return d.handlers[opcode]
}

// Opcodes returns the opcodes with a registered handler, in ascending order.
func (d *Dispatcher) Opcodes() []uint8 {
	var ops []uint8
	for op, h := range d.handlers {
		if h != nil {
			ops = append(ops, uint8(op))
		}
	}
	return ops
}

// Dispatch runs the handler for f and contains its failure.
//
// Unregistered opcodes and handler-reported protocol errors come back as
// *ProtocolError; handler errors and panics as *HandlerError. Both are
// logged on the session and counted before returning, and the caller is
// expected to move on to the next frame.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, f *protocol.Frame) error {
	ctx, span := d.tracer.Start(ctx, "runewire.dispatch", trace.WithAttributes(
		attribute.Int("frame.opcode", int(f.Opcode)),
		attribute.Int("frame.length", f.Length),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	start := time.Now()
	var err error
	if h := d.handlers[f.Opcode]; h == nil {
		err = &ProtocolError{Opcode: f.Opcode, Err: ErrUnhandledFrame}
	} else {
		err = d.call(ctx, h, s, f)
	}
	s.metrics.frameDispatched(f.Opcode, time.Since(start))

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var pe *ProtocolError
	if errors.As(err, &pe) {
		pe.SessionID = s.ID
		pe.Opcode = f.Opcode
		s.logger.Warn("protocol error",
			"opcode", f.Opcode,
			"error", pe,
			"frame", f.String())
		s.metrics.protocolError(pe)
		return pe
	}

	var he *HandlerError
	if errors.As(err, &he) {
		if he.Panic != nil {
			s.logger.Error("handler panic",
				"opcode", f.Opcode,
				"panic", he.Panic,
				"frame", f.String(),
				"stack", string(he.Stack))
		} else {
			s.logger.Error("handler failed",
				"opcode", f.Opcode,
				"error", he.Err,
				"frame", f.String())
		}
		s.metrics.handlerFailure(f.Opcode, he.Panic != nil)
	}
	return err
}

// call runs h with panic recovery.
func (d *Dispatcher) call(ctx context.Context, h Handler, s *Session, f *protocol.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{
				SessionID: s.ID,
				Opcode:    f.Opcode,
				Payload:   f.Payload,
				Panic:     r,
				Stack:     debug.Stack(),
			}
		}
	}()

	if herr := h(ctx, s, f); herr != nil {
		var pe *ProtocolError
		if errors.As(herr, &pe) {
			return herr
		}
		return &HandlerError{
			SessionID: s.ID,
			Opcode:    f.Opcode,
			Payload:   f.Payload,
			Err:       herr,
		}
	}
	return nil
}
