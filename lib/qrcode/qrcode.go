// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

// Package qrcode renders WhatsApp pairing payloads as QR codes in a
// terminal. [Renderer] implements tictic.InstructionRenderer, so it can
// be passed directly as tictic.Config.Renderer.
package qrcode

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mdp/qrterminal/v3"
	"golang.org/x/term"

	"github.com/tictic-dev/tictic-go/tictic"
)

// maxPayloadBytes is the byte-mode capacity of a version 40 QR code at
// error correction level M.
const maxPayloadBytes = 2331

// compactWidth is the terminal width below which full-size codes wrap.
const compactWidth = 100

var _ tictic.InstructionRenderer = (*Renderer)(nil)

// Config controls how a Renderer draws.
type Config struct {
	// Writer receives the rendered code. Required.
	Writer io.Writer

	// Compact draws two QR rows per text line using half-block glyphs.
	Compact bool

	// Styled draws the instructions in a bordered box. Leave false when
	// Writer is not a terminal.
	Styled bool
}

// Renderer draws pairing payloads as QR codes.
type Renderer struct {
	writer  io.Writer
	compact bool
	styled  bool
}

// New creates a Renderer from config.
func New(config Config) (*Renderer, error) {
	if config.Writer == nil {
		return nil, errors.New("qrcode: Config.Writer is required")
	}
	return &Renderer{writer: config.Writer, compact: config.Compact, styled: config.Styled}, nil
}

// ForTerminal creates a Renderer for file, styling output only when file
// is a terminal and switching to compact codes in narrow terminals.
func ForTerminal(file *os.File) *Renderer {
	renderer := &Renderer{writer: file}
	fd := int(file.Fd())
	if term.IsTerminal(fd) {
		renderer.styled = true
		if width, _, err := term.GetSize(fd); err == nil && width < compactWidth {
			renderer.compact = true
		}
	}
	return renderer
}

// Render draws payload. See RenderWithInstructions.
func (r *Renderer) Render(ctx context.Context, payload string) error {
	return r.RenderWithInstructions(ctx, payload, nil)
}

// RenderWithInstructions decodes payload (see DecodePayload), draws it as
// a QR code, and lists the instructions below it.
func (r *Renderer) RenderWithInstructions(ctx context.Context, payload string, instructions []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := DecodePayload(payload)
	if err != nil {
		return err
	}
	if len(content) > maxPayloadBytes {
		return fmt.Errorf("qrcode: payload is %d bytes, larger than a QR code holds (%d)", len(content), maxPayloadBytes)
	}

	if _, err := fmt.Fprintln(r.writer, "\nScan this QR code with WhatsApp:"); err != nil {
		return fmt.Errorf("qrcode: writing heading: %w", err)
	}
	qrterminal.GenerateWithConfig(content, r.terminalConfig())

	if len(instructions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(r.writer, r.formatInstructions(instructions)); err != nil {
		return fmt.Errorf("qrcode: writing instructions: %w", err)
	}
	return nil
}

func (r *Renderer) terminalConfig() qrterminal.Config {
	config := qrterminal.Config{
		Level:     qrterminal.M,
		Writer:    r.writer,
		QuietZone: 1,
	}
	if r.compact {
		config.HalfBlocks = true
		config.BlackChar = qrterminal.BLACK_BLACK
		config.WhiteBlackChar = qrterminal.WHITE_BLACK
		config.WhiteChar = qrterminal.WHITE_WHITE
		config.BlackWhiteChar = qrterminal.BLACK_WHITE
	} else {
		config.BlackChar = "██"
		config.WhiteChar = "  "
	}
	return config
}

func (r *Renderer) formatInstructions(instructions []string) string {
	lines := make([]string, len(instructions))
	for i, instruction := range instructions {
		lines[i] = fmt.Sprintf("%d. %s", i+1, instruction)
	}
	text := strings.Join(lines, "\n")
	if !r.styled {
		return text
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("2")).
		Padding(0, 1).
		Render(text)
}

// DecodePayload returns the text a QR code should encode. Payloads are
// either the text itself or a data URL. A data URL marked ;base64 must
// decode as base64. An unmarked one is still base64-decoded when its
// data is valid padded base64, since servers are known to omit the
// marker; otherwise it is percent-decoded.
func DecodePayload(payload string) (string, error) {
	if payload == "" {
		return "", errors.New("qrcode: empty payload")
	}
	if !strings.HasPrefix(payload, "data:") {
		return payload, nil
	}

	header, data, found := strings.Cut(strings.TrimPrefix(payload, "data:"), ",")
	if !found {
		return "", errors.New("qrcode: data URL has no comma separator")
	}
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(data)
		}
		if err != nil {
			return "", fmt.Errorf("qrcode: decoding base64 data URL: %w", err)
		}
		return string(decoded), nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil && data != "" {
		return string(decoded), nil
	}
	decoded, err := url.PathUnescape(data)
	if err != nil {
		return "", fmt.Errorf("qrcode: decoding data URL: %w", err)
	}
	return decoded, nil
}
