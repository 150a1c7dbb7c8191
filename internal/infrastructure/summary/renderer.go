// Package summary renders the human-readable summary page of a case as a PNG.
package summary

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"

	"github.com/ersonp/provpack/internal/domain/entities"
)

const (
	defaultWidth    = 1240
	defaultMargin   = 60.0
	defaultFontSize = 22.0
)

// lineKind controls how a line is drawn.
type lineKind int

const (
	kindTitle lineKind = iota
	kindHeading
	kindText
	kindNote
	kindGap
)

type line struct {
	kind lineKind
	text string
}

// Renderer draws case summaries.
type Renderer struct {
	width    int
	margin   float64
	fontPath string
	fontSize float64
	now      func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFont draws text with a TrueType font instead of the built-in bitmap face.
func WithFont(path string, size float64) Option {
	return func(r *Renderer) {
		r.fontPath = path
		r.fontSize = size
	}
}

// WithClock sets the time printed as the generation date.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:    defaultWidth,
		margin:   defaultMargin,
		fontSize: defaultFontSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extension returns "png".
func (r *Renderer) Extension() string {
	return "png"
}

// RenderSummary draws the summary of c and encodes it as PNG.
func (r *Renderer) RenderSummary(ctx context.Context, c *entities.Case) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("rendering summary: nil case")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := summaryLines(c, r.now())
	lineHeight := r.fontSize * 1.6
	height := int(2*r.margin + lineHeight*float64(len(lines)+1))

	dc := gg.NewContext(r.width, height)
	dc.SetColor(color.White)
	dc.Clear()

	if r.fontPath != "" {
		if err := dc.LoadFontFace(r.fontPath, r.fontSize); err != nil {
			return nil, fmt.Errorf("loading summary font: %w", err)
		}
	}

	y := r.margin + lineHeight
	for _, l := range lines {
		switch l.kind {
		case kindGap:
			y += lineHeight / 2
			continue
		case kindTitle:
			dc.SetColor(color.Black)
			dc.DrawString(l.text, r.margin, y)
			dc.SetLineWidth(2)
			dc.DrawLine(r.margin, y+8, float64(r.width)-r.margin, y+8)
			dc.Stroke()
		case kindHeading:
			dc.SetRGB255(0x33, 0x33, 0x33)
			dc.DrawString(l.text, r.margin, y)
		case kindText:
			dc.SetColor(color.Black)
			dc.DrawString(l.text, r.margin+20, y)
		case kindNote:
			dc.SetRGB255(0x66, 0x66, 0x66)
			dc.DrawString(l.text, r.margin, y)
		}
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// summaryLines lays out the content of the summary page.
func summaryLines(c *entities.Case, generated time.Time) []line {
	lines := []line{
		{kindTitle, "Estate Research Summary"},
		{kindGap, ""},
		{kindText, "Case ID: " + c.CaseID},
		{kindText, "Packet: " + c.PacketID},
		{kindText, "Generated: " + generated.UTC().Format("2006-01-02")},
		{kindGap, ""},
		{kindHeading, "Deceased"},
	}

	deceased := c.Deceased()
	if deceased == nil {
		lines = append(lines, line{kindText, "No deceased person recorded"})
	} else {
		date, place := "Unknown", "Unknown"
		if deceased.Death != nil {
			date = orUnknown(deceased.Death.Date)
			place = orUnknown(deceased.Death.Place)
		}
		lines = append(lines,
			line{kindText, "Name: " + deceased.PrimaryName},
			line{kindText, "Death date: " + date},
			line{kindText, "Death place: " + place},
		)
	}

	var children []entities.Person
	if deceased != nil {
		children = c.ChildrenOf(deceased.ID)
	}
	lines = append(lines, line{kindGap, ""}, line{kindHeading, fmt.Sprintf("Children (%d)", len(children))})
	if len(children) == 0 {
		lines = append(lines, line{kindText, "No children recorded"})
	}
	for _, child := range children {
		text := child.PrimaryName
		if child.Birth != nil && child.Birth.Date != "" {
			text += ", born " + child.Birth.Date
		}
		lines = append(lines, line{kindText, text})
	}

	lines = append(lines, line{kindGap, ""}, line{kindHeading, "Sources"})
	for _, s := range c.Sources {
		lines = append(lines, line{kindText, fmt.Sprintf("%s: %s (%s)", s.Repo, s.Title, s.PacketID)})
	}

	return append(lines,
		line{kindGap, ""},
		line{kindNote, fmt.Sprintf("Generated from estate file extraction with %d field citations.", len(c.Citations))},
		line{kindNote, "All data should be verified against original documents."},
	)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
