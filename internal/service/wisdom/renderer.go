package wisdom

import (
	"bytes"
	"encoding/base64"
	"errors"
	"html"
	"math/rand"
	"strings"
	"sync"
	"text/template"
	"time"
	"unicode/utf8"
)

const (
	imageWidth  = 1200
	imageHeight = 800
	textWidth   = 960
	textHeight  = 440
)

// ErrQuoteTooLong 表示最小字号下仍然排不下。
var ErrQuoteTooLong = errors.New("quote is too long to lay out")

var fontSizes = []int{44, 38, 32, 26}

var svgTemplate = template.Must(template.New("quote").Funcs(template.FuncMap{
	"esc": html.EscapeString,
}).Parse(`<svg width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="primaryGradient" x1="0%" y1="0%" x2="100%" y2="100%">
      <stop offset="0%" stop-color="{{index .T.Primary 0}}" stop-opacity="1"/>
      <stop offset="33%" stop-color="{{index .T.Primary 1}}" stop-opacity="0.95"/>
      <stop offset="66%" stop-color="{{index .T.Primary 2}}" stop-opacity="0.9"/>
      <stop offset="100%" stop-color="{{index .T.Primary 3}}" stop-opacity="0.85"/>
    </linearGradient>
    <radialGradient id="accentGlow" cx="30%" cy="30%" r="70%">
      <stop offset="0%" stop-color="{{index .T.Accent 0}}" stop-opacity="0.3"/>
      <stop offset="50%" stop-color="{{index .T.Accent 1}}" stop-opacity="0.15"/>
      <stop offset="100%" stop-color="{{index .T.Accent 2}}" stop-opacity="0.05"/>
    </radialGradient>
    <radialGradient id="softHighlight" cx="70%" cy="20%" r="60%">
      <stop offset="0%" stop-color="{{index .T.Highlights 0}}" stop-opacity="0.8"/>
      <stop offset="40%" stop-color="{{index .T.Highlights 1}}" stop-opacity="0.4"/>
      <stop offset="100%" stop-color="{{index .T.Highlights 2}}" stop-opacity="0"/>
    </radialGradient>
    <linearGradient id="panel" x1="0%" y1="0%" x2="100%" y2="100%">
      <stop offset="0%" stop-color="{{index .T.Highlights 0}}" stop-opacity="0.8"/>
      <stop offset="50%" stop-color="{{index .T.Highlights 1}}" stop-opacity="0.67"/>
      <stop offset="100%" stop-color="{{index .T.Highlights 2}}" stop-opacity="0.73"/>
    </linearGradient>
    <pattern id="tiles" patternUnits="userSpaceOnUse" width="60" height="60">
      <rect width="60" height="60" fill="{{index .T.Primary 1}}" opacity="0.3"/>
      <rect x="2" y="2" width="56" height="56" fill="none" stroke="{{index .T.Accent 0}}" stroke-width="0.5" opacity="0.2"/>
      <circle cx="30" cy="30" r="3" fill="{{index .T.Accent 1}}" opacity="0.1"/>
    </pattern>
    <pattern id="water" patternUnits="userSpaceOnUse" width="80" height="40">
      <path d="M0,20 Q20,10 40,20 T80,20" stroke="{{index .T.Accent 0}}" stroke-width="1" fill="none" opacity="0.1"/>
      <path d="M0,25 Q20,15 40,25 T80,25" stroke="{{index .T.Accent 1}}" stroke-width="0.8" fill="none" opacity="0.08"/>
    </pattern>
    <filter id="textShadow" x="-50%" y="-50%" width="200%" height="200%">
      <feDropShadow dx="2" dy="2" stdDeviation="4" flood-color="{{index .T.Shadows 2}}" flood-opacity="0.3"/>
      <feDropShadow dx="0" dy="0" stdDeviation="8" flood-color="{{index .T.Shadows 1}}" flood-opacity="0.2"/>
    </filter>
  </defs>
  <rect width="100%" height="100%" fill="url(#primaryGradient)"/>
  <rect width="100%" height="100%" fill="url(#tiles)" opacity="0.4"/>
  <rect width="100%" height="100%" fill="url(#water)" opacity="0.6"/>
  <rect width="100%" height="100%" fill="url(#accentGlow)"/>
  <rect width="100%" height="100%" fill="url(#softHighlight)"/>
  <circle cx="150" cy="150" r="80" fill="none" stroke="{{index .T.Accent 0}}" stroke-width="2" opacity="0.15"/>
  <circle cx="150" cy="150" r="60" fill="none" stroke="{{index .T.Accent 1}}" stroke-width="1.5" opacity="0.1"/>
  <circle cx="1050" cy="650" r="100" fill="none" stroke="{{index .T.Accent 0}}" stroke-width="2" opacity="0.12"/>
  <circle cx="1050" cy="650" r="75" fill="none" stroke="{{index .T.Accent 1}}" stroke-width="1.5" opacity="0.08"/>
  <path d="M0,400 Q300,350 600,400 T1200,400" stroke="{{index .T.Accent 0}}" stroke-width="3" fill="none" opacity="0.1"/>
  <path d="M0,420 Q300,370 600,420 T1200,420" stroke="{{index .T.Accent 1}}" stroke-width="2" fill="none" opacity="0.08"/>
  <rect x="100" y="160" width="1000" height="480" rx="20" fill="url(#panel)" stroke="{{index .T.Accent 0}}" stroke-opacity="0.25" stroke-width="2"/>
  <text x="600" text-anchor="middle" font-family="Georgia, 'Times New Roman', serif" font-size="{{.FontSize}}" font-weight="600" fill="{{index .T.Shadows 3}}" filter="url(#textShadow)">
{{- range .Lines}}
    <tspan x="600" y="{{.Y}}">{{esc .Text}}</tspan>
{{- end}}
  </text>
  <rect x="20" y="20" width="1160" height="760" rx="15" ry="15" fill="none" stroke="{{index .T.Accent 0}}" stroke-width="1" opacity="0.15"/>
</svg>
`))

type line struct {
	Text string
	Y    int
}

type svgData struct {
	Width, Height int
	FontSize      int
	T             Theme
	Lines         []line
}

// Renderer draws quotes onto a randomly themed vector background.
type Renderer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRenderer uses rng for theme choice; nil seeds from the clock.
func NewRenderer(rng *rand.Rand) *Renderer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Renderer{rng: rng}
}

// PickTheme draws one theme uniformly.
func (r *Renderer) PickTheme() Theme {
	r.mu.Lock()
	defer r.mu.Unlock()
	return themes[r.rng.Intn(len(themes))]
}

// Render returns the quote as a base64 SVG data URI.
func (r *Renderer) Render(quote string) (string, Theme, error) {
	quote = strings.Join(strings.Fields(xmlText(quote)), " ")
	if quote == "" {
		return "", Theme{}, errors.New("quote is empty")
	}

	theme := r.PickTheme()
	texts, fontSize, err := layout(quote)
	if err != nil {
		return "", theme, err
	}

	lineHeight := fontSize * 3 / 2
	top := imageHeight/2 - (len(texts)-1)*lineHeight/2 + fontSize/3
	lines := make([]line, len(texts))
	for i, t := range texts {
		lines[i] = line{Text: t, Y: top + i*lineHeight}
	}

	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, svgData{
		Width: imageWidth, Height: imageHeight,
		FontSize: fontSize,
		T:        theme,
		Lines:    lines,
	}); err != nil {
		return "", theme, err
	}

	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), theme, nil
}

// xmlText 去掉无效 UTF-8 和 XML 1.0 不允许的字符。
func xmlText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r >= 0x20 && r <= 0xD7FF,
			r >= 0xE000 && r <= 0xFFFD,
			r >= 0x10000 && r <= 0x10FFFF:
			return r
		}
		return -1
	}, strings.ToValidUTF8(s, ""))
}

// layout 按字号从大到小尝试折行，直到行数放得下。
func layout(quote string) ([]string, int, error) {
	for _, size := range fontSizes {
		// 衬线字体平均字宽约为字号的一半
		maxChars := textWidth * 2 / size
		maxLines := textHeight * 2 / (size * 3)
		lines := wrap(quote, maxChars)
		if len(lines) <= maxLines {
			return lines, size, nil
		}
	}
	return nil, 0, ErrQuoteTooLong
}

func wrap(text string, maxChars int) []string {
	var lines []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > maxChars {
			flush()
			runes := []rune(word)
			lines = append(lines, string(runes[:maxChars]))
			word = string(runes[maxChars:])
		}
		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n > maxChars {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	flush()
	return lines
}
