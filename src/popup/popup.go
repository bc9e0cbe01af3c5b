package popup

import (
	"image/color"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"offlinemind/src/logutil"
	"offlinemind/src/screen"
)

const (
	ThinkingText        = "Thinking..."
	DefaultDismissAfter = 30 * time.Second
	wrapWidth           = 450
	panelAlpha          = 0xE6 // 0.9
	windowTitle         = "Offlinemind"
)

// Languages offered by the dropdown.
var Languages = []string{"English", "Spanish", "French", "German", "Hindi", "Mandarin", "Japanese"}

var panelColor = color.NRGBA{R: 0x2c, G: 0x2c, B: 0x2c, A: panelAlpha}

// View is one rendering of the popup. A nil Anchor centers the panel.
type View struct {
	Text     string
	Anchor   *screen.Point
	Language string
}

// Presenter owns the single popup window. Show and Close may be called from
// any goroutine; the window itself is only touched on the fyne UI thread.
type Presenter struct {
	app              fyne.App
	dismissAfter     time.Duration
	onLanguageChange func(language string)

	// UI thread only
	window   fyne.Window
	language *widget.Select
	gen      uint64
}

func New(app fyne.App, dismissAfter time.Duration, onLanguageChange func(language string)) *Presenter {
	if dismissAfter <= 0 {
		dismissAfter = DefaultDismissAfter
	}
	return &Presenter{app: app, dismissAfter: dismissAfter, onLanguageChange: onLanguageChange}
}

// Show replaces the current popup with v.
func (p *Presenter) Show(v View) {
	log.Printf("Popup.Show: %d characters, language=%s, anchored=%v: %q",
		len(v.Text), v.Language, v.Anchor != nil, logutil.SanitizeForLogging(v.Text))
	fyne.Do(func() { p.show(v) })
}

// Close dismisses the current popup, if any.
func (p *Presenter) Close() {
	log.Printf("Popup.Close called")
	fyne.Do(p.closeCurrent)
}

func (p *Presenter) show(v View) {
	p.closeCurrent()
	p.gen++
	gen := p.gen

	w := p.newWindow()

	sel := widget.NewSelect(languageOptions(v.Language), nil)
	sel.SetSelected(v.Language)
	// Assigned after SetSelected so initialising the dropdown does not re-request.
	sel.OnChanged = func(language string) {
		log.Printf("Popup: language changed to %s", language)
		if p.onLanguageChange != nil {
			p.onLanguageChange(language)
		}
	}

	label := widget.NewLabel(v.Text)
	label.Wrapping = fyne.TextWrapWord

	background := newDismissArea(func() { p.expire(gen) })
	body := container.NewVBox(
		container.NewCenter(sel),
		container.New(fixedWidthLayout{width: wrapWidth}, label),
	)
	w.SetContent(container.NewStack(background, container.NewPadded(body)))
	w.SetPadded(false)
	w.Show()
	w.RequestFocus()

	p.window = w
	p.language = sel

	if !placeNative(w, v.Anchor) {
		w.CenterOnScreen()
	}

	time.AfterFunc(p.dismissAfter, func() {
		fyne.Do(func() { p.expire(gen) })
	})
}

// expire closes the popup only if it is still the one created as generation gen.
func (p *Presenter) expire(gen uint64) {
	if gen != p.gen {
		return
	}
	p.closeCurrent()
}

func (p *Presenter) closeCurrent() {
	if p.window == nil {
		return
	}
	p.window.Close()
	p.window = nil
	p.language = nil
}

func (p *Presenter) newWindow() fyne.Window {
	if drv, ok := p.app.Driver().(desktop.Driver); ok {
		return drv.CreateSplashWindow()
	}
	return p.app.NewWindow(windowTitle)
}

func languageOptions(selected string) []string {
	for _, l := range Languages {
		if l == selected {
			return Languages
		}
	}
	if selected == "" {
		return Languages
	}
	return append(append([]string{}, Languages...), selected)
}

// dismissArea is the tappable panel background; taps on the label fall through to it.
type dismissArea struct {
	widget.BaseWidget
	bg    *canvas.Rectangle
	onTap func()
}

func newDismissArea(onTap func()) *dismissArea {
	d := &dismissArea{bg: canvas.NewRectangle(panelColor), onTap: onTap}
	d.ExtendBaseWidget(d)
	return d
}

func (d *dismissArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(d.bg)
}

func (d *dismissArea) Tapped(*fyne.PointEvent) {
	if d.onTap != nil {
		d.onTap()
	}
}

// fixedWidthLayout gives word-wrapped content a fixed width and lets its
// height follow the wrapped text.
type fixedWidthLayout struct{ width float32 }

func (l fixedWidthLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
}

func (l fixedWidthLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var h float32
	for _, o := range objects {
		o.Resize(fyne.NewSize(l.width, o.MinSize().Height))
		if m := o.MinSize().Height; m > h {
			h = m
		}
	}
	return fyne.NewSize(l.width, h)
}
