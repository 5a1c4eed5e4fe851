// Filter toggles, composition label and per-filter parameter sliders
package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"camfx/internal/core"
	"camfx/internal/filters"
)

// CompositionPrefix precedes the composition description in the label
const CompositionPrefix = "Filter composition: "

// floatSliderStep matches a 500-position slider over [0,1]
const floatSliderStep = 1.0 / 500

var bgrComponentNames = [3]string{"Blue", "Green", "Red"}

// parameterPanel is the slider group of one filter. Visibility is a plain flag keyed by
// filter id; filters without parameters have no panel.
type parameterPanel struct {
	box     *fyne.Container
	sliders []*widget.Slider
	visible bool
}

// FilterPanel owns one toggle button per filter kind
type FilterPanel struct {
	pipeline *core.Pipeline
	logger   *logrus.Entry

	buttonBox        *fyne.Container
	parameterBox     *fyne.Container
	compositionLabel *widget.Label

	buttons []*widget.Button
	panels  []*parameterPanel
}

func NewFilterPanel(pipeline *core.Pipeline, logger *logrus.Entry) *FilterPanel {
	fp := &FilterPanel{
		pipeline: pipeline,
		logger:   logger,
	}
	fp.initializeUI()
	return fp
}

func (fp *FilterPanel) initializeUI() {
	instances := fp.pipeline.Instances()
	fp.buttons = make([]*widget.Button, len(instances))
	fp.panels = make([]*parameterPanel, len(instances))

	fp.buttonBox = container.NewGridWithColumns(6)
	fp.parameterBox = container.NewHBox()

	for _, instance := range instances {
		id := instance.ID()
		fp.buttons[id] = widget.NewButton(instance.DisplayName(), func() {
			fp.Toggle(id)
		})
		fp.buttonBox.Add(fp.buttons[id])

		if instance.Kind().Shape != filters.ShapeNone {
			fp.panels[id] = fp.newParameterPanel(instance)
			fp.parameterBox.Add(fp.panels[id].box)
		}
	}

	fp.compositionLabel = widget.NewLabel(CompositionPrefix + fp.pipeline.Description())
	fp.compositionLabel.Wrapping = fyne.TextWrapWord
}

func (fp *FilterPanel) newParameterPanel(instance *filters.Instance) *parameterPanel {
	kind := instance.Kind()

	panel := &parameterPanel{}
	panel.box = container.NewVBox(
		widget.NewLabelWithStyle(kind.DisplayName, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle(kind.ParameterName, fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
	)

	current := instance.Parameters()
	for i := range current {
		component := i
		if kind.Shape == filters.ShapeScalar {
			component = filters.NoComponent
		}
		slider, row := fp.newParameterSlider(instance, component, current[i])
		panel.sliders = append(panel.sliders, slider)
		panel.box.Add(row)
	}

	panel.box.Hide()
	return panel
}

func (fp *FilterPanel) newParameterSlider(instance *filters.Instance, component int, value float64) (*widget.Slider, fyne.CanvasObject) {
	kind := instance.Kind()

	slider := widget.NewSlider(kind.Range.Min, kind.Range.Max)
	slider.Step = 1
	if kind.Shape == filters.ShapeBGRFloat {
		slider.Step = floatSliderStep
	}
	slider.SetValue(value)

	valueLabel := widget.NewLabel(formatParameter(kind.Shape, value))
	slider.OnChanged = func(v float64) {
		instance.UpdateParameter(v, component)
		valueLabel.SetText(formatParameter(kind.Shape, v))
		fp.logger.WithFields(logrus.Fields{
			"filter":    kind.DisplayName,
			"component": component,
			"value":     v,
		}).Debug("GUI: Parameter changed")
	}

	name := widget.NewLabel(componentName(kind, component))
	return slider, container.NewBorder(nil, nil, name, valueLabel, slider)
}

// Toggle flips a filter in the composition and, for filters with parameters, the
// visibility of its slider panel
func (fp *FilterPanel) Toggle(id int) {
	description := fp.pipeline.Toggle(id)
	fp.compositionLabel.SetText(CompositionPrefix + description)

	if fp.pipeline.IsActive(id) {
		fp.buttons[id].Importance = widget.HighImportance
	} else {
		fp.buttons[id].Importance = widget.MediumImportance
	}
	fp.buttons[id].Refresh()

	if panel := fp.panels[id]; panel != nil {
		panel.visible = !panel.visible
		if panel.visible {
			panel.box.Show()
		} else {
			panel.box.Hide()
		}
	}
}

// ParametersVisible reports whether the slider panel of id is shown
func (fp *FilterPanel) ParametersVisible(id int) bool {
	panel := fp.panels[id]
	return panel != nil && panel.visible
}

func (fp *FilterPanel) CompositionText() string {
	return fp.compositionLabel.Text
}

func (fp *FilterPanel) GetButtons() fyne.CanvasObject {
	return fp.buttonBox
}

func (fp *FilterPanel) GetParameters() fyne.CanvasObject {
	return container.NewHScroll(fp.parameterBox)
}

func (fp *FilterPanel) GetCompositionLabel() fyne.CanvasObject {
	return fp.compositionLabel
}

func componentName(kind filters.Kind, component int) string {
	switch kind.Shape {
	case filters.ShapeBGR, filters.ShapeBGRFloat:
		return bgrComponentNames[component]
	case filters.ShapePair:
		if names := strings.Split(kind.ParameterName, " / "); len(names) == 2 {
			return names[component]
		}
		return fmt.Sprintf("%s %d", kind.ParameterName, component+1)
	default:
		return kind.ParameterName
	}
}

func formatParameter(shape filters.ParameterShape, v float64) string {
	if shape == filters.ShapeBGRFloat {
		return fmt.Sprintf("%.3f", v)
	}
	return fmt.Sprintf("%.0f", v)
}
