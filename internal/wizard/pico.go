package wizard

import (
	"strings"

	"github.com/joshua-takyi/rolecerto/internal/geocode"
	"github.com/joshua-takyi/rolecerto/internal/models"
)

const (
	StepPicoInfo     = 1
	StepPicoPhotos   = 2
	StepPicoLocation = 3
)

type PicoDraft struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Photos      []string            `json:"photos"`
	Location    string              `json:"location"`
	Coordinates *models.Coordinates `json:"coordinates"`
}

var picoRules = map[int][]rule[*PicoDraft]{
	StepPicoInfo: {
		{field: "name", tag: "required,min=3,max=100", value: func(d *PicoDraft) interface{} { return strings.TrimSpace(d.Name) }},
		{field: "description", tag: "required,max=2000", value: func(d *PicoDraft) interface{} { return strings.TrimSpace(d.Description) }},
	},
	StepPicoPhotos: {
		{field: "photos", tag: "min=2,dive,httpurl", value: func(d *PicoDraft) interface{} { return d.Photos }},
	},
	StepPicoLocation: append([]rule[*PicoDraft]{
		{field: "location", tag: "required", value: func(d *PicoDraft) interface{} { return strings.TrimSpace(d.Location) }},
	}, coordinateRules(func(d *PicoDraft) *models.Coordinates { return d.Coordinates })...),
}

// PicoWizard drives the three step pico form.
type PicoWizard struct {
	Step          int          `json:"step"`
	Draft         PicoDraft    `json:"draft"`
	SubmitBlocked bool         `json:"submit_blocked"`
	Errors        []FieldError `json:"errors,omitempty"`
}

func NewPicoWizard() *PicoWizard {
	return &PicoWizard{Step: StepPicoInfo}
}

func EditPicoWizard(p *models.Pico) *PicoWizard {
	c := p.Coordinates
	return &PicoWizard{
		Step: StepPicoInfo,
		Draft: PicoDraft{
			Name:        p.Name,
			Description: p.Description,
			Photos:      append([]string(nil), p.Photos...),
			Location:    p.Location,
			Coordinates: &c,
		},
	}
}

func (w *PicoWizard) SetCoordinates(c models.Coordinates) {
	w.Draft.Coordinates = &c
	w.SubmitBlocked = false
}

func (w *PicoWizard) ApplyPlace(p geocode.Place) {
	if p.DisplayName != "" {
		w.Draft.Location = p.DisplayName
	}
	w.SetCoordinates(p.Coordinates)
}

func (w *PicoWizard) ValidateStep(step int) []FieldError {
	errs := check(&w.Draft, picoRules[step])
	if step == StepPicoLocation {
		w.SubmitBlocked = w.Draft.Coordinates == nil
		if w.SubmitBlocked {
			errs = append(errs, coordinatesError)
		}
	}
	return errs
}

func (w *PicoWizard) Next() bool {
	w.Step = clampStep(w.Step, StepPicoLocation)
	w.Errors = w.ValidateStep(w.Step)
	if len(w.Errors) > 0 {
		return false
	}
	if w.Step < StepPicoLocation {
		w.Step++
	}
	return true
}

func (w *PicoWizard) Prev() bool {
	w.Errors = nil
	if w.Step <= StepPicoInfo {
		w.Step = StepPicoInfo
		return false
	}
	w.Step--
	return true
}

func (w *PicoWizard) Submit() bool {
	var errs []FieldError
	for step := StepPicoInfo; step <= StepPicoLocation; step++ {
		errs = append(errs, w.ValidateStep(step)...)
	}
	w.Errors = errs
	return len(errs) == 0 && !w.SubmitBlocked
}

// Pico builds the document for a validated draft.
func (d *PicoDraft) Pico() *models.Pico {
	p := &models.Pico{
		Name:        strings.TrimSpace(d.Name),
		Description: strings.TrimSpace(d.Description),
		Location:    strings.TrimSpace(d.Location),
		Photos:      d.Photos,
	}
	if d.Coordinates != nil {
		p.Coordinates = *d.Coordinates
	}
	return p
}
