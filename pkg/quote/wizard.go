// Package quote implements the five step quote request: a linear wizard
// whose steps each gate progression, and the Form that submits it.
package quote

import (
	"strings"

	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/validate"
)

// Step is a wizard state.
type Step int

const (
	StepLocation Step = iota + 1
	StepService
	StepHome
	StepFrequency
	StepContact
)

// FirstStep and LastStep bound the wizard.
const (
	FirstStep = StepLocation
	LastStep  = StepContact
)

func (s Step) String() string {
	switch s {
	case StepLocation:
		return "location"
	case StepService:
		return "service"
	case StepHome:
		return "home"
	case StepFrequency:
		return "frequency"
	case StepContact:
		return "contact"
	}
	return "unknown"
}

// OtherCity selects free text ZIP entry.
const OtherCity = "Other"

// City is a service city with the ZIP it fills in.
type City struct {
	Name string
	ZIP  string
}

var cities = []City{
	{Name: "Hammond", ZIP: "46320"},
	{Name: "Hobart", ZIP: "46342"},
	{Name: "Merrillville", ZIP: "46410"},
	{Name: "Crown Point", ZIP: "46307"},
	{Name: "Valparaiso", ZIP: "46383"},
	{Name: "Schererville", ZIP: "46375"},
	{Name: "St. John", ZIP: "46373"},
	{Name: "Lowell", ZIP: "46356"},
}

// Cities returns the selectable service cities in display order, without
// OtherCity.
func Cities() []City {
	return append([]City(nil), cities...)
}

// CityZIP looks up the ZIP for a city name.
func CityZIP(name string) (string, bool) {
	for _, c := range cities {
		if c.Name == name {
			return c.ZIP, true
		}
	}
	return "", false
}

// Frequency is how often the cleaning repeats.
type Frequency string

const (
	FrequencyOneTime  Frequency = "one-time"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Frequencies lists the accepted values.
func Frequencies() []Frequency {
	return []Frequency{FrequencyOneTime, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly}
}

// Room count bounds and defaults.
const (
	MinBedrooms      = 1
	MaxBedrooms      = 6
	DefaultBedrooms  = 3
	MinBathrooms     = 1
	MaxBathrooms     = 5
	DefaultBathrooms = 2
)

// Data is everything the wizard collects.
type Data struct {
	City        string
	ZipCode     string
	ServiceType string
	Bedrooms    int
	Bathrooms   int
	Frequency   Frequency
	Name        string
	Email       string
	Phone       string
	Honeypot    string
}

func defaultData() Data {
	return Data{
		Bedrooms:  DefaultBedrooms,
		Bathrooms: DefaultBathrooms,
		Frequency: FrequencyOneTime,
	}
}

// owners maps each validated field to the step that collects it.
var owners = map[form.Field]Step{
	form.FieldZipCode:     StepLocation,
	form.FieldServiceType: StepService,
	form.FieldBedrooms:    StepHome,
	form.FieldBathrooms:   StepHome,
	form.FieldFrequency:   StepFrequency,
	form.FieldName:        StepContact,
	form.FieldEmail:       StepContact,
	form.FieldPhone:       StepContact,
}

// OwnerStep returns the step that collects field.
func OwnerStep(field form.Field) (Step, bool) {
	step, ok := owners[field]
	return step, ok
}

// Wizard is the quote state machine. It is not safe for concurrent use;
// Form serialises access.
type Wizard struct {
	step   Step
	data   Data
	errors form.Errors
	area   *validate.ServiceArea
}

// NewWizard starts at StepLocation. A nil area uses the default service
// area.
func NewWizard(area *validate.ServiceArea) *Wizard {
	if area == nil {
		area = validate.DefaultServiceArea()
	}
	return &Wizard{
		step:   StepLocation,
		data:   defaultData(),
		errors: form.Errors{},
		area:   area,
	}
}

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Data returns a copy of the collected values.
func (w *Wizard) Data() Data { return w.data }

// Errors returns a copy of the current field errors.
func (w *Wizard) Errors() form.Errors { return w.errors.Clone() }

// Gate runs the check that guards leaving step. Home, Frequency and Contact
// never block here; Contact is checked by Validate at submit.
func (w *Wizard) Gate(step Step) form.Errors {
	errs := form.Errors{}
	switch step {
	case StepLocation:
		switch {
		case w.data.City == "":
			errs.Set(form.FieldZipCode, "Pick your city")
		case w.data.City == OtherCity && strings.TrimSpace(w.data.ZipCode) == "":
			errs.Set(form.FieldZipCode, "Enter ZIP")
		default:
			if res := w.area.Validate(w.data.ZipCode); !res.Valid {
				errs.Set(form.FieldZipCode, res.Message)
			}
		}
	case StepService:
		if res := validate.ServiceType(w.data.ServiceType); !res.Valid {
			errs.Set(form.FieldServiceType, "Pick a service")
		}
	}
	return errs
}

// Advance moves one step forward when the current gate passes. On failure
// the gate errors replace the current ones and the step is unchanged.
func (w *Wizard) Advance() bool {
	if w.step >= LastStep {
		return false
	}
	if errs := w.Gate(w.step); errs.Len() > 0 {
		w.errors = errs
		return false
	}
	w.errors = form.Errors{}
	w.step++
	return true
}

// Retreat moves one step back. Collected values are kept.
func (w *Wizard) Retreat() bool {
	if w.step <= FirstStep {
		return false
	}
	w.step--
	return true
}

// SelectCity records the city and fills the ZIP from the city table. Any
// other name, OtherCity included, clears the ZIP for manual entry.
func (w *Wizard) SelectCity(name string) {
	w.data.City = strings.TrimSpace(name)
	zip, _ := CityZIP(w.data.City)
	w.data.ZipCode = zip
	w.errors.Clear(form.FieldZipCode)
}

// SetZip sets the ZIP directly, as for OtherCity.
func (w *Wizard) SetZip(zip string) {
	w.data.ZipCode = zip
	w.errors.Clear(form.FieldZipCode)
}

// SetServiceType records the selected service.
func (w *Wizard) SetServiceType(service string) {
	w.data.ServiceType = service
	w.errors.Clear(form.FieldServiceType)
}

// SetBedrooms clamps n to the accepted range.
func (w *Wizard) SetBedrooms(n int) {
	w.data.Bedrooms = clamp(n, MinBedrooms, MaxBedrooms)
}

// SetBathrooms clamps n to the accepted range.
func (w *Wizard) SetBathrooms(n int) {
	w.data.Bathrooms = clamp(n, MinBathrooms, MaxBathrooms)
}

// SetFrequency accepts one of Frequencies and reports whether it did.
func (w *Wizard) SetFrequency(f Frequency) bool {
	for _, candidate := range Frequencies() {
		if candidate == f {
			w.data.Frequency = f
			return true
		}
	}
	return false
}

// SetContact updates a step five field. Other fields are ignored.
func (w *Wizard) SetContact(field form.Field, value string) {
	switch field {
	case form.FieldName:
		w.data.Name = value
	case form.FieldEmail:
		w.data.Email = value
	case form.FieldPhone:
		w.data.Phone = value
	case form.FieldHoneypot:
		w.data.Honeypot = value
		return
	default:
		return
	}
	w.errors.Clear(field)
}

// Validate checks every field. On failure the wizard moves back to the
// earliest step owning an invalid field.
func (w *Wizard) Validate() form.Result[Data] {
	errs := ValidateData(w.data, w.area)
	if errs.Len() == 0 {
		w.errors = form.Errors{}
		return form.Valid(w.data)
	}
	w.errors = errs.Clone()
	earliest := LastStep
	for _, field := range errs.Fields() {
		if step, ok := owners[field]; ok && step < earliest {
			earliest = step
		}
	}
	if earliest < w.step {
		w.step = earliest
	}
	return form.Invalid[Data](errs)
}

// Reset returns to StepLocation with default values.
func (w *Wizard) Reset() {
	w.step = StepLocation
	w.data = defaultData()
	w.errors = form.Errors{}
}

// ValidateData applies the submit time rules to d.
func ValidateData(d Data, area *validate.ServiceArea) form.Errors {
	if area == nil {
		area = validate.DefaultServiceArea()
	}
	errs := form.Errors{}
	if res := area.Validate(d.ZipCode); !res.Valid {
		errs.Set(form.FieldZipCode, res.Message)
	}
	if res := validate.ServiceType(d.ServiceType); !res.Valid {
		errs.Set(form.FieldServiceType, res.Message)
	}
	if res := validate.Name(d.Name); !res.Valid {
		errs.Set(form.FieldName, res.Message)
	}
	if res := validate.Email(d.Email); !res.Valid {
		errs.Set(form.FieldEmail, res.Message)
	}
	if res := validate.Phone(d.Phone); !res.Valid {
		errs.Set(form.FieldPhone, res.Message)
	}
	return errs
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
