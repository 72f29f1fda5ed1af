package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formguard/internal/prompt"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/quote"
	"github.com/goliatone/go-formguard/pkg/validate"
)

const backOption = "< Back"

func contactCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "contact",
		Short: "Fill in and send the contact form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runContact(cmd.Context())
		},
	}
}

func quoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Walk through the five step quote wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runQuote(cmd.Context())
		},
	}
}

var contactPrompts = []struct {
	field     form.Field
	message   string
	multiline bool
}{
	{field: form.FieldName, message: "Your name"},
	{field: form.FieldEmail, message: "Email"},
	{field: form.FieldPhone, message: "Phone (optional)"},
	{field: form.FieldMessage, message: "How can we help?", multiline: true},
}

func (a *App) runContact(ctx context.Context) error {
	d := a.driver()
	f := a.svc.NewContactForm()

	for _, p := range contactPrompts {
		for {
			var (
				value string
				err   error
			)
			if p.multiline {
				value, err = d.TextArea(ctx, prompt.TextAreaConfig{Message: p.message})
			} else {
				value, err = d.Input(ctx, prompt.InputConfig{Message: p.message})
			}
			if err != nil {
				return err
			}
			f.Set(p.field, value)
			res := f.Check(p.field)
			if res.Valid {
				break
			}
			if err := d.Info(ctx, res.Message); err != nil {
				return err
			}
		}
	}

	send, err := d.Confirm(ctx, prompt.ConfirmConfig{Message: "Send message?", Default: true})
	if err != nil || !send {
		return err
	}
	return a.report(ctx, f.Submit(ctx))
}

func (a *App) runQuote(ctx context.Context) error {
	d := a.driver()
	f := a.svc.NewQuoteForm()

	for {
		var err error
		switch f.Step() {
		case quote.StepLocation:
			err = a.askLocation(ctx, f)
		case quote.StepService:
			err = askChoice(ctx, d, f, "Service type", validate.ServiceTypes(), f.SetServiceType)
		case quote.StepHome:
			err = a.askHome(ctx, f)
		case quote.StepFrequency:
			options := make([]string, 0, len(quote.Frequencies()))
			for _, fr := range quote.Frequencies() {
				options = append(options, string(fr))
			}
			err = askChoice(ctx, d, f, "How often?", options, func(v string) { f.SetFrequency(quote.Frequency(v)) })
		case quote.StepContact:
			done, err := a.askContact(ctx, f)
			if err != nil || done {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if err := a.showErrors(ctx, f.Errors()); err != nil {
			return err
		}
	}
}

func (a *App) askLocation(ctx context.Context, f *quote.Form) error {
	d := a.driver()
	cities := a.svc.Cities()
	options := make([]string, 0, len(cities)+1)
	for _, c := range cities {
		options = append(options, c.Name)
	}
	options = append(options, quote.OtherCity)

	idx, err := d.Select(ctx, prompt.SelectConfig{Message: "Which city?", Options: options})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		return nil
	}
	f.SelectCity(options[idx])
	if options[idx] == quote.OtherCity {
		zip, err := d.Input(ctx, prompt.InputConfig{Message: "ZIP code"})
		if err != nil {
			return err
		}
		f.SetZip(zip)
	}
	f.Advance()
	return nil
}

// askChoice shows options plus a back entry and advances on a pick.
func askChoice(ctx context.Context, d prompt.Driver, f *quote.Form, message string, options []string, set func(string)) error {
	all := append(append([]string{}, options...), backOption)
	idx, err := d.Select(ctx, prompt.SelectConfig{Message: message, Options: all})
	if err != nil {
		return err
	}
	switch {
	case idx == len(options):
		f.Retreat()
	case idx >= 0 && idx < len(options):
		set(options[idx])
		f.Advance()
	}
	return nil
}

func (a *App) askHome(ctx context.Context, f *quote.Form) error {
	d := a.driver()
	data := f.Data()

	bedrooms, back, err := askCount(ctx, d, "Bedrooms", quote.MinBedrooms, quote.MaxBedrooms, data.Bedrooms)
	if err != nil || back {
		if back {
			f.Retreat()
		}
		return err
	}
	bathrooms, back, err := askCount(ctx, d, "Bathrooms", quote.MinBathrooms, quote.MaxBathrooms, data.Bathrooms)
	if err != nil || back {
		if back {
			f.Retreat()
		}
		return err
	}
	f.SetBedrooms(bedrooms)
	f.SetBathrooms(bathrooms)
	f.Advance()
	return nil
}

func askCount(ctx context.Context, d prompt.Driver, message string, lo, hi, current int) (n int, back bool, err error) {
	options := make([]string, 0, hi-lo+2)
	for i := lo; i <= hi; i++ {
		options = append(options, strconv.Itoa(i))
	}
	options = append(options, backOption)

	idx, err := d.Select(ctx, prompt.SelectConfig{Message: message, Options: options, DefaultIndex: current - lo})
	if err != nil {
		return 0, false, err
	}
	if idx == len(options)-1 {
		return 0, true, nil
	}
	if idx < 0 {
		return current, false, nil
	}
	return lo + idx, false, nil
}

// askContact collects step five and submits. done is true once the flow
// should stop.
func (a *App) askContact(ctx context.Context, f *quote.Form) (done bool, err error) {
	d := a.driver()
	data := f.Data()
	fields := []struct {
		field   form.Field
		message string
		current string
	}{
		{form.FieldName, "Your name", data.Name},
		{form.FieldEmail, "Email", data.Email},
		{form.FieldPhone, "Phone (optional)", data.Phone},
	}
	for _, fl := range fields {
		value, err := d.Input(ctx, prompt.InputConfig{Message: fl.message, Default: fl.current})
		if err != nil {
			return false, err
		}
		f.SetContact(fl.field, value)
	}

	submit, err := d.Confirm(ctx, prompt.ConfirmConfig{Message: "Get my quote?", Default: true})
	if err != nil {
		return false, err
	}
	if !submit {
		f.Retreat()
		return false, nil
	}

	out := f.Submit(ctx)
	if err := a.report(ctx, out); err != nil {
		return false, err
	}
	switch out.Status {
	case form.StatusInvalid:
		return false, nil
	case form.StatusSucceeded:
		if conf, ok := f.Confirmation(); ok {
			return true, d.Info(ctx, fmt.Sprintf("Book a time now: %s", conf.BookingURL))
		}
	case form.StatusFailed:
		if link, ok := f.Fallback(); ok {
			return true, d.Info(ctx, fmt.Sprintf("Send it by email instead: %s", link))
		}
	}
	return true, nil
}

// report prints the outcome message and any field errors.
func (a *App) report(ctx context.Context, out form.Outcome) error {
	a.log.Info("form submitted", "status", string(out.Status))
	if out.Message != "" {
		if err := a.driver().Info(ctx, out.Message); err != nil {
			return err
		}
	}
	return a.showErrors(ctx, out.Errors)
}

func (a *App) showErrors(ctx context.Context, errs form.Errors) error {
	for _, field := range errs.Fields() {
		if err := a.driver().Info(ctx, fmt.Sprintf("%s: %s", field, errs.Get(field))); err != nil {
			return err
		}
	}
	return nil
}
